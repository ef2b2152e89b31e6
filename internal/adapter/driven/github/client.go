// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/mwarner/repodash/internal/domain/model"
	"github.com/mwarner/repodash/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port using the go-github library.
type Client struct {
	gh       *gh.Client
	pageSize int
}

// NewClient creates a GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client)
//
// An empty token produces an anonymous client, which operates under GitHub's
// lower unauthenticated rate limit.
func NewClient(token string, pageSize int) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)

	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Client{
		gh:       client,
		pageSize: pageSize,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string, pageSize int) (*Client, error) {
	client := gh.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{
		gh:       client,
		pageSize: pageSize,
	}, nil
}

// rateLimitFrom extracts the caller's rate-limit budget from a response.
// Returns the zero value when no response was received.
func rateLimitFrom(resp *gh.Response) model.RateLimit {
	if resp == nil {
		return model.RateLimit{}
	}

	rl := model.RateLimit{
		Limit:     resp.Rate.Limit,
		Remaining: resp.Rate.Remaining,
		Reset:     resp.Rate.Reset.Time,
	}

	if used := resp.Header.Get("X-Ratelimit-Used"); used != "" {
		if n, err := strconv.Atoi(used); err == nil {
			rl.Used = n
		}
	} else if rl.Limit > 0 {
		rl.Used = rl.Limit - rl.Remaining
	}

	return rl
}

// classify converts a go-github error into a *model.APIError. This is the
// single place raw HTTP status codes are interpreted; everything above this
// layer reasons about error kinds only.
func classify(op string, resp *gh.Response, err error) *model.APIError {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &model.APIError{
			Kind:       model.KindRateLimited,
			StatusCode: http.StatusForbidden,
			Message:    fmt.Sprintf("%s: rate limit exceeded", op),
			Reset:      rateErr.Rate.Reset.Time,
			Err:        err,
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		reset := time.Now()
		if abuseErr.RetryAfter != nil {
			reset = reset.Add(*abuseErr.RetryAfter)
		}
		return &model.APIError{
			Kind:       model.KindRateLimited,
			StatusCode: http.StatusForbidden,
			Message:    fmt.Sprintf("%s: secondary rate limit exceeded", op),
			Reset:      reset,
			Err:        err,
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		status := ghErr.Response.StatusCode

		switch {
		case status == http.StatusUnauthorized:
			return &model.APIError{
				Kind:       model.KindInvalidCredential,
				StatusCode: status,
				Message:    fmt.Sprintf("%s: bad credentials", op),
				Err:        err,
			}
		case status == http.StatusForbidden && resp != nil && resp.Rate.Remaining == 0:
			return &model.APIError{
				Kind:       model.KindRateLimited,
				StatusCode: status,
				Message:    fmt.Sprintf("%s: rate limit exceeded", op),
				Reset:      resp.Rate.Reset.Time,
				Err:        err,
			}
		case status == http.StatusNotFound:
			return &model.APIError{
				Kind:       model.KindNotFound,
				StatusCode: status,
				Message:    fmt.Sprintf("%s: not found", op),
				Err:        err,
			}
		default:
			return &model.APIError{
				Kind:       model.KindUpstreamError,
				StatusCode: status,
				Message:    fmt.Sprintf("%s: %s", op, ghErr.Message),
				Err:        err,
			}
		}
	}

	// A response arrived but go-github could not make sense of it, for
	// example a structurally unexpected payload on a 200.
	if resp != nil && resp.Response != nil {
		return &model.APIError{
			Kind:       model.KindUpstreamError,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s: %v", op, err),
			Err:        err,
		}
	}

	return &model.APIError{
		Kind:    model.KindTransportError,
		Message: fmt.Sprintf("%s: %v", op, err),
		Err:     err,
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
