// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken      string
	ListenAddr       string
	FetchConcurrency int
	PageSize         int
	RequestTimeout   time.Duration
}

// Load reads configuration from environment variables and returns a validated
// Config. The GitHub token (REPODASH_GITHUB_TOKEN) is optional; without it the
// server works anonymously under GitHub's lower rate limit, and the token
// enable/disable endpoint reports that no environment token is present.
// Optional variables with defaults: REPODASH_LISTEN_ADDR (127.0.0.1:8080),
// REPODASH_FETCH_CONCURRENCY (4), REPODASH_PAGE_SIZE (30, max 100),
// REPODASH_REQUEST_TIMEOUT (30s).
func Load() (*Config, error) {
	token := os.Getenv("REPODASH_GITHUB_TOKEN")

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("REPODASH_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	concurrency := 4
	if v, ok := os.LookupEnv("REPODASH_FETCH_CONCURRENCY"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("REPODASH_FETCH_CONCURRENCY has invalid value %q: expected positive integer", v)
		}
		concurrency = parsed
	}

	pageSize := 30
	if v, ok := os.LookupEnv("REPODASH_PAGE_SIZE"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 100 {
			return nil, fmt.Errorf("REPODASH_PAGE_SIZE has invalid value %q: expected integer between 1 and 100", v)
		}
		pageSize = parsed
	}

	requestTimeout := 30 * time.Second
	if v, ok := os.LookupEnv("REPODASH_REQUEST_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("REPODASH_REQUEST_TIMEOUT has invalid duration %q", v)
		}
		requestTimeout = parsed
	}

	return &Config{
		GitHubToken:      token,
		ListenAddr:       listenAddr,
		FetchConcurrency: concurrency,
		PageSize:         pageSize,
		RequestTimeout:   requestTimeout,
	}, nil
}
