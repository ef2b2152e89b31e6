package httphandler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/mwarner/repodash/internal/adapter/driving/http"
	"github.com/mwarner/repodash/internal/application"
	"github.com/mwarner/repodash/internal/domain/model"
	"github.com/mwarner/repodash/internal/domain/port/driven"
)

// --- Mock GitHub client ---

type mockClient struct {
	mu    sync.Mutex
	calls int

	repos    []model.Repository
	reposErr error

	runs    map[string][]model.WorkflowRun
	runsErr map[string]error

	prCounts map[string]int

	rl model.RateLimit
}

func (m *mockClient) observe() model.RateLimit {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.rl
}

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockClient) ListRepositories(_ context.Context, _ string) ([]model.Repository, model.RateLimit, error) {
	rl := m.observe()
	if m.reposErr != nil {
		return nil, rl, m.reposErr
	}
	return m.repos, rl, nil
}

func (m *mockClient) ListWorkflowRuns(_ context.Context, _, repo, _ string) ([]model.WorkflowRun, model.RateLimit, error) {
	rl := m.observe()
	if err := m.runsErr[repo]; err != nil {
		return nil, rl, err
	}
	return m.runs[repo], rl, nil
}

func (m *mockClient) ListReleases(_ context.Context, _, _ string) ([]model.Release, model.RateLimit, error) {
	return nil, m.observe(), nil
}

func (m *mockClient) LatestCommit(_ context.Context, _, _ string) (*model.Commit, model.RateLimit, error) {
	return nil, m.observe(), nil
}

func (m *mockClient) CountOpenPullRequests(_ context.Context, _, repo string) (int, model.RateLimit, error) {
	return m.prCounts[repo], m.observe(), nil
}

// --- Test fixture ---

type fixture struct {
	client *mockClient
	tokens *application.TokenManager
	mux    http.Handler

	mu        sync.Mutex
	requested []string // Tokens the client factory was asked for.
}

func newFixture(t *testing.T, envToken string, client *mockClient) *fixture {
	t.Helper()

	f := &fixture{client: client}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f.tokens = application.NewTokenManager(envToken)
	cache := application.NewClientCache(func(token string) driven.GitHubClient {
		f.mu.Lock()
		f.requested = append(f.requested, token)
		f.mu.Unlock()
		return client
	})

	statusSvc := application.NewStatusService(cache, 2, logger)
	handler := httphandler.NewHandler(statusSvc, f.tokens, 5*time.Second, logger)
	f.mux = httphandler.NewServeMux(handler, logger)

	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) requestedTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requested...)
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func testRepo(name string) model.Repository {
	return model.Repository{
		ID:            1,
		Owner:         "octocat",
		Name:          name,
		FullName:      "octocat/" + name,
		DefaultBranch: "main",
	}
}

// --- GET /api/repos ---

func TestGetRepos_MissingUsernameReturns400WithoutUpstreamCalls(t *testing.T) {
	f := newFixture(t, "", &mockClient{})

	for _, target := range []string{"/api/repos", "/api/repos?username=", "/api/repos?username=%20%20"} {
		rec := f.do(t, http.MethodGet, target, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	assert.Equal(t, 0, f.client.callCount(), "validation failures must not reach the upstream API")
	assert.Empty(t, f.requestedTokens())
}

func TestGetRepos_Success(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	client := &mockClient{
		repos: []model.Repository{testRepo("web"), testRepo("cli")},
		runs: map[string][]model.WorkflowRun{
			"web": {{ID: 5, HeadBranch: "main", Status: model.RunStatusCompleted, Conclusion: model.RunConclusionSuccess, RunStartedAt: started}},
		},
		prCounts: map[string]int{"web": 4},
		rl:       model.RateLimit{Limit: 5000, Remaining: 4321, Used: 679, Reset: started.Add(time.Hour)},
	}

	f := newFixture(t, "", client)
	rec := f.do(t, http.MethodGet, "/api/repos?username=octocat", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	resp := decodeJSON[httphandler.ReposResponse](t, rec)
	require.Len(t, resp.Repos, 2)

	assert.Equal(t, "octocat/web", resp.Repos[0].Repo.FullName)
	assert.Equal(t, "passing", resp.Repos[0].BuildStatus)
	require.NotNil(t, resp.Repos[0].MainWorkflowRun)
	assert.Equal(t, "success", resp.Repos[0].MainWorkflowRun.Conclusion)
	assert.Equal(t, 4, resp.Repos[0].OpenPullRequests)

	assert.Equal(t, "octocat/cli", resp.Repos[1].Repo.FullName)
	assert.Equal(t, "unknown", resp.Repos[1].BuildStatus)
	assert.Nil(t, resp.Repos[1].MainWorkflowRun)
	assert.Nil(t, resp.Repos[1].LatestRelease)
	assert.Nil(t, resp.Repos[1].LatestCommit)

	assert.Equal(t, 4321, resp.RateLimit.Remaining)
	assert.Equal(t, started.Add(time.Hour).Unix(), resp.RateLimit.Reset)
}

func TestGetRepos_InvalidCredentialReturns401(t *testing.T) {
	client := &mockClient{
		reposErr: &model.APIError{Kind: model.KindInvalidCredential, StatusCode: http.StatusUnauthorized, Message: "bad credentials"},
	}

	f := newFixture(t, "", client)
	rec := f.do(t, http.MethodGet, "/api/repos?username=octocat&token=bogus", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeJSON[map[string]any](t, rec)
	assert.Equal(t, "invalid_credential", body["kind"])
}

func TestGetRepos_RateLimitedCarriesResetTime(t *testing.T) {
	reset := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	client := &mockClient{
		reposErr: &model.APIError{Kind: model.KindRateLimited, Message: "rate limit exceeded", Reset: reset},
	}

	f := newFixture(t, "", client)
	rec := f.do(t, http.MethodGet, "/api/repos?username=octocat", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeJSON[map[string]any](t, rec)
	assert.Equal(t, "rate_limited", body["kind"])
	assert.Equal(t, float64(reset.Unix()), body["reset"])
}

func TestGetRepos_SubFetchNotFoundStillSucceeds(t *testing.T) {
	client := &mockClient{
		repos:   []model.Repository{testRepo("old")},
		runsErr: map[string]error{"old": &model.APIError{Kind: model.KindNotFound, StatusCode: http.StatusNotFound, Message: "no workflows"}},
	}

	f := newFixture(t, "", client)
	rec := f.do(t, http.MethodGet, "/api/repos?username=octocat", "")

	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeJSON[httphandler.ReposResponse](t, rec)
	require.Len(t, resp.Repos, 1)
	assert.Nil(t, resp.Repos[0].MainWorkflowRun)
	assert.Equal(t, "unknown", resp.Repos[0].BuildStatus)
}

func TestGetRepos_SubFetchInvalidCredentialFailsWholeCall(t *testing.T) {
	client := &mockClient{
		repos:   []model.Repository{testRepo("one"), testRepo("two")},
		runsErr: map[string]error{"two": &model.APIError{Kind: model.KindInvalidCredential, StatusCode: http.StatusUnauthorized, Message: "bad credentials"}},
	}

	f := newFixture(t, "", client)
	rec := f.do(t, http.MethodGet, "/api/repos?username=octocat", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetRepos_CredentialPrecedence(t *testing.T) {
	client := &mockClient{}

	t.Run("explicit token wins over enabled env token", func(t *testing.T) {
		f := newFixture(t, "env-token", client)

		f.do(t, http.MethodGet, "/api/repos?username=octocat&token=query-token", "")

		assert.Equal(t, []string{"query-token"}, f.requestedTokens())
	})

	t.Run("enabled env token used without explicit token", func(t *testing.T) {
		f := newFixture(t, "env-token", client)

		f.do(t, http.MethodGet, "/api/repos?username=octocat", "")

		assert.Equal(t, []string{"env-token"}, f.requestedTokens())
	})

	t.Run("disabled env token falls back to anonymous", func(t *testing.T) {
		f := newFixture(t, "env-token", client)
		f.tokens.Disable()

		f.do(t, http.MethodGet, "/api/repos?username=octocat", "")

		assert.Equal(t, []string{""}, f.requestedTokens())
	})
}

// --- Token endpoints ---

func TestGetTokenStatus(t *testing.T) {
	f := newFixture(t, "env-token", &mockClient{})

	rec := f.do(t, http.MethodGet, "/api/token", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON[httphandler.TokenStatusResponse](t, rec)
	assert.True(t, resp.Enabled)
	assert.True(t, resp.EnvPresent)
}

func TestUpdateToken_DisableThenEnable(t *testing.T) {
	f := newFixture(t, "env-token", &mockClient{})

	rec := f.do(t, http.MethodPost, "/api/token", `{"action":"disable"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON[httphandler.TokenUpdateResponse](t, rec)
	assert.True(t, resp.Success)
	assert.False(t, resp.Enabled)
	assert.True(t, resp.EnvPresent)

	rec = f.do(t, http.MethodPost, "/api/token", `{"action":"enable"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeJSON[httphandler.TokenUpdateResponse](t, rec)
	assert.True(t, resp.Success)
	assert.True(t, resp.Enabled)
}

func TestUpdateToken_EnableWithoutEnvTokenReportsFailure(t *testing.T) {
	f := newFixture(t, "", &mockClient{})

	rec := f.do(t, http.MethodPost, "/api/token", `{"action":"enable"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON[httphandler.TokenUpdateResponse](t, rec)
	assert.False(t, resp.Success)
	assert.False(t, resp.Enabled)
	assert.False(t, resp.EnvPresent)
	assert.NotEmpty(t, resp.Message)
}

func TestUpdateToken_BadRequests(t *testing.T) {
	f := newFixture(t, "env-token", &mockClient{})

	tests := []struct {
		name string
		body string
	}{
		{"unknown action", `{"action":"rotate"}`},
		{"empty action", `{"action":""}`},
		{"malformed body", `{"action":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/token", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	// State untouched by rejected requests.
	assert.True(t, f.tokens.IsEnabled())
}

// --- Health ---

func TestHealth(t *testing.T) {
	f := newFixture(t, "", &mockClient{})

	rec := f.do(t, http.MethodGet, "/api/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON[httphandler.HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Time)
}
