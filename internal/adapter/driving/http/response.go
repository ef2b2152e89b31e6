package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mwarner/repodash/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeErrorKind writes a JSON error response carrying the failure kind so
// clients can react to specific failures without parsing message text.
func writeErrorKind(w http.ResponseWriter, status int, kind model.ErrorKind, message string) {
	writeJSON(w, status, errorResponse{Error: message, Kind: string(kind)})
}

// errorResponse is the standard error response body. Reset is the epoch
// second the rate limit resets at; present only for rate-limited failures.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Reset int64  `json:"reset,omitempty"`
}

// ReposResponse is the body of GET /api/repos.
type ReposResponse struct {
	Repos     []RepoStatusResponse `json:"repos"`
	RateLimit RateLimitResponse    `json:"rate_limit"`
}

// RepoStatusResponse is the JSON representation of one repository's
// aggregated status. Nullable fields are null when the related resource is
// absent or its fetch was degraded.
type RepoStatusResponse struct {
	Repo             RepoResponse         `json:"repo"`
	MainWorkflowRun  *WorkflowRunResponse `json:"main_workflow_run"`
	LatestRelease    *ReleaseResponse     `json:"latest_release"`
	LatestCommit     *CommitResponse      `json:"latest_commit"`
	OpenPullRequests int                  `json:"open_pull_requests"`
	BuildStatus      string               `json:"build_status"`
}

// RepoResponse is the JSON representation of a repository snapshot.
type RepoResponse struct {
	ID            int64  `json:"id"`
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	URL           string `json:"url"`
	DefaultBranch string `json:"default_branch"`
	Visibility    string `json:"visibility"`
	Language      string `json:"language"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
	PushedAt      string `json:"pushed_at"`
	Stars         int    `json:"stars"`
	Forks         int    `json:"forks"`
	OpenIssues    int    `json:"open_issues"`
}

// WorkflowRunResponse is the JSON representation of the main workflow run.
type WorkflowRunResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	HeadBranch   string `json:"head_branch"`
	HeadSHA      string `json:"head_sha"`
	Status       string `json:"status"`
	Conclusion   string `json:"conclusion,omitempty"`
	Event        string `json:"event"`
	Actor        string `json:"actor"`
	URL          string `json:"url"`
	RunStartedAt string `json:"run_started_at"`
	UpdatedAt    string `json:"updated_at"`
}

// ReleaseResponse is the JSON representation of the latest release.
type ReleaseResponse struct {
	ID          int64  `json:"id"`
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	Author      string `json:"author"`
	URL         string `json:"url"`
	Prerelease  bool   `json:"prerelease"`
	PublishedAt string `json:"published_at"`
}

// CommitResponse is the JSON representation of the latest default-branch commit.
type CommitResponse struct {
	SHA         string `json:"sha"`
	Message     string `json:"message"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	AuthorDate  string `json:"author_date"`
	Login       string `json:"login,omitempty"`
	URL         string `json:"url"`
}

// RateLimitResponse reports the caller's remaining API budget. Reset is
// epoch seconds.
type RateLimitResponse struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Used      int   `json:"used"`
	Reset     int64 `json:"reset"`
}

// TokenStatusResponse is the body of GET /api/token.
type TokenStatusResponse struct {
	Enabled    bool `json:"enabled"`
	EnvPresent bool `json:"env_present"`
}

// TokenUpdateRequest is the JSON body for POST /api/token.
type TokenUpdateRequest struct {
	Action string `json:"action"`
}

// TokenUpdateResponse is the body of POST /api/token.
type TokenUpdateResponse struct {
	Success    bool   `json:"success"`
	Enabled    bool   `json:"enabled"`
	EnvPresent bool   `json:"env_present"`
	Message    string `json:"message,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toRepoStatusResponse converts a domain RepoStatus to its JSON representation.
func toRepoStatusResponse(status model.RepoStatus) RepoStatusResponse {
	resp := RepoStatusResponse{
		Repo:             toRepoResponse(status.Repo),
		OpenPullRequests: status.OpenPullRequests,
		BuildStatus:      string(status.BuildStatus),
	}

	if status.MainWorkflowRun != nil {
		run := toWorkflowRunResponse(*status.MainWorkflowRun)
		resp.MainWorkflowRun = &run
	}
	if status.LatestRelease != nil {
		release := toReleaseResponse(*status.LatestRelease)
		resp.LatestRelease = &release
	}
	if status.LatestCommit != nil {
		commit := toCommitResponse(*status.LatestCommit)
		resp.LatestCommit = &commit
	}

	return resp
}

// toRepoResponse converts a domain Repository to its JSON representation.
func toRepoResponse(repo model.Repository) RepoResponse {
	return RepoResponse{
		ID:            repo.ID,
		Owner:         repo.Owner,
		Name:          repo.Name,
		FullName:      repo.FullName,
		Description:   repo.Description,
		URL:           repo.URL,
		DefaultBranch: repo.DefaultBranch,
		Visibility:    repo.Visibility,
		Language:      repo.Language,
		CreatedAt:     formatTime(repo.CreatedAt),
		UpdatedAt:     formatTime(repo.UpdatedAt),
		PushedAt:      formatTime(repo.PushedAt),
		Stars:         repo.Stars,
		Forks:         repo.Forks,
		OpenIssues:    repo.OpenIssues,
	}
}

// toWorkflowRunResponse converts a domain WorkflowRun to its JSON representation.
func toWorkflowRunResponse(run model.WorkflowRun) WorkflowRunResponse {
	return WorkflowRunResponse{
		ID:           run.ID,
		Name:         run.Name,
		HeadBranch:   run.HeadBranch,
		HeadSHA:      run.HeadSHA,
		Status:       string(run.Status),
		Conclusion:   string(run.Conclusion),
		Event:        run.Event,
		Actor:        run.Actor,
		URL:          run.URL,
		RunStartedAt: formatTime(run.RunStartedAt),
		UpdatedAt:    formatTime(run.UpdatedAt),
	}
}

// toReleaseResponse converts a domain Release to its JSON representation.
func toReleaseResponse(release model.Release) ReleaseResponse {
	return ReleaseResponse{
		ID:          release.ID,
		TagName:     release.TagName,
		Name:        release.Name,
		Author:      release.Author,
		URL:         release.URL,
		Prerelease:  release.Prerelease,
		PublishedAt: formatTime(release.PublishedAt),
	}
}

// toCommitResponse converts a domain Commit to its JSON representation.
func toCommitResponse(commit model.Commit) CommitResponse {
	return CommitResponse{
		SHA:         commit.SHA,
		Message:     commit.Message,
		AuthorName:  commit.AuthorName,
		AuthorEmail: commit.AuthorEmail,
		AuthorDate:  formatTime(commit.AuthorDate),
		Login:       commit.Login,
		URL:         commit.URL,
	}
}

// toRateLimitResponse converts a domain RateLimit to its JSON representation.
func toRateLimitResponse(rl model.RateLimit) RateLimitResponse {
	var reset int64
	if !rl.Reset.IsZero() {
		reset = rl.Reset.Unix()
	}

	return RateLimitResponse{
		Limit:     rl.Limit,
		Remaining: rl.Remaining,
		Used:      rl.Used,
		Reset:     reset,
	}
}

// formatTime renders a timestamp as RFC3339 UTC, or empty for the zero value.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
