// Package driven defines the outbound ports of the application core.
package driven

import (
	"context"

	"github.com/mwarner/repodash/internal/domain/model"
)

// GitHubClient is the driven port for reading repository status data from
// the GitHub API. Every method returns the rate-limit budget parsed from the
// response headers so callers can surface the remaining budget even on
// failure. All failures are classified as *model.APIError by the adapter;
// none of the methods retries.
//
// Listing methods return a single page of results. Callers that need more
// must ask for it explicitly, which no caller in this codebase does.
type GitHubClient interface {
	// ListRepositories returns the repositories owned by username, most
	// recently updated first.
	ListRepositories(ctx context.Context, username string) ([]model.Repository, model.RateLimit, error)

	// ListWorkflowRuns returns workflow runs for the repository, newest
	// first. When branch is non-empty, only runs on that branch are returned.
	ListWorkflowRuns(ctx context.Context, owner, repo, branch string) ([]model.WorkflowRun, model.RateLimit, error)

	// ListReleases returns the repository's releases, newest first,
	// including drafts and prereleases.
	ListReleases(ctx context.Context, owner, repo string) ([]model.Release, model.RateLimit, error)

	// LatestCommit returns the most recent commit on the repository's
	// default branch, or nil when the repository has no commits.
	LatestCommit(ctx context.Context, owner, repo string) (*model.Commit, model.RateLimit, error)

	// CountOpenPullRequests returns the number of open pull requests.
	CountOpenPullRequests(ctx context.Context, owner, repo string) (int, model.RateLimit, error)
}
