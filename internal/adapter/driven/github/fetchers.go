package github

import (
	"context"
	"net/http"

	gh "github.com/google/go-github/v82/github"

	"github.com/mwarner/repodash/internal/domain/model"
)

// ListRepositories returns a single page of repositories owned by username,
// most recently updated first.
func (c *Client) ListRepositories(ctx context.Context, username string) ([]model.Repository, model.RateLimit, error) {
	opts := &gh.RepositoryListByUserOptions{
		Sort:      "updated",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			PerPage: c.pageSize,
		},
	}

	repos, resp, err := c.gh.Repositories.ListByUser(ctx, username, opts)
	rl := rateLimitFrom(resp)
	if err != nil {
		return nil, rl, classify("listing repositories for "+username, resp, err)
	}

	logRateLimit(resp, username+"/repos", len(repos))

	result := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		result = append(result, mapRepository(r))
	}

	return result, rl, nil
}

// ListWorkflowRuns returns a single page of workflow runs for the repository,
// newest first. A non-empty branch restricts results server-side.
func (c *Client) ListWorkflowRuns(ctx context.Context, owner, repo, branch string) ([]model.WorkflowRun, model.RateLimit, error) {
	opts := &gh.ListWorkflowRunsOptions{
		Branch: branch,
		ListOptions: gh.ListOptions{
			PerPage: c.pageSize,
		},
	}

	runs, resp, err := c.gh.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo, opts)
	rl := rateLimitFrom(resp)
	if err != nil {
		return nil, rl, classify("listing workflow runs for "+owner+"/"+repo, resp, err)
	}

	logRateLimit(resp, owner+"/"+repo+"/runs", len(runs.WorkflowRuns))

	result := make([]model.WorkflowRun, 0, len(runs.WorkflowRuns))
	for _, run := range runs.WorkflowRuns {
		result = append(result, mapWorkflowRun(run))
	}

	return result, rl, nil
}

// ListReleases returns a single page of the repository's releases, newest
// first, including drafts and prereleases. Filtering is the caller's policy.
func (c *Client) ListReleases(ctx context.Context, owner, repo string) ([]model.Release, model.RateLimit, error) {
	opts := &gh.ListOptions{PerPage: c.pageSize}

	releases, resp, err := c.gh.Repositories.ListReleases(ctx, owner, repo, opts)
	rl := rateLimitFrom(resp)
	if err != nil {
		return nil, rl, classify("listing releases for "+owner+"/"+repo, resp, err)
	}

	logRateLimit(resp, owner+"/"+repo+"/releases", len(releases))

	result := make([]model.Release, 0, len(releases))
	for _, r := range releases {
		result = append(result, mapRelease(r))
	}

	return result, rl, nil
}

// LatestCommit returns the most recent commit on the repository's default
// branch, or nil when the repository has no commits yet (GitHub answers 409
// for an empty repository, which is absence, not failure).
func (c *Client) LatestCommit(ctx context.Context, owner, repo string) (*model.Commit, model.RateLimit, error) {
	opts := &gh.CommitsListOptions{
		ListOptions: gh.ListOptions{PerPage: 1},
	}

	commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
	rl := rateLimitFrom(resp)
	if err != nil {
		apiErr := classify("listing commits for "+owner+"/"+repo, resp, err)
		if apiErr.StatusCode == http.StatusConflict {
			return nil, rl, nil
		}
		return nil, rl, apiErr
	}

	logRateLimit(resp, owner+"/"+repo+"/commits", len(commits))

	if len(commits) == 0 {
		return nil, rl, nil
	}

	commit := mapCommit(commits[0])
	return &commit, rl, nil
}

// CountOpenPullRequests returns the number of open pull requests visible on a
// single page of the list endpoint.
func (c *Client) CountOpenPullRequests(ctx context.Context, owner, repo string) (int, model.RateLimit, error) {
	opts := &gh.PullRequestListOptions{
		State: "open",
		ListOptions: gh.ListOptions{
			PerPage: c.pageSize,
		},
	}

	prs, resp, err := c.gh.PullRequests.List(ctx, owner, repo, opts)
	rl := rateLimitFrom(resp)
	if err != nil {
		return 0, rl, classify("listing pull requests for "+owner+"/"+repo, resp, err)
	}

	logRateLimit(resp, owner+"/"+repo+"/pulls", len(prs))

	return len(prs), rl, nil
}

// mapRepository converts a go-github Repository to a domain model Repository.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapRepository(r *gh.Repository) model.Repository {
	return model.Repository{
		ID:            r.GetID(),
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		URL:           r.GetHTMLURL(),
		DefaultBranch: r.GetDefaultBranch(),
		Visibility:    r.GetVisibility(),
		Language:      r.GetLanguage(),
		CreatedAt:     r.GetCreatedAt().Time,
		UpdatedAt:     r.GetUpdatedAt().Time,
		PushedAt:      r.GetPushedAt().Time,
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		OpenIssues:    r.GetOpenIssuesCount(),
	}
}

// mapWorkflowRun converts a go-github WorkflowRun to a domain model WorkflowRun.
func mapWorkflowRun(run *gh.WorkflowRun) model.WorkflowRun {
	return model.WorkflowRun{
		ID:           run.GetID(),
		Name:         run.GetName(),
		HeadBranch:   run.GetHeadBranch(),
		HeadSHA:      run.GetHeadSHA(),
		Status:       model.RunStatus(run.GetStatus()),
		Conclusion:   model.RunConclusion(run.GetConclusion()),
		Event:        run.GetEvent(),
		Actor:        run.GetActor().GetLogin(),
		URL:          run.GetHTMLURL(),
		RunStartedAt: run.GetRunStartedAt().Time,
		UpdatedAt:    run.GetUpdatedAt().Time,
	}
}

// mapRelease converts a go-github RepositoryRelease to a domain model Release.
func mapRelease(r *gh.RepositoryRelease) model.Release {
	return model.Release{
		ID:          r.GetID(),
		TagName:     r.GetTagName(),
		Name:        r.GetName(),
		Author:      r.GetAuthor().GetLogin(),
		URL:         r.GetHTMLURL(),
		Draft:       r.GetDraft(),
		Prerelease:  r.GetPrerelease(),
		PublishedAt: r.GetPublishedAt().Time,
	}
}

// mapCommit converts a go-github RepositoryCommit to a domain model Commit.
// The commit author (name/email/date) comes from git; Login is only set when
// GitHub resolved the commit to a platform account.
func mapCommit(c *gh.RepositoryCommit) model.Commit {
	return model.Commit{
		SHA:         c.GetSHA(),
		Message:     c.GetCommit().GetMessage(),
		AuthorName:  c.GetCommit().GetAuthor().GetName(),
		AuthorEmail: c.GetCommit().GetAuthor().GetEmail(),
		AuthorDate:  c.GetCommit().GetAuthor().GetDate().Time,
		Login:       c.GetAuthor().GetLogin(),
		URL:         c.GetHTMLURL(),
	}
}
