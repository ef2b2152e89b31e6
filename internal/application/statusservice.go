package application

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mwarner/repodash/internal/domain/model"
	"github.com/mwarner/repodash/internal/domain/port/driven"
)

// StatusService aggregates per-repository status: the main workflow run,
// latest release, latest default-branch commit, and open pull request count,
// plus a derived build-status classification.
type StatusService struct {
	clients     *ClientCache
	concurrency int
	logger      *slog.Logger
}

// NewStatusService creates a StatusService. concurrency bounds how many
// repositories are processed at once; the GitHub rate limit is hourly, so an
// unbounded fan-out over a large repository list could burn through it in
// seconds.
func NewStatusService(clients *ClientCache, concurrency int, logger *slog.Logger) *StatusService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &StatusService{
		clients:     clients,
		concurrency: concurrency,
		logger:      logger,
	}
}

// rateLimitHolder keeps the most recently observed rate-limit budget of an
// aggregation pass. Last write wins; the value is an approximation of the
// caller's remaining budget, not a transactional snapshot.
type rateLimitHolder struct {
	mu   sync.Mutex
	last model.RateLimit
}

func (h *rateLimitHolder) observe(rl model.RateLimit) {
	if rl.IsZero() {
		return
	}
	h.mu.Lock()
	h.last = rl
	h.mu.Unlock()
}

func (h *rateLimitHolder) snapshot() model.RateLimit {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Aggregate lists the repositories of username and assembles one RepoStatus
// per repository, preserving the order the list endpoint returned them in.
//
// Per-repository sub-fetch failures degrade the affected field and the pass
// continues, except invalid-credential and rate-limited failures, which
// cancel the remaining work and fail the whole call: continuing under those
// conditions would be misleading or wasteful.
func (s *StatusService) Aggregate(ctx context.Context, username, token string) ([]model.RepoStatus, model.RateLimit, error) {
	client := s.clients.Get(token)
	holder := &rateLimitHolder{}

	repos, rl, err := client.ListRepositories(ctx, username)
	holder.observe(rl)
	if err != nil {
		return nil, holder.snapshot(), err
	}

	statuses := make([]model.RepoStatus, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, repo := range repos {
		g.Go(func() error {
			status, err := s.fetchRepoStatus(gctx, client, repo, holder)
			if err != nil {
				return err
			}
			statuses[i] = status
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, holder.snapshot(), err
	}

	// A cancelled caller degrades every remaining sub-fetch; report the
	// cancellation instead of a misleadingly hollow result.
	if err := ctx.Err(); err != nil {
		return nil, holder.snapshot(), err
	}

	return statuses, holder.snapshot(), nil
}

// fetchRepoStatus issues the four sub-fetches for one repository
// concurrently and waits for all of them before assembling the record, so
// no partially-written status ever escapes. It returns an error only for
// fatal failure kinds.
func (s *StatusService) fetchRepoStatus(ctx context.Context, client driven.GitHubClient, repo model.Repository, holder *rateLimitHolder) (model.RepoStatus, error) {
	var (
		runs     []model.WorkflowRun
		releases []model.Release
		commit   *model.Commit
		prCount  int

		mu       sync.Mutex
		fatalErr error
	)

	// settle absorbs a degradable sub-fetch failure and records a fatal one.
	// First fatal error wins.
	settle := func(field string, err error) {
		if err == nil {
			return
		}
		if isFatal(err) {
			mu.Lock()
			if fatalErr == nil {
				fatalErr = err
			}
			mu.Unlock()
			return
		}
		s.logger.Warn("sub-fetch degraded",
			"repo", repo.FullName,
			"field", field,
			"error", err,
		)
	}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		r, rl, err := client.ListWorkflowRuns(ctx, repo.Owner, repo.Name, repo.DefaultBranch)
		holder.observe(rl)
		settle("workflow_runs", err)
		runs = r
	}()

	go func() {
		defer wg.Done()
		r, rl, err := client.ListReleases(ctx, repo.Owner, repo.Name)
		holder.observe(rl)
		settle("releases", err)
		releases = r
	}()

	go func() {
		defer wg.Done()
		c, rl, err := client.LatestCommit(ctx, repo.Owner, repo.Name)
		holder.observe(rl)
		settle("latest_commit", err)
		commit = c
	}()

	go func() {
		defer wg.Done()
		n, rl, err := client.CountOpenPullRequests(ctx, repo.Owner, repo.Name)
		holder.observe(rl)
		settle("open_pull_requests", err)
		prCount = n
	}()

	wg.Wait()

	if fatalErr != nil {
		return model.RepoStatus{}, fatalErr
	}

	mainRun := selectMainRun(runs, repo.DefaultBranch)

	return model.RepoStatus{
		Repo:             repo,
		MainWorkflowRun:  mainRun,
		LatestRelease:    selectLatestRelease(releases),
		LatestCommit:     commit,
		OpenPullRequests: prCount,
		BuildStatus:      deriveBuildStatus(mainRun),
	}, nil
}

// isFatal reports whether a sub-fetch failure must abort the whole
// aggregation rather than degrade a single field.
func isFatal(err error) bool {
	switch model.KindOf(err) {
	case model.KindInvalidCredential, model.KindRateLimited:
		return true
	}
	return false
}

// selectMainRun picks the run considered representative of the repository's
// build health: runs on the default branch are preferred, newest
// run_started_at wins. Returns nil when no runs exist.
func selectMainRun(runs []model.WorkflowRun, defaultBranch string) *model.WorkflowRun {
	var main *model.WorkflowRun

	for i := range runs {
		run := &runs[i]
		if defaultBranch != "" && run.HeadBranch != defaultBranch {
			continue
		}
		if main == nil || run.RunStartedAt.After(main.RunStartedAt) {
			main = run
		}
	}

	if main == nil {
		// No run on the default branch; fall back to the newest run overall.
		for i := range runs {
			run := &runs[i]
			if main == nil || run.RunStartedAt.After(main.RunStartedAt) {
				main = run
			}
		}
	}

	return main
}

// selectLatestRelease picks the most recently published non-draft release.
// Prereleases count; drafts never do. Returns nil when every release is a
// draft or none exist.
func selectLatestRelease(releases []model.Release) *model.Release {
	var latest *model.Release

	for i := range releases {
		r := &releases[i]
		if r.Draft {
			continue
		}
		if latest == nil || r.PublishedAt.After(latest.PublishedAt) {
			latest = r
		}
	}

	return latest
}

// deriveBuildStatus classifies build health from the main workflow run. It
// is a pure function of the run's status and conclusion.
func deriveBuildStatus(run *model.WorkflowRun) model.BuildStatus {
	if run == nil {
		return model.BuildStatusUnknown
	}

	switch run.Status {
	case model.RunStatusQueued, model.RunStatusInProgress:
		return model.BuildStatusRunning
	case model.RunStatusCompleted:
		switch run.Conclusion {
		case model.RunConclusionSuccess:
			return model.BuildStatusPassing
		case model.RunConclusionFailure, model.RunConclusionTimedOut:
			return model.BuildStatusFailing
		}
	}

	// Cancelled, skipped, and anything unrecognized.
	return model.BuildStatusUnknown
}
