package model

// BuildStatus is the unified build-health classification derived from a
// repository's main workflow run.
type BuildStatus string

const (
	BuildStatusPassing BuildStatus = "passing"
	BuildStatusFailing BuildStatus = "failing"
	BuildStatusRunning BuildStatus = "running"
	BuildStatusUnknown BuildStatus = "unknown"
)

// RepoStatus is the per-repository aggregate assembled fresh on every
// aggregation pass. Nil pointer fields mean the related resource is absent,
// either because none exists or because its fetch failed non-fatally.
type RepoStatus struct {
	Repo             Repository
	MainWorkflowRun  *WorkflowRun
	LatestRelease    *Release
	LatestCommit     *Commit
	OpenPullRequests int
	BuildStatus      BuildStatus
}
