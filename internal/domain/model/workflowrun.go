package model

import "time"

// RunStatus is the lifecycle state of a workflow run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
)

// RunConclusion is the outcome of a completed workflow run. It is empty
// while the run has not completed.
type RunConclusion string

const (
	RunConclusionSuccess   RunConclusion = "success"
	RunConclusionFailure   RunConclusion = "failure"
	RunConclusionCancelled RunConclusion = "cancelled"
	RunConclusionSkipped   RunConclusion = "skipped"
	RunConclusionTimedOut  RunConclusion = "timed_out"
)

// WorkflowRun is a single CI run for a repository.
type WorkflowRun struct {
	ID           int64
	Name         string
	HeadBranch   string
	HeadSHA      string
	Status       RunStatus
	Conclusion   RunConclusion
	Event        string
	Actor        string
	URL          string
	RunStartedAt time.Time
	UpdatedAt    time.Time
}
