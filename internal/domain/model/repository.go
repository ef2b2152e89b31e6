package model

import "time"

// Repository is an immutable snapshot of a GitHub repository as returned by
// the list endpoint. It is re-fetched on every aggregation pass and never
// cached across calls.
type Repository struct {
	ID            int64
	Owner         string
	Name          string
	FullName      string
	Description   string
	URL           string
	DefaultBranch string
	Visibility    string
	Language      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PushedAt      time.Time
	Stars         int
	Forks         int
	OpenIssues    int
}
