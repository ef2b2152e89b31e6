package model

import "time"

// Commit is the most recent commit on a repository's default branch. The
// author fields come from the git commit itself; Login is the associated
// GitHub account when the API could resolve one, empty otherwise.
type Commit struct {
	SHA         string
	Message     string
	AuthorName  string
	AuthorEmail string
	AuthorDate  time.Time
	Login       string
	URL         string
}
