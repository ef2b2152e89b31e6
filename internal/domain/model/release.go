package model

import "time"

// Release is a published release of a repository. Name may be empty when the
// publisher only supplied a tag.
type Release struct {
	ID          int64
	TagName     string
	Name        string
	Author      string
	URL         string
	Draft       bool
	Prerelease  bool
	PublishedAt time.Time
}
