package model

import "time"

// RateLimit is the caller's REST API budget as reported by the rate-limit
// headers of a single response. The aggregator surfaces the most recently
// observed value of a pass, not a transactional snapshot.
type RateLimit struct {
	Limit     int
	Remaining int
	Used      int
	Reset     time.Time
}

// IsZero reports whether no rate-limit headers have been observed yet.
func (r RateLimit) IsZero() bool {
	return r.Limit == 0 && r.Remaining == 0 && r.Used == 0 && r.Reset.IsZero()
}
