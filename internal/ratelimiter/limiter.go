// Package ratelimiter guards the submission boundary with a token bucket.
// A client flooding POSTs gets 429s instead of growing the tier queues,
// which are deliberately unbounded past this point.
package ratelimiter

import "golang.org/x/time/rate"

// SubmissionLimiter wraps a single shared token bucket covering all
// submitters. Per-client buckets are a non-goal; one process, one intake.
type SubmissionLimiter struct {
	limiter *rate.Limiter
}

// New builds a limiter allowing perSecond sustained submissions with the
// given burst headroom.
func New(perSecond, burst int) *SubmissionLimiter {
	return &SubmissionLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Allow reports whether one more submission may pass right now.
func (l *SubmissionLimiter) Allow() bool {
	return l.limiter.Allow()
}
