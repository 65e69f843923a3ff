package cloudindex

import (
	"math/rand/v2"
	"time"
)

// RetryPolicy bounds retries of rate-limited vendor calls. Attempt n
// (counting from 0) sleeps a uniformly random duration in
// [0, min(2^n seconds, MaxSleep)) before the next try.
type RetryPolicy struct {
	MaxAttempts int
	MaxSleep    time.Duration
}

// DefaultRetryPolicy allows 7 attempts per call with sleeps capped at 64
// seconds, which keeps a long indexing run inside per-minute API quotas.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 7,
	MaxSleep:    64 * time.Second,
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	limit := p.MaxSleep
	// 2^33 seconds still fits in a Duration; anything above caps at MaxSleep.
	if attempt < 33 {
		if d := time.Duration(1<<uint(attempt)) * time.Second; d < limit {
			limit = d
		}
	}
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}
