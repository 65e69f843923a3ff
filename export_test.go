package cloudindex

import (
	"context"
	"time"
)

// This file is part of the package tests (package cloudindex) and provides
// helpers that allow tests in the external package to access internal
// package constructs.

// SleepContext exposes the interruptible sleep used between retries.
var SleepContext = sleepContext

// Backoff exposes the jittered backoff window computation.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.backoff(attempt)
}

// SetSleepFunc replaces the retry sleep so tests run without waiting.
func (ix *Indexer) SetSleepFunc(f func(ctx context.Context, d time.Duration) error) {
	ix.sleep = f
}
