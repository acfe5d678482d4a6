// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package auth

import (
	stdctx "context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/solacehq/solace/internal/keystore"
	"github.com/solacehq/solace/internal/platform/apperr"
	"github.com/solacehq/solace/internal/platform/sec"
)

// # Login Rate Limiting

// AttemptTracker enforces the per-email failed-login lockout.
//
// Counters are persisted in the secure keystore (keyed by an email
// digest, never the raw address) so a restart cannot bypass a lockout.
//
// # Concurrency
//
// A mutex serializes the read-modify-write cycle on the counter map.
type AttemptTracker struct {
	store       keystore.Store
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time
	logger      *slog.Logger

	mu sync.Mutex
}

// NewAttemptTracker constructs an [AttemptTracker]. Zero values for
// maxAttempts and lockout fall back to the package defaults.
func NewAttemptTracker(store keystore.Store, maxAttempts int, lockout time.Duration, logger *slog.Logger) *AttemptTracker {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoginAttempts
	}
	if lockout <= 0 {
		lockout = DefaultLockoutDuration
	}
	return &AttemptTracker{
		store:       store,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
		logger:      logger,
	}
}

/*
Check fails fast when the email is locked out.

Description: Runs BEFORE any network call. A counter whose lockout window
has fully elapsed is reset to zero as a side effect.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: apperr.RateLimited carrying the remaining lockout minutes
*/
func (tracker *AttemptTracker) Check(context stdctx.Context, email string) error {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	counters := tracker.load(context)
	key := attemptKey(email)

	attempt, found := counters[key]
	if !found || attempt.Count < tracker.maxAttempts {
		return nil
	}

	elapsed := tracker.now().Sub(keystore.FromMillis(attempt.LastAttempt))
	if elapsed >= tracker.lockout {
		// Lockout served: reset the counter so the next failure starts at 1.
		delete(counters, key)
		tracker.persist(context, counters)
		return nil
	}

	remaining := tracker.lockout - elapsed
	return apperr.RateLimited(int(math.Ceil(remaining.Minutes())))
}

/*
RecordFailure increments the counter for a failed login attempt.

Parameters:
  - context: context.Context
  - email: string
*/
func (tracker *AttemptTracker) RecordFailure(context stdctx.Context, email string) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	counters := tracker.load(context)
	key := attemptKey(email)

	attempt := counters[key]
	attempt.Count++
	attempt.LastAttempt = keystore.Millis(tracker.now())
	counters[key] = attempt

	tracker.persist(context, counters)
}

/*
Clear removes the counter after a successful login.

Parameters:
  - context: context.Context
  - email: string
*/
func (tracker *AttemptTracker) Clear(context stdctx.Context, email string) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	counters := tracker.load(context)
	key := attemptKey(email)

	if _, found := counters[key]; !found {
		return
	}

	delete(counters, key)
	tracker.persist(context, counters)
}

// load reads the counter map; a degraded read yields an empty map.
func (tracker *AttemptTracker) load(context stdctx.Context) map[string]LoginAttempt {
	counters := keystore.GetJSON[map[string]LoginAttempt](context, tracker.store, keystore.KeyLoginAttempts)
	if counters == nil {
		return make(map[string]LoginAttempt)
	}
	return *counters
}

// persist writes the counter map; failures are logged, not thrown, so a
// storage hiccup never blocks a legitimate login.
func (tracker *AttemptTracker) persist(context stdctx.Context, counters map[string]LoginAttempt) {
	if err := keystore.PutJSON(context, tracker.store, keystore.KeyLoginAttempts, counters); err != nil {
		tracker.logger.Warn("login_attempts_persist_failed", slog.Any("error", err))
	}
}

// attemptKey digests the email so raw addresses never land in the store.
func attemptKey(email string) string {
	return sec.HashToken(strings.ToLower(strings.TrimSpace(email)))
}
