// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package auth

import (
	stdctx "context"
	"log/slog"
	"sync"
	"time"
)

// # Session Monitor

// Monitor runs the two periodic session checks:
//
//   - Liveness (default every 60s): inactivity and absolute session
//     expiry, forcing a full logout when either is exceeded.
//   - Refresh (default every 30s): asks the token manager whether a
//     refresh is due and triggers it. Decoupled from the liveness tick
//     so refresh cadence is finer-grained than the liveness check.
//
// # Lifecycle
//
// Start is idempotent while running; Stop halts both tickers and is safe
// to call repeatedly, including from inside a check callback (forced
// logout stops the monitor without deadlocking).
type Monitor struct {
	sessionTick time.Duration
	refreshTick time.Duration
	liveness    func(context stdctx.Context)
	refresh     func(context stdctx.Context)
	logger      *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
}

// NewMonitor constructs a [Monitor]. Zero cadences fall back to the
// package defaults.
func NewMonitor(sessionTick, refreshTick time.Duration, liveness, refresh func(context stdctx.Context), logger *slog.Logger) *Monitor {
	if sessionTick <= 0 {
		sessionTick = DefaultSessionTick
	}
	if refreshTick <= 0 {
		refreshTick = DefaultRefreshTick
	}
	return &Monitor{
		sessionTick: sessionTick,
		refreshTick: refreshTick,
		liveness:    liveness,
		refresh:     refresh,
		logger:      logger,
	}
}

// Start launches both periodic checks. Calling Start on a running
// monitor is a no-op.
func (monitor *Monitor) Start() {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()

	if monitor.stop != nil {
		return
	}
	stop := make(chan struct{})
	monitor.stop = stop

	go monitor.run(stop)
	monitor.logger.Debug("session_monitor_started",
		slog.Duration("session_tick", monitor.sessionTick),
		slog.Duration("refresh_tick", monitor.refreshTick),
	)
}

// Stop halts both tickers. Safe to call repeatedly and from within a
// check callback: it only signals the run goroutine, never joins it.
func (monitor *Monitor) Stop() {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()

	if monitor.stop == nil {
		return
	}
	close(monitor.stop)
	monitor.stop = nil
	monitor.logger.Debug("session_monitor_stopped")
}

// Running reports whether the monitor is active.
func (monitor *Monitor) Running() bool {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	return monitor.stop != nil
}

// run drives both tickers until the stop channel closes.
func (monitor *Monitor) run(stop chan struct{}) {
	sessionTicker := time.NewTicker(monitor.sessionTick)
	defer sessionTicker.Stop()
	refreshTicker := time.NewTicker(monitor.refreshTick)
	defer refreshTicker.Stop()

	for {
		select {
		case <-sessionTicker.C:
			monitor.liveness(stdctx.Background())
		case <-refreshTicker.C:
			monitor.refresh(stdctx.Background())
		case <-stop:
			return
		}
	}
}
