// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package data

import (
	stdctx "context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/solacehq/solace/internal/keystore"
	"github.com/solacehq/solace/internal/platform/dberr"
	"github.com/solacehq/solace/pkg/pointer"
)

// # Sync Engine

const (
	// DefaultSyncInterval is the cadence of background rounds while online.
	DefaultSyncInterval = 30 * time.Second

	// DefaultMaxRetries is the dead-letter ceiling: an item failing this
	// many times is never attempted again automatically.
	DefaultMaxRetries = 3
)

// RoundStats summarizes one sync round.
type RoundStats struct {
	// Skipped is true when the round did not run: another round was in
	// progress or the device was offline.
	Skipped   bool
	Attempted int
	Succeeded int
	Failed    int
}

// Engine drains the sync queue against the remote API on a fixed
// interval while the device is online.
//
// # Concurrency
//
// Rounds are non-reentrant: a tick (or explicit trigger) that fires
// while a round is in progress is skipped, never queued. The in-flight
// round always completes.
type Engine struct {
	store      Store
	api        RemoteSync
	cache      *QueryCache
	net        *Connectivity
	logger     *slog.Logger
	interval   time.Duration
	maxRetries int
	now        func() time.Time

	syncing atomic.Bool
	trigger chan struct{}

	mu   sync.Mutex
	stop chan struct{}
}

// NewEngine constructs the [Engine] and subscribes it to connectivity
// transitions: the offline→online edge triggers an immediate
// out-of-cycle round.
func NewEngine(store Store, api RemoteSync, cache *QueryCache, net *Connectivity, interval time.Duration, maxRetries int, logger *slog.Logger) *Engine {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	engine := &Engine{
		store:      store,
		api:        api,
		cache:      cache,
		net:        net,
		logger:     logger,
		interval:   interval,
		maxRetries: maxRetries,
		now:        time.Now,
		trigger:    make(chan struct{}, 1),
	}

	net.Subscribe(func(online bool) {
		if online {
			engine.SyncNow()
		}
	})

	return engine
}

// Start launches the background loop. Idempotent while running.
func (engine *Engine) Start() {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if engine.stop != nil {
		return
	}
	stop := make(chan struct{})
	engine.stop = stop

	go engine.run(stop)
	engine.logger.Debug("sync_engine_started", slog.Duration("interval", engine.interval))
}

// Stop halts the background loop. An in-flight round completes on its
// own goroutine; no new rounds start.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if engine.stop == nil {
		return
	}
	close(engine.stop)
	engine.stop = nil
	engine.logger.Debug("sync_engine_stopped")
}

// SyncNow requests an immediate out-of-cycle round. Non-blocking: if a
// trigger is already pending the request coalesces into it.
func (engine *Engine) SyncNow() {
	select {
	case engine.trigger <- struct{}{}:
	default:
	}
}

// run drives the periodic and triggered rounds until stopped.
func (engine *Engine) run(stop chan struct{}) {
	ticker := time.NewTicker(engine.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			engine.RunRound(stdctx.Background())
		case <-engine.trigger:
			engine.RunRound(stdctx.Background())
		case <-stop:
			return
		}
	}
}

/*
RunRound executes one sync round synchronously.

Description: Skips entirely when offline or when another round is in
progress. Otherwise drains pending items (retryCount under the ceiling,
oldest first) one at a time: success removes the item and stamps the
record's syncedAt for non-deletes; failure bumps the item's retryCount
and lastAttempt, leaving it queued. Each round also sweeps expired
cache entries.

Parameters:
  - context: context.Context

Returns:
  - RoundStats: What the round did
*/
func (engine *Engine) RunRound(context stdctx.Context) RoundStats {
	if !engine.net.Online() {
		return RoundStats{Skipped: true}
	}
	if !engine.syncing.CompareAndSwap(false, true) {
		// A round is in progress; this tick is dropped, not queued.
		return RoundStats{Skipped: true}
	}
	defer engine.syncing.Store(false)

	engine.cache.Sweep()

	items, err := engine.store.Pending(context, engine.maxRetries)
	if err != nil {
		engine.logger.Warn("sync_pending_read_failed", slog.Any("error", err))
		return RoundStats{}
	}

	stats := RoundStats{Attempted: len(items)}
	for _, item := range items {
		if err := engine.push(context, item); err != nil {
			stats.Failed++
			item.RetryCount++
			item.LastAttempt = pointer.To(keystore.Millis(engine.now()))
			if err := engine.store.RecordAttempt(context, item); err != nil {
				engine.logger.Warn("sync_attempt_record_failed", slog.Any("error", err))
			}
			engine.logger.Warn("sync_item_failed",
				slog.String("item_id", item.ID),
				slog.String("operation", string(item.Operation)),
				slog.Int("retry_count", item.RetryCount),
				slog.Any("error", err),
			)
			continue
		}

		stats.Succeeded++
		if err := engine.store.Dequeue(context, item.ID); err != nil {
			engine.logger.Warn("sync_dequeue_failed", slog.Any("error", err))
		}
		if item.Operation != OpDelete {
			if err := engine.store.MarkSynced(context, item.RecordID, keystore.Millis(engine.now())); err != nil &&
				!errors.Is(err, dberr.ErrNotFound) {
				engine.logger.Warn("sync_mark_failed", slog.Any("error", err))
			}
		}
	}

	if stats.Attempted > 0 {
		engine.logger.Info("sync_round_completed",
			slog.Int("attempted", stats.Attempted),
			slog.Int("succeeded", stats.Succeeded),
			slog.Int("failed", stats.Failed),
		)
	}
	return stats
}

// PurgeDeadLetters removes items that exhausted their retry allowance.
func (engine *Engine) PurgeDeadLetters(context stdctx.Context) (int, error) {
	return engine.store.PurgeDead(context, engine.maxRetries)
}

// push dispatches one queued mutation to its remote call.
func (engine *Engine) push(context stdctx.Context, item *SyncQueueItem) error {
	switch item.Operation {
	case OpCreate:
		return engine.api.Create(context, item.Type, item.Payload)
	case OpUpdate:
		return engine.api.Update(context, item.Type, item.RecordID, item.Payload)
	case OpDelete:
		return engine.api.Delete(context, item.Type, item.RecordID)
	default:
		// Unknown operations cannot succeed; fail them into the
		// dead-letter path.
		return errors.New("sync_unknown_operation: " + string(item.Operation))
	}
}
