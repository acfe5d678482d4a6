// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package data_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacehq/solace/internal/data"
)

// fakeRemote is a scriptable RemoteSync that records every call.
type fakeRemote struct {
	mu      sync.Mutex
	fail    bool
	block   chan struct{}
	creates int
	updates int
	deletes int
}

func (fake *fakeRemote) record(counter *int) error {
	fake.mu.Lock()
	*counter++
	fail := fake.fail
	block := fake.block
	fake.mu.Unlock()

	if block != nil {
		<-block
	}
	if fail {
		return errors.New("backend rejected")
	}
	return nil
}

func (fake *fakeRemote) Create(context.Context, string, map[string]any) error {
	return fake.record(&fake.creates)
}

func (fake *fakeRemote) Update(context.Context, string, string, map[string]any) error {
	return fake.record(&fake.updates)
}

func (fake *fakeRemote) Delete(context.Context, string, string) error {
	return fake.record(&fake.deletes)
}

func (fake *fakeRemote) calls() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.creates + fake.updates + fake.deletes
}

type syncFixture struct {
	store   data.Store
	service *data.Service
	engine  *data.Engine
	remote  *fakeRemote
	net     *data.Connectivity
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	store := newSQLite(t)
	cache := data.NewQueryCache(time.Minute)
	net := data.NewConnectivity(true)
	remote := &fakeRemote{}
	service := data.NewService(store, cache, net, testLogger())
	engine := data.NewEngine(store, remote, cache, net, time.Hour, 0, testLogger())
	t.Cleanup(engine.Stop)

	return &syncFixture{store: store, service: service, engine: engine, remote: remote, net: net}
}

func TestRunRound_DrainsQueue(t *testing.T) {
	ctx := context.Background()
	fx := newSyncFixture(t)

	record, err := fx.service.Create(ctx, "mood", map[string]any{"score": 7})
	require.NoError(t, err)
	_, err = fx.service.Update(ctx, record.ID, map[string]any{"score": 8})
	require.NoError(t, err)

	stats := fx.engine.RunRound(ctx)
	assert.False(t, stats.Skipped)
	assert.Equal(t, 2, stats.Attempted)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, fx.remote.creates)
	assert.Equal(t, 1, fx.remote.updates)

	// Queue is empty and the record carries its round-trip stamp, with
	// the version untouched.
	items, err := fx.store.Pending(ctx, data.DefaultMaxRetries)
	require.NoError(t, err)
	assert.Empty(t, items)

	synced, err := fx.service.Get(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, synced.SyncedAt)
	assert.Equal(t, 2, synced.Version)
}

func TestRunRound_DeleteDoesNotStampRecord(t *testing.T) {
	ctx := context.Background()
	fx := newSyncFixture(t)

	record, err := fx.service.Create(ctx, "mood", map[string]any{"score": 7})
	require.NoError(t, err)
	require.NoError(t, fx.service.Delete(ctx, record.ID))

	stats := fx.engine.RunRound(ctx)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, fx.remote.deletes)

	// The create stamped syncedAt; the delete must not have re-stamped
	// the record after its create already did.
	deleted, err := fx.service.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
}

func TestRunRound_RetryCeiling(t *testing.T) {
	ctx := context.Background()
	fx := newSyncFixture(t)
	fx.remote.fail = true

	_, err := fx.service.Create(ctx, "mood", map[string]any{"score": 7})
	require.NoError(t, err)

	// Each round bumps the item once, up to the ceiling.
	for round := 1; round <= data.DefaultMaxRetries; round++ {
		stats := fx.engine.RunRound(ctx)
		assert.Equal(t, 1, stats.Attempted, "round %d", round)
		assert.Equal(t, 1, stats.Failed, "round %d", round)
	}
	assert.Equal(t, data.DefaultMaxRetries, fx.remote.calls())

	// Dead: never selected again, but still queued until purged.
	stats := fx.engine.RunRound(ctx)
	assert.Equal(t, 0, stats.Attempted)
	assert.Equal(t, data.DefaultMaxRetries, fx.remote.calls())

	purged, err := fx.engine.PurgeDeadLetters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
}

func TestRunRound_FailedItemRetriesNextRound(t *testing.T) {
	ctx := context.Background()
	fx := newSyncFixture(t)
	fx.remote.fail = true

	_, err := fx.service.Create(ctx, "mood", map[string]any{"score": 7})
	require.NoError(t, err)

	fx.engine.RunRound(ctx)

	items, err := fx.store.Pending(ctx, data.DefaultMaxRetries)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].RetryCount)
	assert.NotNil(t, items[0].LastAttempt)

	// Backend recovers: the same item drains on the next round.
	fx.remote.mu.Lock()
	fx.remote.fail = false
	fx.remote.mu.Unlock()

	stats := fx.engine.RunRound(ctx)
	assert.Equal(t, 1, stats.Succeeded)
}

func TestRunRound_SkipsWhileOffline(t *testing.T) {
	ctx := context.Background()
	fx := newSyncFixture(t)
	fx.net.SetOnline(false)

	_, err := fx.service.Create(ctx, "mood", map[string]any{"score": 7})
	require.NoError(t, err)

	stats := fx.engine.RunRound(ctx)
	assert.True(t, stats.Skipped)
	assert.Zero(t, fx.remote.calls())
}

func TestRunRound_NonReentrant(t *testing.T) {
	ctx := context.Background()
	fx := newSyncFixture(t)

	block := make(chan struct{})
	fx.remote.block = block

	_, err := fx.service.Create(ctx, "mood", map[string]any{"score": 7})
	require.NoError(t, err)

	started := make(chan struct{})
	done := make(chan data.RoundStats, 1)
	go func() {
		close(started)
		done <- fx.engine.RunRound(ctx)
	}()
	<-started

	// Wait until the in-flight round is blocked inside the remote call.
	require.Eventually(t, func() bool { return fx.remote.calls() == 1 }, time.Second, time.Millisecond)

	// A round fired mid-flight is dropped, not queued.
	stats := fx.engine.RunRound(ctx)
	assert.True(t, stats.Skipped)

	close(block)
	first := <-done
	assert.Equal(t, 1, first.Succeeded)
}

func TestReconnectTriggersImmediateRound(t *testing.T) {
	ctx := context.Background()
	fx := newSyncFixture(t)
	fx.net.SetOnline(false)

	_, err := fx.service.Create(ctx, "mood", map[string]any{"score": 7})
	require.NoError(t, err)

	// Interval is an hour; only the reconnect edge can drain the queue.
	fx.engine.Start()
	fx.net.SetOnline(true)

	require.Eventually(t, func() bool { return fx.remote.calls() == 1 }, time.Second, time.Millisecond)

	items, err := fx.store.Pending(ctx, data.DefaultMaxRetries)
	require.NoError(t, err)
	assert.Empty(t, items)
}
