// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package data_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacehq/solace/internal/data"
	"github.com/solacehq/solace/internal/keystore"
	"github.com/solacehq/solace/internal/platform/apperr"
	"github.com/solacehq/solace/pkg/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newSQLite(t *testing.T) data.Store {
	t.Helper()
	store, err := data.NewSQLiteStore(filepath.Join(t.TempDir(), "solace.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newService(t *testing.T, store data.Store, ttl time.Duration) *data.Service {
	t.Helper()
	return data.NewService(store, data.NewQueryCache(ttl), data.NewConnectivity(true), testLogger())
}

func TestCreate_AssignsIdentityAndQueues(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)
	service := newService(t, store, 0)

	record, err := service.Create(ctx, "mood", map[string]any{"score": 7})
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, 1, record.Version)
	assert.Nil(t, record.SyncedAt)
	assert.Equal(t, record.CreatedAt, record.UpdatedAt)
	assert.False(t, record.Deleted)

	items, err := store.Pending(ctx, data.DefaultMaxRetries)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, data.OpCreate, items[0].Operation)
	assert.Equal(t, record.ID, items[0].RecordID)
	assert.Equal(t, "mood", items[0].Type)
}

func TestUpdate_VersionAndSyncState(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)
	service := newService(t, store, 0)

	record, err := service.Create(ctx, "mood", map[string]any{"score": 7})
	require.NoError(t, err)

	// Simulate a completed sync round-trip.
	require.NoError(t, store.MarkSynced(ctx, record.ID, keystore.Millis(time.Now())))
	synced, err := service.Get(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, synced.SyncedAt)
	assert.Equal(t, 1, synced.Version)

	// A local mutation bumps the version by exactly 1 and clears syncedAt.
	updated, err := service.Update(ctx, record.ID, map[string]any{"score": 9, "note": "better"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Nil(t, updated.SyncedAt)
	assert.Equal(t, float64(9), toFloat(updated.Data["score"]))
	assert.Equal(t, "better", updated.Data["note"])
}

// toFloat normalizes JSON round-trip numerics for assertions.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return -1
	}
}

func TestUpdate_AbsentRecord(t *testing.T) {
	ctx := context.Background()
	service := newService(t, newSQLite(t), 0)

	_, err := service.Update(ctx, uuid.New(), map[string]any{"score": 1})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestDelete_IsSoft(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)
	service := newService(t, store, 0)

	record, err := service.Create(ctx, "journal", map[string]any{"text": "entry"})
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, record.ID))

	// The row survives for reconciliation.
	deleted, err := service.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
	assert.Nil(t, deleted.SyncedAt)

	// But default reads exclude it.
	records, err := service.Read(ctx, data.Query{Type: "journal"})
	require.NoError(t, err)
	assert.Empty(t, records)

	// And a delete mutation is queued alongside the create.
	items, err := store.Pending(ctx, data.DefaultMaxRetries)
	require.NoError(t, err)
	require.Len(t, items, 2)
	operations := []data.Operation{items[0].Operation, items[1].Operation}
	assert.Contains(t, operations, data.OpCreate)
	assert.Contains(t, operations, data.OpDelete)
}

func TestBatchCreate_QueuesAfterCommit(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)
	service := newService(t, store, 0)

	records, err := service.BatchCreate(ctx, "mood", []map[string]any{
		{"score": 1}, {"score": 2}, {"score": 3},
	})
	require.NoError(t, err)
	require.Len(t, records, 3)

	items, err := store.Pending(ctx, data.DefaultMaxRetries)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestInsertBatch_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)

	id := uuid.New()
	now := keystore.Millis(time.Now())
	first := &data.DataRecord{ID: id, Type: "mood", Data: map[string]any{}, CreatedAt: now, UpdatedAt: now, Version: 1}
	dup := &data.DataRecord{ID: id, Type: "mood", Data: map[string]any{}, CreatedAt: now, UpdatedAt: now, Version: 1}

	// The duplicate primary key fails the second insert; the first must
	// not survive the rollback.
	require.Error(t, store.InsertBatch(ctx, []*data.DataRecord{first, dup}))

	_, err := store.Get(ctx, id)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestRead_Filters(t *testing.T) {
	ctx := context.Background()
	service := newService(t, newSQLite(t), 0)

	for _, score := range []int{3, 7, 7} {
		_, err := service.Create(ctx, "mood", map[string]any{"score": score})
		require.NoError(t, err)
	}
	_, err := service.Create(ctx, "journal", map[string]any{"score": 7})
	require.NoError(t, err)

	records, err := service.Read(ctx, data.Query{Type: "mood", Filters: map[string]any{"score": 7}})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = service.Read(ctx, data.Query{Type: "mood", SortBy: "score", SortDesc: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, float64(7), toFloat(records[0].Data["score"]))
}

func TestRead_CacheWindow(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)
	service := data.NewService(store, data.NewQueryCache(50*time.Millisecond), data.NewConnectivity(true), testLogger())

	_, err := service.Create(ctx, "mood", map[string]any{"score": 1})
	require.NoError(t, err)

	query := data.Query{Type: "mood"}
	records, err := service.Read(ctx, query)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// A write that bypasses the service is invisible inside the TTL window.
	now := keystore.Millis(time.Now())
	require.NoError(t, store.Insert(ctx, &data.DataRecord{
		ID: uuid.New(), Type: "mood", Data: map[string]any{"score": 2},
		CreatedAt: now, UpdatedAt: now, Version: 1,
	}))

	records, err = service.Read(ctx, query)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// Past the window the next read hits storage.
	time.Sleep(60 * time.Millisecond)
	records, err = service.Read(ctx, query)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestMutationsInvalidateCachedReads(t *testing.T) {
	ctx := context.Background()
	service := newService(t, newSQLite(t), time.Minute)

	_, err := service.Create(ctx, "mood", map[string]any{"score": 1})
	require.NoError(t, err)

	query := data.Query{Type: "mood"}
	records, err := service.Read(ctx, query)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// A service-level create invalidates the cached query immediately.
	_, err = service.Create(ctx, "mood", map[string]any{"score": 2})
	require.NoError(t, err)

	records, err = service.Read(ctx, query)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
