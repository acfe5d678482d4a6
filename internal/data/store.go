// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package data

import (
	"context"
)

// Store is the contract both datastore backends implement: sqlite for
// the embedded default, postgres for the shared deployment mode.
//
// All methods funnel backend errors through dberr so callers see the
// apperr taxonomy, with [dberr.ErrNotFound] for absent rows.
type Store interface {

	// # Records

	// Insert persists a new record.
	Insert(context context.Context, record *DataRecord) error

	// InsertBatch persists records transactionally, all-or-nothing.
	InsertBatch(context context.Context, records []*DataRecord) error

	// Get returns a record by id, including soft-deleted ones.
	Get(context context.Context, id string) (*DataRecord, error)

	// Find returns the records matching the query. Soft-deleted rows are
	// excluded unless the query opts in.
	Find(context context.Context, query Query) ([]*DataRecord, error)

	// Save overwrites an existing record wholesale.
	Save(context context.Context, record *DataRecord) error

	// MarkSynced stamps a record's syncedAt without touching its version.
	MarkSynced(context context.Context, id string, syncedAt int64) error

	// # Sync Queue

	// Enqueue appends a pending mutation.
	Enqueue(context context.Context, item *SyncQueueItem) error

	// Pending returns items still under the retry ceiling, oldest-first.
	Pending(context context.Context, maxRetries int) ([]*SyncQueueItem, error)

	// RecordAttempt persists an item's bumped retryCount and lastAttempt.
	RecordAttempt(context context.Context, item *SyncQueueItem) error

	// Dequeue removes a successfully synced item.
	Dequeue(context context.Context, id string) error

	// PurgeDead removes items at or past the retry ceiling and reports
	// how many were dropped.
	PurgeDead(context context.Context, maxRetries int) (int, error)

	// Close releases the underlying connections.
	Close() error
}
