// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

/*
Package data implements the offline-first structured store and its
background synchronization engine.

# Architecture

Records are written locally first and reconciled with the backend later.
Every local mutation lands in two places inside one logical step: the
record table, and the sync queue that the engine drains while the device
is online. Reads go through an in-memory TTL cache keyed by the serialized
query.

# Conflict Policy

Reconciliation is conflict-naive: the remote applies writes in arrival
order (last writer wins). Versions are tracked for local bookkeeping,
not compared against the remote before overwrite.
*/
package data

// Operation is the kind of mutation queued for reconciliation.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// DataRecord is one locally stored entity of an arbitrary record type
// (mood entry, journal entry, preference, ...). The payload is opaque to
// the store.
//
// # Invariants
//
//   - Version starts at 1 and increments by exactly 1 on every update.
//   - SyncedAt is nil whenever the record has an unsynced local
//     mutation; only a successful sync round-trip sets it.
//   - Deletion is soft: the row survives so the delete can still be
//     reconciled remotely.
type DataRecord struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	CreatedAt int64          `json:"createdAt"` // epoch ms
	UpdatedAt int64          `json:"updatedAt"` // epoch ms
	SyncedAt  *int64         `json:"syncedAt,omitempty"`
	Version   int            `json:"version"`
	Deleted   bool           `json:"deleted"`
}

// SyncQueueItem is one pending outbound mutation.
//
// An item whose RetryCount has reached the engine's ceiling is dead: it
// is never selected for another attempt, but it stays queued until it is
// purged explicitly or the backlog is cleared.
type SyncQueueItem struct {
	ID          string         `json:"id"`
	Operation   Operation      `json:"operation"`
	Type        string         `json:"type"`
	RecordID    string         `json:"recordId"`
	Payload     map[string]any `json:"payload,omitempty"`
	RetryCount  int            `json:"retryCount"`
	CreatedAt   int64          `json:"createdAt"` // epoch ms
	LastAttempt *int64         `json:"lastAttempt,omitempty"`
}
