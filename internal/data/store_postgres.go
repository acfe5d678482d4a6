// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package data

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solacehq/solace/internal/platform/database/schema"
	"github.com/solacehq/solace/internal/platform/dberr"
)

// # PostgreSQL Backend
//
// The shared deployment mode: several agents reconcile into one managed
// database. Schema is applied by the migration runner at startup.

// PostgresStore implements [Store] over a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (store *PostgresStore) Insert(context context.Context, record *DataRecord) error {
	data, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("record_marshal_failed: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		schema.StoreRecord.Table,
		schema.StoreRecord.ID, schema.StoreRecord.RecordType, schema.StoreRecord.Data,
		schema.StoreRecord.CreatedAt, schema.StoreRecord.UpdatedAt, schema.StoreRecord.SyncedAt,
		schema.StoreRecord.Version, schema.StoreRecord.IsDeleted,
	)

	_, err = store.db.Exec(context, query,
		record.ID, record.Type, data,
		record.CreatedAt, record.UpdatedAt, record.SyncedAt,
		record.Version, record.Deleted,
	)
	return dberr.Wrap(err, "insert_record")
}

func (store *PostgresStore) InsertBatch(context context.Context, records []*DataRecord) error {
	tx, err := store.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_batch")
	}
	defer func() { _ = tx.Rollback(context) }()

	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		schema.StoreRecord.Table,
		schema.StoreRecord.ID, schema.StoreRecord.RecordType, schema.StoreRecord.Data,
		schema.StoreRecord.CreatedAt, schema.StoreRecord.UpdatedAt, schema.StoreRecord.SyncedAt,
		schema.StoreRecord.Version, schema.StoreRecord.IsDeleted,
	)

	for _, record := range records {
		data, err := json.Marshal(record.Data)
		if err != nil {
			return fmt.Errorf("record_marshal_failed: %w", err)
		}
		if _, err := tx.Exec(context, query,
			record.ID, record.Type, data,
			record.CreatedAt, record.UpdatedAt, record.SyncedAt,
			record.Version, record.Deleted,
		); err != nil {
			return dberr.Wrap(err, "insert_batch")
		}
	}

	return dberr.Wrap(tx.Commit(context), "commit_batch")
}

func (store *PostgresStore) Get(context context.Context, id string) (*DataRecord, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.StoreRecord.ID, schema.StoreRecord.RecordType, schema.StoreRecord.Data,
		schema.StoreRecord.CreatedAt, schema.StoreRecord.UpdatedAt, schema.StoreRecord.SyncedAt,
		schema.StoreRecord.Version, schema.StoreRecord.IsDeleted,
		schema.StoreRecord.Table, schema.StoreRecord.ID,
	)

	return scanRecord(store.db.QueryRow(context, query, id))
}

func (store *PostgresStore) Find(context context.Context, q Query) ([]*DataRecord, error) {
	var b strings.Builder
	args := []any{q.Type}

	fmt.Fprintf(&b, `SELECT %s, %s, %s, %s, %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.StoreRecord.ID, schema.StoreRecord.RecordType, schema.StoreRecord.Data,
		schema.StoreRecord.CreatedAt, schema.StoreRecord.UpdatedAt, schema.StoreRecord.SyncedAt,
		schema.StoreRecord.Version, schema.StoreRecord.IsDeleted,
		schema.StoreRecord.Table, schema.StoreRecord.RecordType,
	)

	if !q.IncludeDeleted {
		fmt.Fprintf(&b, ` AND %s = FALSE`, schema.StoreRecord.IsDeleted)
	}

	for field, value := range q.Filters {
		if _, err := jsonPath(field); err != nil {
			return nil, err
		}
		// JSONB text extraction; values compare as their text form, which
		// matches how the payloads are written.
		args = append(args, field, fmt.Sprint(value))
		fmt.Fprintf(&b, ` AND %s->>$%d = $%d`, schema.StoreRecord.Data, len(args)-1, len(args))
	}

	if q.SortBy != "" {
		direction := "ASC"
		if q.SortDesc {
			direction = "DESC"
		}
		if recordColumns[q.SortBy] {
			fmt.Fprintf(&b, ` ORDER BY %s %s`, strings.ToLower(q.SortBy), direction)
		} else {
			if _, err := jsonPath(q.SortBy); err != nil {
				return nil, err
			}
			fmt.Fprintf(&b, ` ORDER BY %s->>'%s' %s`, schema.StoreRecord.Data, q.SortBy, direction)
		}
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, ` LIMIT %d`, q.Limit)
	}
	if q.Offset > 0 {
		fmt.Fprintf(&b, ` OFFSET %d`, q.Offset)
	}

	rows, err := store.db.Query(context, b.String(), args...)
	if err != nil {
		return nil, dberr.Wrap(err, "find_records")
	}
	defer rows.Close()

	records := make([]*DataRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (store *PostgresStore) Save(context context.Context, record *DataRecord) error {
	data, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("record_marshal_failed: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7
		WHERE %s = $1`,
		schema.StoreRecord.Table,
		schema.StoreRecord.RecordType, schema.StoreRecord.Data, schema.StoreRecord.UpdatedAt,
		schema.StoreRecord.SyncedAt, schema.StoreRecord.Version, schema.StoreRecord.IsDeleted,
		schema.StoreRecord.ID,
	)

	tag, err := store.db.Exec(context, query,
		record.ID, record.Type, data, record.UpdatedAt,
		record.SyncedAt, record.Version, record.Deleted,
	)
	if err != nil {
		return dberr.Wrap(err, "save_record")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (store *PostgresStore) MarkSynced(context context.Context, id string, syncedAt int64) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		schema.StoreRecord.Table, schema.StoreRecord.SyncedAt, schema.StoreRecord.ID,
	)

	tag, err := store.db.Exec(context, query, id, syncedAt)
	if err != nil {
		return dberr.Wrap(err, "mark_synced")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (store *PostgresStore) Enqueue(context context.Context, item *SyncQueueItem) error {
	payload, err := json.Marshal(item.Payload)
	if err != nil {
		return fmt.Errorf("item_marshal_failed: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		schema.SyncQueue.Table,
		schema.SyncQueue.ID, schema.SyncQueue.Operation, schema.SyncQueue.RecordType,
		schema.SyncQueue.RecordID, schema.SyncQueue.Payload, schema.SyncQueue.RetryCount,
		schema.SyncQueue.CreatedAt, schema.SyncQueue.LastAttempt,
	)

	_, err = store.db.Exec(context, query,
		item.ID, string(item.Operation), item.Type, item.RecordID,
		payload, item.RetryCount, item.CreatedAt, item.LastAttempt,
	)
	return dberr.Wrap(err, "enqueue_item")
}

func (store *PostgresStore) Pending(context context.Context, maxRetries int) ([]*SyncQueueItem, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s, %s FROM %s
		WHERE %s < $1 ORDER BY %s ASC`,
		schema.SyncQueue.ID, schema.SyncQueue.Operation, schema.SyncQueue.RecordType,
		schema.SyncQueue.RecordID, schema.SyncQueue.Payload, schema.SyncQueue.RetryCount,
		schema.SyncQueue.CreatedAt, schema.SyncQueue.LastAttempt,
		schema.SyncQueue.Table, schema.SyncQueue.RetryCount, schema.SyncQueue.CreatedAt,
	)

	rows, err := store.db.Query(context, query, maxRetries)
	if err != nil {
		return nil, dberr.Wrap(err, "pending_items")
	}
	defer rows.Close()

	items := make([]*SyncQueueItem, 0)
	for rows.Next() {
		item := &SyncQueueItem{}
		var operation string
		var payload []byte
		if err := rows.Scan(&item.ID, &operation, &item.Type, &item.RecordID,
			&payload, &item.RetryCount, &item.CreatedAt, &item.LastAttempt); err != nil {
			return nil, dberr.Wrap(err, "scan_item")
		}
		item.Operation = Operation(operation)
		if err := json.Unmarshal(payload, &item.Payload); err != nil {
			return nil, fmt.Errorf("item_unmarshal_failed: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (store *PostgresStore) RecordAttempt(context context.Context, item *SyncQueueItem) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.SyncQueue.Table, schema.SyncQueue.RetryCount, schema.SyncQueue.LastAttempt,
		schema.SyncQueue.ID,
	)

	_, err := store.db.Exec(context, query, item.ID, item.RetryCount, item.LastAttempt)
	return dberr.Wrap(err, "record_attempt")
}

func (store *PostgresStore) Dequeue(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.SyncQueue.Table, schema.SyncQueue.ID,
	)

	_, err := store.db.Exec(context, query, id)
	return dberr.Wrap(err, "dequeue_item")
}

func (store *PostgresStore) PurgeDead(context context.Context, maxRetries int) (int, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s >= $1`,
		schema.SyncQueue.Table, schema.SyncQueue.RetryCount,
	)

	tag, err := store.db.Exec(context, query, maxRetries)
	if err != nil {
		return 0, dberr.Wrap(err, "purge_dead")
	}
	return int(tag.RowsAffected()), nil
}

func (store *PostgresStore) Close() error {
	store.db.Close()
	return nil
}

// scanRecord hydrates one record from a row.
func scanRecord(row pgx.Row) (*DataRecord, error) {
	record := &DataRecord{}
	var data []byte

	err := row.Scan(&record.ID, &record.Type, &data,
		&record.CreatedAt, &record.UpdatedAt, &record.SyncedAt,
		&record.Version, &record.Deleted)
	if err != nil {
		return nil, dberr.Wrap(err, "scan_record")
	}

	if err := json.Unmarshal(data, &record.Data); err != nil {
		return nil, fmt.Errorf("record_unmarshal_failed: %w", err)
	}
	return record, nil
}
