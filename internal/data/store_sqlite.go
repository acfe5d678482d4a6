// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/solacehq/solace/internal/platform/dberr"
)

// # SQLite Backend
//
// The embedded default: a single database file next to the keystore,
// managed through gorm, schema applied via AutoMigrate on open.

// recordRow is the gorm model for a stored record. Timestamps are epoch
// milliseconds managed by the service layer, so gorm's automatic
// timestamp tracking is disabled.
type recordRow struct {
	ID         string `gorm:"column:id;primaryKey"`
	RecordType string `gorm:"column:recordtype;index"`
	Data       string `gorm:"column:data"`
	CreatedAt  int64  `gorm:"column:createdat;autoCreateTime:false"`
	UpdatedAt  int64  `gorm:"column:updatedat;autoUpdateTime:false"`
	SyncedAt   *int64 `gorm:"column:syncedat"`
	Version    int    `gorm:"column:version"`
	IsDeleted  bool   `gorm:"column:isdeleted"`
}

func (recordRow) TableName() string { return "record" }

// queueRow is the gorm model for a pending sync mutation.
type queueRow struct {
	ID          string `gorm:"column:id;primaryKey"`
	Operation   string `gorm:"column:operation"`
	RecordType  string `gorm:"column:recordtype"`
	RecordID    string `gorm:"column:recordid"`
	Payload     string `gorm:"column:payload"`
	RetryCount  int    `gorm:"column:retrycount"`
	CreatedAt   int64  `gorm:"column:createdat;autoCreateTime:false"`
	LastAttempt *int64 `gorm:"column:lastattempt"`
}

func (queueRow) TableName() string { return "syncqueue" }

// SQLiteStore implements [Store] over an embedded database file.
type SQLiteStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the database file and
// applies the schema.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite_open_failed: %w", err)
	}

	if err := db.AutoMigrate(&recordRow{}, &queueRow{}); err != nil {
		return nil, fmt.Errorf("sqlite_migrate_failed: %w", err)
	}

	logger.Info("sqlite store opened", slog.String("path", path))
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (store *SQLiteStore) Insert(context context.Context, record *DataRecord) error {
	row, err := recordToRow(record)
	if err != nil {
		return err
	}
	return dberr.Wrap(store.db.WithContext(context).Create(row).Error, "insert_record")
}

func (store *SQLiteStore) InsertBatch(context context.Context, records []*DataRecord) error {
	rows := make([]*recordRow, 0, len(records))
	for _, record := range records {
		row, err := recordToRow(record)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	// One transaction: any failure rolls the whole batch back.
	err := store.db.WithContext(context).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return dberr.Wrap(err, "insert_batch")
}

func (store *SQLiteStore) Get(context context.Context, id string) (*DataRecord, error) {
	row := &recordRow{}
	if err := store.db.WithContext(context).First(row, "id = ?", id).Error; err != nil {
		return nil, dberr.Wrap(err, "get_record")
	}
	return rowToRecord(row)
}

func (store *SQLiteStore) Find(context context.Context, query Query) ([]*DataRecord, error) {
	tx := store.db.WithContext(context).Model(&recordRow{}).Where("recordtype = ?", query.Type)

	if !query.IncludeDeleted {
		tx = tx.Where("isdeleted = ?", false)
	}
	for field, value := range query.Filters {
		path, err := jsonPath(field)
		if err != nil {
			return nil, err
		}
		tx = tx.Where("json_extract(data, ?) = ?", path, value)
	}

	if order, err := sqliteOrder(query); err != nil {
		return nil, err
	} else if order != "" {
		tx = tx.Order(order)
	}
	if query.Limit > 0 {
		tx = tx.Limit(query.Limit)
	}
	if query.Offset > 0 {
		tx = tx.Offset(query.Offset)
	}

	rows := []*recordRow{}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, dberr.Wrap(err, "find_records")
	}

	records := make([]*DataRecord, 0, len(rows))
	for _, row := range rows {
		record, err := rowToRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (store *SQLiteStore) Save(context context.Context, record *DataRecord) error {
	row, err := recordToRow(record)
	if err != nil {
		return err
	}

	result := store.db.WithContext(context).Model(&recordRow{}).Where("id = ?", row.ID).
		Select("*").Omit("id").Updates(row)
	if result.Error != nil {
		return dberr.Wrap(result.Error, "save_record")
	}
	if result.RowsAffected == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (store *SQLiteStore) MarkSynced(context context.Context, id string, syncedAt int64) error {
	result := store.db.WithContext(context).Model(&recordRow{}).Where("id = ?", id).
		Update("syncedat", syncedAt)
	if result.Error != nil {
		return dberr.Wrap(result.Error, "mark_synced")
	}
	if result.RowsAffected == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (store *SQLiteStore) Enqueue(context context.Context, item *SyncQueueItem) error {
	row, err := itemToRow(item)
	if err != nil {
		return err
	}
	return dberr.Wrap(store.db.WithContext(context).Create(row).Error, "enqueue_item")
}

func (store *SQLiteStore) Pending(context context.Context, maxRetries int) ([]*SyncQueueItem, error) {
	rows := []*queueRow{}
	err := store.db.WithContext(context).
		Where("retrycount < ?", maxRetries).
		Order("createdat ASC").
		Find(&rows).Error
	if err != nil {
		return nil, dberr.Wrap(err, "pending_items")
	}

	items := make([]*SyncQueueItem, 0, len(rows))
	for _, row := range rows {
		item, err := rowToItem(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (store *SQLiteStore) RecordAttempt(context context.Context, item *SyncQueueItem) error {
	err := store.db.WithContext(context).Model(&queueRow{}).Where("id = ?", item.ID).
		Updates(map[string]any{
			"retrycount":  item.RetryCount,
			"lastattempt": item.LastAttempt,
		}).Error
	return dberr.Wrap(err, "record_attempt")
}

func (store *SQLiteStore) Dequeue(context context.Context, id string) error {
	return dberr.Wrap(store.db.WithContext(context).Delete(&queueRow{}, "id = ?", id).Error, "dequeue_item")
}

func (store *SQLiteStore) PurgeDead(context context.Context, maxRetries int) (int, error) {
	result := store.db.WithContext(context).Delete(&queueRow{}, "retrycount >= ?", maxRetries)
	if result.Error != nil {
		return 0, dberr.Wrap(result.Error, "purge_dead")
	}
	return int(result.RowsAffected), nil
}

func (store *SQLiteStore) Close() error {
	db, err := store.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// # Row Mapping

func recordToRow(record *DataRecord) (*recordRow, error) {
	data, err := json.Marshal(record.Data)
	if err != nil {
		return nil, fmt.Errorf("record_marshal_failed: %w", err)
	}
	return &recordRow{
		ID:         record.ID,
		RecordType: record.Type,
		Data:       string(data),
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
		SyncedAt:   record.SyncedAt,
		Version:    record.Version,
		IsDeleted:  record.Deleted,
	}, nil
}

func rowToRecord(row *recordRow) (*DataRecord, error) {
	record := &DataRecord{
		ID:        row.ID,
		Type:      row.RecordType,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		SyncedAt:  row.SyncedAt,
		Version:   row.Version,
		Deleted:   row.IsDeleted,
	}
	if err := json.Unmarshal([]byte(row.Data), &record.Data); err != nil {
		return nil, fmt.Errorf("record_unmarshal_failed: %w", err)
	}
	return record, nil
}

func itemToRow(item *SyncQueueItem) (*queueRow, error) {
	payload, err := json.Marshal(item.Payload)
	if err != nil {
		return nil, fmt.Errorf("item_marshal_failed: %w", err)
	}
	return &queueRow{
		ID:          item.ID,
		Operation:   string(item.Operation),
		RecordType:  item.Type,
		RecordID:    item.RecordID,
		Payload:     string(payload),
		RetryCount:  item.RetryCount,
		CreatedAt:   item.CreatedAt,
		LastAttempt: item.LastAttempt,
	}, nil
}

func rowToItem(row *queueRow) (*SyncQueueItem, error) {
	item := &SyncQueueItem{
		ID:          row.ID,
		Operation:   Operation(row.Operation),
		Type:        row.RecordType,
		RecordID:    row.RecordID,
		RetryCount:  row.RetryCount,
		CreatedAt:   row.CreatedAt,
		LastAttempt: row.LastAttempt,
	}
	if err := json.Unmarshal([]byte(row.Payload), &item.Payload); err != nil {
		return nil, fmt.Errorf("item_unmarshal_failed: %w", err)
	}
	return item, nil
}

// # Query Helpers

// fieldPattern restricts payload field names used in SQL fragments.
var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// jsonPath converts a payload field name into a JSON1 path expression,
// rejecting anything that could smuggle SQL.
func jsonPath(field string) (string, error) {
	if !fieldPattern.MatchString(field) {
		return "", fmt.Errorf("invalid_filter_field: %q", field)
	}
	return "$." + field, nil
}

// sqliteOrder builds the ORDER BY clause for a query, mapping record
// columns directly and payload fields through json_extract.
func sqliteOrder(query Query) (string, error) {
	if query.SortBy == "" {
		return "", nil
	}

	direction := "ASC"
	if query.SortDesc {
		direction = "DESC"
	}

	switch query.SortBy {
	case "createdAt":
		return "createdat " + direction, nil
	case "updatedAt":
		return "updatedat " + direction, nil
	case "version":
		return "version " + direction, nil
	}

	path, err := jsonPath(query.SortBy)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("json_extract(data, '%s') %s", path, direction), nil
}
