// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package data

import (
	stdctx "context"
	"log/slog"
	"time"

	"github.com/solacehq/solace/internal/keystore"
	"github.com/solacehq/solace/internal/platform/validate"
	"github.com/solacehq/solace/pkg/uuid"
)

// # Structured Store Service

// Service is the CRUD façade over the structured store: every local
// mutation also lands in the sync queue, and reads consult the TTL
// cache before hitting storage.
type Service struct {
	store  Store
	cache  *QueryCache
	net    *Connectivity
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the data [Service].
func NewService(store Store, cache *QueryCache, net *Connectivity, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		net:    net,
		logger: logger,
		now:    time.Now,
	}
}

/*
Create persists a new record of the given type.

Description: Assigns a generated id, version 1, and timestamps; queues a
create mutation for reconciliation; invalidates cached reads for the
type. The record is local-first: a queue hiccup is logged, never
surfaced, because the user's write already succeeded.

Parameters:
  - context: context.Context
  - recordType: string
  - payload: map[string]any (opaque record body)

Returns:
  - *DataRecord: The persisted record
  - error: Validation or storage failures
*/
func (service *Service) Create(context stdctx.Context, recordType string, payload map[string]any) (*DataRecord, error) {
	v := &validate.Validator{}
	if err := v.Required("type", recordType).Err(); err != nil {
		return nil, err
	}

	record := service.newRecord(recordType, payload)
	if err := service.store.Insert(context, record); err != nil {
		return nil, err
	}

	service.enqueue(context, OpCreate, record)
	service.cache.InvalidateType(recordType)

	service.logger.Debug("record_created",
		slog.String("record_id", record.ID),
		slog.String("record_type", recordType),
	)
	return record, nil
}

/*
BatchCreate persists several records of one type, all-or-nothing.

Description: The batch lands in a single local transaction; on any
failure the whole batch rolls back before any sync items are queued.

Parameters:
  - context: context.Context
  - recordType: string
  - payloads: []map[string]any

Returns:
  - []*DataRecord: The persisted records, in input order
  - error: Validation or storage failures
*/
func (service *Service) BatchCreate(context stdctx.Context, recordType string, payloads []map[string]any) ([]*DataRecord, error) {
	v := &validate.Validator{}
	if err := v.Required("type", recordType).
		Custom("items", len(payloads) == 0, "Must contain at least one item").
		Err(); err != nil {
		return nil, err
	}

	records := make([]*DataRecord, 0, len(payloads))
	for _, payload := range payloads {
		records = append(records, service.newRecord(recordType, payload))
	}

	if err := service.store.InsertBatch(context, records); err != nil {
		return nil, err
	}

	// Queue items only after the transaction committed.
	for _, record := range records {
		service.enqueue(context, OpCreate, record)
	}
	service.cache.InvalidateType(recordType)

	return records, nil
}

/*
Read returns the records matching the query.

Description: Consults the TTL cache first; a miss reads storage and
caches the result under the serialized query key.

Parameters:
  - context: context.Context
  - query: Query

Returns:
  - []*DataRecord: Matching records
  - error: Storage failures
*/
func (service *Service) Read(context stdctx.Context, query Query) ([]*DataRecord, error) {
	if records, found := service.cache.Get(query); found {
		return records, nil
	}

	records, err := service.store.Find(context, query)
	if err != nil {
		return nil, err
	}

	service.cache.Put(query, records)
	return records, nil
}

/*
Update merges a partial payload into an existing record.

Description: Fails with NOT_FOUND if the record is absent. Increments
the version by exactly 1, clears syncedAt, queues an update mutation,
and invalidates cached reads for the record's type.

Parameters:
  - context: context.Context
  - id: string
  - partial: map[string]any (fields merged into the existing payload)

Returns:
  - *DataRecord: The updated record
  - error: NOT_FOUND or storage failures
*/
func (service *Service) Update(context stdctx.Context, id string, partial map[string]any) (*DataRecord, error) {
	record, err := service.store.Get(context, id)
	if err != nil {
		return nil, err
	}

	if record.Data == nil {
		record.Data = make(map[string]any)
	}
	for key, value := range partial {
		record.Data[key] = value
	}

	record.Version++
	record.UpdatedAt = keystore.Millis(service.now())
	record.SyncedAt = nil

	if err := service.store.Save(context, record); err != nil {
		return nil, err
	}

	service.enqueue(context, OpUpdate, record)
	service.cache.InvalidateType(record.Type)

	return record, nil
}

/*
Delete soft-deletes a record.

Description: Sets the deleted flag so the deletion itself can still be
reconciled remotely; the row is never physically removed here. Queues a
delete mutation and invalidates cached reads for the type.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: NOT_FOUND or storage failures
*/
func (service *Service) Delete(context stdctx.Context, id string) error {
	record, err := service.store.Get(context, id)
	if err != nil {
		return err
	}

	record.Deleted = true
	record.UpdatedAt = keystore.Millis(service.now())
	record.SyncedAt = nil

	if err := service.store.Save(context, record); err != nil {
		return err
	}

	service.enqueue(context, OpDelete, record)
	service.cache.InvalidateType(record.Type)

	return nil
}

// Get returns a single record by id, including soft-deleted ones.
func (service *Service) Get(context stdctx.Context, id string) (*DataRecord, error) {
	return service.store.Get(context, id)
}

// Cache exposes the query cache for the engine's sweep tick.
func (service *Service) Cache() *QueryCache {
	return service.cache
}

// newRecord builds a fresh record with generated identity and timestamps.
func (service *Service) newRecord(recordType string, payload map[string]any) *DataRecord {
	if payload == nil {
		payload = make(map[string]any)
	}
	now := keystore.Millis(service.now())
	return &DataRecord{
		ID:        uuid.New(),
		Type:      recordType,
		Data:      payload,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// enqueue appends the mutation to the sync queue. Queue failures degrade
// to a warning: the local write already succeeded and the record's nil
// syncedAt still marks it unsynced.
func (service *Service) enqueue(context stdctx.Context, operation Operation, record *DataRecord) {
	item := &SyncQueueItem{
		ID:        uuid.New(),
		Operation: operation,
		Type:      record.Type,
		RecordID:  record.ID,
		CreatedAt: keystore.Millis(service.now()),
	}
	if operation != OpDelete {
		item.Payload = snapshot(record)
	}

	if err := service.store.Enqueue(context, item); err != nil {
		service.logger.Warn("sync_enqueue_failed",
			slog.String("record_id", record.ID),
			slog.Any("error", err),
		)
	}
}

// snapshot captures the record's wire form for the queue payload.
func snapshot(record *DataRecord) map[string]any {
	return map[string]any{
		"id":        record.ID,
		"type":      record.Type,
		"data":      record.Data,
		"createdAt": record.CreatedAt,
		"updatedAt": record.UpdatedAt,
		"version":   record.Version,
		"deleted":   record.Deleted,
	}
}
