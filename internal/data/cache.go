// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package data

import (
	"sync"
	"time"

	cache "github.com/go-pkgz/expirable-cache"
)

// DefaultCacheTTL is how long a cached read stays valid.
const DefaultCacheTTL = 5 * time.Minute

// maxCacheKeys bounds the cache so an unbounded variety of queries
// cannot grow memory without limit.
const maxCacheKeys = 512

// QueryCache is the in-memory TTL cache over read queries.
//
// # Invalidation
//
// Invalidation is by record type through an explicit type→keys index:
// every cached key is registered under its query's type, and
// InvalidateType drops exactly those keys. No substring matching over
// the key space.
type QueryCache struct {
	ttl   time.Duration
	store cache.Cache

	mu    sync.Mutex
	index map[string]map[string]struct{}
}

// NewQueryCache builds a [QueryCache]. A non-positive ttl falls back to
// the default.
func NewQueryCache(ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	// MaxKeys is a hard bound; NewCache only errors on invalid options,
	// which these are not.
	store, _ := cache.NewCache(cache.TTL(ttl), cache.MaxKeys(maxCacheKeys))

	return &QueryCache{
		ttl:   ttl,
		store: store,
		index: make(map[string]map[string]struct{}),
	}
}

// Get returns the cached result set for the query, if present and fresh.
func (qc *QueryCache) Get(query Query) ([]*DataRecord, bool) {
	value, found := qc.store.Get(query.CacheKey())
	if !found {
		return nil, false
	}
	records, ok := value.([]*DataRecord)
	return records, ok
}

// Put caches a result set and registers its key under the query's type.
func (qc *QueryCache) Put(query Query, records []*DataRecord) {
	key := query.CacheKey()
	qc.store.Set(key, records, qc.ttl)

	qc.mu.Lock()
	defer qc.mu.Unlock()
	keys, found := qc.index[query.Type]
	if !found {
		keys = make(map[string]struct{})
		qc.index[query.Type] = keys
	}
	keys[key] = struct{}{}
}

// InvalidateType drops every cached result whose query targeted the
// given record type.
func (qc *QueryCache) InvalidateType(recordType string) {
	qc.mu.Lock()
	keys := qc.index[recordType]
	delete(qc.index, recordType)
	qc.mu.Unlock()

	for key := range keys {
		qc.store.Invalidate(key)
	}
}

// Sweep removes every entry whose TTL has elapsed and prunes the index
// of keys that no longer resolve.
func (qc *QueryCache) Sweep() {
	qc.store.DeleteExpired()

	qc.mu.Lock()
	defer qc.mu.Unlock()
	for recordType, keys := range qc.index {
		for key := range keys {
			if _, found := qc.store.Peek(key); !found {
				delete(keys, key)
			}
		}
		if len(keys) == 0 {
			delete(qc.index, recordType)
		}
	}
}

// Purge drops everything. Used at logout so no cached reads survive the
// session.
func (qc *QueryCache) Purge() {
	qc.store.Purge()

	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.index = make(map[string]map[string]struct{})
}
