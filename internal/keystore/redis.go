// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package keystore

import (
	stdctx "context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements [Store] on top of a Redis client.
//
// It is used when the core runs server-side, where at-rest encryption is
// delegated to the Redis deployment and keys are namespaced per install.
type RedisStore struct {
	client    *redis.Client
	namespace string
	logger    *slog.Logger
}

// NewRedisStore creates a Redis-backed [Store] under the given namespace.
func NewRedisStore(client *redis.Client, namespace string, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

/*
Store persists a value under the namespaced key.

Parameters:
  - context: context.Context
  - key: string
  - value: []byte

Returns:
  - error: Execution errors
*/
func (store *RedisStore) Store(context stdctx.Context, key string, value []byte) error {

	// Namespace the key per install
	namespaced := fmt.Sprintf("keystore:%s:%s", store.namespace, key)

	// Values never expire on their own; the identity layer owns lifecycle.
	if err := store.client.Set(context, namespaced, value, 0).Err(); err != nil {
		return fmt.Errorf("redis_keystore_set_failed: %w", err)
	}

	// Return nil on success
	return nil
}

/*
Get returns the value stored under key, or nil if absent.

Description: Backend failures degrade to nil (logged, never thrown).

Parameters:
  - context: context.Context
  - key: string

Returns:
  - []byte: Stored blob, or nil
*/
func (store *RedisStore) Get(context stdctx.Context, key string) []byte {

	// Namespace the key per install
	namespaced := fmt.Sprintf("keystore:%s:%s", store.namespace, key)

	// Get the value from Redis
	value, err := store.client.Get(context, namespaced).Bytes()

	// Handle errors
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			store.logger.Warn("redis_keystore_get_degraded",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
		return nil
	}

	// Return the stored blob
	return value
}

/*
Remove deletes the value stored under key.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - error: Deletion failures
*/
func (store *RedisStore) Remove(context stdctx.Context, key string) error {

	// Namespace the key per install
	namespaced := fmt.Sprintf("keystore:%s:%s", store.namespace, key)

	// Delete the key from Redis
	if err := store.client.Del(context, namespaced).Err(); err != nil {
		return fmt.Errorf("redis_keystore_del_failed: %w", err)
	}

	// Return nil on success
	return nil
}
