// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

/*
Package keystore implements the Secure Key-Value Store for the Solace core.

It holds everything the identity layer needs to survive a restart: the
token pair, session info, device identity, biometric preferences, and the
login attempt counters. Values are opaque JSON blobs keyed by string.

Architecture:

  - Store: The storage contract shared by both backends.
  - FileStore: Encrypted-at-rest single-file backend (device deployments).
  - RedisStore: Namespaced Redis backend (server-side deployments).

# Failure Policy

Writes and removals propagate errors to the caller. Reads degrade: a
failed or corrupt read behaves like an absent key (logged, never thrown),
so the identity layer can always fall back to "not authenticated".
*/
package keystore

import (
	stdctx "context"
	"encoding/json"
	"time"
)

// # Storage Contract

// Store defines the secure key-value storage contract.
type Store interface {

	/*
		Store persists an opaque value under the given key, overwriting
		any prior value.

		Parameters:
		  - context: context.Context
		  - key: string
		  - value: []byte (JSON blob)

		Returns:
		  - error: Persistence failures
	*/
	Store(context stdctx.Context, key string, value []byte) error

	/*
		Get returns the value stored under key, or nil if the key is
		absent. Backend failures also return nil (degraded read).

		Parameters:
		  - context: context.Context
		  - key: string

		Returns:
		  - []byte: Stored blob, or nil
	*/
	Get(context stdctx.Context, key string) []byte

	/*
		Remove deletes the value stored under key. Removing an absent
		key is not an error.

		Parameters:
		  - context: context.Context
		  - key: string

		Returns:
		  - error: Persistence failures
	*/
	Remove(context stdctx.Context, key string) error
}

// # Fixed Keys

// Well-known keystore keys used by the identity layer.
const (
	KeyAuthTokens      = "auth.tokens"
	KeySessionInfo     = "auth.session"
	KeyCurrentUser     = "auth.user"
	KeyBiometricConfig = "auth.biometric"
	KeyDeviceID        = "device.id"
	KeyLoginAttempts   = "auth.login_attempts"
	KeyMFAPending      = "auth.mfa_pending"
)

// # JSON Helpers

// PutJSON marshals a value and stores it under key.
func PutJSON(context stdctx.Context, store Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return store.Store(context, key, raw)
}

// GetJSON reads and unmarshals the value stored under key.
// It returns nil if the key is absent or the payload cannot be decoded.
func GetJSON[T any](context stdctx.Context, store Store, key string) *T {
	raw := store.Get(context, key)
	if raw == nil {
		return nil
	}

	value := new(T)
	if err := json.Unmarshal(raw, value); err != nil {
		// Corrupt payloads degrade to absent, same as failed reads.
		return nil
	}
	return value
}

// Millis converts a time to the epoch-milliseconds representation used in
// stored payloads. The zero time maps to 0.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds back to a time. Zero maps to the
// zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
