// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package keystore

import (
	stdctx "context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/solacehq/solace/internal/platform/sec"
)

// File format: magic (4) | version (1) | salt (16) | AEAD ciphertext.
var fileMagic = []byte("SLKS")

const fileVersion = 1

// FileStore implements [Store] with a single encrypted file on disk.
//
// # At-Rest Security
//
// The whole key-value map is serialized to JSON and sealed with
// ChaCha20-Poly1305 under a key derived from the configured passphrase
// (Argon2id, per-store random salt). Writes go through a temp file and an
// atomic rename so a crash never leaves a half-written store.
//
// # Concurrency
//
// A single mutex serializes all operations. The store is process-local;
// cross-process sharing is not supported.
type FileStore struct {
	path   string
	key    []byte
	salt   []byte
	logger *slog.Logger

	mu     sync.Mutex
	values map[string]json.RawMessage
}

// NewFileStore opens (or creates) the encrypted store at path.
//
// # Parameters
//   - path: Filesystem location of the store file.
//   - passphrase: Secret used to derive the encryption key.
//   - logger: Structured logger for degraded-read events.
func NewFileStore(path, passphrase string, logger *slog.Logger) (*FileStore, error) {
	store := &FileStore{
		path:   path,
		logger: logger,
		values: make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// Fresh store: generate a salt and persist an empty map so the
		// salt is durable before any secret is written.
		salt, saltErr := sec.NewSalt()
		if saltErr != nil {
			return nil, saltErr
		}
		store.salt = salt
		store.key = sec.DeriveKey(passphrase, salt)

		if err := store.persistLocked(); err != nil {
			return nil, err
		}
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keystore_file_open_failed: %w", err)
	}

	headerLen := len(fileMagic) + 1 + sec.SaltLength
	if len(raw) < headerLen || string(raw[:len(fileMagic)]) != string(fileMagic) {
		return nil, fmt.Errorf("keystore_file_malformed: not a keystore file")
	}
	if raw[len(fileMagic)] != fileVersion {
		return nil, fmt.Errorf("keystore_file_malformed: unsupported version %d", raw[len(fileMagic)])
	}

	store.salt = raw[len(fileMagic)+1 : headerLen]
	store.key = sec.DeriveKey(passphrase, store.salt)

	plaintext, err := sec.Open(store.key, raw[headerLen:])
	if err != nil {
		return nil, fmt.Errorf("keystore_file_decrypt_failed: %w", err)
	}

	if err := json.Unmarshal(plaintext, &store.values); err != nil {
		return nil, fmt.Errorf("keystore_file_malformed: %w", err)
	}

	return store, nil
}

/*
Store persists a value under key and re-seals the store file.

Parameters:
  - context: context.Context
  - key: string
  - value: []byte

Returns:
  - error: Encryption or filesystem failures
*/
func (store *FileStore) Store(context stdctx.Context, key string, value []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.values[key] = json.RawMessage(value)

	if err := store.persistLocked(); err != nil {
		// Roll back the in-memory map so memory and disk stay consistent.
		delete(store.values, key)
		return err
	}
	return nil
}

/*
Get returns the value stored under key, or nil if absent.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - []byte: Stored blob, or nil
*/
func (store *FileStore) Get(context stdctx.Context, key string) []byte {
	store.mu.Lock()
	defer store.mu.Unlock()

	value, found := store.values[key]
	if !found {
		return nil
	}

	// Copy so callers cannot mutate the stored blob.
	out := make([]byte, len(value))
	copy(out, value)
	return out
}

/*
Remove deletes the value stored under key.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - error: Filesystem failures
*/
func (store *FileStore) Remove(context stdctx.Context, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	previous, found := store.values[key]
	if !found {
		return nil
	}

	delete(store.values, key)

	if err := store.persistLocked(); err != nil {
		store.values[key] = previous
		return err
	}
	return nil
}

// persistLocked seals the current map and atomically replaces the store
// file. The caller must hold the mutex.
func (store *FileStore) persistLocked() error {
	plaintext, err := json.Marshal(store.values)
	if err != nil {
		return fmt.Errorf("keystore_file_marshal_failed: %w", err)
	}

	sealed, err := sec.Seal(store.key, plaintext)
	if err != nil {
		return fmt.Errorf("keystore_file_encrypt_failed: %w", err)
	}

	payload := make([]byte, 0, len(fileMagic)+1+len(store.salt)+len(sealed))
	payload = append(payload, fileMagic...)
	payload = append(payload, fileVersion)
	payload = append(payload, store.salt...)
	payload = append(payload, sealed...)

	if err := os.MkdirAll(filepath.Dir(store.path), 0o700); err != nil {
		return fmt.Errorf("keystore_file_mkdir_failed: %w", err)
	}

	temp := store.path + ".tmp"
	if err := os.WriteFile(temp, payload, 0o600); err != nil {
		return fmt.Errorf("keystore_file_write_failed: %w", err)
	}

	if err := os.Rename(temp, store.path); err != nil {
		return fmt.Errorf("keystore_file_rename_failed: %w", err)
	}

	return nil
}
