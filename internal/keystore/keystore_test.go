// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package keystore_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacehq/solace/internal/keystore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

/*
TestFileStore_RoundTrip verifies store/get/remove against the encrypted file backend.
*/
func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keystore.bin")

	store, err := keystore.NewFileStore(path, "test-passphrase", testLogger())
	require.NoError(t, err)

	require.NoError(t, store.Store(ctx, "auth.tokens", []byte(`{"accessToken":"abc"}`)))
	assert.Equal(t, []byte(`{"accessToken":"abc"}`), store.Get(ctx, "auth.tokens"))

	// Absent key degrades to nil.
	assert.Nil(t, store.Get(ctx, "missing"))

	require.NoError(t, store.Remove(ctx, "auth.tokens"))
	assert.Nil(t, store.Get(ctx, "auth.tokens"))

	// Removing an absent key is not an error.
	require.NoError(t, store.Remove(ctx, "auth.tokens"))
}

/*
TestFileStore_PersistsAcrossReopen verifies durability and that the file
on disk is actually ciphertext.
*/
func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keystore.bin")

	store, err := keystore.NewFileStore(path, "test-passphrase", testLogger())
	require.NoError(t, err)
	require.NoError(t, store.Store(ctx, "device.id", []byte(`"device-123"`)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "device-123", "plaintext must never hit disk")

	reopened, err := keystore.NewFileStore(path, "test-passphrase", testLogger())
	require.NoError(t, err)
	assert.Equal(t, []byte(`"device-123"`), reopened.Get(ctx, "device.id"))
}

/*
TestFileStore_WrongPassphrase verifies that a wrong passphrase fails to open.
*/
func TestFileStore_WrongPassphrase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keystore.bin")

	store, err := keystore.NewFileStore(path, "right", testLogger())
	require.NoError(t, err)
	require.NoError(t, store.Store(ctx, "auth.tokens", []byte(`{}`)))

	_, err = keystore.NewFileStore(path, "wrong", testLogger())
	assert.Error(t, err)
}

/*
TestRedisStore_RoundTrip verifies the Redis backend against miniredis.
*/
func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := keystore.NewRedisStore(client, "install-1", testLogger())

	require.NoError(t, store.Store(ctx, "auth.session", []byte(`{"isActive":true}`)))
	assert.Equal(t, []byte(`{"isActive":true}`), store.Get(ctx, "auth.session"))

	require.NoError(t, store.Remove(ctx, "auth.session"))
	assert.Nil(t, store.Get(ctx, "auth.session"))
}

/*
TestRedisStore_DegradedGet verifies that a dead backend degrades reads to nil.
*/
func TestRedisStore_DegradedGet(t *testing.T) {
	ctx := context.Background()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := keystore.NewRedisStore(client, "install-1", testLogger())
	require.NoError(t, store.Store(ctx, "auth.user", []byte(`{}`)))

	server.Close()

	assert.Nil(t, store.Get(ctx, "auth.user"))
	assert.Error(t, store.Store(ctx, "auth.user", []byte(`{}`)))
}

/*
TestGetJSON verifies typed reads and corrupt-payload degradation.
*/
func TestGetJSON(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keystore.bin")

	store, err := keystore.NewFileStore(path, "test-passphrase", testLogger())
	require.NoError(t, err)

	type tokens struct {
		AccessToken string `json:"accessToken"`
	}

	require.NoError(t, keystore.PutJSON(ctx, store, keystore.KeyAuthTokens, tokens{AccessToken: "abc"}))

	got := keystore.GetJSON[tokens](ctx, store, keystore.KeyAuthTokens)
	require.NotNil(t, got)
	assert.Equal(t, "abc", got.AccessToken)

	// Corrupt payloads degrade to nil.
	require.NoError(t, store.Store(ctx, keystore.KeyAuthTokens, []byte("{not json")))
	assert.Nil(t, keystore.GetJSON[tokens](ctx, store, keystore.KeyAuthTokens))
}
