// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package device_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacehq/solace/internal/identity/device"
	"github.com/solacehq/solace/internal/keystore"
)

func newStore(t *testing.T) keystore.Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := keystore.NewFileStore(filepath.Join(t.TempDir(), "ks.bin"), "pass", logger)
	require.NoError(t, err)
	return store
}

func staticInfo() device.Info {
	return device.Info{Platform: "ios", OSVersion: "17.4", TimezoneOffsetMinutes: -480}
}

/*
TestDeviceID_StableAcrossCalls verifies the identifier is minted once and reused.
*/
func TestDeviceID_StableAcrossCalls(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	provider := device.NewProvider(store, staticInfo)

	first, err := provider.DeviceID(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := provider.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A fresh provider over the same store sees the same id.
	again, err := device.NewProvider(store, staticInfo).DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

/*
TestFingerprint_Deterministic verifies fingerprint stability and sensitivity.
*/
func TestFingerprint_Deterministic(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	provider := device.NewProvider(store, staticInfo)

	a, err := provider.Fingerprint(ctx)
	require.NoError(t, err)
	b, err := provider.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	// Changing a platform attribute changes the fingerprint.
	moved := device.NewProvider(store, func() device.Info {
		info := staticInfo()
		info.TimezoneOffsetMinutes = 60
		return info
	})
	c, err := moved.Fingerprint(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

/*
TestFingerprint_DiffersPerInstall verifies separate stores fingerprint differently.
*/
func TestFingerprint_DiffersPerInstall(t *testing.T) {
	ctx := context.Background()

	a, err := device.NewProvider(newStore(t), staticInfo).Fingerprint(ctx)
	require.NoError(t, err)
	b, err := device.NewProvider(newStore(t), staticInfo).Fingerprint(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
