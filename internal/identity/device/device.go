// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

/*
Package device implements the Device Identity Provider.

It derives and persists a stable per-install device identifier and a
composite fingerprint (device id + platform + OS version + timezone
offset), hashed with SHA-256. The fingerprint travels with every auth
request so the backend can flag anomalous logins.

The platform attributes come from an injectable [InfoSource] so tests and
embedders (which know the real OS version) can supply their own values.
*/
package device

import (
	stdctx "context"
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/solacehq/solace/internal/keystore"
	"github.com/solacehq/solace/internal/platform/sec"
	"github.com/solacehq/solace/pkg/uuid"
)

// Info describes the platform attributes folded into the fingerprint.
type Info struct {
	// Platform is the operating system family (e.g. "ios", "android", "linux").
	Platform string
	// OSVersion is the platform version string as reported by the host.
	OSVersion string
	// TimezoneOffsetMinutes is the offset from UTC of the local timezone.
	TimezoneOffsetMinutes int
}

// InfoSource supplies the current platform attributes.
type InfoSource func() Info

// RuntimeInfo is the default [InfoSource]. It reports the Go runtime's view
// of the host; embedders should override it with the real device attributes.
func RuntimeInfo() Info {
	_, offsetSeconds := time.Now().Zone()
	return Info{
		Platform:              runtime.GOOS,
		OSVersion:             runtime.Version(),
		TimezoneOffsetMinutes: offsetSeconds / 60,
	}
}

// Provider derives and persists the device identity.
type Provider struct {
	store  keystore.Store
	source InfoSource
}

// NewProvider constructs a [Provider] backed by the given secure store.
// A nil source defaults to [RuntimeInfo].
func NewProvider(store keystore.Store, source InfoSource) *Provider {
	if source == nil {
		source = RuntimeInfo
	}
	return &Provider{store: store, source: source}
}

/*
DeviceID returns the stable per-install device identifier, creating and
persisting one on first use.

Parameters:
  - context: context.Context

Returns:
  - string: UUIDv7 device identifier
  - error: Persistence failures on first creation
*/
func (provider *Provider) DeviceID(context stdctx.Context) (string, error) {

	// Reuse the persisted identifier when present
	if raw := provider.store.Get(context, keystore.KeyDeviceID); raw != nil {
		var id string
		if err := json.Unmarshal(raw, &id); err == nil && id != "" {
			return id, nil
		}
	}

	// First use: mint a new identifier and persist it before returning,
	// so the id survives restarts from the very first auth request.
	id := uuid.New()

	raw, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("device_id_marshal_failed: %w", err)
	}
	if err := provider.store.Store(context, keystore.KeyDeviceID, raw); err != nil {
		return "", fmt.Errorf("device_id_persist_failed: %w", err)
	}

	return id, nil
}

/*
Fingerprint computes the composite device fingerprint.

Description: SHA-256 over device id, platform, OS version, and timezone
offset. Stable for a given install unless the device itself changes.

Parameters:
  - context: context.Context

Returns:
  - string: Hex-encoded fingerprint
  - error: Device id derivation failures
*/
func (provider *Provider) Fingerprint(context stdctx.Context) (string, error) {
	id, err := provider.DeviceID(context)
	if err != nil {
		return "", err
	}

	info := provider.source()

	return sec.Fingerprint(
		id,
		info.Platform,
		info.OSVersion,
		strconv.Itoa(info.TimezoneOffsetMinutes),
	), nil
}
