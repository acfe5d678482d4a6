// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package biometric_test

import (
	stdctx "context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacehq/solace/internal/identity/biometric"
	"github.com/solacehq/solace/internal/keystore"
	"github.com/solacehq/solace/internal/platform/apperr"
)

// fakeProvider is a scriptable platform bridge.
type fakeProvider struct {
	hardware bool
	enrolled bool
	types    []biometric.Type
	success  bool
	reason   string
}

func (p *fakeProvider) HasHardware(stdctx.Context) bool                { return p.hardware }
func (p *fakeProvider) IsEnrolled(stdctx.Context) bool                 { return p.enrolled }
func (p *fakeProvider) SupportedTypes(stdctx.Context) []biometric.Type { return p.types }
func (p *fakeProvider) Authenticate(stdctx.Context, string) (bool, string) {
	return p.success, p.reason
}

func newStore(t *testing.T) keystore.Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := keystore.NewFileStore(filepath.Join(t.TempDir(), "ks.bin"), "pass", logger)
	require.NoError(t, err)
	return store
}

/*
TestAvailable requires both hardware and enrollment.
*/
func TestAvailable(t *testing.T) {
	tests := []struct {
		name     string
		hardware bool
		enrolled bool
		want     bool
	}{
		{"hardware_and_enrolled", true, true, true},
		{"hardware_only", true, false, false},
		{"enrolled_only", false, true, false},
		{"neither", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := biometric.NewService(&fakeProvider{hardware: tt.hardware, enrolled: tt.enrolled}, newStore(t))
			assert.Equal(t, tt.want, service.Available(stdctx.Background()))
		})
	}
}

/*
TestEnable_RecordsFirstSupportedType verifies enablement persistence.
*/
func TestEnable_RecordsFirstSupportedType(t *testing.T) {
	ctx := stdctx.Background()
	store := newStore(t)
	provider := &fakeProvider{
		hardware: true,
		enrolled: true,
		types:    []biometric.Type{biometric.TypeFace, biometric.TypeFingerprint},
	}

	service := biometric.NewService(provider, store)

	config, err := service.Enable(ctx)
	require.NoError(t, err)
	assert.True(t, config.Enabled)
	assert.Equal(t, biometric.TypeFace, config.Type)
	assert.NotZero(t, config.LastUsed)

	// Persisted and visible to a fresh service.
	assert.NotNil(t, biometric.NewService(provider, store).Enabled(ctx))
}

/*
TestEnable_Unavailable verifies the UNAVAILABLE error paths.
*/
func TestEnable_Unavailable(t *testing.T) {
	ctx := stdctx.Background()

	_, err := biometric.NewService(&fakeProvider{hardware: false}, newStore(t)).Enable(ctx)
	assert.True(t, apperr.IsCode(err, apperr.CodeUnavailable))

	_, err = biometric.NewService(&fakeProvider{hardware: true, enrolled: false}, newStore(t)).Enable(ctx)
	assert.True(t, apperr.IsCode(err, apperr.CodeUnavailable))
}

/*
TestDisable_ClearsConfig verifies explicit disable is the only clearing path.
*/
func TestDisable_ClearsConfig(t *testing.T) {
	ctx := stdctx.Background()
	store := newStore(t)
	provider := &fakeProvider{hardware: true, enrolled: true, types: []biometric.Type{biometric.TypeFingerprint}}

	service := biometric.NewService(provider, store)
	_, err := service.Enable(ctx)
	require.NoError(t, err)

	require.NoError(t, service.Disable(ctx))
	assert.Nil(t, service.Enabled(ctx))
}

/*
TestAuthenticate_FailureMapping verifies each platform reason maps to its
own error type with a message.
*/
func TestAuthenticate_FailureMapping(t *testing.T) {
	tests := []struct {
		reason string
		want   biometric.ErrorType
	}{
		{"user_cancel", biometric.ErrUserCancel},
		{"system_cancel", biometric.ErrSystemCancel},
		{"not_enrolled", biometric.ErrNotEnrolled},
		{"lockout", biometric.ErrLockout},
		{"lockout_permanent", biometric.ErrLockoutPermanent},
		{"passcode_not_set", biometric.ErrPasscodeNotSet},
		{"something_else", biometric.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			provider := &fakeProvider{hardware: true, enrolled: true, success: false, reason: tt.reason}
			service := biometric.NewService(provider, newStore(t))

			result := service.Authenticate(stdctx.Background(), "Unlock Solace")
			assert.False(t, result.Success)
			assert.Equal(t, tt.want, result.ErrorType)
			assert.NotEmpty(t, result.Message)
		})
	}
}

/*
TestAuthenticate_NoHardware never reaches the platform prompt.
*/
func TestAuthenticate_NoHardware(t *testing.T) {
	provider := &fakeProvider{hardware: false, success: true}
	service := biometric.NewService(provider, newStore(t))

	result := service.Authenticate(stdctx.Background(), "Unlock Solace")
	assert.False(t, result.Success)
	assert.Equal(t, biometric.ErrUnknown, result.ErrorType)
}

/*
TestAuthenticate_Success returns a bare success result.
*/
func TestAuthenticate_Success(t *testing.T) {
	provider := &fakeProvider{hardware: true, enrolled: true, success: true}
	service := biometric.NewService(provider, newStore(t))

	result := service.Authenticate(stdctx.Background(), "Unlock Solace")
	assert.True(t, result.Success)
	assert.Empty(t, result.ErrorType)
	assert.Empty(t, result.Message)
}
