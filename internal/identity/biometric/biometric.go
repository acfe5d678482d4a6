// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

/*
Package biometric implements the biometric authentication sub-contract.

The platform bridge (Face ID, fingerprint reader, etc.) lives behind the
[Provider] interface; this package owns enablement state and the mapping
of raw platform failure reasons to a discriminated result the caller can
branch on without string matching.

# Failure Policy

Authenticate never returns an error for expected failure modes (cancel,
lockout, not enrolled); it returns a structured [Result] instead.
Exceptions are reserved for truly unexpected conditions.
*/
package biometric

import (
	stdctx "context"
	"fmt"
	"time"

	"github.com/solacehq/solace/internal/keystore"
	"github.com/solacehq/solace/internal/platform/apperr"
)

// # Platform Bridge

// Type identifies a biometric modality supported by the hardware.
type Type string

// Supported biometric modalities.
const (
	TypeFingerprint Type = "fingerprint"
	TypeFace        Type = "face"
	TypeIris        Type = "iris"
)

// Provider abstracts the platform biometric hardware.
type Provider interface {

	// HasHardware reports whether the device has biometric hardware at all.
	HasHardware(context stdctx.Context) bool

	// IsEnrolled reports whether at least one biometric is enrolled.
	IsEnrolled(context stdctx.Context) bool

	// SupportedTypes lists the modalities the hardware supports, in
	// preference order.
	SupportedTypes(context stdctx.Context) []Type

	// Authenticate shows the platform prompt and returns the raw outcome.
	// The reason string is only meaningful when success is false.
	Authenticate(context stdctx.Context, prompt string) (success bool, reason string)
}

// # Discriminated Results

// ErrorType classifies an authentication failure so callers can branch
// (e.g. offer passcode entry on ErrLockoutPermanent).
type ErrorType string

// Failure classifications mapped from platform reasons.
const (
	ErrUserCancel       ErrorType = "user_cancel"
	ErrSystemCancel     ErrorType = "system_cancel"
	ErrNotEnrolled      ErrorType = "not_enrolled"
	ErrLockout          ErrorType = "lockout"
	ErrLockoutPermanent ErrorType = "lockout_permanent"
	ErrPasscodeNotSet   ErrorType = "passcode_not_set"
	ErrUnknown          ErrorType = "unknown"
)

// Result is the discriminated outcome of a biometric authentication.
type Result struct {
	Success   bool      `json:"success"`
	ErrorType ErrorType `json:"errorType,omitempty"`
	Message   string    `json:"error,omitempty"`
}

// failureMessages maps each classification to a human-readable message.
var failureMessages = map[ErrorType]string{
	ErrUserCancel:       "Authentication was cancelled",
	ErrSystemCancel:     "Authentication was interrupted by the system",
	ErrNotEnrolled:      "No biometrics are enrolled on this device",
	ErrLockout:          "Too many failed attempts. Try again later",
	ErrLockoutPermanent: "Biometric authentication is locked. Enter your passcode to re-enable it",
	ErrPasscodeNotSet:   "A device passcode is required to use biometric authentication",
	ErrUnknown:          "Biometric authentication failed",
}

// classify maps a raw platform reason to an [ErrorType].
func classify(reason string) ErrorType {
	switch reason {
	case "user_cancel", "app_cancel":
		return ErrUserCancel
	case "system_cancel":
		return ErrSystemCancel
	case "not_enrolled", "biometry_not_enrolled":
		return ErrNotEnrolled
	case "lockout":
		return ErrLockout
	case "lockout_permanent":
		return ErrLockoutPermanent
	case "passcode_not_set":
		return ErrPasscodeNotSet
	default:
		return ErrUnknown
	}
}

// # Enablement State

// Config records the user's biometric preference. Its lifecycle is
// independent from the session: it survives logout and is cleared only by
// an explicit disable.
type Config struct {
	Enabled  bool  `json:"enabled"`
	Type     Type  `json:"type,omitempty"`
	LastUsed int64 `json:"lastUsed,omitempty"` // epoch ms
}

// Service owns biometric enablement and authentication.
type Service struct {
	provider Provider
	store    keystore.Store
	now      func() time.Time
}

// NewService constructs a biometric [Service].
func NewService(provider Provider, store keystore.Store) *Service {
	return &Service{
		provider: provider,
		store:    store,
		now:      time.Now,
	}
}

// Available reports whether biometric auth can be offered: hardware
// present AND at least one biometric enrolled.
func (service *Service) Available(context stdctx.Context) bool {
	return service.provider.HasHardware(context) && service.provider.IsEnrolled(context)
}

/*
Enable records the user's opt-in to biometric authentication.

Parameters:
  - context: context.Context

Returns:
  - *Config: The persisted enablement record
  - error: apperr.Unavailable when hardware or enrollment is missing
*/
func (service *Service) Enable(context stdctx.Context) (*Config, error) {
	if !service.provider.HasHardware(context) {
		return nil, apperr.Unavailable("Biometric hardware is not available on this device")
	}
	if !service.provider.IsEnrolled(context) {
		return nil, apperr.Unavailable("No biometrics are enrolled on this device")
	}

	// Record the first supported modality as the active one.
	supported := service.provider.SupportedTypes(context)
	config := &Config{
		Enabled:  true,
		LastUsed: keystore.Millis(service.now()),
	}
	if len(supported) > 0 {
		config.Type = supported[0]
	}

	if err := keystore.PutJSON(context, service.store, keystore.KeyBiometricConfig, config); err != nil {
		return nil, fmt.Errorf("biometric_enable_persist_failed: %w", err)
	}

	return config, nil
}

// Disable clears the enablement record. This is the only path that
// removes it; logout intentionally leaves it in place.
func (service *Service) Disable(context stdctx.Context) error {
	if err := service.store.Remove(context, keystore.KeyBiometricConfig); err != nil {
		return fmt.Errorf("biometric_disable_failed: %w", err)
	}
	return nil
}

// Enabled returns the persisted enablement record, or nil when biometric
// auth has never been enabled (or was disabled).
func (service *Service) Enabled(context stdctx.Context) *Config {
	config := keystore.GetJSON[Config](context, service.store, keystore.KeyBiometricConfig)
	if config == nil || !config.Enabled {
		return nil
	}
	return config
}

/*
Authenticate runs the platform biometric prompt.

Description: Never proceeds when hardware is unavailable. Expected
failures come back as a discriminated [Result], not an error.

Parameters:
  - context: context.Context
  - prompt: string shown in the platform dialog

Returns:
  - Result: Discriminated outcome
*/
func (service *Service) Authenticate(context stdctx.Context, prompt string) Result {
	if !service.provider.HasHardware(context) {
		return Result{
			Success:   false,
			ErrorType: ErrUnknown,
			Message:   "Biometric hardware is not available on this device",
		}
	}

	success, reason := service.provider.Authenticate(context, prompt)
	if success {
		// Stamp LastUsed; a failed stamp never fails the authentication.
		if config := service.Enabled(context); config != nil {
			config.LastUsed = keystore.Millis(service.now())
			_ = keystore.PutJSON(context, service.store, keystore.KeyBiometricConfig, config)
		}
		return Result{Success: true}
	}

	errorType := classify(reason)
	return Result{
		Success:   false,
		ErrorType: errorType,
		Message:   failureMessages[errorType],
	}
}
