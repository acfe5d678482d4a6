// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package auth

import "time"

// # Authentication Constraints
//
// These are the fallback values used when the corresponding Options field
// is left zero; production wiring injects them from config.

const (
	// DefaultTokenExpiry is assumed when the backend provides no expiry.
	DefaultTokenExpiry = 1 * time.Hour

	// DefaultRefreshThreshold is how close to expiry a refresh becomes due.
	DefaultRefreshThreshold = 2 * time.Minute

	// DefaultSessionTTL bounds a session's absolute lifetime.
	DefaultSessionTTL = 24 * time.Hour

	// DefaultInactivityTimeout forces logout after this much idle time.
	DefaultInactivityTimeout = 15 * time.Minute

	// DefaultSessionTick is the liveness check cadence.
	DefaultSessionTick = 60 * time.Second

	// DefaultRefreshTick is the refresh-due check cadence. Finer-grained
	// than the liveness tick so refreshes land before expiry.
	DefaultRefreshTick = 30 * time.Second

	// DefaultMaxLoginAttempts is the failed-login ceiling per email.
	DefaultMaxLoginAttempts = 5

	// DefaultLockoutDuration is the lockout window after the ceiling.
	DefaultLockoutDuration = 15 * time.Minute

	// TokenTypeBearer is the only token type the backend issues.
	TokenTypeBearer = "Bearer"

	// MFASecretLength is the byte length of generated TOTP secrets.
	MFASecretLength = 32

	// MFAIssuer is the issuer name shown in authenticator apps.
	MFAIssuer = "Solace"
)

// passwordSymbols is the accepted punctuation/symbol set for the password
// policy. Kept in one place so the policy and its error message agree.
const passwordSymbols = `!@#$%^&*()_+-=[]{}|;:'",.<>/?`
