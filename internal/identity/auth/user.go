// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

/*
Package auth implements the client-side authentication and session core.

It composes the secure keystore, the device identity provider, and the
remote auth API into login, signup, MFA, logout, and session lifecycle
management — the local "source of truth" for who is signed in on this
install.

Architecture:

  - Service: Orchestrates auth flows (Login, Signup, MFA, Logout).
  - TokenManager: Owns the access/refresh pair and single-flight refresh.
  - Monitor: Periodic liveness and refresh checks driving forced logout.
  - AttemptTracker: Per-email login rate limiting with lockout windows.

All durable state lives in the secure keystore so a crash or restart
lands back in a consistent authenticated (or signed-out) state.
*/
package auth

import (
	"time"

	"github.com/solacehq/solace/internal/keystore"
)

// # Domain Entities

// User represents the signed-in member as last reported by the backend.
// It is replaced wholesale on every successful auth response or profile
// update; the client never merges user fields.
type User struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	DisplayName   string         `json:"displayName"`
	Profile       map[string]any `json:"profile,omitempty"`
	Roles         []string       `json:"roles,omitempty"`
	EmailVerified bool           `json:"emailVerified"`
	MFAEnabled    bool           `json:"mfaEnabled"`
	LastLogin     int64          `json:"lastLogin,omitempty"` // epoch ms
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// AuthTokens is the persisted access/refresh token pair.
//
// # Invariant
//
// A stored pair always has ExpiresAt strictly in the future at the time
// of storage; once read past ExpiresAt it is treated as invalid and
// purged. Never log token values.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"` // epoch ms
	TokenType    string `json:"tokenType"`
}

// Expired reports whether the pair is past its expiry at the given time.
func (t *AuthTokens) Expired(now time.Time) bool {
	return t.ExpiresAt <= keystore.Millis(now)
}

// SessionInfo tracks the local session lifecycle.
//
// # Invariant
//
// IsActive implies a corresponding non-expired [AuthTokens] exists; the
// monitor enforces this by forcing logout when either expires.
type SessionInfo struct {
	IsActive     bool   `json:"isActive"`
	UserID       string `json:"userId"`
	ExpiresAt    int64  `json:"expiresAt"`    // epoch ms
	LastActivity int64  `json:"lastActivity"` // epoch ms
	DeviceID     string `json:"deviceId"`
}

// LoginAttempt is the per-email failed-login counter backing the lockout.
// Created lazily on first failure; cleared on success.
type LoginAttempt struct {
	Count       int   `json:"count"`
	LastAttempt int64 `json:"lastAttempt"` // epoch ms
}

// # Inputs & Results

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

// SignupInput holds the data required to enroll a new member.
type SignupInput struct {
	Email           string
	Password        string
	DisplayName     string
	TermsAccepted   bool
	PrivacyAccepted bool
}

// LoginResult is the outcome of a login, signup, or MFA verification.
//
// When RequiresMFA is true, no session has been established: the caller
// must collect a code and call VerifyMFA with MFAToken.
type LoginResult struct {
	User        *User       `json:"user"`
	Tokens      *AuthTokens `json:"tokens,omitempty"`
	RequiresMFA bool        `json:"requiresMfa,omitempty"`
	MFAToken    string      `json:"mfaToken,omitempty"`
}

// ProfileUpdate carries partial profile fields for UpdateProfile.
type ProfileUpdate struct {
	DisplayName string         `json:"displayName,omitempty"`
	Profile     map[string]any `json:"profile,omitempty"`
}
