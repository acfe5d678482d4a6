// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Access Token Introspection

// TokenExpiry extracts the expiry time from a JWT access token WITHOUT
// verifying its signature.
//
// # Why unverified?
//
// The Solace core is a client: the backend signs tokens and the client has
// no verification key. The exp claim is only used to schedule refreshes
// ahead of expiry, never to make a trust decision.
func TokenExpiry(tokenString string) (time.Time, error) {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, fmt.Errorf("sec: failed to parse access token: %w", err)
	}

	expiresAt, err := claims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return time.Time{}, fmt.Errorf("sec: access token has no exp claim")
	}

	return expiresAt.Time, nil
}
