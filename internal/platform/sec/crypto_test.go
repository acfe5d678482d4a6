// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package sec_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacehq/solace/internal/platform/sec"
)

/*
TestSealOpen_RoundTrip verifies AEAD encryption round-trips and that
tampered ciphertext is rejected.
*/
func TestSealOpen_RoundTrip(t *testing.T) {
	salt, err := sec.NewSalt()
	require.NoError(t, err)
	key := sec.DeriveKey("correct horse battery staple", salt)

	plaintext := []byte(`{"accessToken":"abc","refreshToken":"def"}`)

	sealed, err := sec.Seal(key, plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, sealed)

	opened, err := sec.Open(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)

	// Flip one byte of the sealed payload; authentication must fail.
	sealed[len(sealed)-1] ^= 0xff
	_, err = sec.Open(key, sealed)
	assert.Error(t, err)
}

/*
TestSealOpen_WrongKey verifies that a different passphrase cannot decrypt.
*/
func TestSealOpen_WrongKey(t *testing.T) {
	salt, err := sec.NewSalt()
	require.NoError(t, err)

	sealed, err := sec.Seal(sec.DeriveKey("one", salt), []byte("secret"))
	require.NoError(t, err)

	_, err = sec.Open(sec.DeriveKey("two", salt), sealed)
	assert.Error(t, err)
}

/*
TestFingerprint verifies determinism and component separation.
*/
func TestFingerprint(t *testing.T) {
	a := sec.Fingerprint("device-1", "ios", "17.4", "-480")
	b := sec.Fingerprint("device-1", "ios", "17.4", "-480")
	c := sec.Fingerprint("device-2", "ios", "17.4", "-480")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64) // hex-encoded SHA-256

	// Concatenation must not collide across component boundaries.
	assert.NotEqual(t, sec.Fingerprint("ab", "c"), sec.Fingerprint("a", "bc"))
}

/*
TestTokenExpiry verifies exp-claim extraction from unverified JWTs.
*/
func TestTokenExpiry(t *testing.T) {
	expiresAt := time.Now().Add(30 * time.Minute).Truncate(time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	parsed, err := sec.TokenExpiry(signed)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(expiresAt))
}

/*
TestTokenExpiry_NoClaim verifies that a token without exp is rejected.
*/
func TestTokenExpiry_NoClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = sec.TokenExpiry(signed)
	assert.Error(t, err)

	_, err = sec.TokenExpiry("not-a-jwt")
	assert.Error(t, err)
}

/*
TestGenerateSecureToken verifies uniqueness and URL safety.
*/
func TestGenerateSecureToken(t *testing.T) {
	a, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	b, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}
