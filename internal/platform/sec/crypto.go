// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

/*
Package sec provides the cryptographic primitives for the Solace core.

It isolates security-sensitive code (key derivation, authenticated
encryption, digest hashing) from the domain logic. Components receive
these primitives rather than touching crypto APIs directly.

Architecture:

  - KDF: Argon2id turns the user passphrase into a 256-bit AEAD key.
  - AEAD: ChaCha20-Poly1305 seals every secure-store payload at rest.
  - Digests: SHA-256 for device fingerprints and token correlation hashes.

Never log plaintext secrets or derived keys. Correlation hashes produced
by [HashToken] are safe to log.
*/
package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Argon2id parameters tuned for an interactive client-side workload.
const (
	kdfTime    = 1
	kdfMemory  = 64 * 1024 // KiB
	kdfThreads = 4

	// SaltLength is the byte length of the per-store KDF salt.
	SaltLength = 16
)

// # Key Derivation

// DeriveKey derives a 256-bit AEAD key from a passphrase and salt using Argon2id.
func DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, kdfTime, kdfMemory, kdfThreads, chacha20poly1305.KeySize)
}

// NewSalt generates a fresh random KDF salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("sec: failed to generate salt: %w", err)
	}
	return salt, nil
}

// # Authenticated Encryption

// Seal encrypts plaintext with ChaCha20-Poly1305 using the given key.
// The returned ciphertext is nonce || sealed payload.
func Seal(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to initialize AEAD: %w", err)
	}

	// Fresh nonce per write. Nonce reuse with the same key breaks the AEAD.
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("sec: failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a ciphertext produced by [Seal].
// It fails if the payload was tampered with or the key is wrong.
func Open(key, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to initialize AEAD: %w", err)
	}

	if len(ciphertext) < aead.NonceSize() {
		return nil, fmt.Errorf("sec: ciphertext shorter than nonce")
	}

	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to decrypt payload: %w", err)
	}

	return plaintext, nil
}

// # Digests & Tokens

// HashToken returns the hex-encoded SHA-256 digest of a token.
// The digest is safe to log and store for correlation; the input is not.
func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}

// Fingerprint hashes the concatenation of identity components into a
// hex-encoded SHA-256 digest. Components are joined with a separator so
// that ("ab","c") and ("a","bc") produce distinct fingerprints.
func Fingerprint(components ...string) string {
	hasher := sha256.New()
	for _, component := range components {
		hasher.Write([]byte(component))
		hasher.Write([]byte{0x1f})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// GenerateSecureToken returns a URL-safe random token of the given byte length.
func GenerateSecureToken(length int) (string, error) {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("sec: failed to generate secure token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
