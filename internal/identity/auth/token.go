// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package auth

import (
	stdctx "context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/solacehq/solace/internal/keystore"
	"github.com/solacehq/solace/internal/platform/sec"
	"github.com/solacehq/solace/internal/platform/validate"
)

// # Token Manager

// RefreshClient is the slice of the remote auth API the token manager
// needs: exchanging a refresh token for a new pair.
type RefreshClient interface {

	/*
		Refresh exchanges a refresh token for a fresh token pair.

		Parameters:
		  - context: context.Context
		  - refreshToken: string

		Returns:
		  - *RefreshPayload: New tokens (refresh token may be omitted)
		  - error: Network or remote rejection failures
	*/
	Refresh(context stdctx.Context, refreshToken string) (*RefreshPayload, error)
}

// RefreshPayload is the validated shape of a refresh response.
type RefreshPayload struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"` // seconds
}

// TokenManager owns the stored access/refresh token pair.
//
// # Concurrency
//
// RefreshAccessToken is single-flight guarded: any number of concurrent
// callers while a refresh is in flight share exactly one network call
// and all observe the same outcome. The guard is process-scoped.
//
// # Security
//
// Token values are never logged; only correlation digests are.
type TokenManager struct {
	store   keystore.Store
	client  RefreshClient
	logger  *slog.Logger
	now     func() time.Time
	expiry  time.Duration // default token lifetime when the backend is silent
	refresh time.Duration // how close to expiry a refresh becomes due

	group singleflight.Group
}

// StoreTokensInput carries a new pair into [TokenManager.StoreTokens].
type StoreTokensInput struct {
	AccessToken  string
	RefreshToken string
	// ExpiresAt is optional; when zero the manager derives the expiry
	// from the access token's exp claim, then the configured default.
	ExpiresAt time.Time
}

// NewTokenManager constructs a [TokenManager]. Zero durations fall back
// to the package defaults.
func NewTokenManager(store keystore.Store, client RefreshClient, expiry, refresh time.Duration, logger *slog.Logger) *TokenManager {
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	if refresh <= 0 {
		refresh = DefaultRefreshThreshold
	}
	return &TokenManager{
		store:   store,
		client:  client,
		logger:  logger,
		now:     time.Now,
		expiry:  expiry,
		refresh: refresh,
	}
}

/*
StoreTokens validates and persists a token pair, overwriting any prior one.

Description: Fails with a VALIDATION_ERROR if either token is missing.
A zero expiry defaults to the access token's exp claim when it carries
one, otherwise now + the configured default lifetime.

Parameters:
  - context: context.Context
  - input: StoreTokensInput

Returns:
  - *AuthTokens: The persisted pair
  - error: Validation or persistence failures
*/
func (manager *TokenManager) StoreTokens(context stdctx.Context, input StoreTokensInput) (*AuthTokens, error) {
	if input.AccessToken == "" {
		return nil, validate.RequiredError("accessToken", "This field is required")
	}
	if input.RefreshToken == "" {
		return nil, validate.RequiredError("refreshToken", "This field is required")
	}

	expiresAt := input.ExpiresAt
	if expiresAt.IsZero() {
		if claimExpiry, err := sec.TokenExpiry(input.AccessToken); err == nil {
			expiresAt = claimExpiry
		} else {
			expiresAt = manager.now().Add(manager.expiry)
		}
	}

	tokens := &AuthTokens{
		AccessToken:  input.AccessToken,
		RefreshToken: input.RefreshToken,
		ExpiresAt:    keystore.Millis(expiresAt),
		TokenType:    TokenTypeBearer,
	}

	if err := keystore.PutJSON(context, manager.store, keystore.KeyAuthTokens, tokens); err != nil {
		return nil, err
	}

	manager.logger.Debug("tokens_stored",
		slog.String("access_token_hash", sec.HashToken(tokens.AccessToken)),
		slog.Time("expires_at", keystore.FromMillis(tokens.ExpiresAt)),
	)

	return tokens, nil
}

/*
GetTokens returns the stored pair, or nil if absent.

Description: Lazy expiry — a pair read past its ExpiresAt is purged as a
side effect and nil is returned. The purge is idempotent.

Parameters:
  - context: context.Context

Returns:
  - *AuthTokens: Valid pair, or nil
*/
func (manager *TokenManager) GetTokens(context stdctx.Context) *AuthTokens {
	tokens := manager.rawTokens(context)
	if tokens == nil {
		return nil
	}

	if tokens.Expired(manager.now()) {
		manager.ClearTokens(context)
		return nil
	}

	return tokens
}

// IsAuthenticated reports whether a non-expired pair is stored.
func (manager *TokenManager) IsAuthenticated(context stdctx.Context) bool {
	return manager.GetTokens(context) != nil
}

// ShouldRefresh reports whether a refresh is due: tokens absent, missing
// an expiry, already expired, or expiring within the refresh threshold.
func (manager *TokenManager) ShouldRefresh(context stdctx.Context) bool {
	tokens := manager.rawTokens(context)
	if tokens == nil || tokens.ExpiresAt == 0 {
		return true
	}
	due := keystore.FromMillis(tokens.ExpiresAt).Add(-manager.refresh)
	return !manager.now().Before(due)
}

/*
RefreshAccessToken exchanges the stored refresh token for a new pair.

Description: Single-flight guarded — N concurrent callers produce exactly
one network call and all receive the same result. Failure never surfaces
as an error: the stored pair is purged and nil is returned, signaling the
caller to force logout.

Parameters:
  - context: context.Context

Returns:
  - *AuthTokens: The new pair, or nil on failure
*/
func (manager *TokenManager) RefreshAccessToken(context stdctx.Context) *AuthTokens {
	result, _, _ := manager.group.Do("refresh", func() (any, error) {
		return manager.doRefresh(context), nil
	})

	// The single-flight fn never errors; failure is encoded as nil.
	tokens, _ := result.(*AuthTokens)
	return tokens
}

// doRefresh performs the actual network exchange. Exactly one instance
// runs at a time, guaranteed by the single-flight group.
func (manager *TokenManager) doRefresh(context stdctx.Context) *AuthTokens {
	// Read the raw pair: an expired access token is still refreshable
	// as long as the refresh token is present.
	current := manager.rawTokens(context)
	if current == nil || current.RefreshToken == "" {
		manager.logger.Info("token_refresh_skipped_no_refresh_token")
		manager.ClearTokens(context)
		return nil
	}

	payload, err := manager.client.Refresh(context, current.RefreshToken)
	if err != nil {
		manager.logger.Warn("token_refresh_failed", slog.Any("error", err))
		manager.ClearTokens(context)
		return nil
	}

	// Reuse the prior refresh token when the server omits a new one.
	refreshToken := payload.RefreshToken
	if refreshToken == "" {
		refreshToken = current.RefreshToken
	}

	var expiresAt time.Time
	if payload.ExpiresIn > 0 {
		expiresAt = manager.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}

	tokens, err := manager.StoreTokens(context, StoreTokensInput{
		AccessToken:  payload.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		manager.logger.Warn("token_refresh_store_failed", slog.Any("error", err))
		manager.ClearTokens(context)
		return nil
	}

	manager.logger.Info("token_refreshed",
		slog.String("access_token_hash", sec.HashToken(tokens.AccessToken)),
	)

	return tokens
}

/*
ClearTokens purges the stored pair.

Description: Best-effort — storage errors are logged, never thrown, so
teardown paths can always call this safely.

Parameters:
  - context: context.Context
*/
func (manager *TokenManager) ClearTokens(context stdctx.Context) {
	if err := manager.store.Remove(context, keystore.KeyAuthTokens); err != nil {
		manager.logger.Warn("token_clear_failed", slog.Any("error", err))
	}
}

// rawTokens reads the stored pair without the lazy-expiry purge.
func (manager *TokenManager) rawTokens(context stdctx.Context) *AuthTokens {
	return keystore.GetJSON[AuthTokens](context, manager.store, keystore.KeyAuthTokens)
}
