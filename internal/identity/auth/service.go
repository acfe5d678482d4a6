// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package auth

import (
	stdctx "context"
	"log/slog"
	"time"

	"github.com/solacehq/solace/internal/identity/device"
	"github.com/solacehq/solace/internal/keystore"
	"github.com/solacehq/solace/internal/platform/validate"
)

// # Auth Orchestrator

// Options tunes the service. Zero values fall back to the package
// defaults; production wiring injects them from config.
type Options struct {
	SessionTTL        time.Duration
	InactivityTimeout time.Duration
	SessionTick       time.Duration
	RefreshTick       time.Duration
	TokenExpiry       time.Duration
	RefreshThreshold  time.Duration
	MaxLoginAttempts  int
	LockoutDuration   time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Service composes the token manager, device identity, rate limiter, and
// session monitor into the auth flows the application calls.
//
// # Review Process
//
// This service is critical for security. Any changes to session
// establishment, lockout, or teardown logic must be reviewed carefully.
type Service struct {
	store   keystore.Store
	api     API
	device  *device.Provider
	tokens  *TokenManager
	limiter *AttemptTracker
	monitor *Monitor
	logger  *slog.Logger

	sessionTTL        time.Duration
	inactivityTimeout time.Duration
	now               func() time.Time
}

// NewService constructs the auth [Service] and its internal components.
func NewService(store keystore.Store, api API, deviceProvider *device.Provider, options Options, logger *slog.Logger) *Service {
	if options.SessionTTL <= 0 {
		options.SessionTTL = DefaultSessionTTL
	}
	if options.InactivityTimeout <= 0 {
		options.InactivityTimeout = DefaultInactivityTimeout
	}
	if options.Clock == nil {
		options.Clock = time.Now
	}

	service := &Service{
		store:             store,
		api:               api,
		device:            deviceProvider,
		logger:            logger,
		sessionTTL:        options.SessionTTL,
		inactivityTimeout: options.InactivityTimeout,
		now:               options.Clock,
	}

	service.tokens = NewTokenManager(store, api, options.TokenExpiry, options.RefreshThreshold, logger)
	service.tokens.now = options.Clock

	service.limiter = NewAttemptTracker(store, options.MaxLoginAttempts, options.LockoutDuration, logger)
	service.limiter.now = options.Clock

	service.monitor = NewMonitor(options.SessionTick, options.RefreshTick, service.CheckLiveness, service.CheckRefresh, logger)

	return service
}

// # Authentication Flow

/*
Login authenticates with email/password credentials.

Description: Checks the lockout BEFORE any network call, attaches the
device fingerprint, and establishes a local session unless the account
requires MFA — in which case a partial result (user + tokens + mfaToken)
is returned without a session. Any remote failure records a failed
attempt for the email before rethrowing.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginResult: Session credentials or an MFA challenge
  - error: apperr.RateLimited, apperr.Unauthorized, or transport failures
*/
func (service *Service) Login(context stdctx.Context, input LoginInput) (*LoginResult, error) {
	v := &validate.Validator{}
	if err := v.Required("email", input.Email).Email("email", input.Email).
		Required("password", input.Password).Err(); err != nil {
		return nil, err
	}

	// Fail fast while locked out; no network call is made.
	if err := service.limiter.Check(context, input.Email); err != nil {
		return nil, err
	}

	fingerprint, err := service.device.Fingerprint(context)
	if err != nil {
		return nil, err
	}

	payload, err := service.api.Login(context, input.Email, input.Password, fingerprint)
	if err != nil {
		// Count the failure before rethrowing so the lockout advances.
		service.limiter.RecordFailure(context, input.Email)
		return nil, err
	}

	if payload.RequiresMFA {
		service.logger.Info("login_mfa_required")
		return &LoginResult{
			User:        payload.User,
			Tokens:      tokensFromPayload(payload.Tokens),
			RequiresMFA: true,
			MFAToken:    payload.MFAToken,
		}, nil
	}

	result, err := service.establishSession(context, payload)
	if err != nil {
		return nil, err
	}

	service.limiter.Clear(context, input.Email)
	service.logger.Info("login_succeeded", slog.String("user_id", payload.User.ID))
	return result, nil
}

/*
Signup enrolls a new member.

Description: Validates presence of email/password/name and the required
consent flags, enforces the password policy, attaches the fingerprint,
and establishes a session unless the backend requires MFA.

Parameters:
  - context: context.Context
  - input: SignupInput

Returns:
  - *LoginResult: Session credentials or an MFA challenge
  - error: apperr.Validation, apperr.Conflict, or transport failures
*/
func (service *Service) Signup(context stdctx.Context, input SignupInput) (*LoginResult, error) {
	v := &validate.Validator{}
	if err := v.Required("email", input.Email).Email("email", input.Email).
		Required("password", input.Password).
		Required("displayName", input.DisplayName).
		Consent("termsAccepted", input.TermsAccepted).
		Consent("privacyAccepted", input.PrivacyAccepted).
		Err(); err != nil {
		return nil, err
	}

	if err := ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	fingerprint, err := service.device.Fingerprint(context)
	if err != nil {
		return nil, err
	}

	payload, err := service.api.Register(context, input, fingerprint)
	if err != nil {
		return nil, err
	}

	if payload.RequiresMFA {
		return &LoginResult{
			User:        payload.User,
			Tokens:      tokensFromPayload(payload.Tokens),
			RequiresMFA: true,
			MFAToken:    payload.MFAToken,
		}, nil
	}

	result, err := service.establishSession(context, payload)
	if err != nil {
		return nil, err
	}

	service.logger.Info("signup_succeeded", slog.String("user_id", payload.User.ID))
	return result, nil
}

/*
VerifyMFA exchanges an MFA challenge for full credentials and establishes
the session.

Parameters:
  - context: context.Context
  - mfaToken: string
  - code: string

Returns:
  - *LoginResult: Established session credentials
  - error: apperr.Unauthorized or transport failures
*/
func (service *Service) VerifyMFA(context stdctx.Context, mfaToken, code string) (*LoginResult, error) {
	v := &validate.Validator{}
	if err := v.Required("mfaToken", mfaToken).
		Custom("code", len(code) != 6, "Must be a 6-digit code").
		Err(); err != nil {
		return nil, err
	}

	payload, err := service.api.VerifyMFA(context, mfaToken, code)
	if err != nil {
		return nil, err
	}

	result, err := service.establishSession(context, payload)
	if err != nil {
		return nil, err
	}

	service.logger.Info("mfa_verified", slog.String("user_id", payload.User.ID))
	return result, nil
}

/*
Logout tears the session down.

Description: The remote call is best-effort — local cleanup always runs,
so the device can never be stuck "logged in" because of a network blip.
Internal storage-clear errors are logged, never thrown.

Parameters:
  - context: context.Context
*/
func (service *Service) Logout(context stdctx.Context) {
	// Best-effort remote invalidation with whatever token is left.
	if tokens := service.tokens.rawTokens(context); tokens != nil {
		if err := service.api.Logout(context, tokens.AccessToken); err != nil {
			service.logger.Warn("remote_logout_failed", slog.Any("error", err))
		}
	}

	service.teardown(context, "logout")
}

// # Session Management

/*
RefreshToken refreshes the access token via the token manager.

Description: On success the session's absolute expiry is extended; on
failure (nil from the manager) a forced logout runs and nil is returned.

Parameters:
  - context: context.Context

Returns:
  - *AuthTokens: The new pair, or nil
*/
func (service *Service) RefreshToken(context stdctx.Context) *AuthTokens {
	tokens := service.tokens.RefreshAccessToken(context)
	if tokens == nil {
		service.teardown(context, "refresh_failed")
		return nil
	}

	if session := service.Session(context); session != nil && session.IsActive {
		session.ExpiresAt = keystore.Millis(service.now().Add(service.sessionTTL))
		if err := keystore.PutJSON(context, service.store, keystore.KeySessionInfo, session); err != nil {
			service.logger.Warn("session_extend_failed", slog.Any("error", err))
		}
	}

	return tokens
}

// UpdateActivity refreshes the session's lastActivity timestamp. It is a
// no-op when no session is active — it never resurrects a dead session.
func (service *Service) UpdateActivity(context stdctx.Context) {
	session := service.Session(context)
	if session == nil || !session.IsActive {
		return
	}

	session.LastActivity = keystore.Millis(service.now())
	if err := keystore.PutJSON(context, service.store, keystore.KeySessionInfo, session); err != nil {
		service.logger.Warn("session_activity_persist_failed", slog.Any("error", err))
	}
}

// IsAuthenticated reports whether a non-expired token pair is stored.
func (service *Service) IsAuthenticated(context stdctx.Context) bool {
	return service.tokens.IsAuthenticated(context)
}

// CurrentUser returns the locally persisted user record, or nil.
func (service *Service) CurrentUser(context stdctx.Context) *User {
	return keystore.GetJSON[User](context, service.store, keystore.KeyCurrentUser)
}

// Session returns the locally persisted session info, or nil.
func (service *Service) Session(context stdctx.Context) *SessionInfo {
	return keystore.GetJSON[SessionInfo](context, service.store, keystore.KeySessionInfo)
}

// AccessToken returns the current valid access token, or "" when signed out.
// The sync engine uses this to authenticate outbound reconciliation calls.
func (service *Service) AccessToken(context stdctx.Context) string {
	tokens := service.tokens.GetTokens(context)
	if tokens == nil {
		return ""
	}
	return tokens.AccessToken
}

// Tokens exposes the token manager for collaborators that need finer
// control (tests, the sync engine's retry path).
func (service *Service) Tokens() *TokenManager {
	return service.tokens
}

// # Periodic Checks

// CheckLiveness runs one liveness evaluation: if the session is active
// and either the inactivity window or the absolute expiry has passed, a
// forced logout runs. Exposed so embedders can trigger a check on
// app-foreground, in addition to the monitor's periodic tick.
func (service *Service) CheckLiveness(context stdctx.Context) {
	session := service.Session(context)
	if session == nil || !session.IsActive {
		return
	}

	now := service.now()
	idle := now.Sub(keystore.FromMillis(session.LastActivity))

	if idle > service.inactivityTimeout {
		service.logger.Info("session_inactivity_timeout", slog.Duration("idle", idle))
		service.teardown(context, "inactivity")
		return
	}

	if keystore.Millis(now) > session.ExpiresAt {
		service.logger.Info("session_expired")
		service.teardown(context, "session_expired")
	}
}

// CheckRefresh triggers a token refresh when one is due.
func (service *Service) CheckRefresh(context stdctx.Context) {
	if !service.tokens.ShouldRefresh(context) {
		return
	}
	service.RefreshToken(context)
}

// StartMonitor starts the periodic checks without a fresh login, for
// restarts that land on a persisted session.
func (service *Service) StartMonitor() {
	service.monitor.Start()
}

// Stop halts the periodic checks. Part of agent teardown.
func (service *Service) Stop() {
	service.monitor.Stop()
}

// # Account Operations

// UpdateProfile pushes a profile update and replaces the local user
// record wholesale with the server's response.
func (service *Service) UpdateProfile(context stdctx.Context, update ProfileUpdate) (*User, error) {
	user, err := service.api.UpdateProfile(context, service.AccessToken(context), update)
	if err != nil {
		return nil, err
	}

	if err := keystore.PutJSON(context, service.store, keystore.KeyCurrentUser, user); err != nil {
		service.logger.Warn("user_persist_failed", slog.Any("error", err))
	}
	return user, nil
}

// ChangePassword rotates the password after re-validating the policy.
func (service *Service) ChangePassword(context stdctx.Context, currentPassword, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	return service.api.ChangePassword(context, service.AccessToken(context), currentPassword, newPassword)
}

// RequestPasswordReset starts the forgot-password flow.
func (service *Service) RequestPasswordReset(context stdctx.Context, email string) error {
	v := &validate.Validator{}
	if err := v.Required("email", email).Email("email", email).Err(); err != nil {
		return err
	}
	return service.api.RequestPasswordReset(context, email)
}

// ResetPassword completes the forgot-password flow after re-validating
// the policy.
func (service *Service) ResetPassword(context stdctx.Context, resetToken, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	return service.api.ResetPassword(context, resetToken, newPassword)
}

// # Internals

// establishSession persists tokens, user, and session info, and starts
// the monitor. Called on every full (non-MFA-partial) auth success.
func (service *Service) establishSession(context stdctx.Context, payload *AuthPayload) (*LoginResult, error) {
	var expiresAt time.Time
	if payload.Tokens.ExpiresAt > 0 {
		expiresAt = keystore.FromMillis(payload.Tokens.ExpiresAt)
	}

	tokens, err := service.tokens.StoreTokens(context, StoreTokensInput{
		AccessToken:  payload.Tokens.AccessToken,
		RefreshToken: payload.Tokens.RefreshToken,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return nil, err
	}

	if err := keystore.PutJSON(context, service.store, keystore.KeyCurrentUser, payload.User); err != nil {
		return nil, err
	}

	deviceID, err := service.device.DeviceID(context)
	if err != nil {
		return nil, err
	}

	now := service.now()
	session := &SessionInfo{
		IsActive:     true,
		UserID:       payload.User.ID,
		ExpiresAt:    keystore.Millis(now.Add(service.sessionTTL)),
		LastActivity: keystore.Millis(now),
		DeviceID:     deviceID,
	}
	if err := keystore.PutJSON(context, service.store, keystore.KeySessionInfo, session); err != nil {
		return nil, err
	}

	service.monitor.Start()

	return &LoginResult{User: payload.User, Tokens: tokens}, nil
}

// teardown purges all local auth state and stops the monitor. Session
// and tokens are cleared atomically from the caller's perspective:
// either way the device ends up signed out, with storage errors logged
// rather than thrown.
func (service *Service) teardown(context stdctx.Context, reason string) {
	service.tokens.ClearTokens(context)

	if err := service.store.Remove(context, keystore.KeySessionInfo); err != nil {
		service.logger.Warn("session_clear_failed", slog.Any("error", err))
	}
	if err := service.store.Remove(context, keystore.KeyCurrentUser); err != nil {
		service.logger.Warn("user_clear_failed", slog.Any("error", err))
	}

	// Biometric config intentionally survives teardown.

	service.monitor.Stop()
	service.logger.Info("session_ended", slog.String("reason", reason))
}

// tokensFromPayload converts the wire token shape to the stored shape
// without persisting it (MFA partial results).
func tokensFromPayload(payload *TokenPayload) *AuthTokens {
	if payload == nil {
		return nil
	}
	return &AuthTokens{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    payload.ExpiresAt,
		TokenType:    TokenTypeBearer,
	}
}
