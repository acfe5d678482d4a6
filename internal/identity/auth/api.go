// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package auth

import (
	"bytes"
	stdctx "context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/solacehq/solace/internal/platform/apperr"
)

// # Remote Auth API

// AuthPayload is the validated shape of a login, register, or MFA
// verification response.
//
// Remote payloads are never trusted: after decoding they are checked
// against these tags and rejected with a VALIDATION_ERROR on mismatch.
type AuthPayload struct {
	User        *User         `json:"user"`
	Tokens      *TokenPayload `json:"tokens"`
	RequiresMFA bool          `json:"requiresMfa,omitempty"`
	MFAToken    string        `json:"mfaToken,omitempty"`
}

// TokenPayload is the token pair as the backend serializes it.
type TokenPayload struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
	ExpiresAt    int64  `json:"expiresAt,omitempty"` // epoch ms
}

// userPayload wraps profile-update responses.
type userPayload struct {
	User *User `json:"user" validate:"required"`
}

// remoteError is the backend's error envelope.
type remoteError struct {
	Error string `json:"error"`
}

// API is the contract the orchestrator needs from the remote auth service.
// [Client] is the production implementation.
type API interface {
	Login(context stdctx.Context, email, password, fingerprint string) (*AuthPayload, error)
	Register(context stdctx.Context, input SignupInput, fingerprint string) (*AuthPayload, error)
	VerifyMFA(context stdctx.Context, mfaToken, code string) (*AuthPayload, error)
	Refresh(context stdctx.Context, refreshToken string) (*RefreshPayload, error)
	Logout(context stdctx.Context, accessToken string) error
	UpdateProfile(context stdctx.Context, accessToken string, update ProfileUpdate) (*User, error)
	ChangePassword(context stdctx.Context, accessToken, currentPassword, newPassword string) error
	RequestPasswordReset(context stdctx.Context, email string) error
	ResetPassword(context stdctx.Context, resetToken, newPassword string) error
}

// Client talks to the remote auth API over HTTP.
type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
	logger   *slog.Logger
}

// NewClient constructs an auth API [Client]. A nil httpClient gets a
// default with a 15s timeout.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:  baseURL,
		http:     httpClient,
		validate: validator.New(),
		logger:   logger,
	}
}

/*
Login authenticates with email/password credentials.

Parameters:
  - context: context.Context
  - email: string
  - password: string
  - fingerprint: string (device fingerprint for anomaly detection)

Returns:
  - *AuthPayload: User, tokens, and the MFA challenge when required
  - error: apperr.Unauthorized or transport failures
*/
func (client *Client) Login(context stdctx.Context, email, password, fingerprint string) (*AuthPayload, error) {
	payload := &AuthPayload{}
	err := client.do(context, http.MethodPost, "/auth/login", "", map[string]string{
		"email":       email,
		"password":    password,
		"fingerprint": fingerprint,
	}, payload)
	if err != nil {
		return nil, err
	}
	return client.checkAuthPayload(payload)
}

/*
Register enrolls a new member.

Parameters:
  - context: context.Context
  - input: SignupInput
  - fingerprint: string

Returns:
  - *AuthPayload: Same shape as login
  - error: apperr.Conflict, apperr.Validation, or transport failures
*/
func (client *Client) Register(context stdctx.Context, input SignupInput, fingerprint string) (*AuthPayload, error) {
	payload := &AuthPayload{}
	err := client.do(context, http.MethodPost, "/auth/register", "", map[string]any{
		"email":           input.Email,
		"password":        input.Password,
		"displayName":     input.DisplayName,
		"termsAccepted":   input.TermsAccepted,
		"privacyAccepted": input.PrivacyAccepted,
		"fingerprint":     fingerprint,
	}, payload)
	if err != nil {
		return nil, err
	}
	return client.checkAuthPayload(payload)
}

/*
VerifyMFA exchanges an MFA challenge token and code for full credentials.

Parameters:
  - context: context.Context
  - mfaToken: string
  - code: string

Returns:
  - *AuthPayload: Full user + tokens
  - error: apperr.Unauthorized or transport failures
*/
func (client *Client) VerifyMFA(context stdctx.Context, mfaToken, code string) (*AuthPayload, error) {
	payload := &AuthPayload{}
	err := client.do(context, http.MethodPost, "/auth/mfa/verify", "", map[string]string{
		"mfaToken": mfaToken,
		"code":     code,
	}, payload)
	if err != nil {
		return nil, err
	}
	return client.checkAuthPayload(payload)
}

/*
Refresh exchanges a refresh token for a new pair.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *RefreshPayload: New tokens (snake_case backend contract)
  - error: apperr.Unauthorized or transport failures
*/
func (client *Client) Refresh(context stdctx.Context, refreshToken string) (*RefreshPayload, error) {
	payload := &RefreshPayload{}
	err := client.do(context, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": refreshToken,
	}, payload)
	if err != nil {
		return nil, err
	}
	if err := client.validate.Struct(payload); err != nil {
		return nil, apperr.Validation("Malformed refresh response from server")
	}
	return payload, nil
}

/*
Logout invalidates the session server-side.

Parameters:
  - context: context.Context
  - accessToken: string

Returns:
  - error: Transport failures (callers treat this as best-effort)
*/
func (client *Client) Logout(context stdctx.Context, accessToken string) error {
	return client.do(context, http.MethodPost, "/auth/logout", accessToken, nil, nil)
}

/*
UpdateProfile replaces mutable profile fields.

Parameters:
  - context: context.Context
  - accessToken: string
  - update: ProfileUpdate

Returns:
  - *User: The full updated user record
  - error: apperr taxonomy or transport failures
*/
func (client *Client) UpdateProfile(context stdctx.Context, accessToken string, update ProfileUpdate) (*User, error) {
	payload := &userPayload{}
	if err := client.do(context, http.MethodPut, "/auth/profile", accessToken, update, payload); err != nil {
		return nil, err
	}
	if err := client.validate.Struct(payload); err != nil {
		return nil, apperr.Validation("Malformed profile response from server")
	}
	return payload.User, nil
}

// ChangePassword rotates the password for the authenticated user.
func (client *Client) ChangePassword(context stdctx.Context, accessToken, currentPassword, newPassword string) error {
	return client.do(context, http.MethodPost, "/auth/password/change", accessToken, map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}, nil)
}

// RequestPasswordReset starts the forgot-password flow.
func (client *Client) RequestPasswordReset(context stdctx.Context, email string) error {
	return client.do(context, http.MethodPost, "/auth/password/reset-request", "", map[string]string{
		"email": email,
	}, nil)
}

// ResetPassword completes the forgot-password flow.
func (client *Client) ResetPassword(context stdctx.Context, resetToken, newPassword string) error {
	return client.do(context, http.MethodPost, "/auth/password/reset", "", map[string]string{
		"token":       resetToken,
		"newPassword": newPassword,
	}, nil)
}

// checkAuthPayload enforces the boundary invariants on an auth response:
// an MFA challenge must carry its token; a full response must carry a
// valid user and token pair.
func (client *Client) checkAuthPayload(payload *AuthPayload) (*AuthPayload, error) {
	if payload.RequiresMFA {
		if payload.MFAToken == "" {
			return nil, apperr.Validation("Malformed MFA challenge from server")
		}
		return payload, nil
	}

	if payload.User == nil || payload.User.ID == "" || payload.Tokens == nil {
		return nil, apperr.Validation("Malformed auth response from server")
	}
	if err := client.validate.Struct(payload.Tokens); err != nil {
		return nil, apperr.Validation("Malformed auth response from server")
	}
	return payload, nil
}

// do runs one JSON request/response cycle against the backend.
func (client *Client) do(context stdctx.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("auth_api_marshal_failed: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	request, err := http.NewRequestWithContext(context, method, client.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("auth_api_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	if accessToken != "" {
		request.Header.Set("Authorization", TokenTypeBearer+" "+accessToken)
	}

	response, err := client.http.Do(request)
	if err != nil {
		return fmt.Errorf("auth_api_call_failed: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode >= 400 {
		return client.mapError(response)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return apperr.Validation("Malformed response from server")
	}

	return nil
}

// mapError converts a non-2xx response into the apperr taxonomy.
func (client *Client) mapError(response *http.Response) error {
	remote := remoteError{}
	_ = json.NewDecoder(response.Body).Decode(&remote)
	if remote.Error == "" {
		remote.Error = http.StatusText(response.StatusCode)
	}

	switch response.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.Unauthorized(remote.Error)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.Validation(remote.Error)
	case http.StatusConflict:
		return apperr.Conflict(remote.Error)
	case http.StatusTooManyRequests:
		return apperr.RateLimited(1)
	default:
		return fmt.Errorf("auth_api_status_%d: %s", response.StatusCode, remote.Error)
	}
}
