// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package data

import (
	"bytes"
	stdctx "context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/solacehq/solace/internal/platform/apperr"
)

// # Remote Sync API

// RemoteSync is the slice of the backend the engine reconciles against:
// one call per queued mutation.
type RemoteSync interface {
	Create(context stdctx.Context, recordType string, payload map[string]any) error
	Update(context stdctx.Context, recordType, recordID string, payload map[string]any) error
	Delete(context stdctx.Context, recordType, recordID string) error
}

// TokenSource supplies the bearer token for outbound calls. An empty
// string means no session; the call is rejected locally.
type TokenSource func(context stdctx.Context) string

// SyncClient talks to the remote sync API over HTTP.
//
// # Throttling
//
// Outbound calls pass through a token bucket so a large backlog drains
// at a bounded rate instead of hammering the backend after a long
// offline stretch.
type SyncClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	token   TokenSource
	logger  *slog.Logger
}

// NewSyncClient constructs a [SyncClient]. A nil httpClient gets a
// default with a 15s timeout; rps/burst of zero disable throttling.
func NewSyncClient(baseURL string, httpClient *http.Client, token TokenSource, rps float64, burst int, logger *slog.Logger) *SyncClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 && burst > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &SyncClient{
		baseURL: baseURL,
		http:    httpClient,
		limiter: limiter,
		token:   token,
		logger:  logger,
	}
}

func (client *SyncClient) Create(context stdctx.Context, recordType string, payload map[string]any) error {
	return client.do(context, http.MethodPost, client.path(recordType, ""), payload)
}

func (client *SyncClient) Update(context stdctx.Context, recordType, recordID string, payload map[string]any) error {
	return client.do(context, http.MethodPut, client.path(recordType, recordID), payload)
}

func (client *SyncClient) Delete(context stdctx.Context, recordType, recordID string) error {
	return client.do(context, http.MethodDelete, client.path(recordType, recordID), nil)
}

func (client *SyncClient) path(recordType, recordID string) string {
	p := "/sync/" + url.PathEscape(recordType)
	if recordID != "" {
		p += "/" + url.PathEscape(recordID)
	}
	return p
}

// do runs one throttled, authenticated request.
func (client *SyncClient) do(context stdctx.Context, method, path string, body any) error {
	accessToken := client.token(context)
	if accessToken == "" {
		return apperr.Unauthorized("No active session")
	}

	if err := client.limiter.Wait(context); err != nil {
		return fmt.Errorf("sync_api_throttle_wait_failed: %w", err)
	}

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("sync_api_marshal_failed: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	request, err := http.NewRequestWithContext(context, method, client.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("sync_api_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	request.Header.Set("Authorization", "Bearer "+accessToken)

	response, err := client.http.Do(request)
	if err != nil {
		return fmt.Errorf("sync_api_call_failed: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode >= 400 {
		return client.mapError(response)
	}
	return nil
}

// mapError converts a non-2xx response into the apperr taxonomy.
func (client *SyncClient) mapError(response *http.Response) error {
	envelope := struct {
		Error string `json:"error"`
	}{}
	_ = json.NewDecoder(response.Body).Decode(&envelope)
	if envelope.Error == "" {
		envelope.Error = http.StatusText(response.StatusCode)
	}

	switch response.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.Unauthorized(envelope.Error)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.Validation(envelope.Error)
	case http.StatusConflict:
		return apperr.Conflict(envelope.Error)
	case http.StatusTooManyRequests:
		return apperr.RateLimited(1)
	default:
		return fmt.Errorf("sync_api_status_%d: %s", response.StatusCode, envelope.Error)
	}
}
