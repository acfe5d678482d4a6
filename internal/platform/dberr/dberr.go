// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gorm.io/gorm"

	"github.com/solacehq/solace/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Record")
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the caller while classifying the
// error type. Both datastore backends funnel their errors through here.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping, for both backends
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	// 2. Unknown query errors become storage errors carrying the action
	// for log correlation
	return apperr.Storage(fmt.Sprintf("datastore_%s_failed", action), err)
}
