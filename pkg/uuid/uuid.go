// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

/*
Package uuid provides time-ordered unique identifiers for the Solace core.

It wraps the standard UUID library to specifically generate Version 7 values,
which are optimized for sync ordering and storage locality.

Advantages:

  - Sortable: Naturally ordered by creation time (millisecond precision).
  - Friendly: Keeps B-tree indexes compact in the embedded store.
  - Compact: 128-bit storage, compatible with standard 'uuid' types.

This is the mandatory ID type for device, record, and sync queue
identifiers across the Solace core.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {

	// Create a new version 7 UUID (time-sortable)
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuidv7: failed to generate UUID: " + err.Error())
	}

	// Convert the UUID to a string
	return id.String()
}

// Must generates a new UUIDv7 or panics.
// Standard Go pattern for initialization where failure is not an option.
func Must() string {
	return New()
}
