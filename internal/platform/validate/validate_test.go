// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacehq/solace/internal/platform/apperr"
	"github.com/solacehq/solace/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "name", "Solace", false},
		{"empty_string", "name", "", true},
		{"whitespace_only", "name", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, apperr.CodeValidation, ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_Email tests RFC 5322 address validation.
*/
func TestValidator_Email(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{"valid_email", "member@solacehq.io", false},
		{"missing_at", "membersolacehq.io", true},
		{"missing_domain", "member@", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Email("email", tt.value)
			assert.Equal(t, tt.hasError, v.HasErrors())
		})
	}
}

/*
TestValidator_Consent verifies that consent flags must be explicitly true.
*/
func TestValidator_Consent(t *testing.T) {
	v := &validate.Validator{}
	v.Consent("terms_accepted", false).Consent("privacy_accepted", true)

	err := v.Err()
	require.NotNil(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	require.Len(t, ae.Details, 1)
	assert.Equal(t, "terms_accepted", ae.Details[0].Field)
}

/*
TestValidator_Chaining verifies that multiple failures accumulate in order.
*/
func TestValidator_Chaining(t *testing.T) {
	v := &validate.Validator{}
	v.Required("email", "").
		MinLen("password", "abc", 8).
		Custom("code", true, "Must be a 6-digit code")

	ae := apperr.As(v.Err())
	require.NotNil(t, ae)
	require.Len(t, ae.Details, 3)
	assert.Equal(t, "email", ae.Details[0].Field)
	assert.Equal(t, "password", ae.Details[1].Field)
	assert.Equal(t, "code", ae.Details[2].Field)
}
