// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacehq/solace/internal/identity/auth"
	"github.com/solacehq/solace/internal/platform/apperr"
)

/*
TestValidatePassword rejects each weak password for its specific missing
rule and accepts a compliant one.
*/
func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name        string
		password    string
		wantMessage string
	}{
		{"too_short", "short1!", "Must be at least 8 characters"},
		{"no_uppercase", "alllowercase1!", "Must contain an uppercase letter"},
		{"no_lowercase", "ALLUPPER1!", "Must contain a lowercase letter"},
		{"no_digit", "NoDigits!", "Must contain a digit"},
		{"no_symbol", "NoSymbols1", "Must contain a symbol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidatePassword(tt.password)
			require.Error(t, err)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, apperr.CodeValidation, ae.Code)
			require.Len(t, ae.Details, 1)
			assert.Equal(t, "password", ae.Details[0].Field)
			assert.Contains(t, ae.Details[0].Message, tt.wantMessage)
		})
	}

	t.Run("valid_password", func(t *testing.T) {
		assert.NoError(t, auth.ValidatePassword("Valid1Pass!"))
	})
}
