// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xlzd/gotp"

	"github.com/solacehq/solace/internal/identity/auth"
)

func TestSetupMFA(t *testing.T) {
	setup := auth.SetupMFA("user@example.com")

	require.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.ProvisioningURI, "otpauth://totp/")
	assert.Contains(t, setup.ProvisioningURI, "Solace")

	// Each enrollment mints a distinct secret.
	assert.NotEqual(t, setup.Secret, auth.SetupMFA("user@example.com").Secret)
}

func TestVerifyTOTP(t *testing.T) {
	setup := auth.SetupMFA("user@example.com")

	code := gotp.NewDefaultTOTP(setup.Secret).At(time.Now().Unix())
	assert.NoError(t, auth.VerifyTOTP(setup.Secret, code))

	t.Run("wrong_code", func(t *testing.T) {
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		assert.Error(t, auth.VerifyTOTP(setup.Secret, wrong))
	})

	t.Run("malformed_code", func(t *testing.T) {
		assert.Error(t, auth.VerifyTOTP(setup.Secret, "123"))
		assert.Error(t, auth.VerifyTOTP(setup.Secret, "1234567"))
	})
}

func TestConfirmMFA(t *testing.T) {
	setup := auth.SetupMFA("user@example.com")

	code := gotp.NewDefaultTOTP(setup.Secret).At(time.Now().Unix())
	assert.NoError(t, auth.ConfirmMFA(setup, code))

	t.Run("missing_setup", func(t *testing.T) {
		assert.Error(t, auth.ConfirmMFA(nil, code))
		assert.Error(t, auth.ConfirmMFA(&auth.MFASetup{}, code))
	})
}
