// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package auth

import (
	"time"

	"github.com/xlzd/gotp"

	"github.com/solacehq/solace/internal/platform/validate"
)

// # MFA Enrollment
//
// Verification of login-time MFA codes happens server-side (see
// [Service.VerifyMFA]). These helpers cover enrollment: generating the
// authenticator secret and checking the user's first code locally before
// the preference is submitted to the backend.

// MFASetup is the material a user needs to enroll an authenticator app.
type MFASetup struct {
	// Secret is the base32 TOTP secret. Shown once; never logged.
	Secret string `json:"secret"`
	// ProvisioningURI is the otpauth:// URI rendered as a QR code.
	ProvisioningURI string `json:"provisioningUri"`
}

// SetupMFA generates a fresh TOTP secret and provisioning URI for the
// given account email.
func SetupMFA(email string) *MFASetup {
	secret := gotp.RandomSecret(MFASecretLength)

	return &MFASetup{
		Secret:          secret,
		ProvisioningURI: gotp.NewDefaultTOTP(secret).ProvisioningUri(email, MFAIssuer),
	}
}

// VerifyTOTP checks a 6-digit code against the secret at the current
// time. Used during enrollment to confirm the authenticator was set up
// correctly before MFA is enabled on the account.
func VerifyTOTP(secret, code string) error {
	if len(code) != 6 {
		return validate.RequiredError("code", "Must be a 6-digit code")
	}
	if !gotp.NewDefaultTOTP(secret).Verify(code, time.Now().Unix()) {
		return validate.RequiredError("code", "Code is incorrect or has expired")
	}
	return nil
}

// ConfirmMFA checks the user's first authenticator code against the
// setup material. Enrollment must not be submitted to the backend until
// this passes, otherwise a mistyped secret locks the account out of MFA.
func ConfirmMFA(setup *MFASetup, code string) error {
	if setup == nil || setup.Secret == "" {
		return validate.RequiredError("secret", "MFA setup has not been generated")
	}
	return VerifyTOTP(setup.Secret, code)
}
