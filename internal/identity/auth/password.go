// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package auth

import (
	"strings"
	"unicode"

	"github.com/solacehq/solace/internal/platform/validate"
)

// # Password Policy

// passwordRule pairs a predicate with the message naming the unmet rule.
type passwordRule struct {
	message string
	passes  func(password string) bool
}

// Rules are checked in order; the FIRST unmet rule names the failure.
var passwordRules = []passwordRule{
	{
		message: "Must be at least 8 characters",
		passes:  func(p string) bool { return len(p) >= 8 },
	},
	{
		message: "Must contain an uppercase letter",
		passes:  func(p string) bool { return strings.ContainsFunc(p, unicode.IsUpper) },
	},
	{
		message: "Must contain a lowercase letter",
		passes:  func(p string) bool { return strings.ContainsFunc(p, unicode.IsLower) },
	},
	{
		message: "Must contain a digit",
		passes:  func(p string) bool { return strings.ContainsFunc(p, unicode.IsDigit) },
	},
	{
		message: "Must contain a symbol (" + passwordSymbols + ")",
		passes:  func(p string) bool { return strings.ContainsAny(p, passwordSymbols) },
	},
}

// ValidatePassword checks the password strength policy.
//
// It returns a VALIDATION_ERROR naming the first unmet rule, or nil when
// all rules pass.
func ValidatePassword(password string) error {
	for _, rule := range passwordRules {
		if !rule.passes(password) {
			return validate.RequiredError("password", rule.message)
		}
	}
	return nil
}
