package goCred

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MrEthical07/goCred/internal"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// maxEmailLength follows the SMTP path limit.
const maxEmailLength = 254

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return newValidationError("username", "must be 3-20 letters, digits or underscores")
	}
	return nil
}

// validateEmail accepts a bare address only; display names and angle
// brackets are rejected.
func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > maxEmailLength {
		return newValidationError("email", "invalid address")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return newValidationError("email", "invalid address")
	}
	return nil
}

func (p PasswordPolicyConfig) validate(password string) error {
	if utf8.RuneCountInString(password) < p.MinLength {
		return newValidationError("password", "too short")
	}
	if p.MaxLength > 0 && len(password) > p.MaxLength {
		return newValidationError("password", "too long")
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case r != '_' && !unicode.IsLetter(r):
			special = true
		}
	}

	switch {
	case p.RequireUpper && !upper:
		return newValidationError("password", "needs an uppercase letter")
	case p.RequireLower && !lower:
		return newValidationError("password", "needs a lowercase letter")
	case p.RequireDigit && !digit:
		return newValidationError("password", "needs a digit")
	case p.RequireSpecial && !special:
		return newValidationError("password", "needs a special character")
	}
	return nil
}

func (e *Engine) validateRegistration(username, email, password string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	return e.config.PasswordPolicy.validate(password)
}

func (e *Engine) validatePassword(password string) error {
	return e.config.PasswordPolicy.validate(password)
}

func (e *Engine) validateCode(code string) error {
	if !internal.IsNumericCode(code, e.config.OTP.Digits) {
		return newValidationError("code", "malformed code")
	}
	return nil
}
