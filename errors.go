package goCred

import (
	"errors"
	"fmt"
)

var (
	// ErrResendThrottled is an exported constant or variable used by the credential engine.
	ErrResendThrottled = errors.New("resend throttled")
	// ErrAttemptsExhausted is an exported constant or variable used by the credential engine.
	ErrAttemptsExhausted = errors.New("verification attempts exhausted")
	// ErrExpired is an exported constant or variable used by the credential engine.
	ErrExpired = errors.New("code expired")
	// ErrMismatch is an exported constant or variable used by the credential engine.
	ErrMismatch = errors.New("code mismatch")
	// ErrNoActiveCode is an exported constant or variable used by the credential engine.
	ErrNoActiveCode = errors.New("no active code")
	// ErrLockedOut is an exported constant or variable used by the credential engine.
	ErrLockedOut = errors.New("account temporarily locked")
	// ErrInvalidOrExpired is an exported constant or variable used by the credential engine.
	ErrInvalidOrExpired = errors.New("reset token invalid or expired")
	// ErrValidation is an exported constant or variable used by the credential engine.
	ErrValidation = errors.New("validation failed")

	// ErrAlreadyVerified is an exported constant or variable used by the credential engine.
	ErrAlreadyVerified = errors.New("account already verified")
	// ErrAccountUnverified is an exported constant or variable used by the credential engine.
	ErrAccountUnverified = errors.New("account unverified")
	// ErrAccountNotFound is an exported constant or variable used by the credential engine.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials is an exported constant or variable used by the credential engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountExists is an exported constant or variable used by the credential engine.
	ErrAccountExists = errors.New("account already exists")
	// ErrResetNotAuthorized is an exported constant or variable used by the credential engine.
	ErrResetNotAuthorized = errors.New("password reset not authorized")
	// ErrRememberTokenInvalid is an exported constant or variable used by the credential engine.
	ErrRememberTokenInvalid = errors.New("remember token invalid")
	// ErrDeliveryFailed is an exported constant or variable used by the credential engine.
	ErrDeliveryFailed = errors.New("message delivery failed")
	// ErrStoreUnavailable is an exported constant or variable used by the credential engine.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrTooManyRequests is an exported constant or variable used by the credential engine.
	ErrTooManyRequests = errors.New("too many requests")
	// ErrEngineNotReady is an exported constant or variable used by the credential engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ValidationError reports which input field was rejected. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

var domainErrors = []error{
	ErrResendThrottled,
	ErrAttemptsExhausted,
	ErrExpired,
	ErrMismatch,
	ErrNoActiveCode,
	ErrLockedOut,
	ErrInvalidOrExpired,
	ErrValidation,
	ErrAlreadyVerified,
	ErrAccountUnverified,
	ErrAccountNotFound,
	ErrInvalidCredentials,
	ErrAccountExists,
	ErrResetNotAuthorized,
	ErrRememberTokenInvalid,
	ErrDeliveryFailed,
	ErrStoreUnavailable,
	ErrTooManyRequests,
	ErrEngineNotReady,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// PublicMessage describes the publicmessage operation and its observable behavior.
//
// PublicMessage maps any error to a short user-facing sentence that does not
// reveal which check failed. Unknown errors map to a generic message.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		var verr *ValidationError
		if errors.As(err, &verr) {
			return validationMessage(verr.Field)
		}
		return "Please check your input and try again."
	case errors.Is(err, ErrMismatch), errors.Is(err, ErrNoActiveCode), errors.Is(err, ErrExpired):
		return "Invalid or expired code."
	case errors.Is(err, ErrAttemptsExhausted):
		return "Too many attempts. Please try again later."
	case errors.Is(err, ErrResendThrottled):
		return "Please wait before requesting another code."
	case errors.Is(err, ErrLockedOut):
		return "Too many failed logins. Please try again later."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, ErrAccountUnverified):
		return "Please verify your email address first."
	case errors.Is(err, ErrAlreadyVerified):
		return "This account is already verified."
	case errors.Is(err, ErrAccountNotFound):
		return "Account not found or already verified."
	case errors.Is(err, ErrAccountExists):
		return "That username or email is already registered."
	case errors.Is(err, ErrInvalidOrExpired), errors.Is(err, ErrResetNotAuthorized):
		return "This reset link is invalid or has expired."
	case errors.Is(err, ErrRememberTokenInvalid):
		return "Please log in again."
	case errors.Is(err, ErrDeliveryFailed):
		return "We could not send the message. Please try again."
	case errors.Is(err, ErrTooManyRequests):
		return "Too many requests. Please slow down."
	default:
		return "Something went wrong. Please try again."
	}
}

func validationMessage(field string) string {
	switch field {
	case "username":
		return "Username must be 3-20 characters: letters, numbers, or underscores."
	case "email":
		return "Please enter a valid email address."
	case "password":
		return "Password does not meet the requirements."
	case "code":
		return "Invalid or expired code."
	default:
		return "Please check your input and try again."
	}
}
