package goCred

import (
	"context"
	"errors"
)

const (
	auditEventRegister             = "account_register"
	auditEventOTPIssue             = "otp_issue"
	auditEventOTPVerify            = "otp_verify"
	auditEventOTPDelivery          = "otp_delivery"
	auditEventPasswordResetRequest = "password_reset_request"
	auditEventPasswordResetAuth    = "password_reset_authorize"
	auditEventPasswordResetConfirm = "password_reset_confirm"
	auditEventResetDelivery        = "password_reset_delivery"
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventLoginLockedOut       = "login_locked_out"
	auditEventRememberIssue        = "remember_issue"
	auditEventRememberValidate     = "remember_validate"
	auditEventRememberRevoke       = "remember_revoke"
	auditEventIPThrottled          = "ip_throttled"
)

// AuditErrorCode is the low-cardinality error label carried by audit events.
type AuditErrorCode string

const (
	auditErrValidation         AuditErrorCode = "validation"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrLockedOut          AuditErrorCode = "locked_out"
	auditErrUnverified         AuditErrorCode = "account_unverified"
	auditErrAlreadyVerified    AuditErrorCode = "already_verified"
	auditErrNotFound           AuditErrorCode = "account_not_found"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrThrottled          AuditErrorCode = "throttled"
	auditErrAttemptsExhausted  AuditErrorCode = "attempts_exhausted"
	auditErrInvalidCode        AuditErrorCode = "invalid_code"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrNotAuthorized      AuditErrorCode = "not_authorized"
	auditErrDelivery           AuditErrorCode = "delivery_failed"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrLockedOut):
		return auditErrLockedOut
	case errors.Is(err, ErrAccountUnverified):
		return auditErrUnverified
	case errors.Is(err, ErrAlreadyVerified):
		return auditErrAlreadyVerified
	case errors.Is(err, ErrAccountNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrResendThrottled):
		return auditErrThrottled
	case errors.Is(err, ErrAttemptsExhausted):
		return auditErrAttemptsExhausted
	case errors.Is(err, ErrMismatch), errors.Is(err, ErrExpired), errors.Is(err, ErrNoActiveCode):
		return auditErrInvalidCode
	case errors.Is(err, ErrInvalidOrExpired), errors.Is(err, ErrRememberTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrResetNotAuthorized):
		return auditErrNotAuthorized
	case errors.Is(err, ErrDeliveryFailed):
		return auditErrDelivery
	case errors.Is(err, ErrTooManyRequests):
		return auditErrRateLimited
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrEngineNotReady):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
