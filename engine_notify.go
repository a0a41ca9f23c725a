package goCred

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goCred/notify"
)

func (e *Engine) deliverOTP(ctx context.Context, issue OTPIssue) error {
	msg := notify.Message{
		Kind:    notify.KindVerificationCode,
		To:      issue.Email,
		Subject: "Your verification code",
		Body: fmt.Sprintf(
			"Your verification code is %s.\n\nIt expires in %s. If you did not create an account, ignore this message.\n",
			issue.Code, humanDuration(e.config.OTP.TTL)),
	}
	return e.deliver(ctx, auditEventOTPDelivery, issue.AccountID, msg)
}

func (e *Engine) deliverResetLink(ctx context.Context, issue ResetIssue) error {
	link := issue.Token
	if e.resetLink != nil {
		link = e.resetLink(issue.Token)
	}
	msg := notify.Message{
		Kind:    notify.KindPasswordReset,
		To:      issue.Email,
		Subject: "Reset your password",
		Body: fmt.Sprintf(
			"Use the link below to choose a new password:\n\n%s\n\nIt expires in %s. If you did not ask for a reset, ignore this message.\n",
			link, humanDuration(e.config.PasswordReset.TokenTTL)),
	}
	return e.deliver(ctx, auditEventResetDelivery, issue.AccountID, msg)
}

func (e *Engine) deliver(ctx context.Context, event, accountID string, msg notify.Message) error {
	if e.notifier == nil {
		return nil
	}
	if err := e.notifier.Send(ctx, msg); err != nil {
		e.metricInc(MetricDeliveryFailed)
		e.logger.WarnContext(ctx, "notification delivery failed", "kind", msg.Kind, "account_id", accountID, "error", err)
		e.emitAudit(ctx, event, false, accountID, ErrDeliveryFailed, nil)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	e.emitAudit(ctx, event, true, accountID, nil, nil)
	return nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		if d == time.Minute {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}
