package goCred

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestVerifyOTPRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	reg := env.register(t, "dave", "dave@example.com")

	if err := env.engine.VerifyOTP(ctx, VerifyOTPRequest{AccountID: reg.AccountID, Code: reg.OTP.Code}); err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}

	rec := env.record(t, reg.AccountID)
	if !rec.Verified || rec.OTPHash != "" || rec.OTPVerifyAttempts != 0 || rec.OTPResendCount != 0 {
		t.Fatalf("expected verified record with cleared OTP state, got %+v", rec)
	}

	err := env.engine.VerifyOTP(ctx, VerifyOTPRequest{AccountID: reg.AccountID, Code: reg.OTP.Code})
	if !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestReissueInvalidatesPriorCode(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	reg := env.register(t, "erin", "erin@example.com")

	env.clock.Advance(61 * time.Second)
	next, err := env.engine.IssueOTP(ctx, reg.AccountID)
	if err != nil {
		t.Fatalf("IssueOTP failed: %v", err)
	}
	if next.Code == reg.OTP.Code {
		t.Skip("random codes collided")
	}

	err = env.engine.VerifyOTP(ctx, VerifyOTPRequest{AccountID: reg.AccountID, Code: reg.OTP.Code})
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected old code to mismatch, got %v", err)
	}
	if err := env.engine.VerifyOTP(ctx, VerifyOTPRequest{AccountID: reg.AccountID, Code: next.Code}); err != nil {
		t.Fatalf("expected new code to verify, got %v", err)
	}
}

func TestResendCooldown(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	reg := env.register(t, "frank", "frank@example.com")

	env.clock.Advance(30 * time.Second)
	if _, err := env.engine.ResendOTP(ctx, "frank@example.com"); !errors.Is(err, ErrResendThrottled) {
		t.Fatalf("expected ErrResendThrottled inside cooldown, got %v", err)
	}

	env.clock.Advance(30 * time.Second)
	issue, err := env.engine.ResendOTP(ctx, "frank@example.com")
	if err != nil {
		t.Fatalf("expected resend at exactly the cooldown, got %v", err)
	}
	if issue.AccountID != reg.AccountID {
		t.Fatalf("unexpected account %q", issue.AccountID)
	}
	if n := len(env.notes.Messages()); n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}
}

func TestResendCeilingAndWindowReset(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	reg := env.register(t, "gina", "gina@example.com")

	for i := 0; i < 5; i++ {
		env.clock.Advance(61 * time.Second)
		if _, err := env.engine.IssueOTP(ctx, reg.AccountID); err != nil {
			t.Fatalf("issue %d failed: %v", i+1, err)
		}
	}

	env.clock.Advance(61 * time.Second)
	if _, err := env.engine.IssueOTP(ctx, reg.AccountID); !errors.Is(err, ErrResendThrottled) {
		t.Fatalf("expected ceiling to throttle the 6th issue, got %v", err)
	}

	env.clock.Advance(time.Hour)
	if _, err := env.engine.IssueOTP(ctx, reg.AccountID); err != nil {
		t.Fatalf("expected window reset after an hour, got %v", err)
	}
	if rec := env.record(t, reg.AccountID); rec.OTPResendCount != 1 {
		t.Fatalf("expected fresh window count 1, got %d", rec.OTPResendCount)
	}
}

func TestVerifyAttemptsExhausted(t *testing.T) {
	env := newTestEnv(t, nil, func(b *Builder) { b.WithMetricsEnabled(true) })
	ctx := context.Background()
	reg := env.register(t, "hank", "hank@example.com")
	bad := wrongCode(reg.OTP.Code)

	for i := 0; i < 5; i++ {
		err := env.engine.VerifyOTP(ctx, VerifyOTPRequest{AccountID: reg.AccountID, Code: bad})
		if !errors.Is(err, ErrMismatch) {
			t.Fatalf("attempt %d: expected ErrMismatch, got %v", i+1, err)
		}
	}

	err := env.engine.VerifyOTP(ctx, VerifyOTPRequest{AccountID: reg.AccountID, Code: reg.OTP.Code})
	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("expected ErrAttemptsExhausted even for the right code, got %v", err)
	}
	if rec := env.record(t, reg.AccountID); rec.OTPVerifyAttempts != 5 || rec.Verified {
		t.Fatalf("exhausted verify must not mutate, got attempts=%d verified=%v", rec.OTPVerifyAttempts, rec.Verified)
	}

	// After the window the original code has expired, so a fresh one is needed.
	env.clock.Advance(time.Hour + time.Second)
	err = env.engine.VerifyOTP(ctx, VerifyOTPRequest{AccountID: reg.AccountID, Code: reg.OTP.Code})
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired after window reset, got %v", err)
	}
	next, err := env.engine.IssueOTP(ctx, reg.AccountID)
	if err != nil {
		t.Fatalf("IssueOTP failed: %v", err)
	}
	if err := env.engine.VerifyOTP(ctx, VerifyOTPRequest{AccountID: reg.AccountID, Code: next.Code}); err != nil {
		t.Fatalf("expected verify to succeed, got %v", err)
	}

	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricOTPAttemptsExhausted] != 1 || snap.Counters[MetricOTPVerifySuccess] != 1 {
		t.Fatalf("unexpected counters %+v", snap.Counters)
	}
}

func TestVerifyExpiryBoundary(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	early := env.register(t, "early", "early@example.com")
	late := env.register(t, "late", "late@example.com")
	edge := env.register(t, "edge", "edge@example.com")

	env.clock.Advance(599 * time.Second)
	if err := env.engine.VerifyOTP(ctx, VerifyOTPRequest{AccountID: early.AccountID, Code: early.OTP.Code}); err != nil {
		t.Fatalf("expected code valid at 599s, got %v", err)
	}

	env.clock.Advance(time.Second)
	if err := env.engine.VerifyOTP(ctx, VerifyOTPRequest{AccountID: edge.AccountID, Code: edge.OTP.Code}); err != nil {
		t.Fatalf("expected code valid at exactly 600s, got %v", err)
	}

	env.clock.Advance(time.Second)
	err := env.engine.VerifyOTP(ctx, VerifyOTPRequest{AccountID: late.AccountID, Code: late.OTP.Code})
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired at 601s, got %v", err)
	}
	if rec := env.record(t, late.AccountID); rec.OTPVerifyAttempts != 1 {
		t.Fatalf("expired verify must count, got %d", rec.OTPVerifyAttempts)
	}
}

func TestVerifyMalformedCodeDoesNotCount(t *testing.T) {
	env := newTestEnv(t, nil)
	reg := env.register(t, "ivan", "ivan@example.com")

	for _, code := range []string{"", "12345", "1234567", "12a456", "١٢٣٤٥٦"} {
		err := env.engine.VerifyOTP(context.Background(), VerifyOTPRequest{AccountID: reg.AccountID, Code: code})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("code %q: expected ErrValidation, got %v", code, err)
		}
	}
	if rec := env.record(t, reg.AccountID); rec.OTPVerifyAttempts != 0 {
		t.Fatalf("malformed codes must not count, got %d", rec.OTPVerifyAttempts)
	}
}

func TestConcurrentWrongVerifiesNeverExceedCeiling(t *testing.T) {
	env := newTestEnv(t, nil)
	reg := env.register(t, "judy", "judy@example.com")
	bad := wrongCode(reg.OTP.Code)

	const workers = 20
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		mismatches int
		exhausted  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := env.engine.VerifyOTP(context.Background(), VerifyOTPRequest{AccountID: reg.AccountID, Code: bad})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrMismatch):
				mismatches++
			case errors.Is(err, ErrAttemptsExhausted):
				exhausted++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if mismatches != 5 || exhausted != workers-5 {
		t.Fatalf("expected 5 mismatches and %d exhausted, got %d and %d", workers-5, mismatches, exhausted)
	}
	if rec := env.record(t, reg.AccountID); rec.OTPVerifyAttempts != 5 {
		t.Fatalf("expected attempts capped at 5, got %d", rec.OTPVerifyAttempts)
	}
}

func TestResendOTPUnknownAndVerified(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.registerVerified(t, "kate", "kate@example.com")

	if _, err := env.engine.ResendOTP(ctx, "nobody@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	env.clock.Advance(time.Minute)
	if _, err := env.engine.ResendOTP(ctx, "kate@example.com"); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
	if _, err := env.engine.IssueOTP(ctx, "missing-account"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound from IssueOTP, got %v", err)
	}
}
