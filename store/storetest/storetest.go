// Package storetest holds the behavioural checks every store backend must
// pass. Backend packages call [Run] and [RunGrants] from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goCred/store"
)

var errOutcome = errors.New("outcome")

func sampleRecord(id, username, email string) *store.Record {
	return &store.Record{
		AccountID:    id,
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$placeholder",
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Run exercises a [store.Store] produced by newStore; each subtest receives a
// fresh, empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("CreateAndGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.Create(ctx, sampleRecord("acc-1", "alice_01", "Alice@Example.com")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		got, err := s.Get(ctx, "acc-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Username != "alice_01" || got.Email != "alice@example.com" {
			t.Fatalf("unexpected record: %+v", got)
		}
		if !got.CreatedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
			t.Fatalf("unexpected CreatedAt: %v", got.CreatedAt)
		}

		if _, err := s.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("CreateRejectsDuplicates", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.Create(ctx, sampleRecord("acc-1", "alice_01", "alice@example.com")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := s.Create(ctx, sampleRecord("acc-2", "alice_01", "other@example.com")); !errors.Is(err, store.ErrDuplicate) {
			t.Fatalf("expected duplicate username rejection, got %v", err)
		}
		if err := s.Create(ctx, sampleRecord("acc-3", "bob_01", "ALICE@example.com")); !errors.Is(err, store.ErrDuplicate) {
			t.Fatalf("expected duplicate email rejection, got %v", err)
		}
		if err := s.Create(ctx, sampleRecord("acc-4", "bob_01", "bob@example.com")); err != nil {
			t.Fatalf("expected distinct account to succeed, got %v", err)
		}
	})

	t.Run("Lookups", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.Create(ctx, sampleRecord("acc-1", "alice_01", "alice@example.com")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		byEmail, err := s.FindByEmail(ctx, " ALICE@example.com ")
		if err != nil || byEmail.AccountID != "acc-1" {
			t.Fatalf("FindByEmail mismatch: %+v %v", byEmail, err)
		}
		byUser, err := s.FindByIdentifier(ctx, "alice_01")
		if err != nil || byUser.AccountID != "acc-1" {
			t.Fatalf("FindByIdentifier(username) mismatch: %+v %v", byUser, err)
		}
		byIdentEmail, err := s.FindByIdentifier(ctx, "Alice@Example.com")
		if err != nil || byIdentEmail.AccountID != "acc-1" {
			t.Fatalf("FindByIdentifier(email) mismatch: %+v %v", byIdentEmail, err)
		}
		if _, err := s.FindByIdentifier(ctx, "ALICE_01"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected username match to be exact, got %v", err)
		}
		if _, err := s.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateWritesWhenAsked", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if err := s.Create(ctx, sampleRecord("acc-1", "alice_01", "alice@example.com")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		now := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
		_, err := s.Update(ctx, "acc-1", func(rec *store.Record) (bool, error) {
			rec.OTPHash = "digest"
			rec.OTPExpiresAt = now.Add(10 * time.Minute)
			rec.OTPResendCount = 2
			rec.OTPLastSentAt = now
			rec.LoginAttempts = 3
			rec.LastLoginAttemptAt = now
			rec.RememberTokenHash = "remember"
			return true, errOutcome
		})
		if !errors.Is(err, errOutcome) {
			t.Fatalf("expected outcome error passed through, got %v", err)
		}

		got, err := s.Get(ctx, "acc-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.OTPHash != "digest" || got.OTPResendCount != 2 || got.LoginAttempts != 3 || got.RememberTokenHash != "remember" {
			t.Fatalf("write not persisted: %+v", got)
		}
		if !got.OTPExpiresAt.Equal(now.Add(10*time.Minute)) || !got.LastLoginAttemptAt.Equal(now) {
			t.Fatalf("timestamps not persisted: %+v", got)
		}
	})

	t.Run("UpdateSkipsWriteWhenDeclined", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if err := s.Create(ctx, sampleRecord("acc-1", "alice_01", "alice@example.com")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		_, err := s.Update(ctx, "acc-1", func(rec *store.Record) (bool, error) {
			rec.LoginAttempts = 99
			return false, errOutcome
		})
		if !errors.Is(err, errOutcome) {
			t.Fatalf("expected outcome error, got %v", err)
		}

		got, err := s.Get(ctx, "acc-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.LoginAttempts != 0 {
			t.Fatalf("declined write was persisted: %d", got.LoginAttempts)
		}
	})

	t.Run("UpdateMissingRecord", func(t *testing.T) {
		s := newStore(t)
		called := false
		_, err := s.Update(context.Background(), "missing", func(rec *store.Record) (bool, error) {
			called = true
			return true, nil
		})
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if called {
			t.Fatal("mutate func must not run for a missing record")
		}
	})

	t.Run("UpdateIsAtomicUnderContention", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if err := s.Create(ctx, sampleRecord("acc-1", "alice_01", "alice@example.com")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		const workers = 8
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Update(ctx, "acc-1", func(rec *store.Record) (bool, error) {
					rec.LoginAttempts++
					return true, nil
				})
				if err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)

		failed := 0
		for err := range errs {
			if !errors.Is(err, store.ErrConflict) {
				t.Fatalf("unexpected update error: %v", err)
			}
			failed++
		}

		got, err := s.Get(ctx, "acc-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.LoginAttempts != workers-failed {
			t.Fatalf("lost update: expected %d increments, got %d", workers-failed, got.LoginAttempts)
		}
	})
}

// RunGrants exercises a [store.GrantStore].
func RunGrants(t *testing.T, newGrants func(t *testing.T) store.GrantStore) {
	t.Helper()

	t.Run("TakeIsSingleUse", func(t *testing.T) {
		g := newGrants(t)
		ctx := context.Background()
		grant := store.Grant{
			ID:          "grant-1",
			AccountID:   "acc-1",
			TokenDigest: "digest",
			ExpiresAt:   time.Date(2026, 3, 1, 12, 15, 0, 0, time.UTC),
		}

		if err := g.Put(ctx, grant, 15*time.Minute); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		got, err := g.Take(ctx, "grant-1")
		if err != nil {
			t.Fatalf("Take failed: %v", err)
		}
		if got.AccountID != "acc-1" || got.TokenDigest != "digest" || !got.ExpiresAt.Equal(grant.ExpiresAt) {
			t.Fatalf("unexpected grant: %+v", got)
		}

		if _, err := g.Take(ctx, "grant-1"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected second Take to miss, got %v", err)
		}
	})

	t.Run("TakeMissing", func(t *testing.T) {
		g := newGrants(t)
		if _, err := g.Take(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
