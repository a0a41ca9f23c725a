package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates no record or grant matched.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate indicates a username or email is already taken.
	ErrDuplicate = errors.New("store: duplicate account")
	// ErrConflict indicates an optimistic update lost its race too many times.
	ErrConflict = errors.New("store: update conflict")
	// ErrInvalidRecord indicates a record failed basic shape checks.
	ErrInvalidRecord = errors.New("store: invalid record")
)

// MutateFunc inspects and mutates rec in place. When write is true the
// mutated record is persisted; err is returned to the caller of Update
// whether or not a write happened.
type MutateFunc func(rec *Record) (write bool, err error)

// Store persists credential records.
type Store interface {
	// Create inserts a new record; ErrDuplicate when the account id,
	// username, or email is taken.
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, accountID string) (*Record, error)
	FindByEmail(ctx context.Context, email string) (*Record, error)
	// FindByIdentifier matches the username exactly or the email
	// case-insensitively.
	FindByIdentifier(ctx context.Context, identifier string) (*Record, error)
	// Update atomically applies fn to the record and returns the record as
	// fn left it together with fn's outcome.
	Update(ctx context.Context, accountID string, fn MutateFunc) (*Record, error)
}

// GrantStore holds short-lived reset grants.
type GrantStore interface {
	Put(ctx context.Context, grant Grant, ttl time.Duration) error
	// Take returns and deletes the grant; ErrNotFound when absent.
	Take(ctx context.Context, id string) (Grant, error)
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRecord checks the fields every backend indexes on.
func ValidateRecord(rec *Record) error {
	if rec == nil || rec.AccountID == "" || rec.Username == "" || rec.Email == "" {
		return ErrInvalidRecord
	}
	return nil
}
