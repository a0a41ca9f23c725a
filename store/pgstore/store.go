package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goCred/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPostgresUnavailable wraps driver and server failures.
var ErrPostgresUnavailable = errors.New("pgstore: postgres unavailable")

const uniqueViolation = "23505"

const selectColumns = `account_id, username, email, password_hash, is_verified,
	otp_hash, otp_expires_at, otp_resend_count, otp_last_sent_at, otp_verify_attempts, otp_last_attempt_at,
	reset_token_hash, reset_expires_at, reset_request_count, reset_last_sent_at,
	login_attempts, last_login_attempt_at, remember_token_hash,
	last_login_at, created_at, version`

// Store is a PostgreSQL-backed [store.Store].
type Store struct {
	db *pgxpool.Pool
}

// New wraps an existing pool. Run [Migrate] before first use.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Connect configures a pool for url and verifies it with a ping.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

func (s *Store) Create(ctx context.Context, rec *store.Record) error {
	if err := store.ValidateRecord(rec); err != nil {
		return err
	}

	r := rec.Clone()
	r.Email = store.NormalizeEmail(r.Email)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, `INSERT INTO credentials (`+selectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, 1)`,
		r.AccountID, r.Username, r.Email, r.PasswordHash, r.Verified,
		nullString(r.OTPHash), nullTime(r.OTPExpiresAt), r.OTPResendCount, nullTime(r.OTPLastSentAt), r.OTPVerifyAttempts, nullTime(r.OTPLastAttemptAt),
		nullString(r.ResetTokenHash), nullTime(r.ResetExpiresAt), r.ResetRequestCount, nullTime(r.ResetLastSentAt),
		r.LoginAttempts, nullTime(r.LastLoginAttemptAt), nullString(r.RememberTokenHash),
		nullTime(r.LastLoginAt), r.CreatedAt.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.ErrDuplicate
		}
		return fmt.Errorf("%w: %v", ErrPostgresUnavailable, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, accountID string) (*store.Record, error) {
	return s.queryOne(ctx, `SELECT `+selectColumns+` FROM credentials WHERE account_id = $1`, accountID)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*store.Record, error) {
	return s.queryOne(ctx, `SELECT `+selectColumns+` FROM credentials WHERE email = $1`, store.NormalizeEmail(email))
}

func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (*store.Record, error) {
	return s.queryOne(ctx,
		`SELECT `+selectColumns+` FROM credentials WHERE username = $1 OR email = $2
		ORDER BY (username = $1) DESC LIMIT 1`,
		identifier, store.NormalizeEmail(identifier))
}

func (s *Store) queryOne(ctx context.Context, sql string, args ...any) (*store.Record, error) {
	rec, err := scanRecord(s.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPostgresUnavailable, err)
	}
	return rec, nil
}

func (s *Store) Update(ctx context.Context, accountID string, fn store.MutateFunc) (*store.Record, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPostgresUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanRecord(tx.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM credentials WHERE account_id = $1 FOR UPDATE`, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPostgresUnavailable, err)
	}

	working := current.Clone()
	write, outcome := fn(working)
	if !write {
		return working, outcome
	}

	r := working
	r.Version = current.Version + 1
	_, err = tx.Exec(ctx, `UPDATE credentials SET
		password_hash = $2, is_verified = $3,
		otp_hash = $4, otp_expires_at = $5, otp_resend_count = $6, otp_last_sent_at = $7,
		otp_verify_attempts = $8, otp_last_attempt_at = $9,
		reset_token_hash = $10, reset_expires_at = $11, reset_request_count = $12, reset_last_sent_at = $13,
		login_attempts = $14, last_login_attempt_at = $15, remember_token_hash = $16,
		last_login_at = $17, version = $18
		WHERE account_id = $1`,
		accountID, r.PasswordHash, r.Verified,
		nullString(r.OTPHash), nullTime(r.OTPExpiresAt), r.OTPResendCount, nullTime(r.OTPLastSentAt),
		r.OTPVerifyAttempts, nullTime(r.OTPLastAttemptAt),
		nullString(r.ResetTokenHash), nullTime(r.ResetExpiresAt), r.ResetRequestCount, nullTime(r.ResetLastSentAt),
		r.LoginAttempts, nullTime(r.LastLoginAttemptAt), nullString(r.RememberTokenHash),
		nullTime(r.LastLoginAt), int64(r.Version),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPostgresUnavailable, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPostgresUnavailable, err)
	}

	r.AccountID = current.AccountID
	r.Username = current.Username
	r.Email = current.Email
	return r, outcome
}

func scanRecord(row pgx.Row) (*store.Record, error) {
	var (
		r                                            store.Record
		otpHash, resetHash, rememberHash             *string
		otpExpires, otpSent, otpAttempt              *time.Time
		resetExpires, resetSent, loginAttempt, login *time.Time
		createdAt                                    time.Time
		version                                      int64
	)

	err := row.Scan(
		&r.AccountID, &r.Username, &r.Email, &r.PasswordHash, &r.Verified,
		&otpHash, &otpExpires, &r.OTPResendCount, &otpSent, &r.OTPVerifyAttempts, &otpAttempt,
		&resetHash, &resetExpires, &r.ResetRequestCount, &resetSent,
		&r.LoginAttempts, &loginAttempt, &rememberHash,
		&login, &createdAt, &version,
	)
	if err != nil {
		return nil, err
	}

	r.OTPHash = fromNullString(otpHash)
	r.OTPExpiresAt = fromNullTime(otpExpires)
	r.OTPLastSentAt = fromNullTime(otpSent)
	r.OTPLastAttemptAt = fromNullTime(otpAttempt)
	r.ResetTokenHash = fromNullString(resetHash)
	r.ResetExpiresAt = fromNullTime(resetExpires)
	r.ResetLastSentAt = fromNullTime(resetSent)
	r.LastLoginAttemptAt = fromNullTime(loginAttempt)
	r.RememberTokenHash = fromNullString(rememberHash)
	r.LastLoginAt = fromNullTime(login)
	r.CreatedAt = createdAt.UTC()
	r.Version = uint64(version)
	return &r, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func fromNullString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func fromNullTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
