package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goCred/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const maxUpdateRetries = 16

// ErrDatabaseUnavailable wraps driver and query failures.
var ErrDatabaseUnavailable = errors.New("sqlstore: database unavailable")

// Store is a gorm-backed [store.Store].
type Store struct {
	db *gorm.DB
}

// New wraps db and creates the credential and grant tables if missing.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&credentialRow{}, &grantRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenSQLite opens a SQLite database at dsn with a single connection, which
// is what SQLite needs to avoid "database is locked" under concurrent writers.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Grants returns a [store.GrantStore] sharing this store's database.
func (s *Store) Grants() *Grants {
	return &Grants{db: s.db}
}

func (s *Store) Create(ctx context.Context, rec *store.Record) error {
	if err := store.ValidateRecord(rec); err != nil {
		return err
	}

	r := rec.Clone()
	r.Email = store.NormalizeEmail(r.Email)
	r.Version = 1
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	row := rowFromRecord(r)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&credentialRow{}).
			Where("account_id = ? OR username = ? OR email = ?", row.AccountID, row.Username, row.Email).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return store.ErrDuplicate
		}
		return tx.Create(&row).Error
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrDuplicate), errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	default:
		return fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}
}

func (s *Store) Get(ctx context.Context, accountID string) (*store.Record, error) {
	return s.takeWhere(ctx, "account_id = ?", accountID)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*store.Record, error) {
	return s.takeWhere(ctx, "email = ?", store.NormalizeEmail(email))
}

func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (*store.Record, error) {
	rec, err := s.takeWhere(ctx, "username = ?", identifier)
	if errors.Is(err, store.ErrNotFound) {
		return s.FindByEmail(ctx, identifier)
	}
	return rec, err
}

func (s *Store) takeWhere(ctx context.Context, query string, arg any) (*store.Record, error) {
	var row credentialRow
	if err := s.db.WithContext(ctx).Where(query, arg).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}
	return row.record(), nil
}

func (s *Store) Update(ctx context.Context, accountID string, fn store.MutateFunc) (*store.Record, error) {
	for i := 0; i < maxUpdateRetries; i++ {
		current, err := s.Get(ctx, accountID)
		if err != nil {
			return nil, err
		}

		working := current.Clone()
		write, outcome := fn(working)
		if !write {
			return working, outcome
		}

		working.AccountID = current.AccountID
		working.Username = current.Username
		working.Email = current.Email
		working.CreatedAt = current.CreatedAt
		working.Version = current.Version + 1

		res := s.db.WithContext(ctx).
			Model(&credentialRow{}).
			Where("account_id = ? AND version = ?", accountID, current.Version).
			Updates(rowFromRecord(working).mutableColumns())
		if res.Error != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseUnavailable, res.Error)
		}
		if res.RowsAffected == 1 {
			return working, outcome
		}
	}
	return nil, store.ErrConflict
}

// Grants is a gorm-backed [store.GrantStore].
type Grants struct {
	db *gorm.DB
}

func (g *Grants) Put(ctx context.Context, grant store.Grant, ttl time.Duration) error {
	row := grantRow{
		GrantID:     grant.ID,
		AccountID:   grant.AccountID,
		TokenDigest: grant.TokenDigest,
		ExpiresAt:   grant.ExpiresAt.UTC(),
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}
	return nil
}

func (g *Grants) Take(ctx context.Context, id string) (store.Grant, error) {
	var row grantRow
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("grant_id = ?", id).Take(&row).Error; err != nil {
			return err
		}
		res := tx.Where("grant_id = ?", id).Delete(&grantRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.Grant{}, store.ErrNotFound
		}
		return store.Grant{}, fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}

	return store.Grant{
		ID:          row.GrantID,
		AccountID:   row.AccountID,
		TokenDigest: row.TokenDigest,
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, nil
}
