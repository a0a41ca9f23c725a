package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goCred/store"
	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 16

// ErrRedisUnavailable wraps transport and server failures.
var ErrRedisUnavailable = errors.New("redisstore: redis unavailable")

// Store is a Redis-backed [store.Store].
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New returns a Store using the given key prefix ("gc" when empty).
func New(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "gc"
	}
	return &Store{redis: redisClient, prefix: prefix}
}

func (s *Store) recordKey(accountID string) string { return s.prefix + ":rec:" + accountID }
func (s *Store) emailKey(email string) string      { return s.prefix + ":email:" + email }
func (s *Store) userKey(username string) string    { return s.prefix + ":user:" + username }

func (s *Store) Create(ctx context.Context, rec *store.Record) error {
	if err := store.ValidateRecord(rec); err != nil {
		return err
	}

	stored := rec.Clone()
	stored.Email = store.NormalizeEmail(stored.Email)
	stored.Version = 1
	encoded, err := store.Encode(stored)
	if err != nil {
		return err
	}

	recKey := s.recordKey(stored.AccountID)
	emailKey := s.emailKey(stored.Email)
	userKey := s.userKey(stored.Username)

	err = s.redis.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, recKey, emailKey, userKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return store.ErrDuplicate
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, recKey, encoded, 0)
			pipe.Set(ctx, emailKey, stored.AccountID, 0)
			pipe.Set(ctx, userKey, stored.AccountID, 0)
			return nil
		})
		return err
	}, recKey, emailKey, userKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrDuplicate), errors.Is(err, redis.TxFailedErr):
		// A concurrent create touched one of our keys.
		return store.ErrDuplicate
	default:
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
}

func (s *Store) Get(ctx context.Context, accountID string) (*store.Record, error) {
	data, err := s.redis.Get(ctx, s.recordKey(accountID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return store.Decode(data)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*store.Record, error) {
	return s.getByIndex(ctx, s.emailKey(store.NormalizeEmail(email)))
}

func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (*store.Record, error) {
	rec, err := s.getByIndex(ctx, s.userKey(identifier))
	if errors.Is(err, store.ErrNotFound) {
		return s.FindByEmail(ctx, identifier)
	}
	return rec, err
}

func (s *Store) getByIndex(ctx context.Context, indexKey string) (*store.Record, error) {
	accountID, err := s.redis.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.Get(ctx, accountID)
}

func (s *Store) Update(ctx context.Context, accountID string, fn store.MutateFunc) (*store.Record, error) {
	key := s.recordKey(accountID)

	for i := 0; i < maxUpdateRetries; i++ {
		var (
			working *store.Record
			outcome error
		)

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}
			current, err := store.Decode(data)
			if err != nil {
				return err
			}

			working = current.Clone()
			var write bool
			write, outcome = fn(working)
			if !write {
				return nil
			}

			working.AccountID = current.AccountID
			working.Username = current.Username
			working.Email = current.Email
			working.Version = current.Version + 1
			encoded, err := store.Encode(working)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, store.ErrNotFound
			}
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		return working, outcome
	}

	return nil, store.ErrConflict
}
