package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goCred/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Grants is a PostgreSQL-backed [store.GrantStore]. Take deletes with
// RETURNING so each grant is redeemed at most once.
type Grants struct {
	db *pgxpool.Pool
}

// NewGrants wraps an existing pool.
func NewGrants(db *pgxpool.Pool) *Grants {
	return &Grants{db: db}
}

// Put stores grant; ttl is carried by grant.ExpiresAt and swept by Purge.
func (g *Grants) Put(ctx context.Context, grant store.Grant, ttl time.Duration) error {
	_, err := g.db.Exec(ctx,
		`INSERT INTO reset_grants (grant_id, account_id, token_digest, expires_at) VALUES ($1, $2, $3, $4)`,
		grant.ID, grant.AccountID, grant.TokenDigest, grant.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPostgresUnavailable, err)
	}
	return nil
}

func (g *Grants) Take(ctx context.Context, id string) (store.Grant, error) {
	var grant store.Grant
	err := g.db.QueryRow(ctx,
		`DELETE FROM reset_grants WHERE grant_id = $1 RETURNING grant_id, account_id, token_digest, expires_at`, id,
	).Scan(&grant.ID, &grant.AccountID, &grant.TokenDigest, &grant.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Grant{}, store.ErrNotFound
		}
		return store.Grant{}, fmt.Errorf("%w: %v", ErrPostgresUnavailable, err)
	}
	grant.ExpiresAt = grant.ExpiresAt.UTC()
	return grant, nil
}

// Purge removes grants that expired before now and returns how many went.
func (g *Grants) Purge(ctx context.Context, now time.Time) (int64, error) {
	tag, err := g.db.Exec(ctx, `DELETE FROM reset_grants WHERE expires_at < $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPostgresUnavailable, err)
	}
	return tag.RowsAffected(), nil
}
