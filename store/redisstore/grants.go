package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goCred/store"
	"github.com/redis/go-redis/v9"
)

// Grants is a Redis-backed [store.GrantStore]. Take uses GETDEL so a grant
// can be redeemed once even under concurrent requests.
type Grants struct {
	redis  redis.UniversalClient
	prefix string
}

// NewGrants returns a grant store using the given key prefix ("gc" when empty).
func NewGrants(redisClient redis.UniversalClient, prefix string) *Grants {
	if prefix == "" {
		prefix = "gc"
	}
	return &Grants{redis: redisClient, prefix: prefix}
}

func (g *Grants) key(id string) string { return g.prefix + ":grant:" + id }

func (g *Grants) Put(ctx context.Context, grant store.Grant, ttl time.Duration) error {
	encoded, err := store.EncodeGrant(grant)
	if err != nil {
		return err
	}
	if err := g.redis.Set(ctx, g.key(grant.ID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (g *Grants) Take(ctx context.Context, id string) (store.Grant, error) {
	data, err := g.redis.GetDel(ctx, g.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.Grant{}, store.ErrNotFound
		}
		return store.Grant{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return store.DecodeGrant(data)
}
