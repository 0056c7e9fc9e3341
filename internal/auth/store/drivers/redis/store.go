// Package redis stores session records in Redis, one key per refresh token
// with the token's lifetime as the key TTL.
package redis

import (
	"context"
	"time"

	"github.com/concert/auth/internal/auth/store"
	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"

type Store struct {
	client *redis.Client
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// NewClient returns a client for addr. The connection is established lazily.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client, now: time.Now}
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Sessions() store.Sessions { return &sessionsRepo{client: s.client, now: s.now} }
