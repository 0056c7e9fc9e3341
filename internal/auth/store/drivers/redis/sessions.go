package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/concert/auth/internal/auth/domain"
	"github.com/concert/auth/internal/auth/store"
	"github.com/concert/auth/pkg/cryptox"
	"github.com/redis/go-redis/v9"
)

type sessionsRepo struct {
	client *redis.Client
	now    func() time.Time
}

type sessionValue struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func sessionKey(token string) string {
	return sessionPrefix + cryptox.FingerprintToken(token)
}

func (r *sessionsRepo) PutSession(ctx context.Context, key string, rec domain.SessionRecord, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("redis: session ttl must be positive")
	}

	b, err := json.Marshal(sessionValue{
		ID:        rec.ID,
		UserID:    rec.UserID,
		IssuedAt:  rec.IssuedAt,
		ExpiresAt: r.now().Add(ttl),
	})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(key), b, ttl).Err()
}

func (r *sessionsRepo) GetSession(ctx context.Context, key string) (domain.SessionRecord, error) {
	raw, err := r.client.Get(ctx, sessionKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SessionRecord{}, store.ErrNotFound
	}
	if err != nil {
		return domain.SessionRecord{}, err
	}

	var v sessionValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.SessionRecord{}, err
	}

	rec := domain.SessionRecord{
		ID:        v.ID,
		UserID:    v.UserID,
		IssuedAt:  v.IssuedAt,
		ExpiresAt: v.ExpiresAt,
	}
	if rec.Expired(r.now()) {
		return domain.SessionRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, key string) error {
	return r.client.Del(ctx, sessionKey(key)).Err()
}

// DeleteExpiredSessions is a no-op, Redis expires keys itself.
func (r *sessionsRepo) DeleteExpiredSessions(context.Context) error { return nil }
