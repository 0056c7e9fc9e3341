package memory

import (
	"context"
	"time"

	"github.com/concert/auth/internal/auth/domain"
	"github.com/concert/auth/internal/auth/store"
)

type sessionsRepo struct {
	s *Store
}

func (r *sessionsRepo) PutSession(_ context.Context, key string, rec domain.SessionRecord, ttl time.Duration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec.ExpiresAt = r.s.now().Add(ttl)
	r.s.sessions[key] = rec
	return nil
}

func (r *sessionsRepo) GetSession(_ context.Context, key string) (domain.SessionRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.sessions[key]
	if !ok || rec.Expired(r.s.now()) {
		return domain.SessionRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (r *sessionsRepo) DeleteSession(_ context.Context, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.sessions, key)
	return nil
}

func (r *sessionsRepo) DeleteExpiredSessions(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for key, rec := range r.s.sessions {
		if rec.Expired(now) {
			delete(r.s.sessions, key)
		}
	}
	return nil
}
