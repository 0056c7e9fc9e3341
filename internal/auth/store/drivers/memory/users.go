package memory

import (
	"context"
	"strings"

	"github.com/concert/auth/internal/auth/domain"
	"github.com/concert/auth/internal/auth/store"
)

type usersRepo struct {
	s *Store
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *usersRepo) PutUser(_ context.Context, u domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := normalizeEmail(u.Email)
	if old, ok := r.s.byEmail[email]; ok && old != u.ID {
		delete(r.s.users, old)
	}
	if prev, ok := r.s.users[u.ID]; ok {
		u.CreatedAt = prev.CreatedAt
	}

	r.s.users[u.ID] = u
	r.s.byEmail[email] = u.ID
	return nil
}

func (r *usersRepo) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[normalizeEmail(email)]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return r.s.users[id], nil
}

func (r *usersRepo) GetUserByID(_ context.Context, id string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}
