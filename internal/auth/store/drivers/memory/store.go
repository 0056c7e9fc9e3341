// Package memory is an in-process store driver. It backs the user directory
// in every deployment and the session store in dev and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/concert/auth/internal/auth/domain"
	"github.com/concert/auth/internal/auth/store"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]domain.SessionRecord
	users    map[string]domain.User // keyed by id
	byEmail  map[string]string      // email -> id
	now      func() time.Time
}

var _ store.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]domain.SessionRecord),
		users:    make(map[string]domain.User),
		byEmail:  make(map[string]string),
		now:      time.Now,
	}
}

func (s *Store) Close() error                   { return nil }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Sessions() store.Sessions { return &sessionsRepo{s: s} }
func (s *Store) Users() store.Users       { return &usersRepo{s: s} }
