package store

import (
	"context"
	"errors"
	"time"

	"github.com/concert/auth/internal/auth/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface. Concrete drivers (memory, sqlite,
// redis, dynamodb) implement this and expose the session repository through
// Sessions() to keep concerns tidy and testable.
type Store interface {
	Sessions() Sessions

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backend is still reachable.
	Ping(ctx context.Context) error
}

// Sessions persists the records mirroring issued refresh tokens. The key is
// the signed refresh token text; drivers are free to fingerprint it before
// storing.
type Sessions interface {
	// PutSession stores rec under key. The backend expires it after ttl.
	PutSession(ctx context.Context, key string, rec domain.SessionRecord, ttl time.Duration) error

	// GetSession returns the record for key, or ErrNotFound when it is
	// absent or already expired.
	GetSession(ctx context.Context, key string) (domain.SessionRecord, error)

	// DeleteSession removes the record for key. Deleting an absent key is
	// not an error.
	DeleteSession(ctx context.Context, key string) error

	// DeleteExpiredSessions is housekeeping for backends that cannot expire
	// keys on their own. It is a no-op elsewhere.
	DeleteExpiredSessions(ctx context.Context) error
}

// Users is the user directory the core registers users into and checks
// credentials against. Persistent user storage lives outside this service;
// the memory driver is the only implementation shipped here.
type Users interface {
	// PutUser inserts or replaces the user registered under u.Email.
	PutUser(ctx context.Context, u domain.User) error

	// GetUserByEmail is used during login.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByID is used to fill the email claim on refresh.
	GetUserByID(ctx context.Context, id string) (domain.User, error)
}
