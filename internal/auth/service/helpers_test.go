package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/concert/auth/internal/auth/domain"
	"github.com/concert/auth/internal/auth/store"
	"github.com/concert/auth/internal/auth/store/drivers/memory"
	"github.com/concert/auth/pkg/jwtx"
	"github.com/prometheus/client_golang/prometheus"
)

var testSecret = []byte("test-secret-for-hs256-signing-32b")

// clock is a settable time source shared by the issuer and the verifier.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Unix(1_700_000_000, 0).UTC()}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingSessions wraps a Sessions and counts writes, optionally failing.
type countingSessions struct {
	store.Sessions

	mu        sync.Mutex
	puts      int
	putErr    error
	getErr    error
	deleteErr error
}

func (c *countingSessions) PutSession(ctx context.Context, key string, rec domain.SessionRecord, ttl time.Duration) error {
	c.mu.Lock()
	c.puts++
	err := c.putErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.Sessions.PutSession(ctx, key, rec, ttl)
}

func (c *countingSessions) GetSession(ctx context.Context, key string) (domain.SessionRecord, error) {
	if c.getErr != nil {
		return domain.SessionRecord{}, c.getErr
	}
	return c.Sessions.GetSession(ctx, key)
}

func (c *countingSessions) DeleteSession(ctx context.Context, key string) error {
	if c.deleteErr != nil {
		return c.deleteErr
	}
	return c.Sessions.DeleteSession(ctx, key)
}

func (c *countingSessions) Puts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts
}

var errStoreDown = errors.New("store unreachable")

type fixture struct {
	auth     *AuthService
	tokens   *TokenService
	sessions *countingSessions
	users    store.Users
	clock    *clock
	registry *prometheus.Registry
}

func newFixture(t *testing.T, policy RefreshPolicy) *fixture {
	t.Helper()

	mem := memory.NewStore()
	clk := newClock()
	sessions := &countingSessions{Sessions: mem.Sessions()}
	secrets := jwtx.StaticSecret(testSecret)
	reg := prometheus.NewRegistry()

	tokens := &TokenService{
		Signer:     jwtx.NewSignerHS256(secrets),
		Sessions:   sessions,
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
		Now:        clk.Now,
	}

	return &fixture{
		auth: &AuthService{
			Tokens:   tokens,
			Verifier: jwtx.NewVerifierHS256(secrets, jwtx.WithClock(clk.Now)),
			Users:    mem.Users(),
			Sessions: sessions,
			Policy:   policy,
			Metrics:  NewMetrics(reg),
		},
		tokens:   tokens,
		sessions: sessions,
		users:    mem.Users(),
		clock:    clk,
		registry: reg,
	}
}
