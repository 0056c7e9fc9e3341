// Package secretx resolves the token signing secret once per process.
//
// The first call to Source.Secret asks the remote store. Any failure there
// is logged and the configured fallback is used instead; a resolved secret is
// memoized for the lifetime of the Source, so a cold start costs at most one
// remote call no matter how many requests race for it.
package secretx

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNoSecret is returned when the remote store failed and no fallback is
// configured.
var ErrNoSecret = errors.New("secretx: no secret available")

// Fetcher retrieves a named secret from a remote secret store.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Origin records where the cached secret came from.
type Origin string

const (
	OriginNone     Origin = ""
	OriginRemote   Origin = "remote"
	OriginFallback Origin = "fallback"
)

// DefaultFetchTimeout bounds a remote fetch when Options.Timeout is unset.
const DefaultFetchTimeout = 5 * time.Second

// Options configures a Source.
type Options struct {
	// Name is the secret identifier passed to the Fetcher.
	Name string

	// Fetcher is the remote store. Nil means "fallback only".
	Fetcher Fetcher

	// Fallback is used when the remote fetch fails. Empty means there is no
	// fallback and a failed fetch surfaces as ErrNoSecret.
	Fallback []byte

	// Timeout bounds the remote fetch. Zero means DefaultFetchTimeout.
	Timeout time.Duration

	Logger *slog.Logger
}

// Source is a write-once, read-many secret cache.
type Source struct {
	opts Options

	mu     sync.Mutex
	secret atomic.Pointer[[]byte]
	origin atomic.Value // Origin
}

// New creates a Source. Nothing is fetched until the first Secret call.
func New(opts Options) *Source {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	return &Source{opts: opts}
}

// Secret returns the signing secret, resolving it on first use.
//
// Concurrent first callers share a single resolution. The fetch is detached
// from the caller's cancellation and bounded by Options.Timeout instead. Once
// a secret is cached it is never fetched again; ErrNoSecret is not cached, so
// the next call retries.
func (s *Source) Secret(ctx context.Context) ([]byte, error) {
	if p := s.secret.Load(); p != nil {
		return *p, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.secret.Load(); p != nil {
		return *p, nil
	}

	secret, origin, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}
	s.secret.Store(&secret)
	s.origin.Store(origin)
	return secret, nil
}

// Origin reports where the cached secret came from, OriginNone before the
// first resolution or while resolution keeps failing.
func (s *Source) Origin() Origin {
	o, _ := s.origin.Load().(Origin)
	return o
}

func (s *Source) resolve(ctx context.Context) ([]byte, Origin, error) {
	l := s.opts.Logger

	if s.opts.Fetcher != nil {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.Timeout)
		secret, err := s.opts.Fetcher.Fetch(fetchCtx, s.opts.Name)
		cancel()

		switch {
		case err != nil:
			l.Warn("secret fetch failed, using fallback",
				slog.String("secret_name", s.opts.Name),
				slog.Any("error", err),
			)
		case len(secret) == 0:
			l.Warn("secret fetch returned an empty secret, using fallback",
				slog.String("secret_name", s.opts.Name),
			)
		default:
			l.Info("signing secret loaded", slog.String("secret_name", s.opts.Name))
			return secret, OriginRemote, nil
		}
	}

	if len(s.opts.Fallback) == 0 {
		l.Error("no signing secret available", slog.String("secret_name", s.opts.Name))
		return nil, OriginNone, ErrNoSecret
	}

	return s.opts.Fallback, OriginFallback, nil
}
