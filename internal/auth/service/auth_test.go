package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/concert/auth/internal/auth/store"
	"github.com/concert/auth/pkg/jwtx"
	"github.com/concert/auth/pkg/secretx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var userIDPattern = regexp.MustCompile(`^user-[0-9a-f]{12}$`)

func TestUserIDForEmail(t *testing.T) {
	t.Parallel()

	id := UserIDForEmail("a@x.com")
	require.Regexp(t, userIDPattern, id)
	require.Equal(t, id, UserIDForEmail("a@x.com"), "deterministic")
	require.NotEqual(t, id, UserIDForEmail("b@x.com"))
}

func TestParseRefreshPolicy(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]RefreshPolicy{
		"":          RefreshSession,
		"session":   RefreshSession,
		" Session ": RefreshSession,
		"stateless": RefreshStateless,
	} {
		got, err := ParseRefreshPolicy(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseRefreshPolicy("sometimes")
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestRegister_ThenVerify(t *testing.T) {
	t.Parallel()
	f := newFixture(t, RefreshSession)
	ctx := context.Background()

	pair, err := f.auth.Register(ctx, "a@x.com", "password1", "A")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "a@x.com", pair.Email)
	require.Regexp(t, userIDPattern, pair.UserID)
	require.Equal(t, time.Hour, pair.ExpiresIn)

	v, err := f.auth.Verify(ctx, "Bearer "+pair.AccessToken)
	require.NoError(t, err)
	require.True(t, v.Valid)
	require.Equal(t, pair.UserID, v.UserID)
	require.Equal(t, "a@x.com", v.Email)
	require.Equal(t, f.clock.Now().Add(time.Hour), v.ExpiresAt)
	require.Equal(t, time.UTC, v.ExpiresAt.Location())

	// The refresh token is mirrored in the session store.
	rec, err := f.sessions.GetSession(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, pair.UserID, rec.UserID)

	// The user directory got the hashed password, not the plain one.
	u, err := f.users.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "A", u.Name)
	require.NotEqual(t, "password1", u.PasswordHash)

	require.Equal(t, 1.0, testutil.ToFloat64(f.auth.Metrics.registrations.WithLabelValues(outcomeSuccess)))
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                  string
		email, password, nick string
		msg                   string
	}{
		{"missing email", "", "x", "A", MsgMissingRegisterFields},
		{"missing password", "a@x.com", "", "A", MsgMissingRegisterFields},
		{"missing name", "a@x.com", "password1", "", MsgMissingRegisterFields},
		{"blank name", "a@x.com", "password1", "   ", MsgMissingRegisterFields},
		{"short password", "a@x.com", "short", "A", MsgPasswordTooShort},
		{"seven multibyte chars", "a@x.com", "ééééééé", "A", MsgPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, RefreshSession)

			pair, err := f.auth.Register(context.Background(), tt.email, tt.password, tt.nick)
			require.ErrorIs(t, err, ErrValidation)
			require.Equal(t, tt.msg, Message(err))
			require.Nil(t, pair)
			require.Zero(t, f.sessions.Puts(), "no session writes")
		})
	}
}

func TestRegister_Again(t *testing.T) {
	t.Parallel()
	f := newFixture(t, RefreshSession)
	ctx := context.Background()

	first, err := f.auth.Register(ctx, "a@x.com", "password1", "A")
	require.NoError(t, err)

	second, err := f.auth.Register(ctx, "a@x.com", "password2", "B")
	require.NoError(t, err)
	require.Equal(t, first.UserID, second.UserID)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.Equal(t, 2, f.sessions.Puts())

	_, err = f.auth.Login(ctx, "a@x.com", "password1")
	require.ErrorIs(t, err, ErrUnauthorized)

	pair, err := f.auth.Login(ctx, "a@x.com", "password2")
	require.NoError(t, err)
	require.Equal(t, first.UserID, pair.UserID)
}

func TestRegister_SessionStoreDown(t *testing.T) {
	t.Parallel()
	f := newFixture(t, RefreshSession)
	f.sessions.putErr = errStoreDown

	pair, err := f.auth.Register(context.Background(), "a@x.com", "password1", "A")
	require.ErrorIs(t, err, ErrDependency)
	require.ErrorIs(t, err, errStoreDown)
	require.Nil(t, pair, "no access token without its refresh token")

	require.Equal(t, 1.0, testutil.ToFloat64(f.auth.Metrics.registrations.WithLabelValues(outcomeError)))
}

func TestRegister_NoSecret(t *testing.T) {
	t.Parallel()
	f := newFixture(t, RefreshSession)

	src := secretx.New(secretx.Options{Name: "concert-jwt-secret-test"})
	f.tokens.Signer = jwtx.NewSignerHS256(src)

	_, err := f.auth.Register(context.Background(), "a@x.com", "password1", "A")
	require.ErrorIs(t, err, ErrConfiguration)
	require.ErrorIs(t, err, secretx.ErrNoSecret)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	f := newFixture(t, RefreshSession)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@x.com", "password1", "A")
	require.NoError(t, err)

	t.Run("success issues a fresh pair", func(t *testing.T) {
		pair, err := f.auth.Login(ctx, "a@x.com", "password1")
		require.NoError(t, err)
		require.Equal(t, reg.UserID, pair.UserID)
		require.NotEqual(t, reg.RefreshToken, pair.RefreshToken, "distinct sessions per login")

		_, err = f.sessions.GetSession(ctx, pair.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.auth.Login(ctx, "a@x.com", "password2")
		require.ErrorIs(t, err, ErrUnauthorized)
		require.Equal(t, MsgInvalidCredentials, Message(err))
	})

	t.Run("unknown email looks the same", func(t *testing.T) {
		_, err := f.auth.Login(ctx, "nobody@x.com", "password1")
		require.ErrorIs(t, err, ErrUnauthorized)
		require.Equal(t, MsgInvalidCredentials, Message(err))
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := f.auth.Login(ctx, "", "password1")
		require.ErrorIs(t, err, ErrValidation)
		require.Equal(t, MsgMissingCredentials, Message(err))

		_, err = f.auth.Login(ctx, "a@x.com", "")
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestLogin_Metrics(t *testing.T) {
	t.Parallel()
	f := newFixture(t, RefreshSession)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "a@x.com", "password1", "A")
	require.NoError(t, err)

	_, _ = f.auth.Login(ctx, "a@x.com", "password1")
	_, _ = f.auth.Login(ctx, "a@x.com", "nope-nope")
	_, _ = f.auth.Login(ctx, "a@x.com", "nope-nope")

	require.Equal(t, 1.0, testutil.ToFloat64(f.auth.Metrics.logins.WithLabelValues(outcomeSuccess)))
	require.Equal(t, 2.0, testutil.ToFloat64(f.auth.Metrics.logins.WithLabelValues(outcomeFailure)))
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	for _, policy := range []RefreshPolicy{RefreshSession, RefreshStateless} {
		t.Run(string(policy), func(t *testing.T) {
			f := newFixture(t, policy)
			ctx := context.Background()

			pair, err := f.auth.Register(ctx, "a@x.com", "password1", "A")
			require.NoError(t, err)

			original, err := f.auth.Verifier.Verify(ctx, pair.AccessToken)
			require.NoError(t, err)

			f.clock.Advance(time.Second)

			grant, err := f.auth.Refresh(ctx, pair.RefreshToken)
			require.NoError(t, err)
			require.NotEqual(t, pair.AccessToken, grant.AccessToken)
			require.Equal(t, time.Hour, grant.ExpiresIn)

			refreshed, err := f.auth.Verifier.Verify(ctx, grant.AccessToken)
			require.NoError(t, err)
			require.True(t, refreshed.IssuedAt.After(original.IssuedAt.Time), "strictly later iat")
			require.Equal(t, pair.UserID, refreshed.Subject)
			require.Equal(t, "a@x.com", refreshed.Email, "email resolved from the user directory")
			require.Equal(t, jwtx.TokenTypeAccess, refreshed.Type)

			// The refresh token is not rotated and keeps working.
			_, err = f.sessions.GetSession(ctx, pair.RefreshToken)
			require.NoError(t, err)
			_, err = f.auth.Refresh(ctx, pair.RefreshToken)
			require.NoError(t, err)
		})
	}
}

func TestRefresh_AfterLogout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		policy  RefreshPolicy
		allowed bool
	}{
		{RefreshSession, false},
		{RefreshStateless, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			f := newFixture(t, tt.policy)
			ctx := context.Background()

			pair, err := f.auth.Register(ctx, "a@x.com", "password1", "A")
			require.NoError(t, err)

			f.auth.Logout(ctx, pair.RefreshToken)

			_, err = f.sessions.GetSession(ctx, pair.RefreshToken)
			require.ErrorIs(t, err, store.ErrNotFound)

			_, err = f.auth.Refresh(ctx, pair.RefreshToken)
			if tt.allowed {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrUnauthorized)
			require.Equal(t, MsgInvalidRefreshToken, Message(err))
		})
	}
}

func TestRefresh_Rejections(t *testing.T) {
	t.Parallel()
	f := newFixture(t, RefreshSession)
	ctx := context.Background()

	pair, err := f.auth.Register(ctx, "a@x.com", "password1", "A")
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := f.auth.Refresh(ctx, "")
		require.ErrorIs(t, err, ErrValidation)
		require.Equal(t, MsgMissingRefreshToken, Message(err))
	})

	t.Run("access token is the wrong type", func(t *testing.T) {
		_, err := f.auth.Refresh(ctx, pair.AccessToken)
		require.ErrorIs(t, err, ErrUnauthorized)
		require.Equal(t, MsgInvalidRefreshToken, Message(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := f.auth.Refresh(ctx, "not.a.jwt")
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("signed with another secret", func(t *testing.T) {
		other := &TokenService{
			Signer:   jwtx.NewSignerHS256(jwtx.StaticSecret([]byte("another-secret"))),
			Sessions: f.sessions,
			Now:      f.clock.Now,
		}
		forged, _, err := other.IssueRefresh(ctx, pair.UserID)
		require.NoError(t, err)

		_, err = f.auth.Refresh(ctx, forged)
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("session store down", func(t *testing.T) {
		f.sessions.getErr = errStoreDown
		defer func() { f.sessions.getErr = nil }()

		_, err := f.auth.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrDependency)
	})
}

func TestRefresh_Expired(t *testing.T) {
	t.Parallel()
	f := newFixture(t, RefreshStateless)
	ctx := context.Background()

	pair, err := f.auth.Register(ctx, "a@x.com", "password1", "A")
	require.NoError(t, err)

	f.clock.Advance(7 * 24 * time.Hour)

	_, err = f.auth.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerify(t *testing.T) {
	t.Parallel()
	f := newFixture(t, RefreshSession)
	ctx := context.Background()

	pair, err := f.auth.Register(ctx, "a@x.com", "password1", "A")
	require.NoError(t, err)

	t.Run("header forms", func(t *testing.T) {
		for _, h := range []string{"", "Bearer", "Bearer ", "bearer " + pair.AccessToken, "Token " + pair.AccessToken, pair.AccessToken} {
			v, err := f.auth.Verify(ctx, h)
			require.ErrorIs(t, err, ErrUnauthorized, h)
			require.Equal(t, MsgMissingBearer, Message(err))
			require.Nil(t, v)
		}
	})

	t.Run("tampered token leaks nothing", func(t *testing.T) {
		b := []byte(pair.AccessToken)
		b[len(b)/2] ^= 0x01

		v, err := f.auth.Verify(ctx, "Bearer "+string(b))
		require.ErrorIs(t, err, ErrUnauthorized)
		require.Equal(t, MsgInvalidToken, Message(err))
		require.Nil(t, v)
	})

	t.Run("valid until expiry", func(t *testing.T) {
		f.clock.Advance(time.Hour - time.Second)
		_, err := f.auth.Verify(ctx, "Bearer "+pair.AccessToken)
		require.NoError(t, err)

		f.clock.Advance(time.Second)
		_, err = f.auth.Verify(ctx, "Bearer "+pair.AccessToken)
		require.ErrorIs(t, err, ErrUnauthorized)
		require.Equal(t, MsgInvalidToken, Message(err), "expired and invalid look the same")
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()
	f := newFixture(t, RefreshSession)
	ctx := context.Background()

	pair, err := f.auth.Register(ctx, "a@x.com", "password1", "A")
	require.NoError(t, err)

	f.auth.Logout(ctx, pair.RefreshToken)
	_, err = f.sessions.GetSession(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Idempotent, and tolerant of empty and unknown tokens.
	f.auth.Logout(ctx, pair.RefreshToken)
	f.auth.Logout(ctx, "")
	f.auth.Logout(ctx, "never-issued")

	// Store failures are swallowed.
	f.sessions.deleteErr = errStoreDown
	f.auth.Logout(ctx, pair.RefreshToken)

	require.Equal(t, 5.0, testutil.ToFloat64(f.auth.Metrics.logouts))
}

func TestConcurrentLogins_DistinctSessions(t *testing.T) {
	t.Parallel()
	f := newFixture(t, RefreshSession)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "a@x.com", "password1", "A")
	require.NoError(t, err)

	const n = 8
	tokens := make(chan string, n)
	errs := make(chan error, n)
	for range n {
		go func() {
			pair, err := f.auth.Login(ctx, "a@x.com", "password1")
			if err != nil {
				errs <- err
				return
			}
			tokens <- pair.RefreshToken
		}()
	}

	seen := make(map[string]struct{})
	for range n {
		select {
		case err := <-errs:
			require.NoError(t, err)
		case tok := <-tokens:
			seen[tok] = struct{}{}
		}
	}
	require.Len(t, seen, n)
	require.Equal(t, n+1, f.sessions.Puts())
}
