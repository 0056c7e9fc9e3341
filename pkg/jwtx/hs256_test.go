package jwtx_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/concert/auth/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-do-not-use")

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestHS256SignAndVerify(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0).UTC()

	signer := jwtx.NewSignerHS256(jwtx.StaticSecret(testSecret))
	require.Equal(t, "HS256", signer.Alg())

	claims, err := jwtx.NewAccessClaims("user-123", "a@x.com", map[string]any{"org": "acme"}, time.Hour, now)
	require.NoError(t, err)

	token, err := signer.Sign(ctx, claims)
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	verifier := jwtx.NewVerifierHS256(jwtx.StaticSecret(testSecret), jwtx.WithClock(fixedClock(now.Add(time.Minute))))
	got, err := verifier.Verify(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "user-123", got.Subject)
	require.Equal(t, "a@x.com", got.Email)
	require.Equal(t, jwtx.TokenTypeAccess, got.Type)
	require.Equal(t, "acme", got.Extra["org"])
	require.Equal(t, claims.ID, got.ID)
}

func TestHS256Verify_ExpiresAtTTLBoundary(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0).UTC()

	signer := jwtx.NewSignerHS256(jwtx.StaticSecret(testSecret))
	claims, err := jwtx.NewAccessClaims("user-123", "a@x.com", nil, time.Hour, now)
	require.NoError(t, err)
	token, err := signer.Sign(ctx, claims)
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{"at issuance", now, nil},
		{"one second before expiry", now.Add(time.Hour - time.Second), nil},
		{"exactly at expiry", now.Add(time.Hour), jwtx.ErrExpired},
		{"long after expiry", now.Add(48 * time.Hour), jwtx.ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := jwtx.NewVerifierHS256(jwtx.StaticSecret(testSecret), jwtx.WithClock(fixedClock(tt.at)))
			_, err := v.Verify(ctx, token)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			require.NotErrorIs(t, err, jwtx.ErrInvalidToken)
		})
	}
}

func TestHS256Verify_Leeway(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0).UTC()

	claims, _ := jwtx.NewAccessClaims("user-123", "a@x.com", nil, time.Minute, now)
	token, err := jwtx.NewSignerHS256(jwtx.StaticSecret(testSecret)).Sign(ctx, claims)
	require.NoError(t, err)

	v := jwtx.NewVerifierHS256(jwtx.StaticSecret(testSecret),
		jwtx.WithClock(fixedClock(now.Add(time.Minute+5*time.Second))),
		jwtx.WithLeeway(10*time.Second),
	)
	_, err = v.Verify(ctx, token)
	require.NoError(t, err)
}

func TestHS256Verify_TamperedPayload(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	claims, _ := jwtx.NewAccessClaims("user-123", "a@x.com", nil, time.Hour, now)
	token, err := jwtx.NewSignerHS256(jwtx.StaticSecret(testSecret)).Sign(ctx, claims)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	payload := []byte(parts[1])
	verifier := jwtx.NewVerifierHS256(jwtx.StaticSecret(testSecret))

	// Flip every payload position in turn; none may verify.
	for i := range payload {
		tampered := append([]byte(nil), payload...)
		if tampered[i] == 'A' {
			tampered[i] = 'B'
		} else {
			tampered[i] = 'A'
		}

		_, err := verifier.Verify(ctx, parts[0]+"."+string(tampered)+"."+parts[2])
		require.ErrorIs(t, err, jwtx.ErrInvalidToken, "tampered byte %d verified", i)
	}
}

func TestHS256Verify_ForgedExpiredTokenIsInvalidNotExpired(t *testing.T) {
	ctx := context.Background()
	past := time.Now().Add(-2 * time.Hour)

	claims, _ := jwtx.NewAccessClaims("user-123", "a@x.com", nil, time.Minute, past)
	token, err := jwtx.NewSignerHS256(jwtx.StaticSecret([]byte("other-secret"))).Sign(ctx, claims)
	require.NoError(t, err)

	_, err = jwtx.NewVerifierHS256(jwtx.StaticSecret(testSecret)).Verify(ctx, token)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestHS256Verify_Rejects(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	verifier := jwtx.NewVerifierHS256(jwtx.StaticSecret(testSecret))

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1", "type": "access",
		"iat": now.Unix(), "exp": now.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512Token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "user-1", "type": "access",
		"iat": now.Unix(), "exp": now.Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	badTypeToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1", "type": "id",
		"iat": now.Unix(), "exp": now.Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	noExpToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1", "type": "access", "iat": now.Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"two segments", "a.b"},
		{"alg none", noneToken},
		{"unexpected alg", hs512Token},
		{"unknown type", badTypeToken},
		{"missing exp", noExpToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(ctx, tt.token)
			require.ErrorIs(t, err, jwtx.ErrInvalidToken)
		})
	}
}

func TestHS256_SecretErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("no secret")
	failing := jwtx.SecretFunc(func(context.Context) ([]byte, error) { return nil, boom })

	claims, _ := jwtx.NewAccessClaims("user-1", "a@x.com", nil, time.Hour, time.Now())

	_, err := jwtx.NewSignerHS256(failing).Sign(ctx, claims)
	require.ErrorIs(t, err, boom)

	_, err = jwtx.NewVerifierHS256(failing).Verify(ctx, "a.b.c")
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestHS256Sign_RejectsInvalidClaims(t *testing.T) {
	_, err := jwtx.NewSignerHS256(jwtx.StaticSecret(testSecret)).Sign(context.Background(), jwtx.Claims{})
	require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
}
