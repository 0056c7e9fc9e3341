package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/concert/auth/internal/auth/domain"
	"github.com/concert/auth/pkg/cryptox"
)

type sessionsRepo struct {
	db  *sql.DB
	now func() time.Time
}

const (
	upsertSession = `
INSERT INTO sessions (token_hash, id, user_id, issued_at, expires_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (token_hash) DO UPDATE SET
    id = excluded.id,
    user_id = excluded.user_id,
    issued_at = excluded.issued_at,
    expires_at = excluded.expires_at`

	selectSession = `
SELECT id, user_id, issued_at, expires_at
FROM sessions
WHERE token_hash = ? AND expires_at > ?`

	deleteSession = `DELETE FROM sessions WHERE token_hash = ?`

	deleteExpiredSessions = `DELETE FROM sessions WHERE expires_at <= ?`
)

// The raw token never reaches the database, only its fingerprint.
func (r *sessionsRepo) PutSession(ctx context.Context, key string, rec domain.SessionRecord, ttl time.Duration) error {
	expiresAt := r.now().Add(ttl)
	_, err := r.db.ExecContext(ctx, upsertSession,
		cryptox.FingerprintToken(key),
		rec.ID,
		rec.UserID,
		toMillis(rec.IssuedAt),
		toMillis(expiresAt),
	)
	return err
}

func (r *sessionsRepo) GetSession(ctx context.Context, key string) (domain.SessionRecord, error) {
	var (
		rec                 domain.SessionRecord
		issuedAt, expiresAt int64
	)
	err := r.db.QueryRowContext(ctx, selectSession, cryptox.FingerprintToken(key), toMillis(r.now())).
		Scan(&rec.ID, &rec.UserID, &issuedAt, &expiresAt)
	if err != nil {
		return domain.SessionRecord{}, mapNotFound(err)
	}
	rec.IssuedAt = fromMillis(issuedAt)
	rec.ExpiresAt = fromMillis(expiresAt)
	return rec, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, deleteSession, cryptox.FingerprintToken(key))
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, deleteExpiredSessions, toMillis(r.now()))
	return err
}
