package domain

import "time"

// SessionRecord mirrors an issued refresh token. The token is only usable
// for refresh while its record exists and is unexpired, deleting the record
// revokes the token.
type SessionRecord struct {
	ID        string // ULID, for logs and housekeeping
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the record is past its expiry at now.
func (r SessionRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
