package domain

import "time"

// User is the minimal user record the auth core needs. Where it is stored is
// up to the user directory behind store.Users.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // cryptox record: base64(salt || pbkdf2 digest)
	CreatedAt    time.Time
}
