package domain

import "time"

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`

	// Hash argon2id da senha. Nunca é exposto na API JSON.
	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
