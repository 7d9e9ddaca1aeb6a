package domain

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string // argon2id PHC string, or a legacy bcrypt hash; empty for provider-only accounts
	Name         string
	ProfileImage string
	GoogleID     string
	FacebookID   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can sign in with a password.
func (u User) HasPassword() bool { return u.PasswordHash != "" }

// Principal returns the identity carried in this user's tokens.
func (u User) Principal() Principal {
	return Principal{Subject: u.ID, Email: u.Email, Name: u.Name}
}

// UserUpdate holds the mutable profile fields. Nil fields are left alone.
type UserUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
}
