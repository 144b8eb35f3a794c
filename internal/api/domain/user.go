package domain

import "time"

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // argon2 encoded, empty for OAuth-only accounts
	Role         string // built-in role key or custom role key
	OAuthSubject string // external subject linked to this account, may be empty
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
