package models

import "time"

// UserAuth is the credential record of one account.
type UserAuth struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	// DisplayName is the name on the account's stored profile, empty when
	// the profile has none.
	DisplayName string `json:"-"`
}

// Session is returned to the client after a successful signup or login.
type Session struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
