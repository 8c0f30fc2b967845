package types

import "time"

// User represents an account in the system.
// It contains identity, verification, and session metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the display name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address. It is unique across all users
	// and doubles as the login name.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Avatar is the URL of the user's avatar image, if one was uploaded.
	Avatar string `json:"avatar" db:"avatar"`

	// Confirmed reports whether the user has proven control of their
	// email address. It transitions false to true exactly once.
	Confirmed bool `json:"confirmed" db:"confirmed"`

	// RefreshToken is the currently valid refresh token for the user,
	// or nil when no session is active or the token was revoked.
	// It is never exposed in API responses.
	RefreshToken *string `json:"-" db:"refresh_token"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
