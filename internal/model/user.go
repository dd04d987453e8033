// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// A user can log in two ways:
//   - Email + password: PasswordHash holds the bcrypt hash, GitHubID is 0.
//   - GitHub OAuth: GitHubID holds GitHub's numeric user ID, PasswordHash is "".
//
// WHY GitHubID int64?
// GitHub user IDs are integers (e.g. 1234567). Using int64 avoids overflow
// for large GitHub account numbers. The UNIQUE index on github_id in the
// DB ensures one GitHub account maps to exactly one app account.
//
// PasswordHash is never serialized — note the json:"-" tag. The hash is an
// internal credential, not profile data.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"` // Unique across users
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     int64     `json:"-"         db:"github_id"` // 0 when the account has no GitHub link
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
