package model

import "time"

// Role is a closed set of account roles. Using a dedicated type instead of
// free-form strings keeps role comparisons exhaustive at the call sites.
type Role string

const (
	RoleUser  Role = "user"  // regular storefront customer
	RoleAdmin Role = "admin" // back-office operator
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an application user record as stored in the `users`
// table. The password is never stored in plain text; only its bcrypt
// hash. Role defaults to RoleUser at registration and is elevated only
// through the admin grant flow.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email (unique, lower-cased)
	Name         string    // users.name
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user; only the SHA-256 hash of the raw
// token is persisted.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
