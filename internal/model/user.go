package model

import "time"

// Role is the authorization level stored on a user and carried in the
// access token's "role" claim.
type Role string

const (
	RoleIntern Role = "intern"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleIntern || r == RoleAdmin }

// User represents an application user record as stored in the
// `users` table.  Self-registered users are always interns; admin
// accounts are provisioned out of band.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Name         – display name shown next to reservations.
//	Email        – unique, lower-cased email address.
//	PasswordHash – bcrypt hashed password.
//	Role         – intern or admin.
//	IsActive     – whether the account may log in.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Session identifies the caller of a service operation.  Handlers build it
// from the verified access token and pass it explicitly; nothing in the
// service layer reads identity from ambient state.
type Session struct {
	UserID uint64
	Role   Role
}

// IsAdmin reports whether the session carries the admin role.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token value is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
