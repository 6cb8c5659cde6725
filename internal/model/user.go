package model

import "time"

// Staff roles.  Admins manage the floor plan and may purge sections;
// hosts work the reservation book.
const (
	RoleAdmin = "ADMIN"
	RoleHost  = "HOST"
)

// Staff represents a back-office account as stored in the `staff`
// table.  Guests never log in; they identify a booking by its
// reference instead.
//
// Fields:
//
//	ID           – primary key identifier.
//	Email        – unique login email.
//	PasswordHash – bcrypt hashed password.
//	Role         – ADMIN or HOST.
//	IsActive     – whether the account may log in.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type Staff struct {
	ID           uint64    // staff.id
	Email        string    // staff.email
	PasswordHash string    // staff.password_hash
	Role         string    // staff.role
	IsActive     bool      // staff.is_active
	CreatedAt    time.Time // staff.created_at
	UpdatedAt    time.Time // staff.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token handed to the client is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	StaffID   uint64     // refresh_tokens.staff_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
