package model

import "time"

// Roles an account can hold.  ADMIN may do everything; STAFF works the door
// (view, check in, seat guests).
const (
    RoleAdmin = "ADMIN"
    RoleStaff = "STAFF"
)

// User is an operator account as stored in the `users` table.  The
// password hash never leaves the repository layer in responses.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique, lower-cased address.
//  PasswordHash – bcrypt hash.
//  Role         – ADMIN or STAFF.
//  IsActive     – disabled accounts cannot log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    `json:"id"`
    Email        string    `json:"email"`
    PasswordHash string    `json:"-"`
    Role         string    `json:"role"`
    IsActive     bool      `json:"isActive"`
    CreatedAt    time.Time `json:"createdAt"`
    UpdatedAt    time.Time `json:"updatedAt"`
}

// RefreshToken models a row of `refresh_tokens`.  Only the SHA-256 hash of
// the raw token is stored.
type RefreshToken struct {
    ID        uint64
    UserID    uint64
    TokenHash string
    ExpiresAt time.Time
    RevokedAt *time.Time
    CreatedAt time.Time
}
