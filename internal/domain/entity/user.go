// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus is the lifecycle state of an account. Only active accounts may log in.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusDeleted   UserStatus = "deleted"
)

// String returns the string representation of the UserStatus.
func (s UserStatus) String() string {
	return string(s)
}

// IsValid checks if the UserStatus is a valid value.
func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended, UserStatusDeleted:
		return true
	default:
		return false
	}
}

// User is an account that can authenticate against the service.
type User struct {
	ID            uuid.UUID  // Stable identifier, carried in token claims.
	Email         string     // Unique login identifier.
	Username      string     // Unique public handle.
	PasswordHash  string     // Argon2id PHC string. Never serialized to clients.
	FirstName     *string    // Optional given name.
	LastName      *string    // Optional family name.
	AvatarURL     *string    // Optional avatar location.
	Bio           *string    // Optional free-form profile text.
	Role          Role       // Authorization level.
	Status        UserStatus // Lifecycle state.
	EmailVerified bool       // Whether the email address has been confirmed.
	CreatedAt     time.Time  // Timestamp of account creation.
	UpdatedAt     time.Time  // Timestamp of the last modification.
	LastLoginAt   *time.Time // Timestamp of the last successful login, nil if never.
}

// IsActive reports whether the user may authenticate.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
