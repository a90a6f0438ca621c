// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"atrium/internal/domain/entity"
	"atrium/internal/errors"

	"github.com/google/uuid"
)

// ErrUserNotFound is the absence signal of every UserRepository lookup.
var ErrUserNotFound = errors.New("user not found")

// UserRepository resolves and persists identities.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by their email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByUsername retrieves a single user by their username.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// Create persists a new user entity to the storage.
	Create(ctx context.Context, user *entity.User) error

	// Update modifies an existing user entity in the storage.
	Update(ctx context.Context, user *entity.User) error

	// RecordLogin stamps the login time and, when newHash is non-nil, replaces
	// the stored password hash. No other column is written.
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, newHash *string) error
}
