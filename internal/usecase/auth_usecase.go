// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"atrium/internal/domain/entity"
	"atrium/internal/domain/service"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName *string
	LastName  *string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// RefreshInput carries the refresh token presented by the client.
type RefreshInput struct {
	RefreshToken string
}

// --- Output DTOs ---

// AuthOutput is returned after registration and login.
type AuthOutput struct {
	User   *entity.User
	Tokens *service.TokenPair
}

// AuthUsecase defines the credential and session flows the delivery layer depends on.
type AuthUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*AuthOutput, error)
	Login(ctx context.Context, input *LoginInput) (*AuthOutput, error)
	// Refresh mints a new pair for the identity named by a valid refresh token.
	// Email and role are re-read from storage, never taken from the token.
	Refresh(ctx context.Context, input *RefreshInput) (*service.TokenPair, error)
	Me(ctx context.Context, userID uuid.UUID) (*entity.User, error)
}
