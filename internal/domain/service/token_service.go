package service

import (
	"time"

	"atrium/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TokenTypeBearer is echoed in every TokenPair.
	TokenTypeBearer = "Bearer"

	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// AccessClaims authorize ordinary requests. Email and Role are a snapshot taken at issuance.
type AccessClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	Kind   string    `json:"typ"`
	jwt.RegisteredClaims
}

// Validate implements jwt.ClaimsValidator. It runs after the registered claims checks.
func (c *AccessClaims) Validate() error {
	if c.Kind != TokenKindAccess {
		return errors.Wrapf(ErrTokenKindMismatch, "got %q", c.Kind)
	}
	if c.Email == "" || c.Role == "" {
		return errors.Wrap(ErrClaimMissing, "email or role")
	}

	return validateIdentity(c.UserID, &c.RegisteredClaims)
}

// RefreshClaims are only good for minting a new TokenPair.
type RefreshClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Kind   string    `json:"typ"`
	jwt.RegisteredClaims
}

// Validate implements jwt.ClaimsValidator.
func (c *RefreshClaims) Validate() error {
	if c.Kind != TokenKindRefresh {
		return errors.Wrapf(ErrTokenKindMismatch, "got %q", c.Kind)
	}

	return validateIdentity(c.UserID, &c.RegisteredClaims)
}

func validateIdentity(userID uuid.UUID, rc *jwt.RegisteredClaims) error {
	switch {
	case userID == uuid.Nil:
		return errors.Wrap(ErrClaimMissing, "user_id")
	case rc.Subject == "":
		return errors.Wrap(ErrClaimMissing, "sub")
	case rc.ID == "":
		return errors.Wrap(ErrClaimMissing, "jti")
	case rc.IssuedAt == nil:
		return errors.Wrap(ErrClaimMissing, "iat")
	case rc.Subject != userID.String():
		return ErrSubjectMismatch
	}

	return nil
}

// TokenPair is returned to clients after login, registration and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenConfig is built once at startup and shared read-only.
type TokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenService issues and validates access/refresh token pairs.
type TokenService interface {
	// IssuePair signs a fresh access and refresh token for the identity.
	IssuePair(userID uuid.UUID, email, role string) (*TokenPair, error)

	// ValidateAccess rejects anything that is not an unexpired access token signed with
	// the configured secret. Every failure is ErrAuthentication.
	ValidateAccess(token string) (*AccessClaims, error)

	// ValidateRefresh is ValidateAccess for refresh tokens.
	ValidateRefresh(token string) (*RefreshClaims, error)

	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}
