package service

import (
	"testing"
	"time"

	"atrium/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func registered(id uuid.UUID) jwt.RegisteredClaims {
	now := time.Now()

	return jwt.RegisteredClaims{
		Subject:   id.String(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}
}

func TestAccessClaims_Validate(t *testing.T) {
	id := uuid.New()
	valid := func() AccessClaims {
		return AccessClaims{UserID: id, Email: "a@b.c", Role: "user", Kind: TokenKindAccess, RegisteredClaims: registered(id)}
	}

	tests := []struct {
		name    string
		mutate  func(c *AccessClaims)
		wantErr error
	}{
		{name: "valid", mutate: func(*AccessClaims) {}},
		{name: "refresh kind", mutate: func(c *AccessClaims) { c.Kind = TokenKindRefresh }, wantErr: ErrTokenKindMismatch},
		{name: "missing kind", mutate: func(c *AccessClaims) { c.Kind = "" }, wantErr: ErrTokenKindMismatch},
		{name: "missing email", mutate: func(c *AccessClaims) { c.Email = "" }, wantErr: ErrClaimMissing},
		{name: "missing role", mutate: func(c *AccessClaims) { c.Role = "" }, wantErr: ErrClaimMissing},
		{name: "missing user id", mutate: func(c *AccessClaims) { c.UserID = uuid.Nil }, wantErr: ErrClaimMissing},
		{name: "missing jti", mutate: func(c *AccessClaims) { c.ID = "" }, wantErr: ErrClaimMissing},
		{name: "missing iat", mutate: func(c *AccessClaims) { c.IssuedAt = nil }, wantErr: ErrClaimMissing},
		{name: "subject differs", mutate: func(c *AccessClaims) { c.Subject = uuid.NewString() }, wantErr: ErrSubjectMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRefreshClaims_Validate(t *testing.T) {
	id := uuid.New()

	ok := RefreshClaims{UserID: id, Kind: TokenKindRefresh, RegisteredClaims: registered(id)}
	assert.NoError(t, ok.Validate())

	access := RefreshClaims{UserID: id, Kind: TokenKindAccess, RegisteredClaims: registered(id)}
	assert.True(t, errors.Is(access.Validate(), ErrTokenKindMismatch))
}
