package postgres

import (
	"testing"
	"time"

	"atrium/internal/domain/entity"
	domainerrors "atrium/internal/domain/errors"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newDryRunDB renders SQL without ever opening a connection.
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		DSN: "host=localhost user=atrium dbname=atrium sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	return db
}

func TestRecordLoginStmt_WritesOnlyLoginColumns(t *testing.T) {
	id := uuid.New()
	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	rehashed := "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$a2V5"

	tests := []struct {
		name        string
		newHash     *string
		wantColumns []string
		wantVars    int
	}{
		{name: "timestamp only", newHash: nil, wantColumns: []string{`"last_login_at"`}, wantVars: 2},
		{name: "with rehash", newHash: &rehashed, wantColumns: []string{`"last_login_at"`, `"password_hash"`}, wantVars: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := recordLoginStmt(newDryRunDB(t), id, at, tt.newHash).Statement
			sql := stmt.SQL.String()

			assert.Contains(t, sql, `UPDATE "users" SET`)
			assert.Contains(t, sql, "WHERE id = $")
			for _, column := range tt.wantColumns {
				assert.Contains(t, sql, column)
			}
			for _, column := range []string{`"email"`, `"username"`, `"role"`, `"status"`, `"first_name"`, `"email_verified"`, `"updated_at"`} {
				assert.NotContains(t, sql, column)
			}
			if tt.newHash == nil {
				assert.NotContains(t, sql, `"password_hash"`)
			}

			assert.Len(t, stmt.Vars, tt.wantVars)
			assert.Contains(t, stmt.Vars, at)
			assert.Contains(t, stmt.Vars, id)
		})
	}
}

func TestUserMappers_RoundTrip(t *testing.T) {
	first := "Ada"
	lastLogin := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	user := &entity.User{
		ID:            uuid.New(),
		Email:         "ada@example.com",
		Username:      "ada",
		PasswordHash:  "$argon2id$v=19$m=64,t=1,p=1$c2FsdA$a2V5",
		FirstName:     &first,
		Role:          entity.RoleModerator,
		Status:        entity.UserStatusSuspended,
		EmailVerified: true,
		CreatedAt:     lastLogin.Add(-time.Hour),
		UpdatedAt:     lastLogin,
		LastLoginAt:   &lastLogin,
	}

	m := fromUserDomain(user)
	assert.Equal(t, "moderator", m.Role)
	assert.Equal(t, "suspended", m.Status)

	assert.Equal(t, user, toUserDomain(m))
	assert.Nil(t, toUserDomain(nil))
	assert.Nil(t, fromUserDomain(nil))
}

func TestTranslateWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "duplicate email",
			err:  errors.New(`ERROR: duplicate key value violates unique constraint "users_email_key" (SQLSTATE 23505)`),
			want: domainerrors.ErrUserAlreadyExists,
		},
		{
			name: "duplicate username",
			err:  errors.New(`ERROR: duplicate key value violates unique constraint "users_username_key" (SQLSTATE 23505)`),
			want: domainerrors.ErrUsernameTaken,
		},
		{
			name: "translated duplicate",
			err:  gorm.ErrDuplicatedKey,
			want: domainerrors.ErrUserAlreadyExists,
		},
		{
			name: "not null",
			err:  errors.New(`ERROR: null value in column "email" violates not-null constraint (SQLSTATE 23502)`),
			want: domainerrors.ErrUserCreationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateWriteError(tt.err, domainerrors.ErrUserCreationFailed, "failed to create user")
			assert.True(t, errors.Is(got, tt.want), "got %v", got)
		})
	}

	var appErr domainerrors.AppError
	got := translateWriteError(errors.New("connection reset"), domainerrors.ErrUserCreationFailed, "failed to create user")
	assert.True(t, errors.As(got, &appErr))
	assert.Equal(t, "DATABASE_EXECUTE_FAILED", appErr.ErrorCode())
}
