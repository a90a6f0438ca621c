// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"atrium/internal/domain/entity"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/domain/repository"
	"atrium/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	emailUniqueIndex    = "users_email_key"
	usernameUniqueIndex = "users_username_key"
)

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return repo.findOne(ctx, "find user by id", "id = ?", id)
}

func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.findOne(ctx, "find user by email", "email = ?", email)
}

func (repo *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return repo.findOne(ctx, "find user by username", "username = ?", username)
}

func (repo *userRepository) findOne(ctx context.Context, op string, query string, arg any) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where(query, arg).Take(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrapf(err, "failed to %s", op)
	}

	return toUserDomain(&userM), nil
}

// Create inserts the user and copies generated values back onto it.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		return translateWriteError(err, domainerrors.ErrUserCreationFailed, "failed to create user")
	}

	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	result := repo.db.WithContext(ctx).Model(userM).Select("*").Omit("id", "created_at").Updates(userM)
	if result.Error != nil {
		return translateWriteError(result.Error, domainerrors.ErrUserUpdateFailed, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	user.UpdatedAt = userM.UpdatedAt

	return nil
}

func (repo *userRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, newHash *string) error {
	result := recordLoginStmt(repo.db.WithContext(ctx), id, at, newHash)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to record login")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// recordLoginStmt touches only the login columns so a stale entity can never
// overwrite concurrent changes to the rest of the row.
func recordLoginStmt(db *gorm.DB, id uuid.UUID, at time.Time, newHash *string) *gorm.DB {
	columns := map[string]any{"last_login_at": at}
	if newHash != nil {
		columns["password_hash"] = *newHash
	}

	return db.Model(&model.UserModel{}).Where("id = ?", id).UpdateColumns(columns)
}

func translateWriteError(err error, failure *domainerrors.BaseError, details string) error {
	switch {
	case isUniqueConstraintViolation(err) && violatesConstraint(err, usernameUniqueIndex):
		return domainerrors.ErrUsernameTaken.WrapMessage("username already exists")
	case isUniqueConstraintViolation(err):
		return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
	case isNotNullConstraintViolation(err):
		return failure.WrapMessage("missing required user information")
	default:
		return domainerrors.NewDatabaseExecuteError(err, details)
	}
}

// --- Mapper Functions ---

func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:            data.ID,
		Email:         data.Email,
		Username:      data.Username,
		PasswordHash:  data.PasswordHash,
		FirstName:     data.FirstName,
		LastName:      data.LastName,
		AvatarURL:     data.AvatarURL,
		Bio:           data.Bio,
		Role:          entity.Role(data.Role),
		Status:        entity.UserStatus(data.Status),
		EmailVerified: data.EmailVerified,
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
		LastLoginAt:   data.LastLoginAt,
	}
}

func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		ID:            data.ID,
		Email:         data.Email,
		Username:      data.Username,
		PasswordHash:  data.PasswordHash,
		FirstName:     data.FirstName,
		LastName:      data.LastName,
		AvatarURL:     data.AvatarURL,
		Bio:           data.Bio,
		Role:          data.Role.String(),
		Status:        data.Status.String(),
		EmailVerified: data.EmailVerified,
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
		LastLoginAt:   data.LastLoginAt,
	}
}
