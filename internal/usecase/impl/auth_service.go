// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	"atrium/internal/domain/entity"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/domain/repository"
	"atrium/internal/domain/service"
	logs "atrium/internal/infra/log"
	"atrium/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// dummyPasswordHash is verified against when the email is unknown, so that
// branch costs about as much as a wrong password. It uses the default cost.
const dummyPasswordHash = "$argon2id$v=19$m=19456,t=2,p=1$00P6ClpRVt/J77GVzYy9MQ$UndsaDv4sl5lbakDcCA2JSpiJfIVDk1KMSy4YWfY9qM"

// authService implements the AuthUsecase interface.
type authService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	logger       *slog.Logger
	now          func() time.Time
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		logger:       params.Logger,
		now:          time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return logs.FromContext(ctx, srv.logger)
}

// Register hashes the password before opening the transaction; the duplicate checks
// and the insert share one transaction.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email), slog.String("username", input.Username))

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmptyPassword) {
			return nil, errors.Wrap(domainerrors.ErrValidationFailed, "password must not be empty")
		}
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	now := srv.now().UTC()
	newUser := &entity.User{
		ID:           uuid.New(),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         entity.RoleUser,
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		if err := ensureAbsent(userRepo.FindByEmail(ctx, input.Email)); err != nil {
			return errors.Wrap(err, "email check")
		}
		if err := ensureAbsent(userRepo.FindByUsername(ctx, input.Username)); err != nil {
			if errors.Is(err, domainerrors.ErrUserAlreadyExists) {
				return errors.Wrap(domainerrors.ErrUsernameTaken, "username check")
			}

			return errors.Wrap(err, "username check")
		}

		return userRepo.Create(ctx, newUser)
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute user registration transaction")
	}

	tokens, err := srv.tokenService.IssuePair(newUser.ID, newUser.Email, newUser.Role.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue tokens after registration")
	}

	srv.log(ctx).Debug("Registration completed", slog.String("user_id", newUser.ID.String()))

	return &usecase.AuthOutput{User: newUser, Tokens: tokens}, nil
}

// ensureAbsent maps a successful lookup to ErrUserAlreadyExists and a miss to nil.
func ensureAbsent(_ *entity.User, err error) error {
	switch {
	case err == nil:
		return domainerrors.ErrUserAlreadyExists
	case errors.Is(err, repository.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

// Login returns the same error for an unknown email, a wrong password and an inactive account.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Debug("Starting user login", slog.String("email", input.Email))

	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = srv.hasher.Verify(input.Password, dummyPasswordHash)
			srv.log(ctx).Warn("Login failed", slog.String("email", input.Email), slog.String("reason", "unknown email"))

			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
		}

		return nil, errors.Wrap(err, "failed to load user for login")
	}

	ok, err := srv.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		srv.log(ctx).Error("Stored password hash is unreadable", slog.String("user_id", user.ID.String()), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to verify password")
	}
	if !ok {
		srv.log(ctx).Warn("Login failed", slog.String("user_id", user.ID.String()), slog.String("reason", "password mismatch"))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}
	if !user.IsActive() {
		srv.log(ctx).Warn("Login failed", slog.String("user_id", user.ID.String()), slog.String("reason", "status "+user.Status.String()))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	srv.recordLogin(ctx, user, input.Password)

	tokens, err := srv.tokenService.IssuePair(user.ID, user.Email, user.Role.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue tokens")
	}

	srv.log(ctx).Debug("User logged in successfully", slog.String("user_id", user.ID.String()))

	return &usecase.AuthOutput{User: user, Tokens: tokens}, nil
}

// recordLogin stamps the login time and upgrades the stored hash when its
// parameters are stale. Only those columns are written. Failures are logged;
// they never fail the login.
func (srv *authService) recordLogin(ctx context.Context, user *entity.User, password string) {
	now := srv.now().UTC()

	var newHash *string
	if stale, err := srv.hasher.NeedsRehash(user.PasswordHash); err == nil && stale {
		if rehashed, err := srv.hasher.Hash(password); err == nil {
			newHash = &rehashed
		}
	}

	if err := srv.userRepo.RecordLogin(ctx, user.ID, now, newHash); err != nil {
		srv.log(ctx).Warn("Failed to record login", slog.String("user_id", user.ID.String()), slog.Any("error", err))

		return
	}

	user.LastLoginAt = &now
	if newHash != nil {
		user.PasswordHash = *newHash
		srv.log(ctx).Info("Password hash upgraded", slog.String("user_id", user.ID.String()))
	}
}

func (srv *authService) Refresh(ctx context.Context, input *usecase.RefreshInput) (*service.TokenPair, error) {
	claims, err := srv.tokenService.ValidateRefresh(input.RefreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "refresh token rejected")
	}

	user, err := srv.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Refresh for unknown user", slog.String("user_id", claims.UserID.String()))

			return nil, errors.Wrap(domainerrors.ErrUnauthorized, "refresh failed")
		}

		return nil, errors.Wrap(err, "failed to load user for refresh")
	}
	if !user.IsActive() {
		srv.log(ctx).Warn("Refresh for inactive user", slog.String("user_id", user.ID.String()), slog.String("status", user.Status.String()))

		return nil, errors.Wrap(domainerrors.ErrUnauthorized, "refresh failed")
	}

	tokens, err := srv.tokenService.IssuePair(user.ID, user.Email, user.Role.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue tokens")
	}

	return tokens, nil
}

func (srv *authService) Me(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUserNotFound, "current user")
		}

		return nil, errors.Wrap(err, "failed to load current user")
	}

	return user, nil
}
