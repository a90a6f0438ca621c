package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"atrium/config"
	"atrium/internal/domain/entity"
	"atrium/internal/domain/repository"
	"atrium/internal/errors"
	logs "atrium/internal/infra/log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const (
	userIDKeyPrefix    = "atrium:user:id:"
	userEmailKeyPrefix = "atrium:user:email:"
)

// Params wires the cache in front of the named postgres store.
type Params struct {
	fx.In

	Store  repository.UserRepository `name:"userStore"`
	Client *redis.Client             `optional:"true"`
	Config *config.Config
	Logger *slog.Logger
}

// cachedUser is the stored form of entity.User. The key space is private to the service,
// and the password hash is kept because login resolves users by email.
type cachedUser struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	PasswordHash  string     `json:"password_hash"`
	FirstName     *string    `json:"first_name,omitempty"`
	LastName      *string    `json:"last_name,omitempty"`
	AvatarURL     *string    `json:"avatar_url,omitempty"`
	Bio           *string    `json:"bio,omitempty"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

// userRepository is a read-through decorator. Cache faults are logged and the store answers.
// The id key holds the user; the email key only points at the id, so a
// rename can never leave a full copy of the user behind the old address.
type userRepository struct {
	store  repository.UserRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewUserRepository returns the bare store when no Redis client is configured.
func NewUserRepository(params Params) repository.UserRepository {
	if params.Client == nil {
		return params.Store
	}

	ttl := 5 * time.Minute
	if params.Config.Redis != nil && params.Config.Redis.UserTTL > 0 {
		ttl = params.Config.Redis.UserTTL
	}

	return newUserRepository(params.Store, params.Client, ttl, params.Logger)
}

func newUserRepository(store repository.UserRepository, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *userRepository {
	return &userRepository{store: store, rdb: rdb, ttl: ttl, logger: logger}
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if user, ok := r.get(ctx, idKey(id)); ok {
		return user, nil
	}

	return r.load(ctx, func() (*entity.User, error) {
		return r.store.FindByID(ctx, id)
	})
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if user, ok := r.resolveEmail(ctx, email); ok {
		return user, nil
	}

	return r.load(ctx, func() (*entity.User, error) {
		return r.store.FindByEmail(ctx, email)
	})
}

// FindByUsername is only used on registration and is not cached.
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.store.FindByUsername(ctx, username)
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.store.Create(ctx, user)
}

// Update writes through and then drops the id key and the email pointers it
// knows about. A pointer left at a previous email is rejected on read.
func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	keys := []string{idKey(user.ID), emailKey(user.Email)}
	if previous, ok := r.get(ctx, idKey(user.ID)); ok && previous.Email != user.Email {
		keys = append(keys, emailKey(previous.Email))
	}

	if err := r.store.Update(ctx, user); err != nil {
		return err
	}

	r.invalidate(ctx, user.ID, keys...)

	return nil
}

// RecordLogin writes through and drops the id key; the email pointer then
// dangles and is cleared on its next read.
func (r *userRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, newHash *string) error {
	if err := r.store.RecordLogin(ctx, id, at, newHash); err != nil {
		return err
	}

	r.invalidate(ctx, id, idKey(id))

	return nil
}

// resolveEmail follows the email pointer to the id key. A pointer whose target
// is gone or now carries another email is deleted.
func (r *userRepository) resolveEmail(ctx context.Context, email string) (*entity.User, bool) {
	key := emailKey(email)

	ref, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log(ctx).WarnContext(ctx, "Failed to read cached email", slog.String("key", key), slog.Any("error", err))
		}

		return nil, false
	}

	id, err := uuid.Parse(ref)
	if err == nil {
		if user, ok := r.get(ctx, idKey(id)); ok && user.Email == email {
			return user, true
		}
	}

	r.rdb.Del(ctx, key)

	return nil, false
}

func (r *userRepository) load(ctx context.Context, find func() (*entity.User, error)) (*entity.User, error) {
	user, err := find()
	if err != nil {
		return nil, err
	}

	r.set(ctx, user)

	return user, nil
}

func (r *userRepository) get(ctx context.Context, key string) (*entity.User, bool) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log(ctx).WarnContext(ctx, "Failed to read cached user", slog.String("key", key), slog.Any("error", err))
		}

		return nil, false
	}

	var cached cachedUser
	if err := json.Unmarshal(data, &cached); err != nil {
		r.log(ctx).WarnContext(ctx, "Discarding corrupt cached user", slog.String("key", key), slog.Any("error", err))
		r.rdb.Del(ctx, key)

		return nil, false
	}

	return cached.toEntity(), true
}

func (r *userRepository) set(ctx context.Context, user *entity.User) {
	payload, err := json.Marshal(fromEntity(user))
	if err != nil {
		r.log(ctx).WarnContext(ctx, "Failed to encode user for cache", slog.Any("error", err))

		return
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, idKey(user.ID), payload, r.ttl)
		pipe.Set(ctx, emailKey(user.Email), user.ID.String(), r.ttl)

		return nil
	})
	if err != nil {
		r.log(ctx).WarnContext(ctx, "Failed to cache user",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)
	}
}

func (r *userRepository) invalidate(ctx context.Context, id uuid.UUID, keys ...string) {
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		r.log(ctx).WarnContext(ctx, "Failed to invalidate cached user",
			slog.String("user_id", id.String()),
			slog.Any("error", err),
		)
	}
}

func (r *userRepository) log(ctx context.Context) *slog.Logger {
	return logs.FromContext(ctx, r.logger)
}

func idKey(id uuid.UUID) string {
	return userIDKeyPrefix + id.String()
}

func emailKey(email string) string {
	return userEmailKeyPrefix + email
}

func fromEntity(u *entity.User) *cachedUser {
	return &cachedUser{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		PasswordHash:  u.PasswordHash,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		AvatarURL:     u.AvatarURL,
		Bio:           u.Bio,
		Role:          u.Role.String(),
		Status:        u.Status.String(),
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
		LastLoginAt:   u.LastLoginAt,
	}
}

func (c *cachedUser) toEntity() *entity.User {
	return &entity.User{
		ID:            c.ID,
		Email:         c.Email,
		Username:      c.Username,
		PasswordHash:  c.PasswordHash,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		AvatarURL:     c.AvatarURL,
		Bio:           c.Bio,
		Role:          entity.Role(c.Role),
		Status:        entity.UserStatus(c.Status),
		EmailVerified: c.EmailVerified,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		LastLoginAt:   c.LastLoginAt,
	}
}
