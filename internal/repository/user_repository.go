package repository

import (
	"context"
	"errors"
	"time"

	"botdeck/backend/internal/model"
	"botdeck/backend/pkg/redis"

	redislib "github.com/redis/go-redis/v9"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// UserRepository handles user data operations
type UserRepository struct {
	redis *redis.Client
}

// NewUserRepository creates a new user repository
func NewUserRepository(redisClient *redis.Client) *UserRepository {
	return &UserRepository{
		redis: redisClient,
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	usernameKey := redis.UserByUsernameKey(user.Username)
	exists, err := r.redis.Exists(ctx, usernameKey)
	if err != nil {
		return err
	}
	if exists {
		return errors.New("username already exists")
	}

	emailKey := redis.UserByEmailKey(user.Email)
	exists, err = r.redis.Exists(ctx, emailKey)
	if err != nil {
		return err
	}
	if exists {
		return errors.New("email already exists")
	}

	if err := r.redis.SetJSON(ctx, redis.UserKey(user.ID), user, 0); err != nil {
		return err
	}

	// Username and email lookup indices
	if err := r.redis.Set(ctx, usernameKey, user.ID, 0); err != nil {
		return err
	}
	return r.redis.Set(ctx, emailKey, user.ID, 0)
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := r.redis.GetJSON(ctx, redis.UserKey(userID), &user); err != nil {
		if err == redislib.Nil {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername gets a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	userID, err := r.redis.Get(ctx, redis.UserByUsernameKey(username))
	if err != nil {
		if err == redislib.Nil {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, userID)
}

// GetByEmail gets a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	userID, err := r.redis.Get(ctx, redis.UserByEmailKey(email))
	if err != nil {
		if err == redislib.Nil {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, userID)
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	return r.redis.SetJSON(ctx, redis.UserKey(user.ID), user, 0)
}

// UpdateLastLogin updates user's last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	now := time.Now()
	user.LastLoginAt = &now

	return r.Update(ctx, user)
}

// UpdateCredential stores or clears the user's exchange credential. Passing
// nil disconnects the exchange account.
func (r *UserRepository) UpdateCredential(ctx context.Context, userID string, cred *model.ExchangeCredential) error {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.Credential = cred
	return r.Update(ctx, user)
}

// CreateSession creates a new session
func (r *UserRepository) CreateSession(ctx context.Context, session *model.Session) error {
	if err := r.redis.SetJSON(ctx, redis.SessionKey(session.ID), session, time.Until(session.ExpiresAt)); err != nil {
		return err
	}
	return r.redis.SAdd(ctx, redis.UserSessionsKey(session.UserID), session.ID)
}

// BlacklistToken adds a token to blacklist
func (r *UserRepository) BlacklistToken(ctx context.Context, token string, expiration time.Duration) error {
	return r.redis.Set(ctx, redis.TokenBlacklistKey(token), "blacklisted", expiration)
}

// IsTokenBlacklisted checks if a token is blacklisted
func (r *UserRepository) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	return r.redis.Exists(ctx, redis.TokenBlacklistKey(token))
}
