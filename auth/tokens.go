package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/user/redditclone-go/apperror"
)

const forgotPasswordPrefix = "forget-password:"

// ErrTokenNotFound is returned when a reset token is unknown or has expired.
var ErrTokenNotFound = errors.New("reset token not found")

// TokenStore keeps single-use password-reset tokens.
type TokenStore interface {
	// Issue creates a random token that resolves to userID until ttl elapses.
	Issue(ctx context.Context, userID int, ttl time.Duration) (string, error)
	// Lookup returns the user id for token, or ErrTokenNotFound.
	Lookup(ctx context.Context, token string) (int, error)
	// Revoke deletes the token.
	Revoke(ctx context.Context, token string) error
}

// RedisTokenStore keeps tokens in Redis under `forget-password:<token>`.
type RedisTokenStore struct {
	client redis.Cmdable
}

func NewRedisTokenStore(client redis.Cmdable) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Issue(ctx context.Context, userID int, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, forgotPasswordPrefix+token, userID, ttl).Err(); err != nil {
		return "", apperror.NewExternalServiceError("failed to store reset token", err)
	}
	return token, nil
}

func (s *RedisTokenStore) Lookup(ctx context.Context, token string) (int, error) {
	val, err := s.client.Get(ctx, forgotPasswordPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrTokenNotFound
		}
		return 0, apperror.NewExternalServiceError("failed to read reset token", err)
	}

	userID, err := strconv.Atoi(val)
	if err != nil {
		return 0, apperror.NewInternalError("reset token holds an invalid user id", err)
	}
	return userID, nil
}

func (s *RedisTokenStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, forgotPasswordPrefix+token).Err(); err != nil {
		return apperror.NewExternalServiceError("failed to delete reset token", err)
	}
	return nil
}
