// Package session provides server-side sessions for the application.
// This file, `store.go`, holds the persistence side: session data lives in Redis
// under `sess:<id>`, serialized as JSON, with a TTL equal to the cookie lifetime.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/config"
)

const keyPrefix = "sess:"

// ErrNotFound is returned by Store.Get when no session exists for the id.
var ErrNotFound = errors.New("session not found")

// Data is what a session remembers between requests.
type Data struct {
	UserID int `json:"userId"`
}

// Store persists session data by session id.
type Store interface {
	Get(ctx context.Context, sid string) (*Data, error)
	Save(ctx context.Context, sid string, data Data, ttl time.Duration) error
	Destroy(ctx context.Context, sid string) error
}

// NewRedisClient connects to Redis and pings it, so a bad address fails at startup
// rather than on the first login.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, apperror.NewExternalServiceError("error connecting to redis at "+cfg.Addr, err)
	}
	return client, nil
}

// RedisStore is the Redis-backed Store.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, sid string) (*Data, error) {
	raw, err := s.client.Get(ctx, keyPrefix+sid).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, apperror.NewExternalServiceError("failed to read session", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, apperror.NewInternalError("failed to decode session", err)
	}
	return &data, nil
}

// Save writes the session with a fresh TTL.
func (s *RedisStore) Save(ctx context.Context, sid string, data Data, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return apperror.NewInternalError("failed to encode session", err)
	}
	if err := s.client.Set(ctx, keyPrefix+sid, raw, ttl).Err(); err != nil {
		return apperror.NewExternalServiceError("failed to save session", err)
	}
	return nil
}

func (s *RedisStore) Destroy(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, keyPrefix+sid).Err(); err != nil {
		return apperror.NewExternalServiceError("failed to destroy session", err)
	}
	return nil
}
