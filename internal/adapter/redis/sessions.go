// Package redis implements the session repository on Redis. Sessions are
// written with a TTL matching their absolute expiry, so Redis evicts what
// DeleteExpired would otherwise have to sweep.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"campusauth/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// SessionRepo stores sessions as JSON values keyed by token.
type SessionRepo struct {
	client *redis.Client
}

var _ domain.SessionRepository = (*SessionRepo)(nil)

// NewSessionRepo wraps a redis client as a SessionRepository.
func NewSessionRepo(client *redis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

// Open connects to Redis at addr and pings it.
func Open(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

type sessionValue struct {
	UserID    int64     `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Create stores a new session with a TTL running out at its absolute expiry.
func (r *SessionRepo) Create(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	val, err := json.Marshal(sessionValue{
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, keyPrefix+token, val, ttl).Err()
}

// GetByToken returns the session for the token, or nil once Redis has
// expired it.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var val sessionValue
	if err := json.Unmarshal(raw, &val); err != nil {
		return nil, err
	}
	return &domain.Session{
		Token:     token,
		UserID:    val.UserID,
		ExpiresAt: val.ExpiresAt,
		CreatedAt: val.CreatedAt,
	}, nil
}

// Delete removes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, keyPrefix+token).Err()
}

// DeleteExpired is a no-op: Redis evicts sessions via their TTL.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	return nil
}
