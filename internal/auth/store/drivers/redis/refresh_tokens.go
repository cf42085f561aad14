// Package redis keeps refresh tokens in Redis. Each record is a JSON string
// under a fingerprint key whose TTL matches the token lifetime, so expiry
// housekeeping is left to Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maratshchur/django-auth-template/internal/auth/domain"
	"github.com/maratshchur/django-auth-template/internal/auth/store"
)

const keyPrefix = "auth:refresh:"

// ErrAlreadyExpired reports a record whose lifetime ended before it could be
// written. Redis cannot hold a key with a non-positive TTL.
var ErrAlreadyExpired = errors.New("redis: refresh token already expired")

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a Redis client and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RefreshTokens implements store.RefreshTokens.
type RefreshTokens struct {
	client redis.UniversalClient
	now    func() time.Time
}

var _ store.RefreshTokens = (*RefreshTokens)(nil)

// NewRefreshTokens builds the repository. now is used to derive key TTLs and
// defaults to time.Now.
func NewRefreshTokens(client redis.UniversalClient, now func() time.Time) *RefreshTokens {
	if now == nil {
		now = time.Now
	}
	return &RefreshTokens{client: client, now: now}
}

type record struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateRefreshToken stores t with a TTL equal to its remaining lifetime.
// A record that is already expired is rejected with ErrAlreadyExpired.
func (r *RefreshTokens) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	ttl := t.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return ErrAlreadyExpired
	}

	data, err := json.Marshal(record{UserID: t.UserID, CreatedAt: t.CreatedAt.UTC(), ExpiresAt: t.ExpiresAt.UTC()})
	if err != nil {
		return fmt.Errorf("marshal refresh token: %w", err)
	}

	ok, err := r.client.SetNX(ctx, keyPrefix+t.TokenHash, data, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis set refresh token: %w", err)
	}
	if !ok {
		return store.ErrAlreadyExists
	}
	return nil
}

// ConsumeRefreshToken uses GETDEL, so of any number of concurrent callers
// exactly one receives the value.
func (r *RefreshTokens) ConsumeRefreshToken(
	ctx context.Context,
	hash string,
	now time.Time,
) (domain.RefreshToken, error) {
	data, err := r.client.GetDel(ctx, keyPrefix+hash).Bytes()
	if err != nil {
		return domain.RefreshToken{}, mapNil(err, "getdel")
	}

	t, err := decode(hash, data)
	if err != nil {
		return domain.RefreshToken{}, err
	}
	// The key TTL normally beats us to it, but clocks drift.
	if t.Expired(now) {
		return domain.RefreshToken{}, store.ErrNotFound
	}
	return t, nil
}

func (r *RefreshTokens) DeleteRefreshToken(ctx context.Context, hash string) error {
	if err := r.client.Del(ctx, keyPrefix+hash).Err(); err != nil {
		return fmt.Errorf("redis del refresh token: %w", err)
	}
	return nil
}

// DeleteExpiredRefreshTokens is a no-op: keys expire on their own.
func (r *RefreshTokens) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// Ping reports whether Redis is reachable.
func (r *RefreshTokens) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func decode(hash string, data []byte) (domain.RefreshToken, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.RefreshToken{}, fmt.Errorf("unmarshal refresh token: %w", err)
	}
	return domain.RefreshToken{
		TokenHash: hash,
		UserID:    rec.UserID,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

func mapNil(err error, op string) error {
	if errors.Is(err, redis.Nil) {
		return store.ErrNotFound
	}
	return fmt.Errorf("redis %s refresh token: %w", op, err)
}
