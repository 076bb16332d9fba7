package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "refresh:"

// RedisTokenRepository is a Redis implementation of RefreshTokenRepository.
// Expiry is delegated to Redis TTLs, so revoked and expired tokens look the
// same to callers.
type RedisTokenRepository struct {
	client *redis.Client
}

// NewRedisTokenRepository creates a new instance of RedisTokenRepository.
func NewRedisTokenRepository(client *redis.Client) *RedisTokenRepository {
	return &RedisTokenRepository{
		client: client,
	}
}

// Save stores the token ID with the refresh token's remaining lifetime.
func (r *RedisTokenRepository) Save(tokenID, userID string, ttl time.Duration) error {
	if err := r.client.Set(context.Background(), refreshKeyPrefix+tokenID, userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// UserID resolves a stored token ID back to its user.
func (r *RedisTokenRepository) UserID(tokenID string) (string, error) {
	userID, err := r.client.Get(context.Background(), refreshKeyPrefix+tokenID).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("refresh token not found")
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up refresh token: %w", err)
	}
	return userID, nil
}

// Delete revokes a stored token ID. Deleting an unknown token is not an
// error, so logout stays idempotent.
func (r *RedisTokenRepository) Delete(tokenID string) error {
	if err := r.client.Del(context.Background(), refreshKeyPrefix+tokenID).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}
