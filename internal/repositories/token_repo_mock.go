package repositories

import (
	"fmt"
	"sync"
	"time"
)

type storedToken struct {
	userID    string
	expiresAt time.Time
}

// MockRefreshTokenRepository is an in-memory implementation of
// RefreshTokenRepository. It backs tests and redis-less development runs.
type MockRefreshTokenRepository struct {
	tokens map[string]storedToken
	mu     sync.RWMutex
}

// NewMockRefreshTokenRepository creates a new instance of MockRefreshTokenRepository.
func NewMockRefreshTokenRepository() *MockRefreshTokenRepository {
	return &MockRefreshTokenRepository{
		tokens: make(map[string]storedToken),
	}
}

// Save stores the token ID with its expiry.
func (r *MockRefreshTokenRepository) Save(tokenID, userID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[tokenID] = storedToken{
		userID:    userID,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// UserID resolves a stored token ID back to its user. Expired entries are
// treated as unknown, matching the Redis TTL behavior.
func (r *MockRefreshTokenRepository) UserID(tokenID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.tokens[tokenID]
	if !ok || time.Now().After(stored.expiresAt) {
		return "", fmt.Errorf("refresh token not found")
	}
	return stored.userID, nil
}

// Delete revokes a stored token ID.
func (r *MockRefreshTokenRepository) Delete(tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, tokenID)
	return nil
}
