package repositories

import "time"

// RefreshTokenRepository tracks which refresh tokens are currently valid.
// A token ID is saved when the pair is issued, looked up on refresh and
// removed on rotation or logout, so a stolen-but-revoked refresh token can
// never mint new access tokens.
type RefreshTokenRepository interface {
	Save(tokenID, userID string, ttl time.Duration) error
	// UserID returns the user a stored token belongs to, or an error if the
	// token is unknown, revoked or expired.
	UserID(tokenID string) (string, error)
	Delete(tokenID string) error
}
