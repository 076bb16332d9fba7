package services

import (
	"fmt"
	"log"
	"time"

	"hostpanel/internal/models"
	"hostpanel/internal/repositories"
	"hostpanel/pkg/rabbitmq"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// EventPublisher is the subset of the RabbitMQ client the services use to
// announce account lifecycle changes. A nil publisher disables events.
type EventPublisher interface {
	PublishAccountEvent(event rabbitmq.AccountEvent) error
}

// TokenPair is the response of a successful authentication or refresh: a
// short-lived access token and a long-lived, revocable refresh token.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthService handles business logic for registration, authentication and
// token lifecycle.
type AuthService struct {
	userRepo     repositories.UserRepository
	tokenRepo    repositories.RefreshTokenRepository
	publisher    EventPublisher
	jwtSecret    []byte
	accessDurat  time.Duration // Duration for which an access JWT is valid
	refreshDurat time.Duration // Duration for which a refresh JWT is valid
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, tokenRepo repositories.RefreshTokenRepository, publisher EventPublisher, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		publisher:    publisher,
		jwtSecret:    []byte(jwtSecret),
		accessDurat:  15 * time.Minute,
		refreshDurat: 7 * 24 * time.Hour,
	}
}

// RegisterUser registers a new user, hashes their password, saves them to the
// database and announces the registration on the event queue.
func (s *AuthService) RegisterUser(user *models.User) error {
	// Check if username or email already exists
	if existingUser, err := s.userRepo.GetByUsername(user.Username); err == nil && existingUser != nil {
		return fmt.Errorf("username '%s' already taken", user.Username)
	}
	if existingUser, err := s.userRepo.GetByEmail(user.Email); err == nil && existingUser != nil {
		return fmt.Errorf("email '%s' already registered", user.Email)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword) // Store the hashed password

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	// The event is best-effort: a broker outage must not fail the registration.
	if s.publisher != nil {
		event := rabbitmq.AccountEvent{
			Event:    "user.registered",
			UserID:   user.ID,
			Username: user.Username,
		}
		if err := s.publisher.PublishAccountEvent(event); err != nil {
			log.Printf("Failed to publish user.registered event for %s: %v", user.ID, err)
		}
	}
	return nil
}

// LoginUser authenticates a user and returns an access/refresh token pair if
// successful.
func (s *AuthService) LoginUser(username, password string) (*TokenPair, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		// It's good practice not to reveal if the username exists or not for security
		return nil, fmt.Errorf("invalid credentials")
	}

	// Compare the provided password with the hashed password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	return s.issueTokenPair(user)
}

// RefreshTokens validates a refresh token against the token store, revokes it
// and issues a fresh pair. Each refresh token is single-use.
func (s *AuthService) RefreshTokens(refreshToken string) (*TokenPair, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims["type"] != "refresh" {
		return nil, fmt.Errorf("invalid token: not a refresh token")
	}

	tokenID, ok := claims["jti"].(string)
	if !ok || tokenID == "" {
		return nil, fmt.Errorf("invalid token: missing token ID")
	}

	userID, err := s.tokenRepo.UserID(tokenID)
	if err != nil {
		return nil, fmt.Errorf("refresh token is revoked or expired")
	}
	if claimedID, _ := claims["user_id"].(string); claimedID != userID {
		return nil, fmt.Errorf("invalid token: user mismatch")
	}

	// Rotate: the presented token is spent regardless of what happens next.
	if err := s.tokenRepo.Delete(tokenID); err != nil {
		log.Printf("Failed to revoke refresh token %s: %v", tokenID, err)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid token: user no longer exists")
	}

	return s.issueTokenPair(user)
}

// Logout revokes the presented refresh token so it can no longer be exchanged
// for new access tokens.
func (s *AuthService) Logout(refreshToken string) error {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return err
	}
	if claims["type"] != "refresh" {
		return fmt.Errorf("invalid token: not a refresh token")
	}
	tokenID, ok := claims["jti"].(string)
	if !ok || tokenID == "" {
		return fmt.Errorf("invalid token: missing token ID")
	}
	return s.tokenRepo.Delete(tokenID)
}

// ValidateAccessToken parses and validates an access JWT, returning the
// claims if valid. Refresh tokens are rejected so they cannot be used
// directly against protected routes.
func (s *AuthService) ValidateAccessToken(tokenString string) (jwt.MapClaims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims["type"] != "access" {
		return nil, fmt.Errorf("invalid token: not an access token")
	}
	return claims, nil
}

// issueTokenPair signs a new access/refresh pair for the user and whitelists
// the refresh token's ID in the token store.
func (s *AuthService) issueTokenPair(user *models.User) (*TokenPair, error) {
	now := time.Now()

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"type":     "access",
		"exp":      now.Add(s.accessDurat).Unix(),
		"iat":      now.Unix(),
	})
	access, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	tokenID := uuid.New().String()
	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"type":    "refresh",
		"jti":     tokenID,
		"exp":     now.Add(s.refreshDurat).Unix(),
		"iat":     now.Unix(),
	})
	refresh, err := refreshToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.tokenRepo.Save(tokenID, user.ID, s.refreshDurat); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// parseToken verifies the signature and expiry of any of our JWTs.
func (s *AuthService) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
