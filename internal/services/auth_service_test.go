package services_test

import (
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"hostpanel/internal/models"
	"hostpanel/internal/repositories"
	"hostpanel/internal/services"
	"hostpanel/pkg/rabbitmq"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetAll() ([]models.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockUserRepository) CountResources(userID string) (models.ResourceCounts, error) {
	args := m.Called(userID)
	return args.Get(0).(models.ResourceCounts), args.Error(1)
}

func (m *MockUserRepository) CountResourcesForAll() (map[string]models.ResourceCounts, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]models.ResourceCounts), args.Error(1)
}

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishAccountEvent(event rabbitmq.AccountEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(os.Stdout)
	code := m.Run()
	os.Exit(code)
}

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockPublisher := new(MockEventPublisher)
	tokenRepo := repositories.NewMockRefreshTokenRepository()
	authService := services.NewAuthService(mockRepo, tokenRepo, mockPublisher, "test_jwt_secret")

	// Test successful registration
	user := &models.User{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "password123",
	}

	mockRepo.On("GetByUsername", user.Username).Return(nil, nil).Once()
	mockRepo.On("GetByEmail", user.Email).Return(nil, nil).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()
	mockPublisher.On("PublishAccountEvent", mock.AnythingOfType("rabbitmq.AccountEvent")).Return(nil).Once()

	err := authService.RegisterUser(user)
	assert.NoError(t, err)
	// The stored password must be a bcrypt hash of the original
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)

	// Test username already taken
	mockRepo.On("GetByUsername", user.Username).Return(&models.User{ID: "1"}, nil).Once()
	err = authService.RegisterUser(user)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "username 'testuser' already taken")
	mockRepo.AssertExpectations(t)

	// Test email already registered
	mockRepo.On("GetByUsername", user.Username).Return(nil, nil).Once()
	mockRepo.On("GetByEmail", user.Email).Return(&models.User{ID: "1"}, nil).Once()
	err = authService.RegisterUser(user)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "email 'test@example.com' already registered")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenRepo := repositories.NewMockRefreshTokenRepository()
	testJWTSecret := "test_jwt_secret"
	authService := services.NewAuthService(mockRepo, tokenRepo, nil, testJWTSecret)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{
		ID:       "user-123",
		Username: "testuser",
		Email:    "test@example.com",
		Password: string(hashedPassword),
	}

	// Test successful login
	mockRepo.On("GetByUsername", user.Username).Return(user, nil).Once()
	pair, err := authService.LoginUser("testuser", "password123")
	assert.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)

	// Access token carries identity claims and the access type
	accessClaims := parseClaims(t, pair.Access, testJWTSecret)
	assert.Equal(t, user.ID, accessClaims["user_id"])
	assert.Equal(t, user.Username, accessClaims["username"])
	assert.Equal(t, "access", accessClaims["type"])

	// Refresh token carries a stored token ID
	refreshClaims := parseClaims(t, pair.Refresh, testJWTSecret)
	assert.Equal(t, "refresh", refreshClaims["type"])
	tokenID, ok := refreshClaims["jti"].(string)
	assert.True(t, ok)
	storedUserID, err := tokenRepo.UserID(tokenID)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, storedUserID)
	mockRepo.AssertExpectations(t)

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByUsername", user.Username).Return(user, nil).Once()
	_, err = authService.LoginUser("testuser", "wrongpassword")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
	mockRepo.AssertExpectations(t)

	// Test invalid credentials (user not found)
	mockRepo.On("GetByUsername", "nonexistentuser").Return(nil, fmt.Errorf("user with username nonexistentuser not found")).Once()
	_, err = authService.LoginUser("nonexistentuser", "password123")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials") // Should return generic invalid credentials message
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RefreshTokens(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenRepo := repositories.NewMockRefreshTokenRepository()
	authService := services.NewAuthService(mockRepo, tokenRepo, nil, "test_jwt_secret")

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{
		ID:       "user-123",
		Username: "testuser",
		Email:    "test@example.com",
		Password: string(hashedPassword),
	}

	mockRepo.On("GetByUsername", user.Username).Return(user, nil).Once()
	pair, err := authService.LoginUser("testuser", "password123")
	assert.NoError(t, err)

	// A valid refresh token yields a fresh pair
	mockRepo.On("GetByID", user.ID).Return(user, nil).Once()
	newPair, err := authService.RefreshTokens(pair.Refresh)
	assert.NoError(t, err)
	assert.NotEmpty(t, newPair.Access)
	assert.NotEmpty(t, newPair.Refresh)
	assert.NotEqual(t, pair.Refresh, newPair.Refresh)

	// Rotation: the spent refresh token must be rejected on reuse
	_, err = authService.RefreshTokens(pair.Refresh)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "revoked or expired")

	// An access token is not accepted by the refresh endpoint
	_, err = authService.RefreshTokens(newPair.Access)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not a refresh token")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Logout(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenRepo := repositories.NewMockRefreshTokenRepository()
	authService := services.NewAuthService(mockRepo, tokenRepo, nil, "test_jwt_secret")

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{
		ID:       "user-123",
		Username: "testuser",
		Password: string(hashedPassword),
	}

	mockRepo.On("GetByUsername", user.Username).Return(user, nil).Once()
	pair, err := authService.LoginUser("testuser", "password123")
	assert.NoError(t, err)

	assert.NoError(t, authService.Logout(pair.Refresh))

	// A logged-out refresh token can no longer be exchanged
	_, err = authService.RefreshTokens(pair.Refresh)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "revoked or expired")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateAccessToken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenRepo := repositories.NewMockRefreshTokenRepository()
	testJWTSecret := "test_jwt_secret"
	authService := services.NewAuthService(mockRepo, tokenRepo, nil, testJWTSecret)

	// Generate a valid access token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  "user-123",
		"username": "testuser",
		"type":     "access",
		"exp":      jwt.TimeFunc().Add(time.Hour).Unix(),
	})
	validTokenString, _ := token.SignedString([]byte(testJWTSecret))

	// Test valid token
	claims, err := authService.ValidateAccessToken(validTokenString)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, "user-123", claims["user_id"])
	assert.Equal(t, "testuser", claims["username"])

	// Test malformed token
	_, err = authService.ValidateAccessToken("invalid.token.string")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")

	// Test expired token
	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  "user-123",
		"username": "testuser",
		"type":     "access",
		"exp":      jwt.TimeFunc().Add(-time.Hour).Unix(),
	})
	expiredTokenString, _ := expiredToken.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateAccessToken(expiredTokenString)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")

	// Test refresh token rejected on the access path
	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"type":    "refresh",
		"jti":     "some-token-id",
		"exp":     jwt.TimeFunc().Add(time.Hour).Unix(),
	})
	refreshTokenString, _ := refreshToken.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateAccessToken(refreshTokenString)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not an access token")
}

// parseClaims parses a signed JWT and returns its claims, failing the test on
// any validation error.
func parseClaims(t *testing.T, tokenString, secret string) jwt.MapClaims {
	t.Helper()
	parsedToken, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	assert.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	return claims
}
