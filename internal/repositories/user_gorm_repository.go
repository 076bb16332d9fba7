package repositories

import (
	"fmt"

	"hostpanel/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user (and their profile, if attached) in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Profile != nil && user.Profile.ID == "" {
		user.Profile.ID = uuid.New().String()
	}
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "username = ?", username).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user with username %s not found", username)
		}
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user with email %s not found", email)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID, with the profile preloaded.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Profile").First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// GetAll retrieves every registered user, with profiles preloaded.
func (r *GORMUserRepository) GetAll() ([]models.User, error) {
	var users []models.User
	if err := r.db.Preload("Profile").Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update saves the user's current field values, including the profile.
func (r *GORMUserRepository) Update(user *models.User) error {
	if user.Profile != nil {
		if user.Profile.ID == "" {
			user.Profile.ID = uuid.New().String()
		}
		user.Profile.UserID = user.ID
	}
	if err := r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user %s: %w", user.ID, err)
	}
	return nil
}

// Delete removes a user and, via the FK cascade, their profile, VPS and
// application records.
func (r *GORMUserRepository) Delete(id string) error {
	result := r.db.Unscoped().Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s not found", id)
	}
	// sqlite in tests does not always enforce the cascade, so sweep the
	// related rows explicitly; on postgres these are no-ops.
	if err := r.db.Unscoped().Delete(&models.Profile{}, "user_id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete profile for user %s: %w", id, err)
	}
	if err := r.db.Unscoped().Delete(&models.VPS{}, "user_id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete vps records for user %s: %w", id, err)
	}
	if err := r.db.Unscoped().Delete(&models.Application{}, "user_id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete applications for user %s: %w", id, err)
	}
	return nil
}

// CountResources counts a single user's VPS records and distinct deployed
// applications. This is the Go side of what the read path used to be a pair
// of conditional aggregate expressions in SQL.
func (r *GORMUserRepository) CountResources(userID string) (models.ResourceCounts, error) {
	var counts models.ResourceCounts
	if err := r.db.Model(&models.VPS{}).Where("user_id = ?", userID).Count(&counts.VPS).Error; err != nil {
		return counts, fmt.Errorf("failed to count vps for user %s: %w", userID, err)
	}
	if err := r.db.Model(&models.Application{}).Where("user_id = ?", userID).
		Distinct("id").Count(&counts.Applications).Error; err != nil {
		return counts, fmt.Errorf("failed to count applications for user %s: %w", userID, err)
	}
	return counts, nil
}

// userAggregate receives one row of a grouped count query.
type userAggregate struct {
	UserID string
	N      int64
}

// CountResourcesForAll aggregates VPS and application counts for every user
// in two grouped queries, so the listing endpoint does not fan out one query
// per user.
func (r *GORMUserRepository) CountResourcesForAll() (map[string]models.ResourceCounts, error) {
	byUser := make(map[string]models.ResourceCounts)

	var vpsRows []userAggregate
	if err := r.db.Model(&models.VPS{}).
		Select("user_id, count(*) as n").
		Group("user_id").
		Scan(&vpsRows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate vps counts: %w", err)
	}
	for _, row := range vpsRows {
		counts := byUser[row.UserID]
		counts.VPS = row.N
		byUser[row.UserID] = counts
	}

	var appRows []userAggregate
	if err := r.db.Model(&models.Application{}).
		Select("user_id, count(distinct id) as n").
		Group("user_id").
		Scan(&appRows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate application counts: %w", err)
	}
	for _, row := range appRows {
		counts := byUser[row.UserID]
		counts.Applications = row.N
		byUser[row.UserID] = counts
	}

	return byUser, nil
}
