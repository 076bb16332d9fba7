package repositories

import "hostpanel/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	GetAll() ([]models.User, error)
	Update(user *models.User) error
	Delete(id string) error

	// CountResources returns the aggregates the read path annotates a single
	// user with: the number of VPS records and the number of distinct
	// deployed applications.
	CountResources(userID string) (models.ResourceCounts, error)
	// CountResourcesForAll returns the same aggregates for every user in one
	// pass, keyed by user ID. Users with no related records are absent from
	// the map and must be treated as having zero counts.
	CountResourcesForAll() (map[string]models.ResourceCounts, error)
}
