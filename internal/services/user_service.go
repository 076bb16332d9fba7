package services

import (
	"fmt"
	"log"

	"hostpanel/internal/models"
	"hostpanel/internal/repositories"
	"hostpanel/pkg/rabbitmq"

	"golang.org/x/crypto/bcrypt"
)

// UserService handles business logic for the account read path (profiles
// annotated with derived resource fields) and account mutations.
type UserService struct {
	userRepo  repositories.UserRepository
	publisher EventPublisher
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository, publisher EventPublisher) *UserService {
	return &UserService{
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// GetAccount loads a user with their profile and annotates it with the
// derived fields: vps_count, workload and applications_deployed. All three
// are recomputed on every call.
func (s *UserService) GetAccount(userID string) (*models.UserAccount, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	counts, err := s.userRepo.CountResources(userID)
	if err != nil {
		return nil, err
	}

	account, err := annotate(*user, counts)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ListAccounts returns every registered user annotated with the derived
// fields, using a single batched aggregation instead of one count query per
// user.
func (s *UserService) ListAccounts() ([]models.UserAccount, error) {
	users, err := s.userRepo.GetAll()
	if err != nil {
		return nil, err
	}

	countsByUser, err := s.userRepo.CountResourcesForAll()
	if err != nil {
		return nil, err
	}

	accounts := make([]models.UserAccount, 0, len(users))
	for _, user := range users {
		// Users absent from the map have no related records at all.
		account, err := annotate(user, countsByUser[user.ID])
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

// annotate merges the aggregate counts and the workload tier into the read
// model. Counts come from COUNT queries and can never be negative; the guard
// keeps an out-of-domain value from ever reaching the classifier.
func annotate(user models.User, counts models.ResourceCounts) (*models.UserAccount, error) {
	if counts.VPS < 0 || counts.Applications < 0 {
		return nil, fmt.Errorf("invalid resource counts for user %s: vps=%d applications=%d",
			user.ID, counts.VPS, counts.Applications)
	}
	return &models.UserAccount{
		User:                 user,
		VPSCount:             counts.VPS,
		Workload:             models.ClassifyWorkload(counts.VPS),
		ApplicationsDeployed: counts.Applications,
	}, nil
}

// UpdateProfile replaces the user's profile data and returns the refreshed,
// annotated account.
func (s *UserService) UpdateProfile(userID string, profile *models.Profile) (*models.UserAccount, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if user.Profile != nil {
		profile.ID = user.Profile.ID
	}
	profile.UserID = user.ID
	user.Profile = profile

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return s.GetAccount(userID)
}

// UpdateCredentials changes the user's email and password. The current
// password must match: holding a valid access token alone is not enough to
// rotate credentials.
func (s *UserService) UpdateCredentials(userID, currentPassword, newEmail, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect")
	}

	if newEmail != user.Email {
		if existing, err := s.userRepo.GetByEmail(newEmail); err == nil && existing != nil {
			return fmt.Errorf("email '%s' already registered", newEmail)
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.Email = newEmail
	user.Password = string(hashedPassword)
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update credentials: %w", err)
	}
	return nil
}

// DeleteAccount removes the user and all their related records, then
// announces the deletion on the event queue.
func (s *UserService) DeleteAccount(userID string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(userID); err != nil {
		return err
	}

	if s.publisher != nil {
		event := rabbitmq.AccountEvent{
			Event:    "user.deleted",
			UserID:   user.ID,
			Username: user.Username,
		}
		if err := s.publisher.PublishAccountEvent(event); err != nil {
			log.Printf("Failed to publish user.deleted event for %s: %v", user.ID, err)
		}
	}
	return nil
}
