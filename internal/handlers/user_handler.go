package handlers

import (
	"fmt"
	"log"
	"strings"

	"hostpanel/internal/models"
	"hostpanel/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for user accounts: the annotated read
// path, profile updates, credential updates and account deletion.
type UserHandler struct {
	userService *services.UserService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the user routes with the Fiber app. All of them
// sit behind the auth middleware.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/me", h.HandleGetMe)
	userRoutes.Put("/me", h.HandleUpdateMe)
	userRoutes.Delete("/me", h.HandleDeleteMe)
	userRoutes.Put("/me/credentials", h.HandleUpdateCredentials)
	userRoutes.Get("/", h.HandleListUsers)
	userRoutes.Get("/:id", h.HandleGetUserByID)
}

// currentUserID extracts the authenticated user's ID stored by the auth
// middleware.
func currentUserID(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("no authenticated user in request context")
	}
	return userID, nil
}

// HandleGetMe returns the authenticated user's account, annotated with
// vps_count, workload and applications_deployed.
//
// @Summary Get authorized user data
// @Description Route for viewing your own information
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserAccount
// @Failure 401 {object} map[string]interface{}
// @Router /users/me [get]
func (h *UserHandler) HandleGetMe(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	account, err := h.userService.GetAccount(userID)
	if err != nil {
		log.Printf("Error getting account %s: %v", userID, err)
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve account",
			"error":   err.Error(),
		})
	}

	return c.JSON(account)
}

// HandleUpdateMe updates the authenticated user's profile data.
//
// @Summary Update authorized user data
// @Description Route for updating your profile information
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body models.Profile true "Profile data"
// @Success 200 {object} models.UserAccount
// @Failure 400 {object} map[string]interface{}
// @Router /users/me [put]
func (h *UserHandler) HandleUpdateMe(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	var profile models.Profile
	if err := c.BodyParser(&profile); err != nil {
		log.Printf("Error parsing profile update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(profile); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	account, err := h.userService.UpdateProfile(userID, &profile)
	if err != nil {
		log.Printf("Error updating profile for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update profile",
			"error":   err.Error(),
		})
	}

	return c.JSON(account)
}

// HandleDeleteMe deletes the authenticated user's account.
//
// @Summary Delete authorized user
// @Description Route for deletion of your own account from system
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /users/me [delete]
func (h *UserHandler) HandleDeleteMe(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	if err := h.userService.DeleteAccount(userID); err != nil {
		log.Printf("Error deleting account %s: %v", userID, err)
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete account",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Account deleted successfully",
	})
}

// CredentialsUpdateRequest represents the request body for changing email
// and password.
type CredentialsUpdateRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
}

// HandleUpdateCredentials changes the authenticated user's email and
// password.
//
// @Summary Authorized user credentials update
// @Description This route is only for changing authorized user email and password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param credentials body CredentialsUpdateRequest true "New credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /users/me/credentials [put]
func (h *UserHandler) HandleUpdateCredentials(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	var req CredentialsUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing credentials update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	if err := h.userService.UpdateCredentials(userID, req.CurrentPassword, req.Email, req.Password); err != nil {
		log.Printf("Error updating credentials for %s: %v", userID, err)
		if strings.Contains(err.Error(), "current password is incorrect") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Credentials update failed",
				"error":   err.Error(),
			})
		}
		if strings.Contains(err.Error(), "already registered") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Credentials update failed",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update credentials",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Credentials updated successfully",
	})
}

// HandleListUsers returns every registered user, each annotated with the
// derived resource fields.
//
// @Summary View all users
// @Description Route for viewing all users who have been registered in the system
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.UserAccount
// @Failure 401 {object} map[string]interface{}
// @Router /users [get]
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	accounts, err := h.userService.ListAccounts()
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve users",
			"error":   err.Error(),
		})
	}
	return c.JSON(accounts)
}

// HandleGetUserByID returns one registered user by ID, annotated with the
// derived resource fields.
//
// @Summary View specific user
// @Description Route for viewing specific users, via user id, who have been registered in the system
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.UserAccount
// @Failure 404 {object} map[string]interface{}
// @Router /users/{id} [get]
func (h *UserHandler) HandleGetUserByID(c *fiber.Ctx) error {
	userID := c.Params("id")
	account, err := h.userService.GetAccount(userID)
	if err != nil {
		log.Printf("Error getting user by ID %s: %v", userID, err)
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("User with ID %s not found", userID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve user",
			"error":   err.Error(),
		})
	}
	return c.JSON(account)
}
