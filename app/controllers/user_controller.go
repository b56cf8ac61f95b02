package controllers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cinefila/cinefila/app/models"
	"github.com/cinefila/cinefila/app/repository"
	"github.com/cinefila/cinefila/internal/pkg/database"
	"github.com/cinefila/cinefila/internal/pkg/hcaptcha"
	"github.com/cinefila/cinefila/internal/pkg/mail"
	"github.com/cinefila/cinefila/internal/pkg/statistics"
	"github.com/cinefila/cinefila/internal/pkg/usercontext"
)

type registerRequest struct {
	Name         string `json:"name" validate:"required,min=3,max=150"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	Phone        string `json:"phone" validate:"max=20"`
	CaptchaToken string `json:"captchaToken"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userUpdateRequest struct {
	Name     string `json:"name" validate:"omitempty,min=3,max=150"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

// HandleUserRegister creates a new account with its first viewing profile.
func HandleUserRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", validationMessage(err))
	}

	if hcaptcha.Enabled() {
		if ok, err := hcaptcha.Verify(req.CaptchaToken); !ok {
			log.Printf("captcha verification failed: %v", err)
			return errorJSON(c, fiber.StatusForbidden, "captcha_failed", "Captcha verification failed")
		}
	}

	repos := repository.GetGlobalRepositories()
	if existing, err := repos.User.GetByEmail(req.Email); err == nil && existing != nil {
		return errorJSON(c, fiber.StatusConflict, "conflict", "E-mail already registered")
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", "Invalid user data")
	}
	user.Phone = req.Phone
	if err := user.GenerateActivationToken(); err != nil {
		log.Printf("activation token generation failed: %v", err)
	}
	if err := repos.User.Create(user); err != nil {
		log.Printf("user create failed: %v", err)
		return internalError(c, "Failed to create user")
	}
	statistics.ResetCacheUpdateTimer()

	// Every account starts with one profile; the last one can never be
	// deleted afterwards.
	profile := &models.Profile{
		UserID: user.ID,
		Name:   firstProfileName(user.Name),
		Color:  models.ProfileColors[0],
	}
	if err := repos.Profile.Create(profile); err != nil {
		log.Printf("initial profile create failed for user %d: %v", user.ID, err)
		return internalError(c, "Failed to create initial profile")
	}

	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, user.ID)
	if err == nil {
		settings.ActiveProfileID = profile.ID
		if err := db.Save(settings).Error; err != nil {
			log.Printf("saving settings for user %d failed: %v", user.ID, err)
		}
	}

	go func() {
		if err := mail.SendWelcome(user.Email, user.Name); err != nil {
			log.Printf("welcome mail to %s failed: %v", user.Email, err)
		}
	}()

	return c.Status(fiber.StatusCreated).JSON(userResponse(user, profile.ID))
}

// HandleUserLogin verifies credentials and issues a fresh API token.
func HandleUserLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", validationMessage(err))
	}

	repos := repository.GetGlobalRepositories()
	user, err := repos.User.GetByEmail(req.Email)
	if err != nil || !user.CheckPassword(req.Password) {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthorized", "E-mail ou senha inválidos")
	}
	if !user.IsActive() {
		return errorJSON(c, fiber.StatusForbidden, "forbidden", "User inactive")
	}

	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, user.ID)
	if err != nil {
		return internalError(c, "Failed to load user settings")
	}
	token, err := settings.IssueAPIToken()
	if err != nil {
		log.Printf("token issue failed for user %d: %v", user.ID, err)
		return internalError(c, "Failed to issue API token")
	}
	if err := db.Save(settings).Error; err != nil {
		return internalError(c, "Failed to persist API token")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repos.User.Update(user); err != nil {
		log.Printf("updating last login for user %d failed: %v", user.ID, err)
	}
	log.Printf("user %d logged in from %s", user.ID, GetClientIP(c))

	return c.JSON(fiber.Map{
		"user":  userResponse(user, settings.ActiveProfileID),
		"token": token,
	})
}

// HandleUserUpdate updates account fields for the authenticated user.
func HandleUserUpdate(c *fiber.Ctx) error {
	userID, err := requireSameUser(c, "id")
	if err != nil {
		return err
	}

	var req userUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", validationMessage(err))
	}

	repos := repository.GetGlobalRepositories()
	user, err := repos.User.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		return internalError(c, "Failed to load user")
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" && req.Email != user.Email {
		if existing, err := repos.User.GetByEmail(req.Email); err == nil && existing != nil && existing.ID != user.ID {
			return errorJSON(c, fiber.StatusConflict, "conflict", "E-mail already registered")
		}
		user.Email = req.Email
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Password != "" {
		if err := user.SetPassword(req.Password); err != nil {
			return internalError(c, "Failed to update password")
		}
	}

	if err := repos.User.Update(user); err != nil {
		return internalError(c, "Failed to update user")
	}
	return c.JSON(userResponse(user, usercontext.GetUserContext(c).ActiveProfileID))
}

// HandleUserFind returns the account record for the authenticated user.
func HandleUserFind(c *fiber.Ctx) error {
	userID, err := requireSameUser(c, "id")
	if err != nil {
		return err
	}

	user, err := repository.GetGlobalRepositories().User.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		return internalError(c, "Failed to load user")
	}
	return c.JSON(userResponse(user, usercontext.GetUserContext(c).ActiveProfileID))
}

func userResponse(user *models.User, activeProfileID string) fiber.Map {
	return fiber.Map{
		"id":              user.ID,
		"name":            user.Name,
		"email":           user.Email,
		"phone":           user.Phone,
		"status":          user.Status,
		"activeProfileId": activeProfileID,
		"createdAt":       user.CreatedAt.UTC().Format(time.RFC3339),
		"lastLoginAt":     formatTimePtr(user.LastLoginAt),
	}
}

// firstProfileName derives the default profile name from the account name,
// clamped to the profile name limit.
func firstProfileName(accountName string) string {
	name := accountName
	if name == "" {
		name = "Principal"
	}
	runes := []rune(name)
	if len(runes) > 20 {
		name = string(runes[:20])
	}
	return name
}
