package controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cinefila/cinefila/app/models"
	"github.com/cinefila/cinefila/app/repository"
	"github.com/cinefila/cinefila/internal/pkg/billing"
	"github.com/cinefila/cinefila/internal/pkg/cache"
	"github.com/cinefila/cinefila/internal/pkg/usercontext"
)

type profileRequest struct {
	UserID uint   `json:"userId" validate:"required"`
	Name   string `json:"name" validate:"required,min=1,max=20"`
	Color  string `json:"color" validate:"required"`
}

type profileUpdateRequest struct {
	Name  string `json:"name" validate:"omitempty,min=1,max=20"`
	Color string `json:"color" validate:"omitempty"`
}

// ProfileController carries the billing service so limit checks and
// enforcement share one plan resolution path.
type ProfileController struct {
	billing *billing.Service
}

func NewProfileController(svc *billing.Service) *ProfileController {
	return &ProfileController{billing: svc}
}

// HandleList returns the user's profile roster, oldest first.
func (pc *ProfileController) HandleList(c *fiber.Ctx) error {
	userID, err := requireSameUser(c, "userId")
	if err != nil {
		return err
	}
	profiles, err := repository.GetGlobalRepositories().Profile.GetByUserID(userID)
	if err != nil {
		return internalError(c, "Failed to load profiles")
	}
	return c.JSON(profiles)
}

// HandleLimits reports the plan ceiling and how much of it is used.
func (pc *ProfileController) HandleLimits(c *fiber.Ctx) error {
	userID, err := requireSameUser(c, "userId")
	if err != nil {
		return err
	}
	limits, err := pc.billing.GetProfileLimits(c.Context(), userID)
	if err != nil {
		return internalError(c, "Failed to compute profile limits")
	}
	return c.JSON(limits)
}

// HandleCreate creates a profile after checking the plan ceiling, the name
// uniqueness rule and the color palette. All business-rule rejections happen
// before any write.
func (pc *ProfileController) HandleCreate(c *fiber.Ctx) error {
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", validationMessage(err))
	}
	ctx := usercontext.GetUserContext(c)
	if ctx.UserID != req.UserID {
		return errorJSON(c, fiber.StatusForbidden, "forbidden", "Cannot create profiles for another user")
	}

	limits, err := pc.billing.GetProfileLimits(c.Context(), req.UserID)
	if err != nil {
		return internalError(c, "Failed to compute profile limits")
	}
	if !limits.CanCreateMore {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "limit_reached", "Limite de perfis do plano atingido")
	}

	repo := repository.GetGlobalRepositories().Profile
	if taken, err := repo.NameExists(req.UserID, req.Name, ""); err != nil {
		return internalError(c, "Failed to check profile name")
	} else if taken {
		return errorJSON(c, fiber.StatusConflict, "conflict", "Nome de perfil em uso")
	}

	color := req.Color
	if !models.IsAllowedProfileColor(color) {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", "Cor fora da paleta permitida")
	}
	// Colors should be unique per user when possible; pick a free one when
	// the requested color is taken and the palette still has room.
	if taken, err := repo.ColorExists(req.UserID, color, ""); err == nil && taken {
		if free := pc.freeColor(req.UserID); free != "" {
			color = free
		}
	}

	profile := &models.Profile{UserID: req.UserID, Name: strings.TrimSpace(req.Name), Color: color}
	if err := profile.Validate(); err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", "Invalid profile data")
	}
	if err := repo.Create(profile); err != nil {
		return internalError(c, "Failed to create profile")
	}
	pc.invalidateRoster(req.UserID)
	return c.Status(fiber.StatusCreated).JSON(profile)
}

// HandleUpdate edits a profile's name or color.
func (pc *ProfileController) HandleUpdate(c *fiber.Ctx) error {
	profileID := c.Params("id")
	var req profileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", validationMessage(err))
	}

	repo := repository.GetGlobalRepositories().Profile
	profile, err := repo.GetByID(profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "not_found", "Profile not found")
		}
		return internalError(c, "Failed to load profile")
	}
	if profile.UserID != usercontext.GetUserID(c) {
		return errorJSON(c, fiber.StatusForbidden, "forbidden", "Cannot edit another user's profile")
	}

	if req.Name != "" && req.Name != profile.Name {
		if taken, err := repo.NameExists(profile.UserID, req.Name, profile.ID); err != nil {
			return internalError(c, "Failed to check profile name")
		} else if taken {
			return errorJSON(c, fiber.StatusConflict, "conflict", "Nome de perfil em uso")
		}
		profile.Name = strings.TrimSpace(req.Name)
	}
	if req.Color != "" {
		if !models.IsAllowedProfileColor(req.Color) {
			return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", "Cor fora da paleta permitida")
		}
		profile.Color = req.Color
	}

	if err := repo.Update(profile); err != nil {
		return internalError(c, "Failed to update profile")
	}
	pc.invalidateRoster(profile.UserID)
	return c.JSON(profile)
}

// HandleDelete removes a profile. Deleting the last remaining profile is
// rejected before touching the database row.
func (pc *ProfileController) HandleDelete(c *fiber.Ctx) error {
	profileID := c.Params("id")
	repo := repository.GetGlobalRepositories().Profile
	profile, err := repo.GetByID(profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "not_found", "Profile not found")
		}
		return internalError(c, "Failed to load profile")
	}
	if profile.UserID != usercontext.GetUserID(c) {
		return errorJSON(c, fiber.StatusForbidden, "forbidden", "Cannot delete another user's profile")
	}

	count, err := repo.CountByUserID(profile.UserID)
	if err != nil {
		return internalError(c, "Failed to count profiles")
	}
	if count <= 1 {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "last_profile", "Não é possível excluir o último perfil")
	}

	if err := repo.Delete(profile.ID); err != nil {
		return internalError(c, "Failed to delete profile")
	}
	pc.invalidateRoster(profile.UserID)
	return c.JSON(fiber.Map{"deleted": profile.ID})
}

// HandleEnforceLimits runs the plan-ceiling enforcement and reports which
// profiles were removed.
func (pc *ProfileController) HandleEnforceLimits(c *fiber.Ctx) error {
	userID, err := requireSameUser(c, "userId")
	if err != nil {
		return err
	}
	result, err := pc.billing.EnforceProfileLimits(c.Context(), userID)
	if err != nil {
		return internalError(c, "Failed to enforce profile limits")
	}
	return c.JSON(result)
}

func (pc *ProfileController) invalidateRoster(userID uint) {
	if err := cache.Delete(billing.ProfileRosterCacheKey(userID)); err != nil {
		log.Printf("roster cache invalidation for user %d failed: %v", userID, err)
	}
}

// freeColor returns a palette color no existing profile of the user holds,
// or empty when the palette is exhausted.
func (pc *ProfileController) freeColor(userID uint) string {
	repo := repository.GetGlobalRepositories().Profile
	for _, color := range models.ProfileColors {
		taken, err := repo.ColorExists(userID, color, "")
		if err != nil {
			return ""
		}
		if !taken {
			return color
		}
	}
	return ""
}
