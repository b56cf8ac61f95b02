package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cinefila/cinefila/app/models"
	"github.com/cinefila/cinefila/app/repository"
	"github.com/cinefila/cinefila/internal/pkg/usercontext"
)

type cardRequest struct {
	UserID     uint   `json:"userId" validate:"required"`
	HolderName string `json:"holderName" validate:"required,min=3,max=150"`
	Number     string `json:"number" validate:"required,min=13,max=19"`
	Expiry     string `json:"expiry" validate:"required,len=5"`
	CVV        string `json:"cvv" validate:"required,min=3,max=4"`
}

// HandleCardCreate registers a payment card for the authenticated user.
func HandleCardCreate(c *fiber.Ctx) error {
	var req cardRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", validationMessage(err))
	}
	if usercontext.GetUserID(c) != req.UserID {
		return errorJSON(c, fiber.StatusForbidden, "forbidden", "Cannot register cards for another user")
	}

	card := &models.Card{
		UserID:     req.UserID,
		HolderName: strings.TrimSpace(req.HolderName),
		Number:     strings.ReplaceAll(req.Number, " ", ""),
		Expiry:     req.Expiry,
		CVV:        req.CVV,
		Brand:      detectBrand(req.Number),
	}
	if err := card.Validate(); err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", "Invalid card data")
	}
	if err := repository.GetGlobalRepositories().Card.Create(card); err != nil {
		return internalError(c, "Failed to save card")
	}
	return c.Status(fiber.StatusCreated).JSON(card)
}

// HandleCardUpdate edits a stored card.
func HandleCardUpdate(c *fiber.Ctx) error {
	cardID := c.Params("id")
	repo := repository.GetGlobalRepositories().Card
	card, err := repo.GetByID(cardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "not_found", "Card not found")
		}
		return internalError(c, "Failed to load card")
	}
	if card.UserID != usercontext.GetUserID(c) {
		return errorJSON(c, fiber.StatusForbidden, "forbidden", "Cannot edit another user's card")
	}

	var req cardRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.HolderName != "" {
		card.HolderName = strings.TrimSpace(req.HolderName)
	}
	if req.Number != "" {
		card.Number = strings.ReplaceAll(req.Number, " ", "")
		card.Brand = detectBrand(req.Number)
	}
	if req.Expiry != "" {
		card.Expiry = req.Expiry
	}
	if req.CVV != "" {
		card.CVV = req.CVV
	}
	if err := card.Validate(); err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", "Invalid card data")
	}

	if err := repo.Update(card); err != nil {
		return internalError(c, "Failed to update card")
	}
	return c.JSON(card)
}

// HandleCardDelete removes a stored card.
func HandleCardDelete(c *fiber.Ctx) error {
	cardID := c.Params("id")
	repo := repository.GetGlobalRepositories().Card
	card, err := repo.GetByID(cardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "not_found", "Card not found")
		}
		return internalError(c, "Failed to load card")
	}
	if card.UserID != usercontext.GetUserID(c) {
		return errorJSON(c, fiber.StatusForbidden, "forbidden", "Cannot delete another user's card")
	}

	if err := repo.Delete(card.ID); err != nil {
		return internalError(c, "Failed to delete card")
	}
	return c.JSON(fiber.Map{"deleted": card.ID})
}

// HandleCardList returns the user's stored cards.
func HandleCardList(c *fiber.Ctx) error {
	userID, err := requireSameUser(c, "userId")
	if err != nil {
		return err
	}
	cards, err := repository.GetGlobalRepositories().Card.GetByUserID(userID)
	if err != nil {
		return internalError(c, "Failed to load cards")
	}
	return c.JSON(cards)
}

// detectBrand guesses the card brand from the leading digits. Unknown
// prefixes come back empty, the brand column is informational only.
func detectBrand(number string) string {
	number = strings.ReplaceAll(number, " ", "")
	switch {
	case strings.HasPrefix(number, "4"):
		return "visa"
	case hasPrefixInRange(number, 51, 55) || hasPrefixInRange(number, 2221, 2720):
		return "mastercard"
	case strings.HasPrefix(number, "34") || strings.HasPrefix(number, "37"):
		return "amex"
	case strings.HasPrefix(number, "6011") || strings.HasPrefix(number, "65"):
		return "discover"
	case strings.HasPrefix(number, "4011") || strings.HasPrefix(number, "438935") || strings.HasPrefix(number, "636368"):
		return "elo"
	default:
		return ""
	}
}

func hasPrefixInRange(number string, lo, hi int) bool {
	width := len(strconv.Itoa(lo))
	if len(number) < width {
		return false
	}
	prefix := 0
	for i := 0; i < width; i++ {
		d := number[i]
		if d < '0' || d > '9' {
			return false
		}
		prefix = prefix*10 + int(d-'0')
	}
	return prefix >= lo && prefix <= hi
}
