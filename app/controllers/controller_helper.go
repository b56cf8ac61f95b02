package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/cinefila/cinefila/internal/pkg/usercontext"
)

var validate = validator.New()

// parseUserIDParam reads a numeric user id from the route params.
func parseUserIDParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid user id")
	}
	return uint(id), nil
}

// requireSameUser rejects requests targeting a different account than the
// authenticated one. Returns the id when the check passes. The returned error
// is always non-nil on rejection so callers can bail out with `return err`;
// ErrorHandler renders it with the standard JSON body.
func requireSameUser(c *fiber.Ctx, paramName string) (uint, error) {
	userID, err := parseUserIDParam(c, paramName)
	if err != nil {
		return 0, err
	}
	ctx := usercontext.GetUserContext(c)
	if !ctx.IsLoggedIn {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Missing or invalid authentication")
	}
	if ctx.UserID != userID {
		return 0, fiber.NewError(fiber.StatusForbidden, "Cannot access another user's data")
	}
	return userID, nil
}

// ErrorHandler renders errors escaping a handler with the same JSON body the
// handlers write themselves. Wired into fiber.Config by main and tests.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	return c.Status(status).JSON(fiber.Map{"error": errorCode(status), "message": err.Error()})
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "bad_request"
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusForbidden:
		return "forbidden"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusConflict:
		return "conflict"
	case fiber.StatusUnprocessableEntity:
		return "validation_failed"
	default:
		return "internal_server_error"
	}
}

// errorJSON writes the standard error body every API handler uses.
func errorJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

func internalError(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", message)
}

// validationMessage flattens the first validator error into a readable line.
func validationMessage(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		e := errs[0]
		switch e.Tag() {
		case "required":
			return e.Field() + " is required"
		case "email":
			return e.Field() + " must be a valid email address"
		case "max":
			return e.Field() + " is too long"
		case "min":
			return e.Field() + " is too short"
		}
		return e.Field() + " is invalid"
	}
	return "Invalid request body"
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// GetClientIP determines the actual client IP address considering proxies.
func GetClientIP(c *fiber.Ctx) string {
	if cfIP := strings.TrimSpace(c.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
	}
	ip := c.IP()
	if strings.HasPrefix(ip, "::ffff:") && strings.Contains(ip, ".") {
		return strings.TrimPrefix(ip, "::ffff:")
	}
	return ip
}
