package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/cinefila/cinefila/internal/pkg/billing"
	"github.com/cinefila/cinefila/internal/pkg/entitlements"
)

type subscriptionRequest struct {
	Plan string `json:"plan" validate:"required"`
}

// AccountExporter enqueues an account-data snapshot job. Wired to the job
// queue in main; nil disables the export on cancel.
type AccountExporter interface {
	EnqueueAccountExport(userID uint) error
}

// SubscriptionController fronts the billing service for the REST surface.
// Every plan change response carries the enforcement outcome so the client
// can show which profiles were removed.
type SubscriptionController struct {
	billing  *billing.Service
	exporter AccountExporter
}

func NewSubscriptionController(svc *billing.Service, exporter AccountExporter) *SubscriptionController {
	return &SubscriptionController{billing: svc, exporter: exporter}
}

// HandleGet returns the user's subscription. Users without one get a
// synthetic free-tier row instead of a 404.
func (sc *SubscriptionController) HandleGet(c *fiber.Ctx) error {
	userID, err := requireSameUser(c, "userId")
	if err != nil {
		return err
	}
	sub, err := sc.billing.GetSubscription(c.Context(), userID)
	if err != nil {
		return internalError(c, "Failed to load subscription")
	}
	return c.JSON(sub)
}

// HandleCreate subscribes the user to a plan.
func (sc *SubscriptionController) HandleCreate(c *fiber.Ctx) error {
	return sc.applyPlanChange(c, false)
}

// HandleUpdate changes the user's plan. Downgrades may remove profiles; the
// removed set comes back in the enforcement field.
func (sc *SubscriptionController) HandleUpdate(c *fiber.Ctx) error {
	return sc.applyPlanChange(c, true)
}

func (sc *SubscriptionController) applyPlanChange(c *fiber.Ctx, isUpdate bool) error {
	userID, err := requireSameUser(c, "userId")
	if err != nil {
		return err
	}

	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", validationMessage(err))
	}
	if !entitlements.IsKnownPlan(req.Plan) {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", "Plano desconhecido")
	}

	var change *billing.SubscriptionChange
	if isUpdate {
		change, err = sc.billing.ChangePlan(c.Context(), userID, req.Plan)
	} else {
		change, err = sc.billing.Subscribe(c.Context(), userID, req.Plan)
	}
	if err != nil {
		return internalError(c, "Failed to change subscription")
	}

	status := fiber.StatusOK
	if !isUpdate {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(change)
}

// HandleCancel cancels the subscription, dropping the user to the free tier
// and running enforcement. An account-data snapshot is enqueued so the user
// keeps a copy of their profiles and favorites.
func (sc *SubscriptionController) HandleCancel(c *fiber.Ctx) error {
	userID, err := requireSameUser(c, "userId")
	if err != nil {
		return err
	}

	change, err := sc.billing.Cancel(c.Context(), userID)
	if err != nil {
		return internalError(c, "Failed to cancel subscription")
	}

	if sc.exporter != nil {
		if err := sc.exporter.EnqueueAccountExport(userID); err != nil {
			log.Printf("account export enqueue for user %d failed: %v", userID, err)
		}
	}

	return c.JSON(change)
}
