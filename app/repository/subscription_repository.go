package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cinefila/cinefila/app/models"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetByUserID retrieves the user's subscription row
func (r *subscriptionRepository) GetByUserID(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Upsert creates or replaces the user's subscription row (one per user).
func (r *subscriptionRepository) Upsert(sub *models.Subscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan", "value", "status", "registered_at", "expires_at", "updated_at",
		}),
	}).Create(sub).Error
}

// Cancel marks the user's subscription canceled and downgrades the plan to none.
func (r *subscriptionRepository) Cancel(userID uint, at time.Time) (*models.Subscription, error) {
	sub, err := r.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	sub.Plan = "none"
	sub.Value = 0
	sub.Status = models.SubscriptionStatusCanceled
	sub.ExpiresAt = &at
	if err := r.db.Save(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}
