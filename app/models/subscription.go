package models

import "time"

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusExpired  = "expired"
)

// Subscription is the plan assignment determining a user's profile-count
// ceiling and catalog access tier. At most one row per user.
type Subscription struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	User         User       `gorm:"foreignKey:UserID" json:"-"`
	Plan         string     `gorm:"type:varchar(50);not null;default:'none';index" json:"plan"`
	Value        int64      `gorm:"not null;default:0" json:"value"`
	Status       string     `gorm:"type:varchar(32);not null;default:'active'" json:"status"`
	RegisteredAt time.Time  `gorm:"type:timestamp" json:"registered_at"`
	ExpiresAt    *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActive reports whether the subscription currently entitles the user.
func (s *Subscription) IsActive() bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	if s.ExpiresAt != nil && s.ExpiresAt.Before(time.Now()) {
		return false
	}
	return true
}
