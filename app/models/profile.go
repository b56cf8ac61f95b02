package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileColors is the fixed palette a viewing profile may use.
var ProfileColors = []string{
	"#E50914", // red
	"#1CE783", // green
	"#00A8E1", // blue
	"#F5C518", // yellow
	"#8B5CF6", // purple
	"#FF6B35", // orange
}

// Profile is a named, colored viewing profile inside one user account.
type Profile struct {
	ID        string         `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	Name      string         `gorm:"type:varchar(20);not null" json:"name" validate:"required,min=1,max=20"`
	Color     string         `gorm:"type:varchar(7);not null" json:"color" validate:"required"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID when none was provided.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Profile) Validate() error {
	v := validator.New()
	if err := v.Struct(p); err != nil {
		return err
	}
	if !IsAllowedProfileColor(p.Color) {
		return ErrColorNotInPalette
	}
	return nil
}

// IsAllowedProfileColor reports whether color belongs to the fixed palette.
func IsAllowedProfileColor(color string) bool {
	for _, c := range ProfileColors {
		if c == color {
			return true
		}
	}
	return false
}
