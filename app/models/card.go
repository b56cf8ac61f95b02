package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Card is a payment card registered by a user. Fields are stored as received
// from the client; there is no tokenization layer in front of this table.
type Card struct {
	ID         string         `gorm:"type:char(36);primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	User       User           `gorm:"foreignKey:UserID" json:"-"`
	HolderName string         `gorm:"type:varchar(150);not null" json:"holder_name" validate:"required,min=3,max=150"`
	Number     string         `gorm:"type:varchar(19);not null" json:"number" validate:"required,min=13,max=19"`
	Expiry     string         `gorm:"type:varchar(5);not null" json:"expiry" validate:"required,len=5"`
	CVV        string         `gorm:"type:varchar(4);not null" json:"cvv" validate:"required,min=3,max=4"`
	Brand      string         `gorm:"type:varchar(20)" json:"brand"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID when none was provided.
func (c *Card) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *Card) Validate() error {
	v := validator.New()

	return v.Struct(c)
}
