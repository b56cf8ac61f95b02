package repository

import (
	"gorm.io/gorm"

	"github.com/cinefila/cinefila/app/models"
)

// cardRepository implements the CardRepository interface
type cardRepository struct {
	db *gorm.DB
}

// NewCardRepository creates a new card repository instance
func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepository{db: db}
}

// Create creates a new card in the database
func (r *cardRepository) Create(card *models.Card) error {
	return r.db.Create(card).Error
}

// GetByID retrieves a card by its ID
func (r *cardRepository) GetByID(id string) (*models.Card, error) {
	var card models.Card
	err := r.db.Where("id = ?", id).First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// GetByUserID retrieves all cards belonging to a user
func (r *cardRepository) GetByUserID(userID uint) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&cards).Error
	return cards, err
}

// Update updates an existing card in the database
func (r *cardRepository) Update(card *models.Card) error {
	return r.db.Save(card).Error
}

// Delete soft deletes a card by its ID
func (r *cardRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Card{}).Error
}
