package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cinefila/cinefila/app/models"
)

// favoriteRepository implements the FavoriteRepository interface
type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new favorite repository instance
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

// GetListByUserID returns the user's list and its entries ordered by add time.
// Returns gorm.ErrRecordNotFound when no list exists yet.
func (r *favoriteRepository) GetListByUserID(userID uint) (*models.FavoriteList, []models.FavoriteListEntry, error) {
	var list models.FavoriteList
	if err := r.db.Where("user_id = ?", userID).First(&list).Error; err != nil {
		return nil, nil, err
	}
	var entries []models.FavoriteListEntry
	if err := r.db.Where("list_id = ?", list.ID).Order("added_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, nil, err
	}
	return &list, entries, nil
}

// CreateList creates an empty favorites list for the user. Creating a list
// that already exists returns the existing one.
func (r *favoriteRepository) CreateList(userID uint) (*models.FavoriteList, error) {
	return models.GetOrCreateFavoriteList(r.db, userID)
}

// AddEntry records a movie id in the list. Adding an id that is already
// present is a no-op (idempotent membership).
func (r *favoriteRepository) AddEntry(listID uint, movieID string) error {
	entry := models.FavoriteListEntry{ListID: listID, MovieID: movieID}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
}

// RemoveEntry removes a movie id from the list. Removing an absent id is a no-op.
func (r *favoriteRepository) RemoveEntry(listID uint, movieID string) error {
	return r.db.Where("list_id = ? AND movie_id = ?", listID, movieID).
		Delete(&models.FavoriteListEntry{}).Error
}

// CountEntries returns the total number of favorite entries across all lists
func (r *favoriteRepository) CountEntries() (int64, error) {
	var count int64
	err := r.db.Model(&models.FavoriteListEntry{}).Count(&count).Error
	return count, err
}
