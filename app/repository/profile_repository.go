package repository

import (
	"gorm.io/gorm"

	"github.com/cinefila/cinefila/app/models"
)

// profileRepository implements the ProfileRepository interface
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository instance
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Create creates a new profile in the database
func (r *profileRepository) Create(profile *models.Profile) error {
	return r.db.Create(profile).Error
}

// GetByID retrieves a profile by its ID
func (r *profileRepository) GetByID(id string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Where("id = ?", id).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByUserID retrieves all profiles for a user ordered by creation time
func (r *profileRepository) GetByUserID(userID uint) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&profiles).Error
	return profiles, err
}

// Update updates an existing profile in the database
func (r *profileRepository) Update(profile *models.Profile) error {
	return r.db.Save(profile).Error
}

// Delete soft deletes a profile by its ID
func (r *profileRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Profile{}).Error
}

// CountByUserID returns the number of profiles belonging to a user
func (r *profileRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Profile{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// NameExists reports whether a profile name is already taken for the user.
// exceptID excludes one profile from the check (used on rename).
func (r *profileRepository) NameExists(userID uint, name string, exceptID string) (bool, error) {
	var count int64
	query := r.db.Model(&models.Profile{}).Where("user_id = ? AND name = ?", userID, name)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// ColorExists reports whether a palette color is already used by the user.
func (r *profileRepository) ColorExists(userID uint, color string, exceptID string) (bool, error) {
	var count int64
	query := r.db.Model(&models.Profile{}).Where("user_id = ? AND color = ?", userID, color)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// RemoveExcess removes up to n profiles and returns them. With newestFirst
// the most recently created profiles go first, so older profiles always
// survive a plan downgrade.
func (r *profileRepository) RemoveExcess(userID uint, n int, newestFirst bool) ([]models.Profile, error) {
	if n <= 0 {
		return nil, nil
	}
	order := "created_at DESC, id DESC"
	if !newestFirst {
		order = "created_at ASC, id ASC"
	}
	var victims []models.Profile
	err := r.db.Where("user_id = ?", userID).
		Order(order).
		Limit(n).
		Find(&victims).Error
	if err != nil {
		return nil, err
	}
	for _, p := range victims {
		if err := r.db.Where("id = ?", p.ID).Delete(&models.Profile{}).Error; err != nil {
			return nil, err
		}
	}
	return victims, nil
}

// Count returns the total number of profiles
func (r *profileRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Profile{}).Count(&count).Error
	return count, err
}
