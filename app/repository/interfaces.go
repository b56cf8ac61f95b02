package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/cinefila/cinefila/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPITokenHash(hash string) (*models.User, *models.UserSettings, error)
	Update(user *models.User) error
	Delete(id uint) error
	Count() (int64, error)
}

// ProfileRepository defines the interface for viewing-profile operations
type ProfileRepository interface {
	Create(profile *models.Profile) error
	GetByID(id string) (*models.Profile, error)
	GetByUserID(userID uint) ([]models.Profile, error)
	Update(profile *models.Profile) error
	Delete(id string) error
	CountByUserID(userID uint) (int64, error)
	NameExists(userID uint, name string, exceptID string) (bool, error)
	ColorExists(userID uint, color string, exceptID string) (bool, error)
	// RemoveExcess removes up to n profiles and returns them. Ordering is
	// deterministic: newest-created-first by default so the oldest profiles
	// (including the primary one) always survive a plan downgrade.
	RemoveExcess(userID uint, n int, newestFirst bool) ([]models.Profile, error)
	Count() (int64, error)
}

// SubscriptionRepository defines the interface for subscription operations
type SubscriptionRepository interface {
	GetByUserID(userID uint) (*models.Subscription, error)
	Upsert(sub *models.Subscription) error
	Cancel(userID uint, at time.Time) (*models.Subscription, error)
}

// CardRepository defines the interface for payment-card operations
type CardRepository interface {
	Create(card *models.Card) error
	GetByID(id string) (*models.Card, error)
	GetByUserID(userID uint) ([]models.Card, error)
	Update(card *models.Card) error
	Delete(id string) error
}

// FavoriteRepository defines the interface for the remote favorites registry
type FavoriteRepository interface {
	GetListByUserID(userID uint) (*models.FavoriteList, []models.FavoriteListEntry, error)
	CreateList(userID uint) (*models.FavoriteList, error)
	AddEntry(listID uint, movieID string) error
	RemoveEntry(listID uint, movieID string) error
	CountEntries() (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Profile      ProfileRepository
	Subscription SubscriptionRepository
	Card         CardRepository
	Favorite     FavoriteRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Profile:      NewProfileRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Card:         NewCardRepository(db),
		Favorite:     NewFavoriteRepository(db),
	}
}
