package models

import (
	"time"

	"gorm.io/gorm"
)

// FavoriteList is the remote per-user favorites registry. At most one list
// exists per user; it is created lazily on first sync and never deleted.
type FavoriteList struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FavoriteListEntry is one favorited catalog id inside a list. The per-entry
// timestamp lets clients restore original ordering when pulling.
type FavoriteListEntry struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	ListID  uint      `gorm:"not null;index;uniqueIndex:ux_favorite_entries_list_movie,priority:1" json:"list_id"`
	MovieID string    `gorm:"type:varchar(20);not null;uniqueIndex:ux_favorite_entries_list_movie,priority:2" json:"movie_id"`
	AddedAt time.Time `gorm:"autoCreateTime" json:"added_at"`
}

// GetOrCreateFavoriteList returns the user's list, creating it when absent.
func GetOrCreateFavoriteList(db *gorm.DB, userID uint) (*FavoriteList, error) {
	var list FavoriteList
	if err := db.Where("user_id = ?", userID).First(&list).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			list = FavoriteList{UserID: userID}
			if err := db.Create(&list).Error; err != nil {
				return nil, err
			}
			return &list, nil
		}
		return nil, err
	}
	return &list, nil
}
