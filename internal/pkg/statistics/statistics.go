package statistics

import (
	"log"
	"sync"
	"time"

	"github.com/cinefila/cinefila/app/models"
	"github.com/cinefila/cinefila/internal/pkg/cache"
	"github.com/cinefila/cinefila/internal/pkg/database"
)

const (
	CacheKeyUsersTotal     = "statistics:users:total"
	CacheKeyUsersToday     = "statistics:users:today"
	CacheKeyProfilesTotal  = "statistics:profiles:total"
	CacheKeyFavoritesTotal = "statistics:favorites:total"
	CacheExpiration        = 30 * time.Minute
)

// StatisticsData holds the service totals shown on the ops endpoint
type StatisticsData struct {
	TotalUsers     int
	TodayUsers     int
	TotalProfiles  int
	TotalFavorites int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached totals are older than the
// refresh interval.
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cached totals when they are stale.
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("statistics cache refresh failed: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next UpdateCacheIfNeeded call to refresh.
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache recomputes all totals from the database and stores
// them in the cache.
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting users: %v", err)
		return err
	}

	var todayUsers int64
	todayStart := time.Now().Truncate(24 * time.Hour)
	todayEnd := todayStart.Add(24 * time.Hour)
	if err := db.Model(&models.User{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todayUsers).Error; err != nil {
		log.Printf("Error counting today's users: %v", err)
		return err
	}

	var totalProfiles int64
	if err := db.Model(&models.Profile{}).Count(&totalProfiles).Error; err != nil {
		log.Printf("Error counting profiles: %v", err)
		return err
	}

	var totalFavorites int64
	if err := db.Model(&models.FavoriteListEntry{}).Count(&totalFavorites).Error; err != nil {
		log.Printf("Error counting favorites: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyUsersTotal, int(totalUsers), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyUsersToday, int(todayUsers), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyProfilesTotal, int(totalProfiles), CacheExpiration); err != nil {
		return err
	}
	return cache.Set(CacheKeyFavoritesTotal, int(totalFavorites), CacheExpiration)
}

// GetStatistics returns the cached totals, falling back to a synchronous
// recount when the cache is cold.
func GetStatistics() StatisticsData {
	data, ok := readCachedStatistics()
	if ok {
		return data
	}

	if err := UpdateStatisticsCache(); err != nil {
		log.Printf("statistics recount failed: %v", err)
		return StatisticsData{}
	}
	data, _ = readCachedStatistics()
	return data
}

func readCachedStatistics() (StatisticsData, bool) {
	totalUsers, err := cache.GetInt(CacheKeyUsersTotal)
	if err != nil {
		return StatisticsData{}, false
	}
	todayUsers, err := cache.GetInt(CacheKeyUsersToday)
	if err != nil {
		return StatisticsData{}, false
	}
	totalProfiles, err := cache.GetInt(CacheKeyProfilesTotal)
	if err != nil {
		return StatisticsData{}, false
	}
	totalFavorites, err := cache.GetInt(CacheKeyFavoritesTotal)
	if err != nil {
		return StatisticsData{}, false
	}
	return StatisticsData{
		TotalUsers:     totalUsers,
		TodayUsers:     todayUsers,
		TotalProfiles:  totalProfiles,
		TotalFavorites: totalFavorites,
	}, true
}
