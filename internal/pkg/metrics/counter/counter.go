package counter

import (
	"context"
	"sort"
	"strconv"

	"github.com/cinefila/cinefila/internal/pkg/cache"
)

const favoriteMarksKey = "movie:counters:favorites"

// MovieCount pairs a catalog id with how many users currently favorite it.
type MovieCount struct {
	MovieID string `json:"movieId"`
	Count   int64  `json:"count"`
}

// AddFavoriteMark increments the favorite counter for a movie in Redis.
func AddFavoriteMark(movieID string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, favoriteMarksKey, movieID, 1).Err()
}

// RemoveFavoriteMark decrements the favorite counter for a movie. Counters
// that reach zero are dropped from the hash.
func RemoveFavoriteMark(movieID string) error {
	ctx := context.Background()
	rdb := cache.GetClient()
	val, err := rdb.HIncrBy(ctx, favoriteMarksKey, movieID, -1).Result()
	if err != nil {
		return err
	}
	if val <= 0 {
		return rdb.HDel(ctx, favoriteMarksKey, movieID).Err()
	}
	return nil
}

// TopFavorited returns the n most-favorited catalog ids, highest count
// first, with the id as tiebreak for stable output.
func TopFavorited(n int) ([]MovieCount, error) {
	ctx := context.Background()
	data, err := cache.GetClient().HGetAll(ctx, favoriteMarksKey).Result()
	if err != nil {
		return nil, err
	}

	counts := make([]MovieCount, 0, len(data))
	for id, raw := range data {
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || count <= 0 {
			continue
		}
		counts = append(counts, MovieCount{MovieID: id, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].MovieID < counts[j].MovieID
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts, nil
}
