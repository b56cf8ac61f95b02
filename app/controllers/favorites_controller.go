package controllers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cinefila/cinefila/app/models"
	"github.com/cinefila/cinefila/app/repository"
	"github.com/cinefila/cinefila/internal/pkg/metrics/counter"
)

// HandleFavoritesGet returns the user's favorites registry. A user whose
// list was never created gets a 404, which the mobile client treats as the
// signal to create it.
func HandleFavoritesGet(c *fiber.Ctx) error {
	userID, err := requireSameUser(c, "userId")
	if err != nil {
		return err
	}

	list, entries, err := repository.GetGlobalRepositories().Favorite.GetListByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "not_found", "Favorites list not found")
		}
		return internalError(c, "Failed to load favorites")
	}
	return c.JSON(favoritesResponse(list, entries))
}

// HandleFavoritesCreate creates the user's empty favorites list. Calling it
// again for an existing list returns the list unchanged.
func HandleFavoritesCreate(c *fiber.Ctx) error {
	userID, err := requireSameUser(c, "userId")
	if err != nil {
		return err
	}

	list, err := repository.GetGlobalRepositories().Favorite.CreateList(userID)
	if err != nil {
		return internalError(c, "Failed to create favorites list")
	}
	return c.Status(fiber.StatusCreated).JSON(favoritesResponse(list, nil))
}

// HandleFavoriteAdd records one catalog id in the user's list. Adding an id
// that is already present is a no-op.
func HandleFavoriteAdd(c *fiber.Ctx) error {
	userID, err := requireSameUser(c, "userId")
	if err != nil {
		return err
	}
	movieID := c.Params("movieId")
	if movieID == "" {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Missing movie id")
	}

	repo := repository.GetGlobalRepositories().Favorite
	list, _, err := repo.GetListByUserID(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return internalError(c, "Failed to load favorites")
		}
		if list, err = repo.CreateList(userID); err != nil {
			return internalError(c, "Failed to create favorites list")
		}
	}

	if err := repo.AddEntry(list.ID, movieID); err != nil {
		return internalError(c, "Failed to add favorite")
	}
	if err := counter.AddFavoriteMark(movieID); err != nil {
		log.Printf("favorite counter increment for %s failed: %v", movieID, err)
	}

	_, entries, err := repo.GetListByUserID(userID)
	if err != nil {
		return internalError(c, "Failed to load favorites")
	}
	return c.JSON(favoritesResponse(list, entries))
}

// HandleFavoriteRemove drops one catalog id from the user's list. Removing
// an absent id is a no-op success.
func HandleFavoriteRemove(c *fiber.Ctx) error {
	userID, err := requireSameUser(c, "userId")
	if err != nil {
		return err
	}
	movieID := c.Params("movieId")
	if movieID == "" {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Missing movie id")
	}

	repo := repository.GetGlobalRepositories().Favorite
	list, _, err := repo.GetListByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "not_found", "Favorites list not found")
		}
		return internalError(c, "Failed to load favorites")
	}

	if err := repo.RemoveEntry(list.ID, movieID); err != nil {
		return internalError(c, "Failed to remove favorite")
	}
	if err := counter.RemoveFavoriteMark(movieID); err != nil {
		log.Printf("favorite counter decrement for %s failed: %v", movieID, err)
	}

	_, entries, err := repo.GetListByUserID(userID)
	if err != nil {
		return internalError(c, "Failed to load favorites")
	}
	return c.JSON(favoritesResponse(list, entries))
}

// favoritesResponse keeps the legacy movieIds shape and adds the timestamped
// movies array newer clients use to preserve ordering across devices.
func favoritesResponse(list *models.FavoriteList, entries []models.FavoriteListEntry) fiber.Map {
	movieIDs := make([]string, 0, len(entries))
	movies := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		movieIDs = append(movieIDs, e.MovieID)
		movies = append(movies, fiber.Map{
			"movieId": e.MovieID,
			"addedAt": e.AddedAt.UTC().Format(time.RFC3339),
		})
	}
	return fiber.Map{
		"id":       list.ID,
		"userId":   list.UserID,
		"movieIds": movieIDs,
		"movies":   movies,
	}
}
