package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cinefila/cinefila/app/repository"
	"github.com/cinefila/cinefila/internal/pkg/s3export"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// ExportProcessor builds a JSON snapshot of a user's account and uploads it
// to the export bucket. Card numbers are masked before serialization.
type ExportProcessor struct {
	repos  *repository.Repositories
	client *s3export.Client
	config *s3export.Config
}

// NewExportProcessor creates a processor bound to the given repositories and
// export storage.
func NewExportProcessor(repos *repository.Repositories, client *s3export.Client, config *s3export.Config) *ExportProcessor {
	return &ExportProcessor{
		repos:  repos,
		client: client,
		config: config,
	}
}

type exportProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

type exportCard struct {
	ID         string `json:"id"`
	HolderName string `json:"holderName"`
	Number     string `json:"number"`
	Expiry     string `json:"expiry"`
	Brand      string `json:"brand"`
}

type exportFavorite struct {
	MovieID string    `json:"movieId"`
	AddedAt time.Time `json:"addedAt"`
}

type exportSubscription struct {
	Plan         string     `json:"plan"`
	Value        int64      `json:"value"`
	Status       string     `json:"status"`
	RegisteredAt time.Time  `json:"registeredAt"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

type accountExport struct {
	ExportedAt   time.Time           `json:"exportedAt"`
	UserID       uint                `json:"userId"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Subscription *exportSubscription `json:"subscription,omitempty"`
	Profiles     []exportProfile     `json:"profiles"`
	Cards        []exportCard        `json:"cards"`
	Favorites    []exportFavorite    `json:"favorites"`
}

// Process gathers the account data for userID and uploads the snapshot.
func (p *ExportProcessor) Process(ctx context.Context, userID uint) error {
	user, err := p.repos.User.GetByID(userID)
	if err != nil {
		return fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	export := &accountExport{
		ExportedAt: time.Now().UTC(),
		UserID:     user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Profiles:   []exportProfile{},
		Cards:      []exportCard{},
		Favorites:  []exportFavorite{},
	}

	if sub, err := p.repos.Subscription.GetByUserID(userID); err == nil {
		export.Subscription = &exportSubscription{
			Plan:         sub.Plan,
			Value:        sub.Value,
			Status:       sub.Status,
			RegisteredAt: sub.RegisteredAt,
			ExpiresAt:    sub.ExpiresAt,
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	profiles, err := p.repos.Profile.GetByUserID(userID)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	for _, pr := range profiles {
		export.Profiles = append(export.Profiles, exportProfile{
			ID:        pr.ID,
			Name:      pr.Name,
			Color:     pr.Color,
			CreatedAt: pr.CreatedAt,
		})
	}

	cards, err := p.repos.Card.GetByUserID(userID)
	if err != nil {
		return fmt.Errorf("failed to load cards: %w", err)
	}
	for _, card := range cards {
		export.Cards = append(export.Cards, exportCard{
			ID:         card.ID,
			HolderName: card.HolderName,
			Number:     MaskCardNumber(card.Number),
			Expiry:     card.Expiry,
			Brand:      card.Brand,
		})
	}

	_, entries, err := p.repos.Favorite.GetListByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load favorites: %w", err)
	}
	for _, entry := range entries {
		export.Favorites = append(export.Favorites, exportFavorite{
			MovieID: entry.MovieID,
			AddedAt: entry.AddedAt,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize export: %w", err)
	}

	objectKey := p.config.ObjectKey(userID, time.Now().UTC())
	if err := p.client.UploadBytes(ctx, objectKey, data, "application/json"); err != nil {
		return err
	}

	log.Infof("Account export for user %d stored as %s", userID, objectKey)
	return nil
}

// MaskCardNumber hides all but the last four digits of a card number.
func MaskCardNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	masked := make([]byte, len(number))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(masked)-4:], number[len(number)-4:])
	return string(masked)
}
