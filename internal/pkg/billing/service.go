package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/cinefila/cinefila/app/models"
	"github.com/cinefila/cinefila/app/repository"
	"github.com/cinefila/cinefila/internal/pkg/cache"
	"github.com/cinefila/cinefila/internal/pkg/entitlements"
)

// ProfileRosterCacheKey is the cache key holding a user's profile roster.
func ProfileRosterCacheKey(userID uint) string {
	return fmt.Sprintf("profiles:user:%d", userID)
}

// Service provides subscription lifecycle operations and profile-limit
// reconciliation. Every plan change runs an enforcement pass.
type Service struct {
	subs     repository.SubscriptionRepository
	profiles repository.ProfileRepository

	// RemoveNewestFirst selects which profiles are deleted on downgrade.
	// Newest-first keeps the oldest (primary) profiles alive.
	RemoveNewestFirst bool
}

// NewService creates a billing service from injected repositories.
func NewService(subs repository.SubscriptionRepository, profiles repository.ProfileRepository) *Service {
	return &Service{subs: subs, profiles: profiles, RemoveNewestFirst: true}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	repos := repository.NewRepositories(db)
	return NewService(repos.Subscription, repos.Profile)
}

// GetSubscription returns the user's subscription. Users without a row get a
// synthetic inactive "none" subscription rather than an error.
func (s *Service) GetSubscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	_ = ctx
	if userID == 0 {
		return nil, errors.New("user_id is required")
	}
	sub, err := s.subs.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Subscription{
				UserID: userID,
				Plan:   string(entitlements.PlanNone),
				Status: models.SubscriptionStatusCanceled,
			}, nil
		}
		return nil, err
	}
	return sub, nil
}

// Subscribe creates or replaces the user's subscription with the given plan
// and runs a profile-limit enforcement pass.
func (s *Service) Subscribe(ctx context.Context, userID uint, plan string) (*SubscriptionChange, error) {
	if userID == 0 {
		return nil, errors.New("user_id is required")
	}

	p := entitlements.Normalize(plan)
	sub := &models.Subscription{
		UserID:       userID,
		Plan:         string(p),
		Value:        entitlements.MonthlyValue(p),
		Status:       models.SubscriptionStatusActive,
		RegisteredAt: time.Now(),
	}
	if p == entitlements.PlanNone {
		sub.Status = models.SubscriptionStatusCanceled
	}
	if err := s.subs.Upsert(sub); err != nil {
		return nil, err
	}

	return s.changeWithEnforcement(ctx, userID, sub), nil
}

// ChangePlan updates the plan on an existing subscription. Missing rows are
// created, matching the client's retry-after-failure behavior.
func (s *Service) ChangePlan(ctx context.Context, userID uint, plan string) (*SubscriptionChange, error) {
	return s.Subscribe(ctx, userID, plan)
}

// Cancel marks the subscription canceled, downgrades the plan to none and
// runs enforcement against the reduced ceiling.
func (s *Service) Cancel(ctx context.Context, userID uint) (*SubscriptionChange, error) {
	if userID == 0 {
		return nil, errors.New("user_id is required")
	}
	sub, err := s.subs.Cancel(userID, time.Now())
	if err != nil {
		return nil, err
	}
	return s.changeWithEnforcement(ctx, userID, sub), nil
}

// changeWithEnforcement runs enforcement after a subscription mutation.
// Enforcement failures are logged and swallowed: the plan change stands.
func (s *Service) changeWithEnforcement(ctx context.Context, userID uint, sub *models.Subscription) *SubscriptionChange {
	change := &SubscriptionChange{Subscription: sub}
	result, err := s.EnforceProfileLimits(ctx, userID)
	if err != nil {
		log.Printf("[billing] profile-limit enforcement failed for user %d: %v", userID, err)
		return change
	}
	change.Enforcement = result
	return change
}

// EffectivePlan resolves the plan currently entitling the user.
func (s *Service) EffectivePlan(ctx context.Context, userID uint) (entitlements.Plan, error) {
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		return entitlements.PlanNone, err
	}
	if !sub.IsActive() || !isEntitlingStatus(sub.Status) {
		return entitlements.PlanNone, nil
	}
	return entitlements.Normalize(sub.Plan), nil
}

// GetProfileLimits returns the client-facing limits view for a user.
func (s *Service) GetProfileLimits(ctx context.Context, userID uint) (*ProfileLimits, error) {
	plan, err := s.EffectivePlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.profiles.CountByUserID(userID)
	if err != nil {
		return nil, err
	}
	max := entitlements.MaxProfiles(plan)
	return &ProfileLimits{
		CurrentProfiles: int(count),
		MaxProfiles:     max,
		CanCreateMore:   int(count) < max,
		Plan:            string(plan),
	}, nil
}

// EnforceProfileLimits removes profiles exceeding the plan ceiling and
// returns the removed set plus the remaining roster. Selection is
// deterministic (newest-created-first by default). The last remaining
// profile is never removed since every plan allows at least one.
func (s *Service) EnforceProfileLimits(ctx context.Context, userID uint) (*EnforcementResult, error) {
	plan, err := s.EffectivePlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	max := entitlements.MaxProfiles(plan)

	count, err := s.profiles.CountByUserID(userID)
	if err != nil {
		return nil, err
	}

	var removed []models.Profile
	if excess := int(count) - max; excess > 0 {
		removed, err = s.profiles.RemoveExcess(userID, excess, s.RemoveNewestFirst)
		if err != nil {
			return nil, err
		}
		// Roster changed under the cache.
		if err := cache.Delete(ProfileRosterCacheKey(userID)); err != nil {
			log.Printf("[billing] failed to invalidate profile roster cache for user %d: %v", userID, err)
		}
	}

	roster, err := s.profiles.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	if removed == nil {
		removed = []models.Profile{}
	}
	return &EnforcementResult{
		Plan:            string(plan),
		MaxProfiles:     max,
		RemovedProfiles: removed,
		Profiles:        roster,
	}, nil
}
