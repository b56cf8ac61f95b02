package billing

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cinefila/cinefila/app/models"
)

type fakeSubscriptionRepo struct {
	sub *models.Subscription
}

func (f *fakeSubscriptionRepo) GetByUserID(userID uint) (*models.Subscription, error) {
	if f.sub == nil || f.sub.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return f.sub, nil
}

func (f *fakeSubscriptionRepo) Upsert(sub *models.Subscription) error {
	f.sub = sub
	return nil
}

func (f *fakeSubscriptionRepo) Cancel(userID uint, at time.Time) (*models.Subscription, error) {
	if f.sub == nil || f.sub.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	f.sub.Plan = "none"
	f.sub.Value = 0
	f.sub.Status = models.SubscriptionStatusCanceled
	f.sub.ExpiresAt = &at
	return f.sub, nil
}

type fakeProfileRepo struct {
	profiles []models.Profile
	nextID   int
}

func (f *fakeProfileRepo) Create(p *models.Profile) error {
	f.nextID++
	if p.ID == "" {
		p.ID = fmt.Sprintf("profile-%d", f.nextID)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().Add(time.Duration(f.nextID) * time.Second)
	}
	f.profiles = append(f.profiles, *p)
	return nil
}

func (f *fakeProfileRepo) GetByID(id string) (*models.Profile, error) {
	for i := range f.profiles {
		if f.profiles[i].ID == id {
			return &f.profiles[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProfileRepo) GetByUserID(userID uint) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range f.profiles {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeProfileRepo) Update(p *models.Profile) error { return nil }

func (f *fakeProfileRepo) Delete(id string) error {
	for i := range f.profiles {
		if f.profiles[i].ID == id {
			f.profiles = append(f.profiles[:i], f.profiles[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeProfileRepo) CountByUserID(userID uint) (int64, error) {
	var n int64
	for _, p := range f.profiles {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeProfileRepo) NameExists(userID uint, name string, exceptID string) (bool, error) {
	for _, p := range f.profiles {
		if p.UserID == userID && p.Name == name && p.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProfileRepo) ColorExists(userID uint, color string, exceptID string) (bool, error) {
	for _, p := range f.profiles {
		if p.UserID == userID && p.Color == color && p.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProfileRepo) RemoveExcess(userID uint, n int, newestFirst bool) ([]models.Profile, error) {
	roster, _ := f.GetByUserID(userID)
	if newestFirst {
		sort.Slice(roster, func(i, j int) bool { return roster[i].CreatedAt.After(roster[j].CreatedAt) })
	}
	if n > len(roster) {
		n = len(roster)
	}
	victims := roster[:n]
	for _, v := range victims {
		_ = f.Delete(v.ID)
	}
	return victims, nil
}

func (f *fakeProfileRepo) Count() (int64, error) {
	return int64(len(f.profiles)), nil
}

func newTestService(t *testing.T, profileCount int, plan string) (*Service, *fakeSubscriptionRepo, *fakeProfileRepo) {
	t.Helper()
	subs := &fakeSubscriptionRepo{}
	if plan != "" {
		subs.sub = &models.Subscription{
			UserID:       1,
			Plan:         plan,
			Status:       models.SubscriptionStatusActive,
			RegisteredAt: time.Now(),
		}
	}
	profiles := &fakeProfileRepo{}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < profileCount; i++ {
		profiles.profiles = append(profiles.profiles, models.Profile{
			ID:        fmt.Sprintf("profile-%d", i+1),
			UserID:    1,
			Name:      fmt.Sprintf("Perfil %d", i+1),
			Color:     models.ProfileColors[i%len(models.ProfileColors)],
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return NewService(subs, profiles), subs, profiles
}

func TestEnforceRemovesExcessOnDowngrade(t *testing.T) {
	// maxProfiles=1 (plan none) with 3 existing profiles: exactly 2 removed.
	svc, _, profiles := newTestService(t, 3, "")

	result, err := svc.EnforceProfileLimits(context.Background(), 1)
	require.NoError(t, err)

	assert.Len(t, result.RemovedProfiles, 2)
	assert.Len(t, result.Profiles, 1)
	assert.Equal(t, 1, result.MaxProfiles)

	// Oldest profile survives.
	assert.Equal(t, "profile-1", result.Profiles[0].ID)

	count, _ := profiles.CountByUserID(1)
	assert.EqualValues(t, 1, count)
}

func TestEnforceNoopWithinLimit(t *testing.T) {
	svc, _, _ := newTestService(t, 2, "intermediary")

	result, err := svc.EnforceProfileLimits(context.Background(), 1)
	require.NoError(t, err)

	assert.Empty(t, result.RemovedProfiles)
	assert.Len(t, result.Profiles, 2)
	assert.Equal(t, 3, result.MaxProfiles)
}

func TestEnforceNeverRemovesLastProfile(t *testing.T) {
	svc, _, _ := newTestService(t, 1, "")

	result, err := svc.EnforceProfileLimits(context.Background(), 1)
	require.NoError(t, err)

	assert.Empty(t, result.RemovedProfiles)
	assert.Len(t, result.Profiles, 1)
}

func TestSubscribeRunsEnforcement(t *testing.T) {
	svc, subs, _ := newTestService(t, 3, "complete")

	change, err := svc.Subscribe(context.Background(), 1, "basic")
	require.NoError(t, err)

	assert.Equal(t, "basic", subs.sub.Plan)
	require.NotNil(t, change.Enforcement)
	assert.Len(t, change.Enforcement.RemovedProfiles, 1)
	assert.Len(t, change.Enforcement.Profiles, 2)
}

func TestCancelDowngradesToNone(t *testing.T) {
	svc, subs, _ := newTestService(t, 2, "basic")

	change, err := svc.Cancel(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "none", subs.sub.Plan)
	assert.Equal(t, models.SubscriptionStatusCanceled, subs.sub.Status)
	require.NotNil(t, change.Enforcement)
	assert.Len(t, change.Enforcement.RemovedProfiles, 1)
}

func TestGetSubscriptionSynthesizesNone(t *testing.T) {
	svc, _, _ := newTestService(t, 1, "")

	sub, err := svc.GetSubscription(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "none", sub.Plan)
	assert.False(t, sub.IsActive())
}

func TestGetProfileLimits(t *testing.T) {
	svc, _, _ := newTestService(t, 2, "basic")

	limits, err := svc.GetProfileLimits(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 2, limits.CurrentProfiles)
	assert.Equal(t, 2, limits.MaxProfiles)
	assert.False(t, limits.CanCreateMore)
	assert.Equal(t, "basic", limits.Plan)
}

func TestUpgradeNeverCreatesProfiles(t *testing.T) {
	svc, _, profiles := newTestService(t, 1, "basic")

	change, err := svc.ChangePlan(context.Background(), 1, "complete")
	require.NoError(t, err)

	require.NotNil(t, change.Enforcement)
	assert.Empty(t, change.Enforcement.RemovedProfiles)
	count, _ := profiles.CountByUserID(1)
	assert.EqualValues(t, 1, count)
}
