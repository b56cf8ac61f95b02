package favorites

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinefila/cinefila/internal/pkg/backend"
	"github.com/cinefila/cinefila/internal/pkg/catalog"
	"github.com/cinefila/cinefila/internal/pkg/localstore"
	"github.com/cinefila/cinefila/internal/pkg/notify"
)

// fakeBackend keeps the remote registry as an in-memory id set.
type fakeBackend struct {
	mu      sync.Mutex
	exists  bool
	ids     []string
	addedAt map[string]time.Time

	getErr error
	addErr error
	onGet  func()
}

func newFakeBackend(ids ...string) *fakeBackend {
	return &fakeBackend{exists: true, ids: ids, addedAt: map[string]time.Time{}}
}

func (f *fakeBackend) GetFavorites(ctx context.Context, userID uint) (*backend.FavoritesList, error) {
	if f.onGet != nil {
		f.onGet()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if !f.exists {
		return nil, backend.ErrNotFound
	}
	list := &backend.FavoritesList{UserID: userID, MovieIDs: append([]string(nil), f.ids...)}
	for _, id := range f.ids {
		if t, ok := f.addedAt[id]; ok {
			list.Movies = append(list.Movies, backend.RemoteFavorite{MovieID: id, AddedAt: t})
		}
	}
	return list, nil
}

func (f *fakeBackend) CreateFavorites(ctx context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exists = true
	return nil
}

func (f *fakeBackend) AddFavorite(ctx context.Context, userID uint, movieID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	for _, id := range f.ids {
		if id == movieID {
			return nil
		}
	}
	f.ids = append(f.ids, movieID)
	return nil
}

func (f *fakeBackend) RemoveFavorite(ctx context.Context, userID uint, movieID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.ids[:0]
	for _, id := range f.ids {
		if id != movieID {
			kept = append(kept, id)
		}
	}
	f.ids = kept
	return nil
}

func (f *fakeBackend) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

// fakeCatalog resolves every id to a movie titled after it.
type fakeCatalog struct{}

func (fakeCatalog) Details(ctx context.Context, id int) catalog.Movie {
	return catalog.Movie{ID: id, Title: fmt.Sprintf("Movie %d", id)}
}

func newTestReconciler(be *fakeBackend) (*Reconciler, *notify.Recorder) {
	rec := &notify.Recorder{}
	r := NewReconciler(localstore.NewInMemory(), be, fakeCatalog{}, rec)
	return r, rec
}

func seedLocal(t *testing.T, r *Reconciler, profileID string, ids ...int) {
	t.Helper()
	var list []FavoriteMovie
	for _, id := range ids {
		list = append(list, FavoriteMovie{ID: id, Title: fmt.Sprintf("Movie %d", id), AddedAt: nowMillis()})
	}
	require.NoError(t, r.store.SetJSON(StorageKey(profileID), list))
}

func localIDs(r *Reconciler, profileID string) []int {
	var ids []int
	for _, m := range r.LoadLocal(profileID) {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestSyncConvergesBothDirections(t *testing.T) {
	be := newFakeBackend("2", "3")
	r, _ := newTestReconciler(be)
	r.ActivateProfile(7, "profile-a")
	seedLocal(t, r, "profile-a", 1, 2)

	require.NoError(t, r.Sync(context.Background(), 7, "profile-a"))

	assert.ElementsMatch(t, []int{1, 2, 3}, localIDs(r, "profile-a"))
	assert.ElementsMatch(t, []string{"1", "2", "3"}, be.snapshot())
}

func TestSyncCreatesMissingRemoteList(t *testing.T) {
	be := newFakeBackend()
	be.exists = false
	r, _ := newTestReconciler(be)
	r.ActivateProfile(7, "profile-a")
	seedLocal(t, r, "profile-a", 5, 9)

	require.NoError(t, r.Sync(context.Background(), 7, "profile-a"))

	assert.ElementsMatch(t, []string{"5", "9"}, be.snapshot())
	assert.ElementsMatch(t, []int{5, 9}, localIDs(r, "profile-a"))
}

func TestSyncUsesRemoteTimestampForPulls(t *testing.T) {
	stamp := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	be := newFakeBackend("4")
	be.addedAt["4"] = stamp
	r, _ := newTestReconciler(be)
	r.ActivateProfile(7, "profile-a")

	require.NoError(t, r.Sync(context.Background(), 7, "profile-a"))

	list := r.LoadLocal("profile-a")
	require.Len(t, list, 1)
	assert.Equal(t, stamp.UnixMilli(), list[0].AddedAt)
	assert.Equal(t, "Movie 4", list[0].Title)
}

func TestStaleSyncResultIsDropped(t *testing.T) {
	be := newFakeBackend("4")
	r, _ := newTestReconciler(be)
	r.ActivateProfile(7, "profile-a")

	// The user switches profiles while the fetch is in flight.
	be.onGet = func() {
		r.ActivateProfile(7, "profile-b")
	}

	require.NoError(t, r.Sync(context.Background(), 7, "profile-a"))

	// The pull for movie 4 is dropped instead of landing in either profile.
	assert.Empty(t, localIDs(r, "profile-a"))
	assert.Empty(t, localIDs(r, "profile-b"))
}

func TestAddFavoriteDuplicateNotifies(t *testing.T) {
	be := newFakeBackend()
	r, rec := newTestReconciler(be)
	r.ActivateProfile(7, "profile-a")

	assert.True(t, r.AddFavorite(FavoriteMovie{ID: 42, Title: "Cidade de Deus"}))
	assert.False(t, r.AddFavorite(FavoriteMovie{ID: 42, Title: "Cidade de Deus"}))
	r.Flush()

	events := rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, notify.KindSuccess, events[0].Kind)
	assert.Equal(t, notify.KindInfo, events[1].Kind)
	assert.Equal(t, "Já está nos favoritos", events[1].Message)

	assert.Equal(t, []int{42}, localIDs(r, "profile-a"))
	assert.Equal(t, []string{"42"}, be.snapshot())
}

func TestAddFavoritePrependsNewest(t *testing.T) {
	r, _ := newTestReconciler(newFakeBackend())
	r.ActivateProfile(7, "profile-a")

	r.AddFavorite(FavoriteMovie{ID: 1, Title: "First"})
	r.AddFavorite(FavoriteMovie{ID: 2, Title: "Second"})
	r.Flush()

	list := r.LoadLocal("profile-a")
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].ID)
	assert.Equal(t, 1, list[1].ID)
	assert.NotZero(t, list[0].AddedAt)
}

func TestAddFavoriteSurvivesRemoteFailure(t *testing.T) {
	be := newFakeBackend()
	be.addErr = fmt.Errorf("backend down")
	r, rec := newTestReconciler(be)
	r.ActivateProfile(7, "profile-a")

	assert.True(t, r.AddFavorite(FavoriteMovie{ID: 13, Title: "Bacurau"}))
	r.Flush()

	assert.Equal(t, []int{13}, localIDs(r, "profile-a"))
	assert.Empty(t, be.snapshot())

	// The local write succeeded, so the user still sees success.
	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.KindSuccess, events[0].Kind)
}

func TestRemoveFavoriteAbsentIsNoop(t *testing.T) {
	be := newFakeBackend("1")
	r, rec := newTestReconciler(be)
	r.ActivateProfile(7, "profile-a")
	seedLocal(t, r, "profile-a", 1)

	assert.True(t, r.RemoveFavorite(99))
	r.Flush()

	assert.Equal(t, []int{1}, localIDs(r, "profile-a"))
	assert.Equal(t, []string{"1"}, be.snapshot())
	assert.Empty(t, rec.Events())
}

func TestRemoveFavoritePropagates(t *testing.T) {
	be := newFakeBackend("1", "2")
	r, _ := newTestReconciler(be)
	r.ActivateProfile(7, "profile-a")
	seedLocal(t, r, "profile-a", 1, 2)

	assert.True(t, r.RemoveFavorite(1))
	r.Flush()

	assert.Equal(t, []int{2}, localIDs(r, "profile-a"))
	assert.Equal(t, []string{"2"}, be.snapshot())
}

func TestClearAllRemovesEverything(t *testing.T) {
	be := newFakeBackend("1", "2", "3")
	r, _ := newTestReconciler(be)
	r.ActivateProfile(7, "profile-a")
	seedLocal(t, r, "profile-a", 1, 2, 3)

	r.ClearAll()
	r.Flush()

	assert.Empty(t, localIDs(r, "profile-a"))
	assert.Empty(t, be.snapshot())
}

func TestIsFavorite(t *testing.T) {
	r, _ := newTestReconciler(newFakeBackend())
	r.ActivateProfile(7, "profile-a")
	seedLocal(t, r, "profile-a", 8)

	assert.True(t, r.IsFavorite(8))
	assert.False(t, r.IsFavorite(9))
}

func TestLoadLocalBackfillsTimestamps(t *testing.T) {
	r, _ := newTestReconciler(newFakeBackend())
	require.NoError(t, r.store.SetItem(StorageKey("profile-a"), []byte(`[{"id":5,"title":"Old Record"}]`)))

	list := r.LoadLocal("profile-a")
	require.Len(t, list, 1)
	assert.NotZero(t, list[0].AddedAt)

	// The backfilled value is persisted, so a reload keeps the same stamp.
	again := r.LoadLocal("profile-a")
	assert.Equal(t, list[0].AddedAt, again[0].AddedAt)
}

func TestLoadLocalCorruptDataYieldsEmpty(t *testing.T) {
	r, _ := newTestReconciler(newFakeBackend())
	require.NoError(t, r.store.SetItem(StorageKey("profile-a"), []byte("{broken")))

	assert.Empty(t, r.LoadLocal("profile-a"))
}

func TestLoadLocalNoActiveProfile(t *testing.T) {
	r, _ := newTestReconciler(newFakeBackend())
	assert.Empty(t, r.LoadLocal(""))
}
