package favorites

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/cinefila/cinefila/internal/pkg/backend"
	"github.com/cinefila/cinefila/internal/pkg/catalog"
	"github.com/cinefila/cinefila/internal/pkg/localstore"
	"github.com/cinefila/cinefila/internal/pkg/notify"
)

// FavoriteMovie is one favorited catalog entry in a profile's local list.
// AddedAt is device-local epoch millis.
type FavoriteMovie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	VoteCount   int     `json:"vote_count,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	Popularity  float64 `json:"popularity,omitempty"`
	AddedAt     int64   `json:"added_at"`
}

// StorageKey is the local storage key for a profile's favorites list.
func StorageKey(profileID string) string {
	return "favorites_" + profileID
}

// Backend is the slice of the REST client the reconciler needs.
type Backend interface {
	GetFavorites(ctx context.Context, userID uint) (*backend.FavoritesList, error)
	CreateFavorites(ctx context.Context, userID uint) error
	AddFavorite(ctx context.Context, userID uint, movieID string) error
	RemoveFavorite(ctx context.Context, userID uint, movieID string) error
}

// Catalog resolves catalog ids to full movie records for pulls.
type Catalog interface {
	Details(ctx context.Context, id int) catalog.Movie
}

// Reconciler keeps the per-profile local favorites list eventually consistent
// with the remote per-user registry. The local store is always the
// authoritative value returned to the UI; remote divergence self-heals on the
// next sync pass.
type Reconciler struct {
	store    *localstore.Store
	backend  Backend
	catalog  Catalog
	notifier notify.Notifier

	mu        sync.Mutex
	userID    uint
	profileID string
	gen       uint64

	wg sync.WaitGroup
}

// NewReconciler wires the reconciler over its collaborators. A nil notifier
// falls back to the log sink.
func NewReconciler(store *localstore.Store, be Backend, cat Catalog, notifier notify.Notifier) *Reconciler {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Reconciler{
		store:    store,
		backend:  be,
		catalog:  cat,
		notifier: notifier,
	}
}

// ActivateProfile switches the reconciler to a profile and loads its local
// list. The generation bump invalidates any sync still in flight for the
// previous profile: its completion will be dropped instead of writing into
// the new profile's state.
func (r *Reconciler) ActivateProfile(userID uint, profileID string) []FavoriteMovie {
	r.mu.Lock()
	r.userID = userID
	r.profileID = profileID
	r.gen++
	r.mu.Unlock()
	return r.LoadLocal(profileID)
}

func (r *Reconciler) active() (uint, string, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userID, r.profileID, r.gen
}

// LoadLocal reads the profile's favorites from device storage. It never
// fails: missing or corrupt data yields an empty list, and records missing
// an added-at timestamp get backfilled with the current time.
func (r *Reconciler) LoadLocal(profileID string) []FavoriteMovie {
	if profileID == "" {
		return []FavoriteMovie{}
	}

	var list []FavoriteMovie
	if !r.store.GetJSON(StorageKey(profileID), &list) {
		return []FavoriteMovie{}
	}

	backfilled := false
	now := nowMillis()
	for i := range list {
		if list[i].AddedAt == 0 {
			list[i].AddedAt = now
			backfilled = true
		}
	}
	if backfilled {
		if err := r.store.SetJSON(StorageKey(profileID), list); err != nil {
			log.Printf("[favorites] persisting backfilled timestamps failed: %v", err)
		}
	}
	return list
}

// SyncInBackground runs one sync pass without blocking the caller. Errors
// are logged, never surfaced; the next pass heals whatever was missed.
func (r *Reconciler) SyncInBackground(ctx context.Context) {
	userID, profileID, _ := r.active()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.Sync(ctx, userID, profileID); err != nil {
			log.Printf("[favorites] background sync for profile %s failed: %v", profileID, err)
		}
	}()
}

// Sync reconciles the profile's local list against the remote registry via
// symmetric set difference: local-only ids are pushed, remote-only ids are
// pulled with full catalog metadata. Pushes and pulls run one id at a time.
func (r *Reconciler) Sync(ctx context.Context, userID uint, profileID string) error {
	if userID == 0 || profileID == "" {
		return nil
	}
	_, _, gen := r.active()

	local := r.LoadLocal(profileID)

	remote, err := r.backend.GetFavorites(ctx, userID)
	if err != nil {
		if err == backend.ErrNotFound {
			return r.createAndPushAll(ctx, userID, local)
		}
		return err
	}

	localIDs := make(map[string]bool, len(local))
	for _, m := range local {
		localIDs[movieKey(m.ID)] = true
	}
	remoteIDs := make(map[string]bool, len(remote.MovieIDs))
	remoteAddedAt := make(map[string]time.Time, len(remote.Movies))
	for _, id := range remote.MovieIDs {
		remoteIDs[id] = true
	}
	for _, entry := range remote.Movies {
		remoteIDs[entry.MovieID] = true
		remoteAddedAt[entry.MovieID] = entry.AddedAt
	}

	// Push local-only ids, one at a time. Individual failures are logged;
	// the id stays local and is retried on the next pass.
	for _, m := range local {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		id := movieKey(m.ID)
		if remoteIDs[id] {
			continue
		}
		if err := r.backend.AddFavorite(ctx, userID, id); err != nil {
			log.Printf("[favorites] push of %s failed: %v", id, err)
		}
	}

	// Pull remote-only ids with full catalog metadata.
	var pulled []FavoriteMovie
	for id := range remoteIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if localIDs[id] {
			continue
		}
		catalogID, ok := parseMovieKey(id)
		if !ok {
			log.Printf("[favorites] skipping malformed remote id %q", id)
			continue
		}
		movie := r.catalog.Details(ctx, catalogID)
		if movie.ID == 0 {
			log.Printf("[favorites] catalog lookup for %s failed, skipping pull", id)
			continue
		}
		addedAt := nowMillis()
		if t, ok := remoteAddedAt[id]; ok && !t.IsZero() {
			addedAt = t.UnixMilli()
		}
		pulled = append(pulled, FavoriteMovie{
			ID:          movie.ID,
			Title:       movie.Title,
			PosterPath:  movie.PosterPath,
			ReleaseDate: movie.ReleaseDate,
			VoteAverage: movie.VoteAverage,
			VoteCount:   movie.VoteCount,
			Overview:    movie.Overview,
			Popularity:  movie.Popularity,
			AddedAt:     addedAt,
		})
	}

	if len(pulled) == 0 {
		return nil
	}

	// Drop the completion if the profile changed while we were in flight.
	if _, _, cur := r.active(); cur != gen {
		log.Printf("[favorites] dropping stale sync result for profile %s", profileID)
		return nil
	}

	// Merge through the key lock so a concurrent add is not lost.
	return r.store.Update(StorageKey(profileID), func(current []byte) ([]byte, error) {
		var list []FavoriteMovie
		if len(current) > 0 {
			if err := json.Unmarshal(current, &list); err != nil {
				list = nil
			}
		}
		present := make(map[int]bool, len(list))
		for _, m := range list {
			present[m.ID] = true
		}
		for _, m := range pulled {
			if !present[m.ID] {
				list = append(list, m)
			}
		}
		return json.Marshal(list)
	})
}

// createAndPushAll handles the 404 path: the remote list does not exist yet,
// so it is created and every local favorite is pushed into it.
func (r *Reconciler) createAndPushAll(ctx context.Context, userID uint, local []FavoriteMovie) error {
	if err := r.backend.CreateFavorites(ctx, userID); err != nil {
		return err
	}
	for _, m := range local {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := r.backend.AddFavorite(ctx, userID, movieKey(m.ID)); err != nil {
			log.Printf("[favorites] initial push of %d failed: %v", m.ID, err)
		}
	}
	return nil
}

// AddFavorite prepends the movie to the active profile's local list and
// pushes it to the remote registry in the background. Returns false when the
// movie is already favorited.
func (r *Reconciler) AddFavorite(movie FavoriteMovie) bool {
	userID, profileID, _ := r.active()
	if profileID == "" {
		return false
	}
	if movie.AddedAt == 0 {
		movie.AddedAt = nowMillis()
	}

	duplicate := false
	err := r.store.Update(StorageKey(profileID), func(current []byte) ([]byte, error) {
		list := decodeList(current)
		for _, m := range list {
			if m.ID == movie.ID {
				duplicate = true
				return current, nil
			}
		}
		list = append([]FavoriteMovie{movie}, list...)
		return json.Marshal(list)
	})
	if err != nil {
		log.Printf("[favorites] saving favorite %d failed: %v", movie.ID, err)
		r.notifier.Error("Não foi possível salvar o favorito")
		return false
	}
	if duplicate {
		r.notifier.Info("Já está nos favoritos")
		return false
	}

	r.notifier.Success("Adicionado aos favoritos")

	// Push is best-effort: failures are logged, not surfaced, not retried.
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.backend.AddFavorite(context.Background(), userID, movieKey(movie.ID)); err != nil {
			log.Printf("[favorites] remote add of %d failed: %v", movie.ID, err)
		}
	}()
	return true
}

// RemoveFavorite removes the movie from the active profile's local list and
// requests remote removal in the background. Removing an id that is not in
// the list is a no-op returning true.
func (r *Reconciler) RemoveFavorite(catalogID int) bool {
	userID, profileID, _ := r.active()
	if profileID == "" {
		return false
	}

	removed := false
	err := r.store.Update(StorageKey(profileID), func(current []byte) ([]byte, error) {
		list := decodeList(current)
		kept := list[:0]
		for _, m := range list {
			if m.ID == catalogID {
				removed = true
				continue
			}
			kept = append(kept, m)
		}
		return json.Marshal(kept)
	})
	if err != nil {
		log.Printf("[favorites] removing favorite %d failed: %v", catalogID, err)
		r.notifier.Error("Não foi possível remover o favorito")
		return false
	}
	if !removed {
		return true
	}

	r.notifier.Success("Removido dos favoritos")

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.backend.RemoveFavorite(context.Background(), userID, movieKey(catalogID)); err != nil {
			log.Printf("[favorites] remote remove of %d failed: %v", catalogID, err)
		}
	}()
	return true
}

// ClearAll empties the active profile's local list, then issues one remote
// removal per previously-held id, sequentially, each independently
// best-effort.
func (r *Reconciler) ClearAll() {
	userID, profileID, _ := r.active()
	if profileID == "" {
		return
	}

	var previous []FavoriteMovie
	err := r.store.Update(StorageKey(profileID), func(current []byte) ([]byte, error) {
		previous = decodeList(current)
		return json.Marshal([]FavoriteMovie{})
	})
	if err != nil {
		log.Printf("[favorites] clearing favorites failed: %v", err)
		r.notifier.Error("Não foi possível limpar os favoritos")
		return
	}

	r.notifier.Success("Favoritos limpos")

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for _, m := range previous {
			if err := r.backend.RemoveFavorite(context.Background(), userID, movieKey(m.ID)); err != nil {
				log.Printf("[favorites] remote remove of %d failed: %v", m.ID, err)
			}
		}
	}()
}

// IsFavorite reports whether the movie is in the active profile's list.
func (r *Reconciler) IsFavorite(catalogID int) bool {
	_, profileID, _ := r.active()
	for _, m := range r.LoadLocal(profileID) {
		if m.ID == catalogID {
			return true
		}
	}
	return false
}

// Flush waits for all in-flight background pushes to finish. Called on
// shutdown and in tests.
func (r *Reconciler) Flush() {
	r.wg.Wait()
}

func decodeList(data []byte) []FavoriteMovie {
	if len(data) == 0 {
		return nil
	}
	var list []FavoriteMovie
	if err := json.Unmarshal(data, &list); err != nil {
		log.Printf("[favorites] corrupt local list, treating as empty: %v", err)
		return nil
	}
	return list
}

// Remote registries key movies by their string catalog id.
func movieKey(id int) string {
	return strconv.Itoa(id)
}

func parseMovieKey(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
