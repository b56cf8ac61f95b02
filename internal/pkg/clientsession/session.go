package clientsession

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cinefila/cinefila/internal/pkg/localstore"
)

const (
	keyUser          = "@user"
	keyPendingChange = "@pendingChange"
	keySearchHistory = "@search_history"
	keyLoggedIn      = "@isLoggedIn"

	searchHistoryLimit = 10
)

// User is the serialized session object kept under the @user key.
type User struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Token           string `json:"token,omitempty"`
	Plan            string `json:"plan,omitempty"`
	ActiveProfileID string `json:"activeProfileId,omitempty"`
}

// PendingChange is a subscription-plan change recorded while offline or
// mid-checkout, applied on the next profile load.
type PendingChange struct {
	Plan string `json:"plan"`
}

// SearchEntry is one recorded catalog search.
type SearchEntry struct {
	Query     string `json:"query"`
	Timestamp int64  `json:"timestamp"`
}

// Session is the explicit session-context object. Every mutation persists
// immediately; there is no implicit middleware between the struct and the
// device store.
type Session struct {
	store *localstore.Store

	mu   sync.Mutex
	user *User
}

// New loads the persisted session, if any, from the device store.
func New(store *localstore.Store) *Session {
	s := &Session{store: store}
	var u User
	if store.GetJSON(keyUser, &u) && u.ID != 0 {
		s.user = &u
	}
	return s
}

// Current returns the logged-in user, or false when no session exists.
func (s *Session) Current() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// SetUser replaces the session user and persists it, along with the legacy
// logged-in flag older app versions read at boot.
func (s *Session) SetUser(u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SetJSON(keyUser, u); err != nil {
		return err
	}
	if err := s.store.SetItem(keyLoggedIn, []byte("true")); err != nil {
		log.Printf("[session] writing legacy login flag failed: %v", err)
	}
	s.user = &u
	return nil
}

// Clear ends the session and wipes the persisted user.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.RemoveItem(keyUser); err != nil {
		return err
	}
	if err := s.store.SetItem(keyLoggedIn, []byte("false")); err != nil {
		log.Printf("[session] writing legacy login flag failed: %v", err)
	}
	s.user = nil
	return nil
}

// IsLoggedIn reports the legacy boolean-as-string flag. New code should use
// Current; this exists for the older boot flow.
func (s *Session) IsLoggedIn() bool {
	v, err := s.store.GetItem(keyLoggedIn)
	if err != nil || v == nil {
		return false
	}
	return string(v) == "true"
}

// ActiveProfileID returns the active profile id, empty when none is set.
func (s *Session) ActiveProfileID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.user.ActiveProfileID
}

// SetActiveProfile records the active profile and persists the session.
func (s *Session) SetActiveProfile(profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	s.user.ActiveProfileID = profileID
	return s.store.SetJSON(keyUser, *s.user)
}

// EnsureActiveProfile validates the active profile id against the user's
// current roster. When the active profile no longer exists, for instance
// after a downgrade deleted it, the first remaining profile becomes active
// and the correction is persisted. Returns the effective active id.
func (s *Session) EnsureActiveProfile(existing []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || len(existing) == 0 {
		return "", nil
	}
	for _, id := range existing {
		if id == s.user.ActiveProfileID {
			return id, nil
		}
	}
	s.user.ActiveProfileID = existing[0]
	if err := s.store.SetJSON(keyUser, *s.user); err != nil {
		return "", err
	}
	return existing[0], nil
}

// SetPendingPlanChange records a plan change to be applied on the next
// profile load.
func (s *Session) SetPendingPlanChange(plan string) error {
	return s.store.SetJSON(keyPendingChange, PendingChange{Plan: plan})
}

// ConsumePendingPlanChange returns and clears the pending plan change.
// Called during profile load; returns false when nothing is pending.
func (s *Session) ConsumePendingPlanChange() (PendingChange, bool) {
	var pc PendingChange
	if !s.store.GetJSON(keyPendingChange, &pc) || pc.Plan == "" {
		return PendingChange{}, false
	}
	if err := s.store.RemoveItem(keyPendingChange); err != nil {
		log.Printf("[session] clearing pending change failed: %v", err)
	}
	return pc, true
}

// RecordSearch prepends the query to the search history. Duplicate queries
// move to the front instead of repeating, and the history keeps at most the
// ten most recent entries.
func (s *Session) RecordSearch(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	entry := SearchEntry{Query: query, Timestamp: time.Now().UnixMilli()}
	return s.store.Update(keySearchHistory, func(current []byte) ([]byte, error) {
		history := decodeHistory(current)
		kept := make([]SearchEntry, 0, len(history)+1)
		kept = append(kept, entry)
		for _, e := range history {
			if strings.EqualFold(e.Query, query) {
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) > searchHistoryLimit {
			kept = kept[:searchHistoryLimit]
		}
		return encodeHistory(kept)
	})
}

// SearchHistory returns the recorded searches, most recent first.
func (s *Session) SearchHistory() []SearchEntry {
	var history []SearchEntry
	if !s.store.GetJSON(keySearchHistory, &history) {
		return []SearchEntry{}
	}
	return history
}

// ClearSearchHistory wipes the recorded searches.
func (s *Session) ClearSearchHistory() error {
	return s.store.RemoveItem(keySearchHistory)
}

func decodeHistory(data []byte) []SearchEntry {
	if len(data) == 0 {
		return nil
	}
	var history []SearchEntry
	if err := json.Unmarshal(data, &history); err != nil {
		log.Printf("[session] corrupt search history, starting fresh: %v", err)
		return nil
	}
	return history
}

func encodeHistory(history []SearchEntry) ([]byte, error) {
	return json.Marshal(history)
}
