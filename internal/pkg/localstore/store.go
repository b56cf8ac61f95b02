package localstore

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// Store is a JSON key/value store over a filesystem, standing in for the
// device-local storage of the mobile client. Each key maps to one file.
//
// Mutations on a key are serialized through a per-key lock so concurrent
// read-modify-write cycles (a rapid add racing a background sync pull)
// cannot lose updates.
type Store struct {
	fs  afero.Fs
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a store rooted at dir on the given filesystem.
func New(fs afero.Fs, dir string) *Store {
	return &Store{
		fs:    fs,
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}
}

// NewInMemory creates a store backed by an in-memory filesystem.
func NewInMemory() *Store {
	return New(afero.NewMemMapFs(), "")
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// GetItem returns the raw value for key, or nil when the key is absent.
func (s *Store) GetItem(key string) ([]byte, error) {
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()
	return s.readLocked(key)
}

func (s *Store) readLocked(key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// SetItem writes the raw value for key.
func (s *Store) SetItem(key string, value []byte) error {
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()
	return s.writeLocked(key, value)
}

func (s *Store) writeLocked(key string, value []byte) error {
	if s.dir != "" {
		if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
			return err
		}
	}
	return afero.WriteFile(s.fs, s.path(key), value, 0o644)
}

// RemoveItem deletes the key. Removing an absent key is a no-op.
func (s *Store) RemoveItem(key string) error {
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()
	err := s.fs.Remove(s.path(key))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// GetJSON deserializes the value at key into v. It reports whether a usable
// value was present: missing keys and corrupt payloads both yield false, the
// latter with a log line, so callers always start from empty state.
func (s *Store) GetJSON(key string, v interface{}) bool {
	data, err := s.GetItem(key)
	if err != nil {
		log.Printf("[localstore] read %s failed: %v", key, err)
		return false
	}
	if len(data) == 0 {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("[localstore] corrupt value at %s, treating as empty: %v", key, err)
		return false
	}
	return true
}

// SetJSON serializes v and stores it at key.
func (s *Store) SetJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.SetItem(key, data)
}

// Update applies fn to the current value of key and writes the result back,
// holding the key lock across the whole read-modify-write cycle.
func (s *Store) Update(key string, fn func(current []byte) ([]byte, error)) error {
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()

	current, err := s.readLocked(key)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	return s.writeLocked(key, next)
}
