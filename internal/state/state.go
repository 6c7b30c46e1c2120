// Package state remembers where the reader stopped in each book.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	stateFileName = "reading_positions.json"
	hashBytes     = 8192 // First 8KB for content hash
)

// ReadingState stores position for a single file
type ReadingState struct {
	Location  int       `json:"location"` // byte offset into the book's UTF-8 text
	Chapter   string    `json:"chapter,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store manages persistent reading state
type Store struct {
	path string
	data map[string]ReadingState
	mu   sync.RWMutex
}

// NewStore creates or loads state from XDG_STATE_HOME/prr/
func NewStore() (*Store, error) {
	return Open(Dir())
}

// Open creates or loads the state kept in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	store := &Store{
		path: filepath.Join(dir, stateFileName),
		data: make(map[string]ReadingState),
	}
	if err := store.load(); err != nil {
		// Non-fatal - start with empty state
		store.data = make(map[string]ReadingState)
	}
	return store, nil
}

// Dir returns XDG_STATE_HOME/prr or ~/.local/state/prr
func Dir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "prr")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "prr")
}

// Path returns the file the store is saved to.
func (s *Store) Path() string { return s.path }

// ComputeHash generates content hash for file identity
func ComputeHash(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, hashBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}

	hash := sha256.Sum256(buf[:n])
	return hex.EncodeToString(hash[:16]), nil // First 16 bytes = 32 hex chars
}

// Get returns the saved state for a book and whether there was one.
func (s *Store) Get(hash string) (ReadingState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[hash]
	return st, ok
}

// Location returns the saved location for a book, or 0 if not found
func (s *Store) Location(hash string) int {
	st, _ := s.Get(hash)
	return st.Location
}

// Set saves the location reached in a book.
func (s *Store) Set(hash string, location int, chapter string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[hash] = ReadingState{Location: location, Chapter: chapter, UpdatedAt: time.Now().UTC()}
	return s.save()
}

// Clear removes saved position for file
func (s *Store) Clear(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, hash)
	return s.save()
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.data)
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
