// Package history keeps the most-recently-used list of network endpoints
// the user has successfully connected to.
package history

import (
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/device"
	"github.com/yadavnikhil03/scrcpy-gui/internal/store"
)

// Capacity is the maximum number of remembered endpoints.
const Capacity = 10

// Store is the MRU endpoint list. Every mutation is persisted immediately.
type Store struct {
	mu      sync.RWMutex
	entries []string
	kv      store.Store
	logger  *zap.Logger
}

// New creates an empty history bound to kv.
func New(kv store.Store, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger}
}

// Load replaces the in-memory list with the persisted one. Malformed state
// leaves the list empty.
func (s *Store) Load() error {
	raw, ok := s.kv.Get(store.KeyHistory)
	if !ok || raw == "" {
		return nil
	}

	var entries []string
	if err := sonic.UnmarshalString(raw, &entries); err != nil {
		s.logger.Warn("discarding unreadable history", zap.Error(err))
		return fmt.Errorf("failed to parse history: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = normalize(entries)
	return nil
}

// Add moves endpoint to the front. Non host:port values are ignored.
func (s *Store) Add(endpoint string) error {
	if !device.IsEndpoint(endpoint) {
		return nil
	}

	s.mu.Lock()
	next := make([]string, 0, Capacity)
	next = append(next, endpoint)
	for _, e := range s.entries {
		if e != endpoint && len(next) < Capacity {
			next = append(next, e)
		}
	}
	s.entries = next
	snapshot := append([]string(nil), next...)
	s.mu.Unlock()

	return s.persist(snapshot)
}

// Clear forgets every endpoint.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()

	if err := s.kv.Delete(store.KeyHistory); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// List returns the endpoints, most recent first.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.entries...)
}

// Latest returns the most recently added endpoint.
func (s *Store) Latest() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return "", false
	}
	return s.entries[0], true
}

func (s *Store) persist(entries []string) error {
	raw, err := sonic.MarshalString(entries)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := s.kv.Set(store.KeyHistory, raw); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}

// normalize drops invalid and duplicate entries and enforces Capacity, so
// a hand-edited state file cannot break the invariants.
func normalize(entries []string) []string {
	seen := make(map[string]bool, len(entries))
	out := make([]string, 0, Capacity)
	for _, e := range entries {
		if !device.IsEndpoint(e) || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
		if len(out) == Capacity {
			break
		}
	}
	return out
}
