// Package memory provides an in-memory mission store used for tests and
// ephemeral environments, and as the working set the durable stores hydrate.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"oceancurate/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.MissionStore = (*Store)(nil)

// Snapshot captures a point-in-time clone of the store state, keyed by
// mission identity key.
type Snapshot map[string]domain.Mission

// Store is an in-memory mission archive. All returned aggregates are deep
// copies, so callers may mutate them freely.
type Store struct {
	mu       sync.RWMutex
	missions map[string]domain.Mission
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{missions: make(map[string]domain.Mission)}
}

// Put stores or replaces the aggregate under its identity key.
func (s *Store) Put(_ context.Context, mission domain.Mission) error {
	key := mission.Key()
	if key == "///" {
		return errors.New("mission has no identity fields")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missions[key] = mission.Clone()
	return nil
}

// Get returns a copy of the aggregate stored under key.
func (s *Store) Get(_ context.Context, key string) (domain.Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.missions[key]
	if !ok {
		return domain.Mission{}, domain.ErrNotFound{Key: key}
	}
	return m.Clone(), nil
}

// Delete removes an aggregate, reporting whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.missions[key]; !ok {
		return false, nil
	}
	delete(s.missions, key)
	return true, nil
}

// Keys lists stored identity keys in ascending order.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.missions))
	for key := range s.missions {
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(Snapshot, len(s.missions))
	for key, m := range s.missions {
		snapshot[key] = m.Clone()
	}
	return snapshot
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missions = make(map[string]domain.Mission, len(snapshot))
	for key, m := range snapshot {
		s.missions[key] = m.Clone()
	}
}
