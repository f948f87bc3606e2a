// Package memory provides an in-process StateStore used in development
// and tests. It can seed itself from JSON snapshot files on disk.
package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"saldo/internal/core"
	"saldo/internal/store"
)

type entry struct {
	state    core.BudgetState
	revision int64
}

type Store struct {
	mu     sync.Mutex
	states map[string]entry
}

var (
	_ store.StateStore  = (*Store)(nil)
	_ store.GroupLister = (*Store)(nil)
)

func New() *Store {
	return &Store{states: make(map[string]entry)}
}

// NewFromFiles seeds a store from base/*.json, one snapshot per file,
// keyed by the file name without extension. Unreadable files are
// skipped; seeding is best effort.
func NewFromFiles(base string) *Store {
	s := New()
	matches, err := filepath.Glob(filepath.Join(base, "*.json"))
	if err != nil {
		return s
	}
	for _, path := range matches {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var state core.BudgetState
		if err := json.Unmarshal(raw, &state); err != nil {
			continue
		}
		key := strings.TrimSuffix(filepath.Base(path), ".json")
		s.states[key] = entry{state: store.Normalize(state), revision: 1}
	}
	return s
}

func (s *Store) LoadState(_ context.Context, key string) (core.BudgetState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.states[key]
	if !ok {
		return core.BudgetState{}, false, nil
	}
	return e.state.Clone(), true, nil
}

func (s *Store) SaveState(_ context.Context, key string, state core.BudgetState) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.states[key]
	e.state = state.Clone()
	e.revision++
	s.states[key] = e
	return e.revision, nil
}

func (s *Store) ListGroups(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.states))
	for k := range s.states {
		keys = append(keys, k)
	}
	return keys, nil
}
