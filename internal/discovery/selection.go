package discovery

import (
	"sync"

	"github.com/cinescout/cinescout/internal/catalog"
)

// SelectionCapacity is the maximum number of movies a session may hold
// selected at once.
const SelectionCapacity = 10

// SelectionSet is a capacity-bounded, insertion-ordered set of selected
// movies, keyed by identity key.
type SelectionSet struct {
	mu    sync.RWMutex
	items []catalog.MovieItem
	keys  map[string]struct{}
}

// NewSelectionSet creates an empty selection set.
func NewSelectionSet() *SelectionSet {
	return &SelectionSet{
		keys: make(map[string]struct{}),
	}
}

// Toggle inserts the item if absent and removes it if present. Removal
// always succeeds; insertion is rejected when the set is already at
// capacity, leaving the set unchanged and returning false.
func (s *SelectionSet) Toggle(item catalog.MovieItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := item.Key()
	if _, ok := s.keys[key]; ok {
		delete(s.keys, key)
		for i := range s.items {
			if s.items[i].Key() == key {
				s.items = append(s.items[:i], s.items[i+1:]...)
				break
			}
		}
		return true
	}

	if len(s.items) >= SelectionCapacity {
		return false
	}

	s.keys[key] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// Clear empties the set unconditionally.
func (s *SelectionSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.keys = make(map[string]struct{})
}

// Contains reports whether an item with the given identity key is selected.
func (s *SelectionSet) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok
}

// Items returns the selected movies in insertion order.
func (s *SelectionSet) Items() []catalog.MovieItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.MovieItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of selected movies.
func (s *SelectionSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
