// Package traversal tracks which lookups have been claimed during a recursive
// hydration so that concurrent branches never fetch the same resource twice.
package traversal

import (
	"maps"
	"slices"
	"sync"
)

type Set struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

func NewSet() *Set {
	return &Set{claimed: map[string]struct{}{}}
}

// Claim marks key as traversed and reports true if the caller was the first to claim it
func (s *Set) Claim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.claimed[key]; ok {
		return false
	}

	s.claimed[key] = struct{}{}
	return true
}

func (s *Set) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.claimed[key]
	return ok
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.claimed)
}

// Keys returns every claimed key in sorted order
func (s *Set) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Sorted(maps.Keys(s.claimed))
}

// Reset forgets all claims
func (s *Set) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.claimed = map[string]struct{}{}
}
