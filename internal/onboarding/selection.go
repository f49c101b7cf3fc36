package onboarding

import (
	"maps"
	"slices"
)

// SelectionSet is an order-insensitive set of catalog ids with an optional
// maximum cardinality. A zero max means unbounded.
type SelectionSet struct {
	ids map[string]struct{}
	max int
}

// NewSelectionSet creates an empty set. max <= 0 leaves the set unbounded.
func NewSelectionSet(max int) *SelectionSet {
	if max < 0 {
		max = 0
	}
	return &SelectionSet{ids: make(map[string]struct{}), max: max}
}

// Toggle adds id if absent and removes it if present. Adding to a full
// bounded set is a silent no-op. It reports whether membership changed.
func (s *SelectionSet) Toggle(id string) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return true
	}
	if s.Full() {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Remove deletes id if present.
func (s *SelectionSet) Remove(id string) {
	delete(s.ids, id)
}

// Contains reports whether id is selected.
func (s *SelectionSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *SelectionSet) Len() int {
	return len(s.ids)
}

// Max returns the configured cap, 0 when unbounded.
func (s *SelectionSet) Max() int {
	return s.max
}

// Full reports whether a bounded set has reached its cap.
func (s *SelectionSet) Full() bool {
	return s.max > 0 && len(s.ids) >= s.max
}

// Values returns the selected ids in sorted order.
func (s *SelectionSet) Values() []string {
	return slices.Sorted(maps.Keys(s.ids))
}

// Clone returns an independent copy.
func (s *SelectionSet) Clone() *SelectionSet {
	return &SelectionSet{ids: maps.Clone(s.ids), max: s.max}
}

// Equal reports whether both sets hold the same ids, ignoring insertion order.
func (s *SelectionSet) Equal(other *SelectionSet) bool {
	if other == nil {
		return s.Len() == 0
	}
	if len(s.ids) != len(other.ids) {
		return false
	}
	for id := range s.ids {
		if _, ok := other.ids[id]; !ok {
			return false
		}
	}
	return true
}
