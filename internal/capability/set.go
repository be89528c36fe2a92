package capability

import (
	"errors"
	"fmt"
	"sync"
)

// ErrFrozen is returned when adding to a set whose probe phase has
// completed.
var ErrFrozen = errors.New("capability set is frozen")

// Set is an ordered collection of Descriptors with a two-phase
// lifecycle: append-only until Freeze is called, read-only afterward.
// Insertion order is preserved; earlier entries take priority when more
// than one descriptor matches a tag.
type Set struct {
	mu      sync.RWMutex
	entries []Descriptor
	frozen  bool
}

// Add appends a descriptor. It fails if the set is frozen or if a
// descriptor with the same tag is already present.
func (s *Set) Add(d Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return fmt.Errorf("cannot add %q: %w", d.Tag, ErrFrozen)
	}
	if d.Family == FamilyUnknown {
		return fmt.Errorf("descriptor %q has no family", d.Tag)
	}
	for _, e := range s.entries {
		if e.Tag == d.Tag {
			return fmt.Errorf("descriptor %q already present", d.Tag)
		}
	}
	s.entries = append(s.entries, d)
	return nil
}

// Freeze ends the probe phase. After Freeze the set is immutable.
func (s *Set) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
}

// Frozen reports whether the probe phase has completed.
func (s *Set) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

// List returns a copy of the descriptors in insertion order.
func (s *Set) List() []Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Descriptor, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of descriptors in the set.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Find returns the first descriptor with the given tag.
func (s *Set) Find(tag string) (Descriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.Tag == tag {
			return e, true
		}
	}
	return Descriptor{}, false
}

// Covers reports whether the set can read the input tag and produce the
// output tag.
func (s *Set) Covers(inTag, outTag string) bool {
	in, ok := s.Find(inTag)
	if !ok || !in.From {
		return false
	}
	out, ok := s.Find(outTag)
	return ok && out.To
}
