// Package selection keeps the games a user picked and the tuning attached to
// each pick. It is the only source of truth for what is selected; filtered
// views of the catalog read from it and never write to it.
package selection

import (
	"iter"
	"slices"
)

// Entry is one selected game. DisplayName is copied at selection time so the
// entry still renders after the catalog is replaced.
type Entry struct {
	ItemID      int64
	DisplayName string
	Tuning      Tuning
}

// Toggled reports what a Toggle call did.
type Toggled int

const (
	Deselected Toggled = iota
	Selected
)

func (t Toggled) String() string {
	if t == Selected {
		return "selected"
	}
	return "deselected"
}

// Store maps item IDs to entries and remembers insertion order for display.
// It is not safe for concurrent use; the owning session serializes access.
type Store struct {
	entries map[int64]*Entry
	order   []int64
}

func NewStore() *Store {
	return &Store{entries: make(map[int64]*Entry)}
}

// Toggle removes id if present, otherwise inserts it with the default tuning.
func (s *Store) Toggle(id int64, displayName string) Toggled {
	if _, ok := s.entries[id]; ok {
		delete(s.entries, id)
		s.order = slices.DeleteFunc(s.order, func(v int64) bool { return v == id })
		return Deselected
	}
	s.entries[id] = &Entry{ItemID: id, DisplayName: displayName, Tuning: DefaultTuning()}
	s.order = append(s.order, id)
	return Selected
}

// SetTuning updates an existing selection. It reports false and changes
// nothing when id is not selected or percent is out of range.
func (s *Store) SetTuning(id int64, percent int, mode Mode) bool {
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	strength, err := FromPercent(percent)
	if err != nil {
		return false
	}
	e.Tuning = Tuning{Strength: strength, Mode: mode}
	return true
}

// AdjustStrength moves the strength of a selection by delta percent,
// clamped to the allowed range.
func (s *Store) AdjustStrength(id int64, delta int) bool {
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	p := min(max(e.Tuning.Percent()+delta, MinPercent), MaxPercent)
	return s.SetTuning(id, p, e.Tuning.Mode)
}

// FlipMode switches a selection between like and opposite.
func (s *Store) FlipMode(id int64) bool {
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	mode := Opposite
	if e.Tuning.Mode == Opposite {
		mode = Like
	}
	return s.SetTuning(id, e.Tuning.Percent(), mode)
}

func (s *Store) Get(id int64) (Entry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (s *Store) Contains(id int64) bool {
	_, ok := s.entries[id]
	return ok
}

// Size gates whether panels and actions that need a selection are available.
func (s *Store) Size() int {
	return len(s.entries)
}

// Entries yields the selections in insertion order.
func (s *Store) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, id := range s.order {
			if !yield(*s.entries[id]) {
				return
			}
		}
	}
}

// Snapshot copies the entries in insertion order.
func (s *Store) Snapshot() []Entry {
	return slices.Collect(s.Entries())
}

func (s *Store) Clear() {
	clear(s.entries)
	s.order = nil
}
