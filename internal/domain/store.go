package domain

import "fmt"

// Store owns the ordered workout collection for one session. Insertion order is
// creation order. It is not safe for concurrent use; a session drives it from a
// single goroutine.
type Store struct {
	workouts []*Workout
	index    map[string]int
	retired  map[string]struct{}
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		index:   make(map[string]int),
		retired: make(map[string]struct{}),
	}
}

// Add appends w. IDs that are present or were removed earlier are rejected.
func (s *Store) Add(w *Workout) error {
	if w == nil {
		return fmt.Errorf("%w: nil workout", ErrInvalidWorkout)
	}
	if _, ok := s.index[w.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, w.ID)
	}
	if _, ok := s.retired[w.ID]; ok {
		return fmt.Errorf("%w: %s was deleted", ErrDuplicateID, w.ID)
	}
	s.index[w.ID] = len(s.workouts)
	s.workouts = append(s.workouts, w)
	return nil
}

// Remove deletes the workout with id. It reports whether anything was removed;
// removing an unknown id is not an error.
func (s *Store) Remove(id string) bool {
	pos, ok := s.index[id]
	if !ok {
		return false
	}
	copy(s.workouts[pos:], s.workouts[pos+1:])
	s.workouts[len(s.workouts)-1] = nil
	s.workouts = s.workouts[:len(s.workouts)-1]
	delete(s.index, id)
	for i := pos; i < len(s.workouts); i++ {
		s.index[s.workouts[i].ID] = i
	}
	s.retired[id] = struct{}{}
	return true
}

// FindByID resolves a view-layer identifier back to the workout.
func (s *Store) FindByID(id string) (*Workout, bool) {
	pos, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.workouts[pos], true
}

// Replace swaps the workout sharing w's ID, keeping its position.
func (s *Store) Replace(w *Workout) error {
	if w == nil {
		return fmt.Errorf("%w: nil workout", ErrInvalidWorkout)
	}
	pos, ok := s.index[w.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, w.ID)
	}
	s.workouts[pos] = w
	return nil
}

// ReplaceAll swaps the whole collection. Nil entries and repeated IDs after the
// first are skipped. The retired set is kept so deleted IDs stay unusable.
func (s *Store) ReplaceAll(workouts []*Workout) {
	next := make([]*Workout, 0, len(workouts))
	index := make(map[string]int, len(workouts))
	for _, w := range workouts {
		if w == nil {
			continue
		}
		if _, dup := index[w.ID]; dup {
			continue
		}
		index[w.ID] = len(next)
		next = append(next, w)
	}
	s.workouts = next
	s.index = index
}

// All returns the workouts in creation order. The slice is a copy; the
// workouts themselves are shared and must not be mutated by callers.
func (s *Store) All() []*Workout {
	out := make([]*Workout, len(s.workouts))
	copy(out, s.workouts)
	return out
}

// Len returns the number of stored workouts.
func (s *Store) Len() int {
	return len(s.workouts)
}
