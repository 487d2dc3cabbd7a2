package entity

import (
	"fmt"
	"sort"
	"sync"
)

// Entry is one registered entity together with the kind captured at
// registration time.
type Entry[ID comparable, E Kinded] struct {
	ID     ID
	Kind   Kind
	Entity E
}

// Registry holds all entities of one broad kind, indexed by identifier and
// kept in insertion order.
//
// All public methods are thread-safe.
type Registry[ID comparable, E Kinded] struct {
	mu      sync.RWMutex
	entries []Entry[ID, E]
	index   map[ID]int // position in entries
}

// NewRegistry creates an empty registry.
func NewRegistry[ID comparable, E Kinded]() *Registry[ID, E] {
	return &Registry[ID, E]{
		index: make(map[ID]int),
	}
}

// AddUnique inserts the entity, failing with ErrConflict if id is taken.
// Used for kinds whose identity is structural (devices, areas).
func (r *Registry[ID, E]) AddUnique(id ID, e E) error {
	if isNil(e) {
		return ErrNilEntity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[id]; exists {
		return fmt.Errorf("%w: %v", ErrConflict, id)
	}
	r.insert(id, e)
	return nil
}

// AddOrUpdate inserts the entity or replaces the existing entry for id.
// A replaced entry keeps its position in the insertion order.
// Used for kinds configuration may redefine (actuators, automations).
func (r *Registry[ID, E]) AddOrUpdate(id ID, e E) error {
	if isNil(e) {
		return ErrNilEntity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if pos, exists := r.index[id]; exists {
		r.entries[pos] = Entry[ID, E]{ID: id, Kind: e.Kind(), Entity: e}
		return nil
	}
	r.insert(id, e)
	return nil
}

// insert appends a new entry. Caller must hold the write lock.
func (r *Registry[ID, E]) insert(id ID, e E) {
	r.index[id] = len(r.entries)
	r.entries = append(r.entries, Entry[ID, E]{ID: id, Kind: e.Kind(), Entity: e})
}

// Get returns the entity registered under id.
func (r *Registry[ID, E]) Get(id ID) (E, error) {
	entry, err := r.entry(id)
	return entry.Entity, err
}

// GetKind returns the entity under id if it is of the given kind.
func (r *Registry[ID, E]) GetKind(id ID, kind Kind) (E, error) {
	entry, err := r.entry(id)
	if err != nil {
		return entry.Entity, err
	}
	if entry.Kind != kind {
		var zero E
		return zero, fmt.Errorf("%w: %v is %q, not %q", ErrTypeMismatch, id, entry.Kind, kind)
	}
	return entry.Entity, nil
}

// SingleOfKind returns the only entity of the given kind.
// It fails with ErrNotFound for none and ErrAmbiguous for more than one.
func (r *Registry[ID, E]) SingleOfKind(kind Kind) (E, error) {
	var zero E
	matches := r.AllOfKind(kind)
	switch len(matches) {
	case 0:
		return zero, fmt.Errorf("%w: no entity of kind %q", ErrNotFound, kind)
	case 1:
		return matches[0], nil
	default:
		return zero, fmt.Errorf("%w: %d entities of kind %q", ErrAmbiguous, len(matches), kind)
	}
}

// All returns a snapshot of every entity in insertion order.
// Later registry mutations are not reflected in the returned slice.
func (r *Registry[ID, E]) All() []E {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]E, len(r.entries))
	for i, entry := range r.entries {
		out[i] = entry.Entity
	}
	return out
}

// AllOfKind returns a snapshot of every entity of the given kind.
func (r *Registry[ID, E]) AllOfKind(kind Kind) []E {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []E
	for _, entry := range r.entries {
		if entry.Kind == kind {
			out = append(out, entry.Entity)
		}
	}
	return out
}

// Entries returns a snapshot of all entries in insertion order.
func (r *Registry[ID, E]) Entries() []Entry[ID, E] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry[ID, E], len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered entities.
func (r *Registry[ID, E]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// KindCount is the number of entities of one kind.
type KindCount struct {
	Kind  Kind
	Count int
}

// CountByKind returns per-kind counts sorted by kind name.
func (r *Registry[ID, E]) CountByKind() []KindCount {
	r.mu.RLock()
	counts := make(map[Kind]int)
	for _, entry := range r.entries {
		counts[entry.Kind]++
	}
	r.mu.RUnlock()

	out := make([]KindCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, KindCount{Kind: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func (r *Registry[ID, E]) entry(id ID) (Entry[ID, E], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, ok := r.index[id]
	if !ok {
		return Entry[ID, E]{}, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	return r.entries[pos], nil
}

// Typed returns the entity under id converted to T. The kind discriminant
// is checked first; an entry of the right kind that is not a T is also
// reported as ErrTypeMismatch.
func Typed[T any, ID comparable, E Kinded](r *Registry[ID, E], id ID, kind Kind) (T, error) {
	var zero T
	e, err := r.GetKind(id, kind)
	if err != nil {
		return zero, err
	}
	t, ok := any(e).(T)
	if !ok {
		return zero, fmt.Errorf("%w: %v of kind %q has unexpected type %T", ErrTypeMismatch, id, kind, e)
	}
	return t, nil
}

// SingleTyped returns the only entity of the given kind converted to T.
func SingleTyped[T any, ID comparable, E Kinded](r *Registry[ID, E], kind Kind) (T, error) {
	var zero T
	e, err := r.SingleOfKind(kind)
	if err != nil {
		return zero, err
	}
	t, ok := any(e).(T)
	if !ok {
		return zero, fmt.Errorf("%w: kind %q has unexpected type %T", ErrTypeMismatch, kind, e)
	}
	return t, nil
}

// AllTyped returns every entity of the given kind converted to T, skipping
// any entry whose value is not a T.
func AllTyped[T any, ID comparable, E Kinded](r *Registry[ID, E], kind Kind) []T {
	matches := r.AllOfKind(kind)
	out := make([]T, 0, len(matches))
	for _, e := range matches {
		if t, ok := any(e).(T); ok {
			out = append(out, t)
		}
	}
	return out
}

func isNil[E any](e E) bool {
	return any(e) == nil
}
