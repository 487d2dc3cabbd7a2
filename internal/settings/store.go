package settings

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Change describes one effective modification of a store.
type Change struct {
	Store   string
	Key     string
	Old     Value // invalid when the key was created
	New     Value
	Created bool
}

// ChangeHandler is invoked once per effective change.
type ChangeHandler func(Change)

// Store is a named, typed key/value container.
//
// Thread Safety: all methods are safe for concurrent use. Change handlers
// run on the calling goroutine after the store lock is released, so they
// may read from or write to the store.
type Store struct {
	name string

	mu     sync.RWMutex
	values map[string]Value
	order  []string // keys in first-set order

	handlersMu sync.RWMutex
	handlers   []ChangeHandler
}

// NewStore creates an empty store. The name identifies the store in
// persistence and change events (e.g. "actuator/kitchen-socket").
func NewStore(name string) *Store {
	return &Store{
		name:   name,
		values: make(map[string]Value),
	}
}

// Name returns the store name.
func (s *Store) Name() string { return s.name }

// OnChange registers a handler for effective changes.
func (s *Store) OnChange(handler ChangeHandler) {
	if handler == nil {
		return
	}
	s.handlersMu.Lock()
	s.handlers = append(s.handlers, handler)
	s.handlersMu.Unlock()
}

// SetValue stores v under key. Handlers are notified exactly once if the key
// is new or the stored value differs in type or value; setting an equal
// value is a silent no-op.
func (s *Store) SetValue(key string, v Value) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if !v.IsValid() {
		return fmt.Errorf("%w: key %q", ErrInvalidValue, key)
	}

	s.mu.Lock()
	old, exists := s.values[key]
	if exists && old.Equal(v) {
		s.mu.Unlock()
		return nil
	}
	s.values[key] = v
	if !exists {
		s.order = append(s.order, key)
	}
	s.mu.Unlock()

	s.notify(Change{
		Store:   s.name,
		Key:     key,
		Old:     old,
		New:     v,
		Created: !exists,
	})
	return nil
}

// Default sets key to v only if the key is absent. It reports whether the
// value was written.
func (s *Store) Default(key string, v Value) (bool, error) {
	s.mu.RLock()
	_, exists := s.values[key]
	s.mu.RUnlock()
	if exists {
		return false, nil
	}
	if err := s.SetValue(key, v); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) notify(c Change) {
	s.handlersMu.RLock()
	handlers := make([]ChangeHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.handlersMu.RUnlock()

	for _, h := range handlers {
		h(c)
	}
}

// SetString stores a string value.
func (s *Store) SetString(key, v string) error { return s.SetValue(key, String(v)) }

// SetInteger stores an integer value.
func (s *Store) SetInteger(key string, v int64) error { return s.SetValue(key, Integer(v)) }

// SetBoolean stores a boolean value.
func (s *Store) SetBoolean(key string, v bool) error { return s.SetValue(key, Boolean(v)) }

// SetTimeSpan stores a duration value.
func (s *Store) SetTimeSpan(key string, v time.Duration) error { return s.SetValue(key, Duration(v)) }

// SetFloat stores a float value.
func (s *Store) SetFloat(key string, v float64) error { return s.SetValue(key, Float(v)) }

// Get returns the raw value stored under key.
func (s *Store) Get(key string) (Value, error) {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return Value{}, fmt.Errorf("%w: %q in %s", ErrKeyNotFound, key, s.name)
	}
	return v, nil
}

func (s *Store) typed(key string, want Type) (Value, error) {
	v, err := s.Get(key)
	if err != nil {
		return v, err
	}
	if v.typ != want {
		return Value{}, fmt.Errorf("%w: %q is %s, not %s", ErrTypeMismatch, key, v.typ, want)
	}
	return v, nil
}

// GetString returns the string stored under key.
func (s *Store) GetString(key string) (string, error) {
	v, err := s.typed(key, TypeString)
	return v.s, err
}

// GetInteger returns the integer stored under key.
func (s *Store) GetInteger(key string) (int64, error) {
	v, err := s.typed(key, TypeInteger)
	return v.i, err
}

// GetBoolean returns the boolean stored under key.
func (s *Store) GetBoolean(key string) (bool, error) {
	v, err := s.typed(key, TypeBoolean)
	return v.b, err
}

// GetTimeSpan returns the duration stored under key.
func (s *Store) GetTimeSpan(key string) (time.Duration, error) {
	v, err := s.typed(key, TypeDuration)
	return v.d, err
}

// GetFloat returns the float stored under key.
func (s *Store) GetFloat(key string) (float64, error) {
	v, err := s.typed(key, TypeFloat)
	return v.f, err
}

// Has reports whether key is set.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

// Keys returns all keys in first-set order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Export returns a snapshot of every key/value pair in first-set order.
func (s *Store) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(Snapshot, 0, len(s.order))
	for _, k := range s.order {
		snap = append(snap, Entry{Key: k, Value: s.values[k]})
	}
	return snap
}

// Import applies every entry of the snapshot through SetValue, in snapshot
// order. Keys absent from the snapshot are left untouched. Import stops at
// the first invalid entry; entries before it remain applied.
func (s *Store) Import(snap Snapshot) error {
	for _, e := range snap {
		if err := s.SetValue(e.Key, e.Value); err != nil {
			return fmt.Errorf("importing %q: %w", e.Key, err)
		}
	}
	return nil
}

// Conform converts a snapshot parsed from the flat JSON form to the types
// the store already declares. Keys the store does not hold pass through
// with their inferred type. Entries that cannot be converted are left out
// and reported together as ErrTypeMismatch.
func (s *Store) Conform(snap Snapshot) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Snapshot, 0, len(snap))
	var errs []error
	for _, e := range snap {
		current, ok := s.values[e.Key]
		if !ok {
			out = append(out, e)
			continue
		}
		v, ok := coerce(e, current.typ)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q is %s, got %s",
				ErrTypeMismatch, e.Key, current.typ, e.Value.typ))
			continue
		}
		out = append(out, Entry{Key: e.Key, Value: v})
	}
	return out, errors.Join(errs...)
}
