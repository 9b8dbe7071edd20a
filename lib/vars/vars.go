// Package vars holds a show's named variables: values that cues, effects
// and external controllers share by key. Reads happen on the frame-render
// goroutine while writers mutate concurrently, so all access goes through
// a read-write lock.
package vars

import "sync"

type Store struct {
	mu sync.RWMutex
	m  map[string]any
}

func NewStore() *Store {
	return &Store{m: map[string]any{}}
}

func (s *Store) Get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m[key]
}

func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == nil {
		delete(s.m, key)
		return
	}
	s.m[key] = value
}

// SetAll applies a batch of updates under one lock acquisition, so a
// concurrent reader never observes a partially applied set. A nil value
// removes the key.
func (s *Store) SetAll(values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range values {
		if value == nil {
			delete(s.m, key)
			continue
		}
		s.m[key] = value
	}
}

// Number coerces a variable value to a float64 if it holds any numeric
// type, reporting whether the coercion applied.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	}
	return 0, false
}
