package kv

import (
	"sync"
)

// InmemStore implements the Store interface with a map.
type InmemStore struct {
	sync.Mutex
	values map[string]int
}

// NewInmemStore ...
func NewInmemStore() *InmemStore {
	return &InmemStore{
		values: make(map[string]int),
	}
}

// Read implements the Store interface.
func (s *InmemStore) Read(key string) (int, error) {
	s.Lock()
	defer s.Unlock()

	v, ok := s.values[key]
	if !ok {
		return 0, NewStoreErr(KeyNotFound, key, "")
	}
	return v, nil
}

// Write implements the Store interface.
func (s *InmemStore) Write(key string, value int) error {
	s.Lock()
	defer s.Unlock()

	s.values[key] = value
	return nil
}

// CompareAndSwap implements the Store interface.
func (s *InmemStore) CompareAndSwap(key string, from, to int, create bool) error {
	s.Lock()
	defer s.Unlock()

	current, ok := s.values[key]
	if !ok {
		if !create {
			return NewStoreErr(KeyNotFound, key, "")
		}
		s.values[key] = to
		return nil
	}

	if current != from {
		return casMismatch(key, from, current)
	}

	s.values[key] = to
	return nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}

