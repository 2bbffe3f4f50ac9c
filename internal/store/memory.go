package store

import (
	"context"
	"sync"
)

// Memory is an in-memory Store used by tests and for throwaway runs. It keeps
// its own copy of the records on both load and save.
type Memory[T any] struct {
	mu      sync.RWMutex
	records []T
}

// NewMemory creates an in-memory store seeded with the given records.
func NewMemory[T any](records ...T) *Memory[T] {
	m := &Memory[T]{}
	m.records = append(m.records, records...)
	return m
}

func (m *Memory[T]) LoadAll(_ context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *Memory[T]) SaveAll(_ context.Context, records []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make([]T, len(records))
	copy(m.records, records)
	return nil
}

// Len reports how many records the store currently holds.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
