package operator

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu        sync.RWMutex
	operators map[string]Operator
}

// NewMemoryRepository builds an in-memory operator store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{operators: make(map[string]Operator)}
}

func (r *memoryRepository) Create(_ context.Context, op Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.operators {
		if existing.Email == op.Email {
			return ErrExists
		}
	}
	r.operators[op.ID] = op
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, op := range r.operators {
		if op.Email == email {
			return op, nil
		}
	}
	return Operator{}, ErrNotFound
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.operators[id]
	if !ok {
		return Operator{}, ErrNotFound
	}
	return op, nil
}

func (r *memoryRepository) UpdateTokenVersion(_ context.Context, id string, version int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.operators[id]
	if !ok {
		return ErrNotFound
	}
	op.TokenVersion = version
	r.operators[id] = op
	return nil
}

func (r *memoryRepository) TouchLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.operators[id]
	if !ok {
		return ErrNotFound
	}
	at = at.UTC()
	op.LastLogin = &at
	r.operators[id] = op
	return nil
}
