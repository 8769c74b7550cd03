package verification

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	attempts []Attempt
}

// NewMemoryRepository builds an in-memory attempt store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Record(_ context.Context, a Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, a)
	return nil
}

func (r *memoryRepository) ListByOperator(_ context.Context, operatorID string, limit int) ([]Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Attempt
	for _, a := range r.attempts {
		if a.OperatorID == operatorID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
