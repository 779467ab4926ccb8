package history

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// DefaultMemCapacity bounds MemStore when no capacity is given.
const DefaultMemCapacity = 1000

// MemStore is an in-memory Store. Once full, the oldest run is evicted for
// each new one.
type MemStore struct {
	mu       sync.RWMutex
	runs     []Run
	capacity int
}

// NewMemStore creates a MemStore holding at most capacity runs.
func NewMemStore(capacity int) *MemStore {
	if capacity <= 0 {
		capacity = DefaultMemCapacity
	}
	return &MemStore{capacity: capacity}
}

func (m *MemStore) Record(ctx context.Context, run *Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prepare(run)

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.runs) >= m.capacity {
		m.runs = append(m.runs[:0], m.runs[len(m.runs)-m.capacity+1:]...)
	}
	m.runs = append(m.runs, *run)
	return nil
}

func (m *MemStore) List(ctx context.Context, limit int) ([]Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.runs) {
		limit = len(m.runs)
	}

	out := make([]Run, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *MemStore) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.runs {
		if m.runs[i].ID == id {
			run := m.runs[i]
			return &run, nil
		}
	}
	return nil, ErrNotFound
}

// Len returns the number of stored runs.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}
