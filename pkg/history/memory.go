package history

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Repository.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
	seq     map[string]int
	next    int
}

// NewMemory creates an empty Memory repository.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]Record),
		seq:     make(map[string]int),
	}
}

func (m *Memory) Save(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seq[rec.ID]; !ok {
		m.seq[rec.ID] = m.next
		m.next++
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) List(ctx context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	seq := make(map[string]int, len(m.seq))
	for k, v := range m.seq {
		seq[k] = v
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].FinishedAt.Equal(out[j].FinishedAt) {
			return out[i].FinishedAt.After(out[j].FinishedAt)
		}
		return seq[out[i].ID] > seq[out[j].ID]
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Repository = (*Memory)(nil)
