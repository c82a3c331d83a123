package history

import (
	"context"
	"sort"
	"sync"
)

// memrepo keeps runs for the life of the process; used when no database is
// configured.
type memrepo struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

func NewMemoryRepository() Repository {
	return &memrepo{runs: make(map[string]*Run)}
}

func (m *memrepo) Save(ctx context.Context, run *Run) error {
	if run == nil {
		return nil
	}
	cp := *run
	m.mu.Lock()
	m.runs[run.ID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *memrepo) Get(ctx context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (m *memrepo) Recent(ctx context.Context, limit int) ([]*Run, error) {
	m.mu.RLock()
	items := make([]*Run, 0, len(m.runs))
	for _, r := range m.runs {
		cp := *r
		items = append(items, &cp)
	}
	m.mu.RUnlock()
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) Close() error { return nil }
