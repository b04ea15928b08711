package sqlite

import (
	"context"
	"slices"
	"sync"

	"github.com/sandevgo/emilia/internal/core"
)

// MemoryLongTermRepo keeps the long-term log in process. Used when
// persistence is disabled.
type MemoryLongTermRepo struct {
	mu      sync.RWMutex
	ids     map[string]struct{}
	entries map[string][]core.LongTermEntry
}

func NewMemoryLongTermRepo() *MemoryLongTermRepo {
	return &MemoryLongTermRepo{
		ids:     make(map[string]struct{}),
		entries: make(map[string][]core.LongTermEntry),
	}
}

func (r *MemoryLongTermRepo) Append(_ context.Context, entries []core.LongTermEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entries {
		if _, dup := r.ids[e.ID]; dup {
			continue
		}
		r.ids[e.ID] = struct{}{}
		e.ContentIDs = slices.Clone(e.ContentIDs)
		r.entries[e.SessionID] = append(r.entries[e.SessionID], e)
	}
	return nil
}

func (r *MemoryLongTermRepo) List(_ context.Context, sessionID string) ([]core.LongTermEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.entries[sessionID]), nil
}
