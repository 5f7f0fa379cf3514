package cache

import (
	"context"
	"sync"

	"github.com/example/comments-console/services/moderation/internal/comment"
)

// Memory is an in-memory cache used when no database is configured
// (development only). Contents do not survive restarts.
type Memory struct {
	mu     sync.RWMutex
	scopes map[string][]comment.Comment // scope_id -> ordered comments
}

func NewMemory() *Memory {
	return &Memory{scopes: make(map[string][]comment.Comment)}
}

func (m *Memory) LoadCached(_ context.Context, scopeID string) ([]comment.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.scopes[scopeID]
	out := make([]comment.Comment, len(src))
	copy(out, src)
	return out, nil
}

func (m *Memory) ReplaceAll(_ context.Context, scopeID string, comments []comment.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make([]comment.Comment, len(comments))
	copy(next, comments)
	m.scopes[scopeID] = next
	return nil
}

func (m *Memory) Upsert(_ context.Context, scopeID string, comments []comment.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.scopes[scopeID]
	index := make(map[int64]int, len(existing))
	for i, c := range existing {
		index[c.ID] = i
	}
	for _, c := range comments {
		if i, ok := index[c.ID]; ok {
			existing[i] = c
			continue
		}
		index[c.ID] = len(existing)
		existing = append(existing, c)
	}
	m.scopes[scopeID] = existing
	return nil
}

func (m *Memory) Remove(_ context.Context, scopeID string, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	existing := m.scopes[scopeID]
	kept := existing[:0]
	for _, c := range existing {
		if _, gone := drop[c.ID]; !gone {
			kept = append(kept, c)
		}
	}
	m.scopes[scopeID] = kept
	return nil
}

func (m *Memory) DeleteAbsent(_ context.Context, scopeID string, keep []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := make(map[int64]struct{}, len(keep))
	for _, id := range keep {
		want[id] = struct{}{}
	}
	existing := m.scopes[scopeID]
	kept := existing[:0]
	for _, c := range existing {
		if _, ok := want[c.ID]; ok {
			kept = append(kept, c)
		}
	}
	m.scopes[scopeID] = kept
	return nil
}
