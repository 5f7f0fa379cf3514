package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/example/comments-console/services/moderation/internal/cache"
	"github.com/example/comments-console/services/moderation/internal/comment"
)

// Store is the ordered in-memory comment collection for one scope.
// Order is the server-provided order from the last fetch; ids are
// unique. Every mutation publishes a StoreChanged event.
type Store struct {
	mu      sync.RWMutex
	scopeID string
	items   []comment.Comment
	index   map[int64]int // comment id -> position in items
	bus     *Bus
	log     *zap.Logger
}

func NewStore(scopeID string, bus *Bus, log *zap.Logger) *Store {
	return &Store{
		scopeID: scopeID,
		index:   make(map[int64]int),
		bus:     bus,
		log:     log,
	}
}

// Load replaces the collection with the locally-cached set. A cache
// failure is treated as "no content yet", not an error.
func (s *Store) Load(ctx context.Context, src cache.Cache) {
	items, err := src.LoadCached(ctx, s.scopeID)
	if err != nil {
		s.log.Warn("comment cache unavailable, starting empty",
			zap.String("scope_id", s.scopeID), zap.Error(err))
		items = nil
	}

	s.mu.Lock()
	s.reset(items)
	s.mu.Unlock()
	s.notifyChanged()
}

// Merge applies a fetched page. With appendMode false the page replaces
// the collection wholesale; with appendMode true it is appended after
// the existing entries, skipping ids already present.
func (s *Store) Merge(page []comment.Comment, appendMode bool) {
	s.mu.Lock()
	if !appendMode {
		s.reset(page)
	} else {
		for _, c := range page {
			if _, dup := s.index[c.ID]; dup {
				continue
			}
			s.index[c.ID] = len(s.items)
			s.items = append(s.items, c)
		}
	}
	s.mu.Unlock()
	s.notifyChanged()
}

// Replace swaps in updated snapshots for entries with matching ids;
// ids not present are ignored.
func (s *Store) Replace(updated []comment.Comment) {
	s.mu.Lock()
	for _, c := range updated {
		if i, ok := s.index[c.ID]; ok {
			s.items[i] = c
		}
	}
	s.mu.Unlock()
	s.notifyChanged()
}

// Remove deletes entries with matching ids, preserving the order of
// the rest.
func (s *Store) Remove(ids []int64) {
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	kept := make([]comment.Comment, 0, len(s.items))
	for _, c := range s.items {
		if _, gone := drop[c.ID]; !gone {
			kept = append(kept, c)
		}
	}
	s.reset(kept)
	s.mu.Unlock()
	s.notifyChanged()
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) IsEmpty() bool {
	return s.Count() == 0
}

// Get returns the comment at position i.
func (s *Store) Get(i int) (comment.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.items) {
		return comment.Comment{}, ErrOutOfRange
	}
	return s.items[i], nil
}

// ByID returns the comment with the given id, if present.
func (s *Store) ByID(id int64) (comment.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.index[id]; ok {
		return s.items[i], true
	}
	return comment.Comment{}, false
}

// All returns a snapshot of the collection in order.
func (s *Store) All() []comment.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]comment.Comment, len(s.items))
	copy(out, s.items)
	return out
}

// reset rebuilds items and index from the given sequence, skipping
// duplicate ids. Caller holds s.mu.
func (s *Store) reset(items []comment.Comment) {
	s.items = make([]comment.Comment, 0, len(items))
	s.index = make(map[int64]int, len(items))
	for _, c := range items {
		if _, dup := s.index[c.ID]; dup {
			continue
		}
		s.index[c.ID] = len(s.items)
		s.items = append(s.items, c)
	}
}

func (s *Store) notifyChanged() {
	s.bus.Publish(Event{Kind: KindStoreChanged, ScopeID: s.scopeID, Count: s.Count()})
}
