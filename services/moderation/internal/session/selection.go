package session

import (
	"sort"
	"sync"

	"github.com/example/comments-console/services/moderation/internal/comment"
)

// Selection is the set of selected comment ids during a multi-select
// session. It is only meaningful while a session is active and is
// cleared whenever the session ends. Every mutation notifies
// listeners synchronously.
type Selection struct {
	mu      sync.Mutex
	scopeID string
	store   *Store
	ids     map[int64]struct{}
	active  bool
	bus     *Bus
}

func NewSelection(scopeID string, store *Store, bus *Bus) *Selection {
	return &Selection{
		scopeID: scopeID,
		store:   store,
		ids:     make(map[int64]struct{}),
		bus:     bus,
	}
}

// StartSession begins a multi-select session.
func (s *Selection) StartSession() {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
	s.notify()
}

// EndSession deactivates multi-select and clears the selection.
func (s *Selection) EndSession() {
	s.mu.Lock()
	s.active = false
	s.ids = make(map[int64]struct{})
	s.mu.Unlock()
	s.notify()
}

func (s *Selection) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Toggle flips the selection of id and reports whether it is now
// selected.
func (s *Selection) Toggle(id int64) bool {
	s.mu.Lock()
	_, had := s.ids[id]
	if had {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}
	s.mu.Unlock()
	s.notify()
	return !had
}

func (s *Selection) SetSelected(id int64, selected bool) {
	s.mu.Lock()
	if selected {
		s.ids[id] = struct{}{}
	} else {
		delete(s.ids, id)
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Selection) Clear() {
	s.mu.Lock()
	s.ids = make(map[int64]struct{})
	s.mu.Unlock()
	s.notify()
}

func (s *Selection) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Comments resolves the selection against the store's current records,
// skipping ids no longer present.
func (s *Selection) Comments() []comment.Comment {
	ids := s.IDs()
	out := make([]comment.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.store.ByID(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// HasStatus reports whether any selected comment currently has the
// given status.
func (s *Selection) HasStatus(st comment.Status) bool {
	for _, c := range s.Comments() {
		if c.Status == st {
			return true
		}
	}
	return false
}

// LacksStatus reports whether any selected comment currently has a
// status other than the given one.
func (s *Selection) LacksStatus(st comment.Status) bool {
	for _, c := range s.Comments() {
		if c.Status != st {
			return true
		}
	}
	return false
}

func (s *Selection) notify() {
	s.bus.Publish(Event{Kind: KindSelectionChanged, ScopeID: s.scopeID, Count: s.Count()})
}
