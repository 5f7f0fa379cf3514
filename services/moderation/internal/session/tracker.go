package session

import "sync"

// Tracker is the set of comment ids with an outstanding remote
// moderation call. Pure bookkeeping: membership is added immediately
// before a call is issued and removed unconditionally when it
// resolves, so entries cannot leak.
type Tracker struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{ids: make(map[int64]struct{})}
}

// Begin marks the id as in moderation. Idempotent.
func (t *Tracker) Begin(id int64) {
	t.mu.Lock()
	t.ids[id] = struct{}{}
	t.mu.Unlock()
}

// End clears the marker. Idempotent.
func (t *Tracker) End(id int64) {
	t.mu.Lock()
	delete(t.ids, id)
	t.mu.Unlock()
}

func (t *Tracker) InProgress(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ids[id]
	return ok
}

// IDs returns a snapshot of the ids currently in moderation.
func (t *Tracker) IDs() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]int64, 0, len(t.ids))
	for id := range t.ids {
		out = append(out, id)
	}
	return out
}
