package session

import "sync"

// Kind labels a change notification.
type Kind string

const (
	KindStoreChanged        Kind = "store_changed"
	KindSelectionChanged    Kind = "selection_changed"
	KindPresentationChanged Kind = "presentation_changed"
	KindNotice              Kind = "notice"
)

// Event is one typed change notification. Exactly one of the optional
// fields is meaningful per Kind: Count for store/selection changes,
// State for presentation transitions, Notice for one-shot messages.
type Event struct {
	Kind    Kind   `json:"kind"`
	ScopeID string `json:"scope_id"`
	Count   int    `json:"count,omitempty"`
	State   State  `json:"state,omitempty"`
	Notice  string `json:"notice,omitempty"`
}

// Bus fans change notifications out to subscribers. Publishing never
// blocks; a subscriber that falls behind loses events rather than
// stalling the sync core.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a buffered subscriber channel. The returned
// cancel func unregisters it and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if got, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(got)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber, dropping it for
// subscribers with full buffers.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
