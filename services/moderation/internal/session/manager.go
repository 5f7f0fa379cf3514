package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/comments-console/internal/platform/events"
	"github.com/example/comments-console/services/moderation/internal/cache"
	"github.com/example/comments-console/services/moderation/internal/netcheck"
	"github.com/example/comments-console/services/moderation/internal/remote"
)

// Session bundles the per-scope components sharing one event bus and
// one lifecycle.
type Session struct {
	ScopeID    string
	Store      *Store
	Selection  *Selection
	Tracker    *Tracker
	Controller *Controller
	Moderator  *Moderator
	Bus        *Bus

	ctx    context.Context
	cancel context.CancelFunc
}

// SyncInBackground starts a fetch on its own goroutine. Errors other
// than cancellation are logged by the controller's collaborators; the
// caller only needs fire-and-forget.
func (s *Session) SyncInBackground(loadMore bool) {
	go func() {
		_ = s.Controller.RequestSync(s.ctx, loadMore)
	}()
}

// Options configures the manager's per-scope session construction.
type Options struct {
	Cache     cache.Cache
	Remote    remote.Client
	Net       netcheck.Checker
	Log       *zap.Logger
	Publisher *events.Publisher
	Confirmer Confirmer

	// AutoSync triggers a refresh on session creation.
	AutoSync bool
}

// Manager creates and owns one Session per scope.
type Manager struct {
	mu       sync.Mutex
	opts     Options
	sessions map[string]*Session
}

func NewManager(opts Options) *Manager {
	if opts.Net == nil {
		opts.Net = netcheck.Static(true)
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for scopeID, creating it on first use. A new
// session is seeded from the local cache and, when AutoSync is on,
// kicks off a background refresh.
func (m *Manager) Get(scopeID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[scopeID]; ok {
		return s
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := NewBus()
	log := m.opts.Log.With(zap.String("scope_id", scopeID))

	store := NewStore(scopeID, bus, log)
	tracker := NewTracker()
	selection := NewSelection(scopeID, store, bus)
	controller := NewController(scopeID, store, m.opts.Cache, m.opts.Remote, m.opts.Net, bus, log)
	moderator := NewModerator(scopeID, store, m.opts.Cache, m.opts.Remote, m.opts.Net,
		selection, tracker, controller, bus, log, m.opts.Confirmer)

	s := &Session{
		ScopeID:    scopeID,
		Store:      store,
		Selection:  selection,
		Tracker:    tracker,
		Controller: controller,
		Moderator:  moderator,
		Bus:        bus,
		ctx:        ctx,
		cancel:     cancel,
	}
	m.sessions[scopeID] = s

	if m.opts.Publisher != nil {
		go m.bridge(ctx, s)
	}

	loadCtx, loadCancel := context.WithTimeout(ctx, 5*time.Second)
	store.Load(loadCtx, m.opts.Cache)
	loadCancel()

	if m.opts.AutoSync {
		s.SyncInBackground(false)
	}
	return s
}

// Close tears down the session for scopeID, cancelling any in-flight
// fetch. No-op for unknown scopes.
func (m *Manager) Close(scopeID string) {
	m.mu.Lock()
	s, ok := m.sessions[scopeID]
	if ok {
		delete(m.sessions, scopeID)
	}
	m.mu.Unlock()
	if ok {
		s.cancel()
	}
}

// CloseAll tears down every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.cancel()
	}
}

// bridge forwards bus events to the external event publisher until the
// session is closed.
func (m *Manager) bridge(ctx context.Context, s *Session) {
	ch, unsubscribe := s.Bus.Subscribe(64)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			m.opts.Publisher.Publish(subjectFor(ev.Kind), ev.ScopeID, map[string]any{
				"count":  ev.Count,
				"state":  string(ev.State),
				"notice": ev.Notice,
			})
		}
	}
}

func subjectFor(k Kind) string {
	switch k {
	case KindStoreChanged:
		return events.SubjectStoreChanged
	case KindSelectionChanged:
		return events.SubjectSelectionChanged
	case KindPresentationChanged:
		return events.SubjectPresentationChanged
	default:
		return events.SubjectNotice
	}
}
