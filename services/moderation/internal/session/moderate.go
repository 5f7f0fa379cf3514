package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/comments-console/services/moderation/internal/cache"
	"github.com/example/comments-console/services/moderation/internal/comment"
	"github.com/example/comments-console/services/moderation/internal/netcheck"
	"github.com/example/comments-console/services/moderation/internal/remote"
)

// Confirmer asks for confirmation before a destructive batch action.
type Confirmer interface {
	Confirm(ctx context.Context, count int) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, count int) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, count int) (bool, error) { return f(ctx, count) }

// Moderator applies a batch status change to the current selection.
// The server response is authoritative: only comments it reports as
// updated are changed locally.
type Moderator struct {
	scopeID    string
	store      *Store
	cache      cache.Cache
	remote     remote.Client
	net        netcheck.Checker
	selection  *Selection
	tracker    *Tracker
	controller *Controller
	bus        *Bus
	log        *zap.Logger
	confirmer  Confirmer
}

func NewModerator(scopeID string, store *Store, c cache.Cache, rc remote.Client, net netcheck.Checker, sel *Selection, tr *Tracker, ctl *Controller, bus *Bus, log *zap.Logger, confirmer Confirmer) *Moderator {
	return &Moderator{
		scopeID:    scopeID,
		store:      store,
		cache:      c,
		remote:     rc,
		net:        net,
		selection:  sel,
		tracker:    tr,
		controller: ctl,
		bus:        bus,
		log:        log,
		confirmer:  confirmer,
	}
}

// Moderate moves every selected comment whose status differs from
// target to target. Trashing asks the confirmer first; a declined
// confirmation is not an error. Once a remote call is issued the
// multi-select session ends when it resolves, success or not.
func (m *Moderator) Moderate(ctx context.Context, target comment.Status) error {
	selected := m.selection.Comments()

	pending := make([]comment.Comment, 0, len(selected))
	for _, c := range selected {
		if c.Status != target {
			pending = append(pending, c)
		}
	}
	// Nothing would change: no remote call, and the selection stays as
	// it is since no call ever resolves.
	if len(pending) == 0 {
		return nil
	}

	if target == comment.StatusTrash {
		if m.confirmer == nil {
			return ErrConfirmRequired
		}
		ok, err := m.confirmer.Confirm(ctx, len(pending))
		if err != nil {
			return fmt.Errorf("confirm trash: %w", err)
		}
		if !ok {
			return nil
		}
	}

	if !m.net.IsReachable(ctx) {
		return ErrNetworkUnavailable
	}

	// From here a call is issued; the multi-select session ends when it
	// resolves, success or not.
	defer m.selection.EndSession()

	ids := comment.IDs(pending)
	for _, id := range ids {
		m.tracker.Begin(id)
	}
	updated, err := m.remote.UpdateStatus(ctx, m.scopeID, ids, target)
	for _, id := range ids {
		m.tracker.End(id)
	}

	if err != nil || len(updated) == 0 {
		m.bus.Publish(Event{Kind: KindNotice, ScopeID: m.scopeID, Notice: "moderating comments failed"})
		if err != nil {
			return fmt.Errorf("update comment status: %w", err)
		}
		return fmt.Errorf("update comment status: no comments updated")
	}

	m.apply(ctx, updated, target)
	m.controller.RefreshPresentation()
	return nil
}

// apply folds the server-confirmed snapshots into the store and the
// local cache.
func (m *Moderator) apply(ctx context.Context, updated []comment.Comment, target comment.Status) {
	if target == comment.StatusTrash {
		ids := comment.IDs(updated)
		m.store.Remove(ids)
		if err := m.cache.Remove(ctx, m.scopeID, ids); err != nil {
			m.log.Warn("remove trashed comments from cache failed",
				zap.String("scope_id", m.scopeID), zap.Error(err))
		}
		return
	}

	m.store.Replace(updated)
	if err := m.cache.Upsert(ctx, m.scopeID, updated); err != nil {
		m.log.Warn("persist moderated comments failed",
			zap.String("scope_id", m.scopeID), zap.Error(err))
	}
}
