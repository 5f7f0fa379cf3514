package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/example/comments-console/services/moderation/internal/cache"
	"github.com/example/comments-console/services/moderation/internal/comment"
	"github.com/example/comments-console/services/moderation/internal/netcheck"
	"github.com/example/comments-console/services/moderation/internal/remote"
)

// DefaultPageSize is the number of comments fetched per page.
const DefaultPageSize = 30

// Controller owns the fetch state machine for one scope: at most one
// fetch in flight, pagination offset bookkeeping, merge of fetched
// pages into the store and derivation of the presentation state.
type Controller struct {
	scopeID string
	store   *Store
	cache   cache.Cache
	remote  remote.Client
	net     netcheck.Checker
	bus     *Bus
	log     *zap.Logger

	pageSize int

	// mu guards the state below. The remote call happens outside the
	// lock; exclusivity is guaranteed by the fetching flag.
	mu                   sync.Mutex
	fetching             bool
	canLoadMore          bool
	hasReconciledDeletes bool
	lastOutcome          outcome
	lastShown            State
}

func NewController(scopeID string, store *Store, c cache.Cache, rc remote.Client, net netcheck.Checker, bus *Bus, log *zap.Logger) *Controller {
	return &Controller{
		scopeID:     scopeID,
		store:       store,
		cache:       c,
		remote:      rc,
		net:         net,
		bus:         bus,
		log:         log,
		pageSize:    DefaultPageSize,
		canLoadMore: true,
		lastShown:   StateNoContent,
	}
}

// RequestSync fetches one page from the server. With loadMore false it
// refreshes from the top, replacing the collection; with loadMore true
// it appends the page after the locally-held count. A request while a
// fetch is already in flight is a no-op.
func (c *Controller) RequestSync(ctx context.Context, loadMore bool) error {
	c.mu.Lock()
	if c.fetching {
		c.log.Warn("comment sync already running", zap.String("scope_id", c.scopeID))
		c.mu.Unlock()
		return nil
	}
	if !c.net.IsReachable(ctx) {
		c.lastOutcome = outcomeNoNetwork
		c.publishPresentationLocked()
		c.mu.Unlock()
		return ErrNetworkUnavailable
	}

	offset := 0
	if loadMore {
		offset = c.store.Count()
	}
	// The state shown before this fetch began decides notice
	// suppression later; lastShown itself moves to loading meanwhile.
	shownBefore := c.lastShown
	c.fetching = true
	reconcile := !c.hasReconciledDeletes && !loadMore
	if reconcile {
		// At most once per scope lifetime, attempted even if the
		// reconciliation itself fails.
		c.hasReconciledDeletes = true
	}
	c.publishPresentationLocked()
	c.mu.Unlock()

	if reconcile {
		c.reconcileDeleted(ctx)
	}

	page, err := c.remote.FetchPage(ctx, c.scopeID, remote.PageQuery{
		Offset:   offset,
		Number:   c.pageSize,
		LoadMore: loadMore,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetching = false

	if ctx.Err() != nil {
		// Cancelled mid-fetch: no store mutation, no flag changes, no
		// presentation transition beyond the cleared fetch indicator.
		c.log.Debug("comment sync cancelled", zap.String("scope_id", c.scopeID))
		return ctx.Err()
	}

	if err != nil {
		c.canLoadMore = false
		if errors.Is(err, remote.ErrUnauthorized) {
			// Suppress the notice when an error view was already up, so
			// repeated failures do not stack duplicate toasts.
			if !isErrorState(shownBefore) {
				c.publishNotice("not authorized to view comments for this site")
			}
			c.lastOutcome = outcomeUnauthorized
		} else {
			c.publishNotice("refreshing comments failed")
			c.lastOutcome = outcomeUnknown
		}
		c.publishPresentationLocked()
		return fmt.Errorf("fetch comments page: %w", err)
	}

	if len(page) > 0 {
		c.persistPage(ctx, page, loadMore)
		c.store.Merge(page, loadMore)
		c.canLoadMore = true
	} else {
		// An empty page is not an error; it only means there is
		// nothing further to load.
		c.canLoadMore = false
	}
	c.lastOutcome = outcomeOK
	c.publishPresentationLocked()
	return nil
}

// Presentation derives the current presentation state.
func (c *Controller) Presentation() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return derive(c.fetching, c.lastOutcome, c.store.IsEmpty())
}

// RefreshPresentation re-derives the presentation state and publishes
// a transition if it changed; called after store mutations made
// outside the controller (moderation outcomes).
func (c *Controller) RefreshPresentation() {
	c.mu.Lock()
	c.publishPresentationLocked()
	c.mu.Unlock()
}

func (c *Controller) Fetching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetching
}

func (c *Controller) CanLoadMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canLoadMore
}

// reconcileDeleted prunes locally-cached comments that no longer exist
// server-side. Best-effort: failures are logged and the page fetch
// proceeds regardless.
func (c *Controller) reconcileDeleted(ctx context.Context) {
	ids, err := c.remote.FetchCommentIDs(ctx, c.scopeID)
	if err != nil {
		c.log.Warn("reconcile deleted comments: fetch ids failed",
			zap.String("scope_id", c.scopeID), zap.Error(err))
		return
	}
	if err := c.cache.DeleteAbsent(ctx, c.scopeID, ids); err != nil {
		c.log.Warn("reconcile deleted comments: prune failed",
			zap.String("scope_id", c.scopeID), zap.Error(err))
	}
}

// persistPage writes a fetched page through to the local cache.
// Best-effort: the in-memory store is the source of truth for this
// process lifetime.
func (c *Controller) persistPage(ctx context.Context, page []comment.Comment, loadMore bool) {
	var err error
	if loadMore {
		err = c.cache.Upsert(ctx, c.scopeID, page)
	} else {
		err = c.cache.ReplaceAll(ctx, c.scopeID, page)
	}
	if err != nil {
		c.log.Warn("persist fetched comments failed",
			zap.String("scope_id", c.scopeID), zap.Error(err))
	}
}

// publishPresentationLocked derives the state and publishes a
// transition when it changed. Caller holds the lock. Derivation always
// happens after the triggering store mutation, so observers never see
// Content with zero items.
func (c *Controller) publishPresentationLocked() {
	st := derive(c.fetching, c.lastOutcome, c.store.IsEmpty())
	if st == c.lastShown {
		return
	}
	c.lastShown = st
	c.bus.Publish(Event{Kind: KindPresentationChanged, ScopeID: c.scopeID, State: st})
}

func (c *Controller) publishNotice(msg string) {
	c.bus.Publish(Event{Kind: KindNotice, ScopeID: c.scopeID, Notice: msg})
}
