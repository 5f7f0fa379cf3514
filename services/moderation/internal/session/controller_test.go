package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/comments-console/services/moderation/internal/cache"
	"github.com/example/comments-console/services/moderation/internal/comment"
	"github.com/example/comments-console/services/moderation/internal/netcheck"
	"github.com/example/comments-console/services/moderation/internal/remote"
)

// fakeRemote scripts upstream behavior per test. entered and gate make
// in-flight fetches observable and resumable.
type fakeRemote struct {
	mu        sync.Mutex
	pageFn    func(q remote.PageQuery) ([]comment.Comment, error)
	updateFn  func(ids []int64, st comment.Status) ([]comment.Comment, error)
	ids       []int64
	idsErr    error
	idsCalls  int
	pageCalls []remote.PageQuery

	entered chan struct{}
	gate    chan struct{}
}

func (f *fakeRemote) FetchPage(ctx context.Context, scopeID string, q remote.PageQuery) ([]comment.Comment, error) {
	f.mu.Lock()
	f.pageCalls = append(f.pageCalls, q)
	entered, gate := f.entered, f.gate
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if f.pageFn == nil {
		return nil, nil
	}
	return f.pageFn(q)
}

func (f *fakeRemote) FetchCommentIDs(ctx context.Context, scopeID string) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idsCalls++
	return f.ids, f.idsErr
}

func (f *fakeRemote) UpdateStatus(ctx context.Context, scopeID string, ids []int64, st comment.Status) ([]comment.Comment, error) {
	if f.updateFn == nil {
		return nil, errors.New("unexpected UpdateStatus call")
	}
	return f.updateFn(ids, st)
}

type controllerFixture struct {
	ctl    *Controller
	store  *Store
	cache  *cache.Memory
	remote *fakeRemote
	bus    *Bus
	events <-chan Event
}

func newControllerFixture(t *testing.T, fr *fakeRemote, reachable bool) *controllerFixture {
	t.Helper()
	bus := NewBus()
	ch, cancel := bus.Subscribe(64)
	t.Cleanup(cancel)

	mem := cache.NewMemory()
	store := NewStore("site-1", bus, zap.NewNop())
	ctl := NewController("site-1", store, mem, fr, netcheck.Static(reachable), bus, zap.NewNop())
	return &controllerFixture{ctl: ctl, store: store, cache: mem, remote: fr, bus: bus, events: ch}
}

// drainEvents collects everything published so far without blocking.
func drainEvents(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (f *controllerFixture) drainEvents() []Event { return drainEvents(f.events) }

func countNotices(events []Event) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == KindNotice {
			n++
		}
	}
	return n
}

func TestRequestSyncRefreshReplacesAndCaches(t *testing.T) {
	fr := &fakeRemote{
		pageFn: func(q remote.PageQuery) ([]comment.Comment, error) {
			return []comment.Comment{
				testComment(1, comment.StatusApproved),
				testComment(2, comment.StatusUnapproved),
			}, nil
		},
	}
	f := newControllerFixture(t, fr, true)
	f.store.Merge([]comment.Comment{testComment(9, comment.StatusSpam)}, false)

	if err := f.ctl.RequestSync(context.Background(), false); err != nil {
		t.Fatalf("RequestSync: %v", err)
	}

	wantIDs(t, storeIDs(t, f.store), []int64{1, 2})
	if !f.ctl.CanLoadMore() {
		t.Fatal("CanLoadMore = false after a full page")
	}
	if got := f.ctl.Presentation(); got != StateContent {
		t.Fatalf("Presentation = %v, want content", got)
	}

	cached, err := f.cache.LoadCached(context.Background(), "site-1")
	if err != nil {
		t.Fatal(err)
	}
	wantIDs(t, comment.IDs(cached), []int64{1, 2})

	if q := fr.pageCalls[0]; q.LoadMore || q.Offset != 0 || q.Number != DefaultPageSize {
		t.Fatalf("page query = %+v, want refresh from offset 0", q)
	}
}

func TestRequestSyncLoadMoreAppendsFromLocalCount(t *testing.T) {
	fr := &fakeRemote{
		pageFn: func(q remote.PageQuery) ([]comment.Comment, error) {
			return []comment.Comment{testComment(3, comment.StatusApproved)}, nil
		},
	}
	f := newControllerFixture(t, fr, true)
	f.store.Merge([]comment.Comment{
		testComment(1, comment.StatusApproved),
		testComment(2, comment.StatusApproved),
	}, false)

	if err := f.ctl.RequestSync(context.Background(), true); err != nil {
		t.Fatalf("RequestSync: %v", err)
	}

	wantIDs(t, storeIDs(t, f.store), []int64{1, 2, 3})
	if q := fr.pageCalls[0]; !q.LoadMore || q.Offset != 2 {
		t.Fatalf("page query = %+v, want load-more from offset 2", q)
	}
}

func TestRequestSyncEmptyPageStopsPagination(t *testing.T) {
	fr := &fakeRemote{}
	f := newControllerFixture(t, fr, true)

	if err := f.ctl.RequestSync(context.Background(), false); err != nil {
		t.Fatalf("RequestSync: %v", err)
	}

	if f.ctl.CanLoadMore() {
		t.Fatal("CanLoadMore = true after an empty page")
	}
	if got := f.ctl.Presentation(); got != StateNoContent {
		t.Fatalf("Presentation = %v, want no_content", got)
	}
}

func TestRequestSyncRefusesSecondConcurrentFetch(t *testing.T) {
	fr := &fakeRemote{
		entered: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	f := newControllerFixture(t, fr, true)

	done := make(chan error, 1)
	go func() { done <- f.ctl.RequestSync(context.Background(), false) }()
	<-fr.entered

	if err := f.ctl.RequestSync(context.Background(), false); err != nil {
		t.Fatalf("second RequestSync = %v, want nil no-op", err)
	}

	close(fr.gate)
	if err := <-done; err != nil {
		t.Fatalf("first RequestSync: %v", err)
	}
	if len(fr.pageCalls) != 1 {
		t.Fatalf("pageCalls = %d, want 1", len(fr.pageCalls))
	}
}

func TestRequestSyncUnauthorized(t *testing.T) {
	fr := &fakeRemote{
		pageFn: func(remote.PageQuery) ([]comment.Comment, error) {
			return nil, remote.ErrUnauthorized
		},
	}
	f := newControllerFixture(t, fr, true)

	err := f.ctl.RequestSync(context.Background(), false)
	if !errors.Is(err, remote.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if f.ctl.CanLoadMore() {
		t.Fatal("CanLoadMore = true after a failed fetch")
	}
	if got := f.ctl.Presentation(); got != StatePermissionError {
		t.Fatalf("Presentation = %v, want permission_error", got)
	}
	if n := countNotices(f.drainEvents()); n != 1 {
		t.Fatalf("notices = %d, want 1", n)
	}

	// A repeat failure while the error view is already showing stays
	// silent.
	if err := f.ctl.RequestSync(context.Background(), false); err == nil {
		t.Fatal("second RequestSync should fail")
	}
	if n := countNotices(f.drainEvents()); n != 0 {
		t.Fatalf("notices after repeat failure = %d, want 0", n)
	}
}

func TestRequestSyncGenericFailureKeepsContent(t *testing.T) {
	fr := &fakeRemote{
		pageFn: func(remote.PageQuery) ([]comment.Comment, error) {
			return nil, errors.New("boom")
		},
	}
	f := newControllerFixture(t, fr, true)
	f.store.Merge([]comment.Comment{testComment(1, comment.StatusApproved)}, false)

	if err := f.ctl.RequestSync(context.Background(), false); err == nil {
		t.Fatal("RequestSync should fail")
	}

	// Content on screen outranks the error.
	if got := f.ctl.Presentation(); got != StateContent {
		t.Fatalf("Presentation = %v, want content", got)
	}
	wantIDs(t, storeIDs(t, f.store), []int64{1})
}

func TestRequestSyncUnreachableNetwork(t *testing.T) {
	fr := &fakeRemote{}
	f := newControllerFixture(t, fr, false)

	err := f.ctl.RequestSync(context.Background(), false)
	if !errors.Is(err, ErrNetworkUnavailable) {
		t.Fatalf("err = %v, want ErrNetworkUnavailable", err)
	}
	if len(fr.pageCalls) != 0 {
		t.Fatal("remote called despite unreachable network")
	}
	if got := f.ctl.Presentation(); got != StateNetworkError {
		t.Fatalf("Presentation = %v, want network_error", got)
	}
}

func TestRequestSyncCancelledFetchMutatesNothing(t *testing.T) {
	fr := &fakeRemote{
		entered: make(chan struct{}, 1),
		gate:    make(chan struct{}),
		pageFn: func(remote.PageQuery) ([]comment.Comment, error) {
			return []comment.Comment{testComment(1, comment.StatusApproved)}, nil
		},
	}
	f := newControllerFixture(t, fr, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.ctl.RequestSync(ctx, false) }()
	<-fr.entered
	cancel()
	close(fr.gate)

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if !f.store.IsEmpty() {
		t.Fatal("store mutated by a cancelled fetch")
	}
	if !f.ctl.CanLoadMore() {
		t.Fatal("CanLoadMore changed by a cancelled fetch")
	}
	if f.ctl.Fetching() {
		t.Fatal("Fetching still set after cancelled fetch returned")
	}
}

func TestRequestSyncReconcilesDeletedOnce(t *testing.T) {
	fr := &fakeRemote{
		ids: []int64{1},
		pageFn: func(remote.PageQuery) ([]comment.Comment, error) {
			return []comment.Comment{testComment(1, comment.StatusApproved)}, nil
		},
	}
	f := newControllerFixture(t, fr, true)
	// Stale cache entry 99 was deleted server-side.
	if err := f.cache.ReplaceAll(context.Background(), "site-1", []comment.Comment{
		testComment(1, comment.StatusApproved),
		testComment(99, comment.StatusApproved),
	}); err != nil {
		t.Fatal(err)
	}

	if err := f.ctl.RequestSync(context.Background(), false); err != nil {
		t.Fatalf("RequestSync: %v", err)
	}
	if err := f.ctl.RequestSync(context.Background(), false); err != nil {
		t.Fatalf("second RequestSync: %v", err)
	}

	if fr.idsCalls != 1 {
		t.Fatalf("idsCalls = %d, want 1", fr.idsCalls)
	}
	cached, err := f.cache.LoadCached(context.Background(), "site-1")
	if err != nil {
		t.Fatal(err)
	}
	wantIDs(t, comment.IDs(cached), []int64{1})
}

func TestRequestSyncReconcileFailureDoesNotBlockFetch(t *testing.T) {
	fr := &fakeRemote{
		idsErr: errors.New("ids endpoint down"),
		pageFn: func(remote.PageQuery) ([]comment.Comment, error) {
			return []comment.Comment{testComment(1, comment.StatusApproved)}, nil
		},
	}
	f := newControllerFixture(t, fr, true)

	if err := f.ctl.RequestSync(context.Background(), false); err != nil {
		t.Fatalf("RequestSync: %v", err)
	}
	wantIDs(t, storeIDs(t, f.store), []int64{1})

	// The attempt is not retried on the next refresh.
	if err := f.ctl.RequestSync(context.Background(), false); err != nil {
		t.Fatalf("second RequestSync: %v", err)
	}
	if fr.idsCalls != 1 {
		t.Fatalf("idsCalls = %d, want 1", fr.idsCalls)
	}
}

func TestPresentationTransitionsPublishedOnce(t *testing.T) {
	fr := &fakeRemote{
		pageFn: func(remote.PageQuery) ([]comment.Comment, error) {
			return []comment.Comment{testComment(1, comment.StatusApproved)}, nil
		},
	}
	f := newControllerFixture(t, fr, true)

	if err := f.ctl.RequestSync(context.Background(), false); err != nil {
		t.Fatalf("RequestSync: %v", err)
	}

	var states []State
	for _, ev := range f.drainEvents() {
		if ev.Kind == KindPresentationChanged {
			states = append(states, ev.State)
		}
	}
	// no_content -> loading -> content; every hop published exactly once.
	want := []State{StateLoading, StateContent}
	if len(states) != len(want) {
		t.Fatalf("presentation events = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("presentation events = %v, want %v", states, want)
		}
	}

	// Re-deriving without a change publishes nothing.
	f.ctl.RefreshPresentation()
	for _, ev := range f.drainEvents() {
		if ev.Kind == KindPresentationChanged {
			t.Fatalf("unexpected presentation event %+v", ev)
		}
	}
}

func TestControllerFixtureTimeouts(t *testing.T) {
	// Guard against a regression deadlocking the gate-based tests.
	fr := &fakeRemote{entered: make(chan struct{}, 1), gate: make(chan struct{})}
	f := newControllerFixture(t, fr, true)

	done := make(chan error, 1)
	go func() { done <- f.ctl.RequestSync(context.Background(), false) }()

	select {
	case <-fr.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch never started")
	}
	close(fr.gate)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch never finished")
	}
}
