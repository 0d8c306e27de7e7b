package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Func is the asynchronous search capability a Controller reconciles against.
// Implementations map one backend procedure into the Page contract.
type Func[T any] func(ctx context.Context, req Request) (Page[T], error)

// Controller owns the query, filters, page cursor and result set of one screen.
//
// All methods are safe for concurrent use. Fetches run in their own goroutines and
// only the result of the most recently dispatched fetch is ever applied.
type Controller[T any] struct {
	fn         Func[T]
	normalizer Normalizer
	pageSize   int
	listAll    bool
	logger     zerolog.Logger
	onChange   func()
	debouncer  *Debouncer

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	query      Query
	filters    FilterSet
	pageIndex  int
	items      []T
	totalCount int
	state      State
	err        error
	version    uint64

	// seq is the highest sequence number dispatched so far.
	seq         uint64
	cancelFetch context.CancelFunc

	// debounceGen invalidates a debounce callback that fired after being superseded.
	debounceGen     uint64
	debouncePending bool

	closed  bool
	changed chan struct{}
}

// New creates a Controller around fn. The controller starts idle; list screens
// created WithListAll typically call Refresh once to load the first page.
func New[T any](fn Func[T], opts ...Option) (*Controller[T], error) {
	if fn == nil {
		return nil, ErrNilSearchFunc
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.pageSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPageSize, o.pageSize)
	}
	if o.debounce < 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidDebounce, o.debounce)
	}

	logger := zerolog.Ctx(o.ctx).With().Str("component", "search").Logger()
	if o.logger != nil {
		logger = *o.logger
	}

	ctx, cancel := context.WithCancel(o.ctx)
	c := &Controller[T]{
		fn:         fn,
		normalizer: o.normalizer,
		pageSize:   o.pageSize,
		listAll:    o.listAll,
		logger:     logger,
		onChange:   o.onChange,
		debouncer:  NewDebouncer(o.debounce),
		ctx:        ctx,
		cancel:     cancel,
		state:      StateIdle,
		changed:    make(chan struct{}),
	}
	if c.listAll {
		c.query = Query{Type: SearchAll}
	}
	return c, nil
}

// SetQuery stores the raw query text and schedules a debounced fetch. Text that
// trims to empty clears the result set and returns to idle without fetching,
// unless the controller lists everything on an empty query.
func (c *Controller[T]) SetQuery(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	query, ok := c.normalizer.Normalize(text)
	c.pageIndex = 0

	if !ok && !c.listAll {
		c.query = query
		c.cancelDebounceLocked()
		c.supersedeLocked()
		c.items = nil
		c.totalCount = 0
		c.err = nil
		c.state = StateIdle
		c.logger.Debug().
			Str("operation", "set_query").
			Uint64("seq", c.seq).
			Msg("query cleared")
		c.changedLocked()
		c.mu.Unlock()
		c.notify()
		return
	}

	if !ok {
		query.Type = SearchAll
	}
	c.query = query
	// A fetch for the previous query or page must not land under the new one.
	c.supersedeLocked()
	c.armDebounceLocked()
	c.changedLocked()
	c.mu.Unlock()
	c.notify()
}

// SetFilters replaces the filter set, resets to the first page and fetches
// immediately. With no active query the filters are stored for the next search.
func (c *Controller[T]) SetFilters(filters FilterSet) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.filters = filters.Clone()
	c.pageIndex = 0
	if c.searchableLocked() {
		c.dispatchLocked("set_filters")
	}
	c.changedLocked()
	c.mu.Unlock()
	c.notify()
}

// GoToPage fetches page n (zero-based) of the current search. Out-of-range pages
// are ignored.
func (c *Controller[T]) GoToPage(n int) {
	c.mu.Lock()
	if c.closed || !ValidPage(n, c.totalCount, c.pageSize) {
		c.mu.Unlock()
		return
	}

	c.pageIndex = n
	c.dispatchLocked("go_to_page")
	c.changedLocked()
	c.mu.Unlock()
	c.notify()
}

// SeekPage fetches page n (zero-based) of the current search without checking n
// against the known total. Hosts use it for backends whose total is only a lower
// bound, and to open a search directly on a later page. It does nothing while
// there is no search to run.
func (c *Controller[T]) SeekPage(n int) {
	c.mu.Lock()
	if c.closed || n < 0 || !c.searchableLocked() {
		c.mu.Unlock()
		return
	}

	c.pageIndex = n
	c.dispatchLocked("seek_page")
	c.changedLocked()
	c.mu.Unlock()
	c.notify()
}

// NextPage moves one page forward if possible.
func (c *Controller[T]) NextPage() {
	c.mu.Lock()
	next := c.pageIndex + 1
	c.mu.Unlock()
	c.GoToPage(next)
}

// PreviousPage moves one page back if possible.
func (c *Controller[T]) PreviousPage() {
	c.mu.Lock()
	prev := c.pageIndex - 1
	c.mu.Unlock()
	c.GoToPage(prev)
}

// Refresh re-issues the fetch for the current query, filters and page without
// changing them. It does nothing while there is no search to repeat.
func (c *Controller[T]) Refresh() {
	c.mu.Lock()
	if c.closed || !c.searchableLocked() {
		c.mu.Unlock()
		return
	}

	c.dispatchLocked("refresh")
	c.changedLocked()
	c.mu.Unlock()
	c.notify()
}

// Flush fires a pending debounced fetch immediately.
func (c *Controller[T]) Flush() {
	c.mu.Lock()
	if c.closed || !c.debouncePending {
		c.mu.Unlock()
		return
	}

	c.dispatchLocked("flush")
	c.changedLocked()
	c.mu.Unlock()
	c.notify()
}

// Snapshot returns a copy of the host-visible state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// PageSize returns the fixed page size.
func (c *Controller[T]) PageSize() int {
	return c.pageSize
}

// Wait blocks until no debounce is pending and no fetch is in flight, then returns
// the snapshot. It returns ErrClosed if the controller is closed while waiting.
func (c *Controller[T]) Wait(ctx context.Context) (Snapshot[T], error) {
	for {
		c.mu.Lock()
		if c.closed {
			snap := c.snapshotLocked()
			c.mu.Unlock()
			return snap, ErrClosed
		}
		if !c.debouncePending && c.state != StateLoading {
			snap := c.snapshotLocked()
			c.mu.Unlock()
			return snap, nil
		}
		changed := c.changed
		c.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		}
	}
}

// Close cancels the pending debounce and every in-flight fetch. Later calls to
// any operation are no-ops.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancelDebounceLocked()
	c.supersedeLocked()
	c.changedLocked()
	c.mu.Unlock()

	c.cancel()
}

func (c *Controller[T]) searchableLocked() bool {
	return c.listAll || !c.query.IsEmpty()
}

func (c *Controller[T]) armDebounceLocked() {
	c.debounceGen++
	gen := c.debounceGen
	c.debouncePending = true
	c.debouncer.Debounce(func() {
		c.fireDebounce(gen)
	})
}

func (c *Controller[T]) cancelDebounceLocked() {
	if !c.debouncePending {
		return
	}
	c.debounceGen++
	c.debouncePending = false
	c.debouncer.Cancel()
}

func (c *Controller[T]) fireDebounce(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.debounceGen || !c.debouncePending {
		c.mu.Unlock()
		return
	}

	c.dispatchLocked("set_query")
	c.changedLocked()
	c.mu.Unlock()
	c.notify()
}

// supersedeLocked invalidates every in-flight fetch without dispatching a new one.
func (c *Controller[T]) supersedeLocked() {
	c.seq++
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
}

// dispatchLocked starts a fetch for the current query, filters and page.
func (c *Controller[T]) dispatchLocked(operation string) {
	c.cancelDebounceLocked()
	c.supersedeLocked()

	seq := c.seq
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelFetch = cancel

	req := Request{
		Query:   c.query,
		Filters: c.filters.Clone(),
		Offset:  PageOffset(c.pageIndex, c.pageSize),
		Limit:   c.pageSize,
	}
	c.state = StateLoading

	c.logger.Debug().
		Str("operation", operation).
		Uint64("seq", seq).
		Str("pattern", req.Query.Pattern).
		Str("search_type", string(req.Query.Type)).
		Str("filters", req.Filters.String()).
		Int("offset", req.Offset).
		Int("limit", req.Limit).
		Msg("dispatching search")

	go c.run(ctx, cancel, seq, req)
}

func (c *Controller[T]) run(ctx context.Context, cancel context.CancelFunc, seq uint64, req Request) {
	defer cancel()

	page, err := c.invoke(ctx, req)

	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.logger.Debug().
			Str("operation", "apply").
			Uint64("seq", seq).
			Uint64("latest_seq", c.seq).
			Msg("discarding stale search result")
		c.mu.Unlock()
		return
	}

	c.cancelFetch = nil
	if err != nil {
		c.items = nil
		c.totalCount = 0
		c.err = &SearchError{Seq: seq, Err: err}
		c.state = StateError
		c.logger.Warn().
			Str("operation", "apply").
			Uint64("seq", seq).
			Err(err).
			Msg("search failed")
	} else {
		c.items = page.Items
		c.totalCount = max(page.TotalCount, 0)
		c.err = nil
		c.state = StateLoaded
		c.logger.Debug().
			Str("operation", "apply").
			Uint64("seq", seq).
			Int("items", len(page.Items)).
			Int("total_count", c.totalCount).
			Msg("search completed")
	}
	c.changedLocked()
	c.mu.Unlock()
	c.notify()
}

// invoke calls the capability, converting a panic into an error.
//
//nolint:nonamedreturns // Named returns let the deferred recover set the error.
func (c *Controller[T]) invoke(ctx context.Context, req Request) (page Page[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			page = Page[T]{}
			err = &panicError{value: r}
		}
	}()
	return c.fn(ctx, req)
}

func (c *Controller[T]) changedLocked() {
	c.version++
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Controller[T]) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

func (c *Controller[T]) snapshotLocked() Snapshot[T] {
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Snapshot[T]{
		Version:    c.version,
		State:      c.state,
		Query:      c.query,
		Filters:    c.filters.Clone(),
		PageIndex:  c.pageIndex,
		PageSize:   c.pageSize,
		TotalCount: c.totalCount,
		TotalPages: TotalPages(c.totalCount, c.pageSize),
		Items:      items,
		Err:        c.err,
	}
}
