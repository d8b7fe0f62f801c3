package userlist

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	domain "user-browser-service/internal/domain/user"
)

// Controller owns the loading, paging and search state of a user list.
// Gestures return immediately; fetches run on their own goroutine and their
// results are applied under the controller lock.
//
// Every issued fetch takes the next request token. A result is applied only
// while its token is still the latest, so a start or refresh supersedes any
// fetch already in flight.
type Controller struct {
	source Source      // Remote page source
	opts   Options     // Timing and paging policy
	log    *zap.Logger // Logger for structured logging

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	closed      bool
	all         []domain.Record
	visible     []domain.Record
	query       string
	currentPage int
	phase       Phase
	allLoaded   bool
	inflight    operation
	token       uint64
	lastErr     error
	failedOp    operation
	failedPage  int
}

// New creates a new Controller. Zero-valued PageSize falls back to the default.
func New(source Source, opts Options, log *zap.Logger) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = domain.DefaultPageSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Controller{
		source:      source,
		opts:        opts,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
		all:         []domain.Record{},
		visible:     []domain.Record{},
		currentPage: 1,
		phase:       PhaseIdle,
	}
}

// Start enters InitialLoading and fetches page 1 after the warm-up delay.
// It is also the manual restart after any error: paging position and the
// all-loaded flag are reset, and the list is replaced once page 1 arrives.
func (c *Controller) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	c.log.Info("starting user list", zap.Duration("warm_up", c.opts.WarmUpDelay))
	c.beginStart()
	return true
}

func (c *Controller) beginStart() {
	c.phase = PhaseInitialLoading
	c.currentPage = 1
	c.allLoaded = false
	c.clearFailure()
	c.issue(opInitial, c.pageRequest(1, true), c.opts.WarmUpDelay)
}

// Refresh refetches page 1 and, on success, replaces the list wholesale.
// A failed refresh keeps the records already loaded.
func (c *Controller) Refresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	c.log.Info("refreshing user list", zap.Int("loaded", len(c.all)))
	c.beginRefresh()
	return true
}

func (c *Controller) beginRefresh() {
	c.phase = PhaseRefreshing
	c.currentPage = 1
	c.issue(opRefresh, c.pageRequest(1, true), 0)
}

// LoadMore fetches the next page and appends it. It is a no-op while any
// fetch is running, once every page has been loaded, or while a search
// query is active. It is also a no-op in the error phase, which is left
// only through Start, Refresh or RetryLastOperation.
func (c *Controller) LoadMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if reason := c.loadMoreBlockedBy(); reason != "" {
		c.log.Debug("load more ignored", zap.String("reason", reason))
		return false
	}

	c.beginLoadMore(c.currentPage + 1)
	return true
}

func (c *Controller) loadMoreBlockedBy() string {
	switch {
	case c.closed:
		return "closed"
	case c.phase == PhaseIdle:
		return "not started"
	case c.phase == PhaseError:
		return "error"
	case c.phase.Loading():
		return "phase " + string(c.phase)
	case c.inflight != opNone:
		return "fetch in flight: " + c.inflight.String()
	case c.allLoaded:
		return "all loaded"
	case c.query != "":
		return "search active"
	default:
		return ""
	}
}

func (c *Controller) beginLoadMore(page int) {
	c.phase = PhaseLoadingMore
	if !c.opts.RollbackPageOnFailure {
		c.currentPage = page
	}
	c.log.Info("loading more users", zap.Int("page", page))
	c.issue(opLoadMore, c.pageRequest(page, false), c.opts.LoadMoreDelay)
}

// RetryLastOperation re-issues the operation that put the controller into
// the error phase. A failed load-more refetches the same page.
func (c *Controller) RetryLastOperation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.phase != PhaseError {
		return false
	}

	c.log.Info("retrying failed operation", zap.Stringer("operation", c.failedOp), zap.Int("page", c.failedPage))

	switch c.failedOp {
	case opInitial:
		c.beginStart()
	case opRefresh:
		c.beginRefresh()
	case opLoadMore:
		if c.inflight != opNone || c.allLoaded || c.query != "" {
			return false
		}
		c.beginLoadMore(c.failedPage)
	default:
		return false
	}
	return true
}

// SetSearchQuery filters the loaded records by query. It never fetches.
// Loading phases are reset to Loaded so a stuck fetch cannot block search;
// the fetch itself still completes and is applied.
func (c *Controller) SetSearchQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.query = query
	c.visible = domain.Filter(c.all, query)
	if c.phase.Loading() {
		c.phase = PhaseLoaded
	}

	c.log.Debug("search query applied", zap.String("query", query), zap.Int("visible", len(c.visible)))
}

// OnItemSelected returns the name and email to show for a picked record.
func (c *Controller) OnItemSelected(r domain.Record) Selection {
	c.log.Debug("user selected", zap.String("id", r.ID))
	return Selection{
		FullName: r.FullName(),
		Email:    r.Email,
	}
}

// Find looks up a loaded record by ID.
func (c *Controller) Find(id string) (domain.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.all {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Record{}, false
}

// Snapshot returns a copy of the view-facing state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Records:     slices.Clone(c.visible),
		Phase:       c.phase,
		AllLoaded:   c.allLoaded,
		SearchQuery: c.query,
		Count:       len(c.visible),
		Total:       len(c.all),
		CurrentPage: c.currentPage,
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

// Wait blocks until no fetch is running.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels pending delays and fetches and waits for them to exit.
// Results of cancelled fetches are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Controller) pageRequest(page int, fresh bool) domain.PageRequest {
	req := domain.NewPageRequest(page, c.opts.PageSize, c.opts.Seed)
	req.Fresh = fresh
	return req
}

func (c *Controller) clearFailure() {
	c.lastErr = nil
	c.failedOp = opNone
	c.failedPage = 0
}

// issue must be called with c.mu held.
func (c *Controller) issue(op operation, req domain.PageRequest, delay time.Duration) {
	c.token++
	c.inflight = op

	c.wg.Add(1)
	go c.run(c.token, op, req, delay)
}

func (c *Controller) run(token uint64, op operation, req domain.PageRequest, delay time.Duration) {
	defer c.wg.Done()

	if err := sleep(c.ctx, delay); err != nil {
		c.log.Debug("fetch cancelled before start", zap.Stringer("operation", op), zap.Error(err))
		return
	}
	if !c.isLatest(token) {
		c.log.Debug("fetch superseded before start", zap.Stringer("operation", op), zap.Uint64("token", token))
		return
	}

	ctx := c.ctx
	if c.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.FetchTimeout)
		defer cancel()
	}

	records, err := c.source.FetchPage(ctx, req)
	c.complete(token, op, req, records, err)
}

func (c *Controller) isLatest(token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return token == c.token
}

func (c *Controller) complete(token uint64, op operation, req domain.PageRequest, records []domain.Record, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.log.Debug("dropping result after close", zap.Stringer("operation", op))
		return
	}
	if token != c.token {
		c.log.Info("discarding stale response",
			zap.Stringer("operation", op),
			zap.Uint64("token", token),
			zap.Uint64("latest", c.token),
		)
		return
	}
	c.inflight = opNone

	if err != nil {
		c.phase = PhaseError
		c.lastErr = err
		c.failedOp = op
		c.failedPage = req.Page
		c.log.Error("fetch failed",
			zap.Stringer("operation", op),
			zap.Int("page", req.Page),
			zap.Int("current_page", c.currentPage),
			zap.Error(err),
		)
		return
	}

	switch op {
	case opInitial, opRefresh:
		c.all = slices.Clone(records)
		if c.all == nil {
			c.all = []domain.Record{}
		}
		c.allLoaded = false
		c.currentPage = 1
	case opLoadMore:
		if len(records) == 0 {
			c.allLoaded = true
		} else {
			next := make([]domain.Record, 0, len(c.all)+len(records))
			next = append(next, c.all...)
			c.all = append(next, records...)
		}
		c.currentPage = req.Page
	}

	c.visible = domain.Filter(c.all, c.query)
	c.phase = PhaseLoaded
	c.clearFailure()

	c.log.Info("fetch applied",
		zap.Stringer("operation", op),
		zap.Int("page", req.Page),
		zap.Int("batch", len(records)),
		zap.Int("total", len(c.all)),
		zap.Bool("all_loaded", c.allLoaded),
	)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
