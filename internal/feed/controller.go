package feed

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rubrical-studios/gh-gfi/internal/api"
	"github.com/rubrical-studios/gh-gfi/internal/filter"
)

// DefaultQuietWindow is how long the filter must stay unchanged before a fetch
const DefaultQuietWindow = 500 * time.Millisecond

// PageFetcher loads one page of the remote catalog (implemented by api.Fetcher)
type PageFetcher interface {
	FetchPage(ctx context.Context, filters api.IssueFilters, page, size int) (*api.Page, error)
}

// State is the controller's position in the debounce cycle
type State int

const (
	// StateIdle means no timer is armed and no fetch is outstanding
	StateIdle State = iota
	// StatePendingFetch means a quiet-window timer is armed
	StatePendingFetch
	// StateInFlight means the most recently dispatched fetch has not resolved
	StateInFlight
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingFetch:
		return "pending"
	case StateInFlight:
		return "in-flight"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of the controller's observable state
type Snapshot struct {
	// Version increases with every transition
	Version     uint64
	State       State
	Spec        filter.Spec // filter the issues belong to
	Pending     filter.Spec // most recently submitted filter
	Issues      []api.Issue
	PageInfo    api.PageInfo
	HasPage     bool
	CanLoadMore bool
}

// Options configures a Controller. Zero values select defaults.
type Options struct {
	PageSize    int
	QuietWindow time.Duration
	Clock       Clock
	Spawn       Spawner

	// OnChange receives a snapshot after every state transition, in
	// Version order. It must not call back into the Controller.
	OnChange func(Snapshot)
	// OnError receives fetch failures for the current filter
	OnError func(error)

	Logger *zerolog.Logger
}

// fetchTicket tags a dispatched fetch with the filter that triggered it
type fetchTicket struct {
	id    string
	spec  filter.Spec
	page  int
	epoch uint64
}

// Controller turns rapid filter changes into page fetches. A fetch is issued
// only after the filter has been stable for the quiet window, and results
// are applied only if their filter is still current.
//
// All transitions happen under one mutex. Fetches and listener callbacks run
// after it is released.
type Controller struct {
	mu sync.Mutex

	fetcher PageFetcher
	acc     *Accumulator

	pageSize int
	quiet    time.Duration
	clock    Clock
	spawn    Spawner
	onChange func(Snapshot)
	onError  func(error)
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	latest    filter.Spec
	submitted bool
	timer     Timer
	gen       uint64
	epoch     uint64 // bumped on every accumulator reset
	current   *fetchTicket
	stopped   bool
	version   uint64

	emitMu  sync.Mutex
	emitted uint64
}

// NewController creates an idle controller with an empty accumulator
func NewController(fetcher PageFetcher, opts Options) *Controller {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = api.DefaultPageSize
	}
	quiet := opts.QuietWindow
	if quiet <= 0 {
		quiet = DefaultQuietWindow
	}
	clock := opts.Clock
	if clock == nil {
		clock = RealClock()
	}
	spawn := opts.Spawn
	if spawn == nil {
		spawn = GoSpawn
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		fetcher:  fetcher,
		acc:      NewAccumulator(),
		pageSize: pageSize,
		quiet:    quiet,
		clock:    clock,
		spawn:    spawn,
		onChange: opts.OnChange,
		onError:  opts.OnError,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit records spec as the latest filter and restarts the quiet window.
// It returns false when spec equals the latest submitted filter or the
// controller is stopped.
func (c *Controller) Submit(spec filter.Spec) bool {
	c.mu.Lock()
	if c.stopped || (c.submitted && spec.Equal(c.latest)) {
		c.mu.Unlock()
		return false
	}

	c.latest = spec
	c.submitted = true
	c.armLocked()
	c.log.Debug().Str("filter", spec.Key()).Msg("filter submitted")
	snap := c.transitionLocked()
	c.mu.Unlock()

	c.emit(snap)
	return true
}

// armLocked cancels any armed timer and starts a new quiet window
func (c *Controller) armLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.quiet, func() { c.fire(gen) })
}

// fire runs when a quiet window elapses
func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if c.stopped || gen != c.gen || c.timer == nil {
		c.mu.Unlock()
		return
	}
	c.timer = nil

	spec := c.latest
	var ticket *fetchTicket
	if spec.Equal(c.acc.Spec()) && (c.acc.HasPage() || c.current != nil) {
		c.log.Debug().Str("filter", spec.Key()).Msg("filter unchanged, skipping fetch")
	} else {
		c.resetLocked(spec)
		ticket = c.dispatchLocked(spec, 0)
	}
	snap := c.transitionLocked()
	c.mu.Unlock()

	c.emit(snap)
	c.start(ticket)
}

// LoadMore fetches the page after the last appended one. It returns false
// unless the controller is idle and more pages exist.
func (c *Controller) LoadMore() bool {
	c.mu.Lock()
	if c.stopped || c.stateLocked() != StateIdle || !c.acc.CanLoadMore() {
		c.mu.Unlock()
		return false
	}
	ticket := c.dispatchLocked(c.acc.Spec(), c.acc.PageIndex()+1)
	snap := c.transitionLocked()
	c.mu.Unlock()

	c.emit(snap)
	c.start(ticket)
	return true
}

// Retry clears the results and fetches page 0 of the latest filter again.
// It returns false while a fetch is outstanding.
func (c *Controller) Retry() bool {
	c.mu.Lock()
	if c.stopped || c.current != nil {
		c.mu.Unlock()
		return false
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
		c.gen++
	}
	c.resetLocked(c.latest)
	ticket := c.dispatchLocked(c.latest, 0)
	snap := c.transitionLocked()
	c.mu.Unlock()

	c.emit(snap)
	c.start(ticket)
	return true
}

// Stop disarms the timer and cancels outstanding requests. Results that
// arrive afterwards are ignored.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.cancel()
}

// Snapshot returns the current observable state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the current debounce state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// resetLocked starts a new result set. Fetches dispatched before it are stale
// even when their filter is equal to spec.
func (c *Controller) resetLocked(spec filter.Spec) {
	c.acc.Reset(spec)
	c.epoch++
}

func (c *Controller) dispatchLocked(spec filter.Spec, page int) *fetchTicket {
	t := &fetchTicket{id: uuid.NewString(), spec: spec, page: page, epoch: c.epoch}
	c.current = t
	c.log.Debug().
		Str("ticket", t.id).
		Str("filter", spec.Key()).
		Int("page", page).
		Msg("dispatching fetch")
	return t
}

// start hands a dispatched fetch to the spawner
func (c *Controller) start(t *fetchTicket) {
	if t == nil {
		return
	}
	ctx := c.ctx
	c.spawn(func() {
		page, err := c.fetcher.FetchPage(ctx, t.spec.Filters(), t.page, c.pageSize)
		c.resolve(t, page, err)
	})
}

// resolve applies a fetch result. Only the most recently dispatched fetch
// moves the controller out of StateInFlight or reports an error.
func (c *Controller) resolve(t *fetchTicket, page *api.Page, err error) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}

	latest := t == c.current
	if latest {
		c.current = nil
	}

	var report error
	switch {
	case err != nil && latest:
		report = err
		c.log.Debug().Err(err).Str("ticket", t.id).Msg("fetch failed")
	case err != nil:
		c.log.Debug().Err(err).Str("ticket", t.id).Msg("discarding failure of superseded fetch")
	case t.epoch != c.epoch:
		c.log.Debug().Str("ticket", t.id).Str("filter", t.spec.Key()).Msg("discarding page from before the last reset")
	default:
		if appendErr := c.acc.AppendPage(page, t.spec); appendErr != nil {
			c.log.Debug().Str("ticket", t.id).Str("filter", t.spec.Key()).Msg("discarding stale page")
		}
	}
	snap := c.transitionLocked()
	c.mu.Unlock()

	if report != nil && c.onError != nil {
		c.onError(report)
	}
	c.emit(snap)
}

func (c *Controller) stateLocked() State {
	switch {
	case c.timer != nil:
		return StatePendingFetch
	case c.current != nil:
		return StateInFlight
	default:
		return StateIdle
	}
}

// transitionLocked records a transition and returns its snapshot
func (c *Controller) transitionLocked() Snapshot {
	c.version++
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	info, hasPage := c.acc.PageInfo()
	return Snapshot{
		Version:     c.version,
		State:       c.stateLocked(),
		Spec:        c.acc.Spec(),
		Pending:     c.latest,
		Issues:      c.acc.Issues(),
		PageInfo:    info,
		HasPage:     hasPage,
		CanLoadMore: c.acc.CanLoadMore(),
	}
}

// emit delivers s unless a newer snapshot has already been delivered
func (c *Controller) emit(s Snapshot) {
	if c.onChange == nil {
		return
	}
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if s.Version <= c.emitted {
		c.log.Debug().Uint64("version", s.Version).Msg("dropping superseded snapshot")
		return
	}
	c.emitted = s.Version
	c.onChange(s)
}
