package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jrsteele09/go-rolegate/identity"
	ierrors "github.com/jrsteele09/go-rolegate/internal/errors"
	"github.com/jrsteele09/go-rolegate/roles"
	"github.com/jrsteele09/go-rolegate/rolestore"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrRoleLookupFailure = ierrors.ErrRoleLookupFailure
	ErrAdapterEvent      = ierrors.ErrAdapterEvent
	ErrNotStarted        = ierrors.ErrNotStarted
	ErrAlreadyStarted    = ierrors.ErrAlreadyStarted
	ErrClosed            = ierrors.ErrClosed
)

type inputKind int

const (
	identityChanged inputKind = iota
	lookupCompleted
	refreshRequested
)

// input is one event for the serial queue.
type input struct {
	kind       inputKind
	identity   identity.Identity
	generation uint64 // captured generation for lookupCompleted
	role       roles.Role
	err        error
}

// Controller owns the session. Identity changes and role lookup completions
// are applied one at a time, in arrival order, by whichever goroutine finds
// the queue idle. Lookups are stamped with the generation that issued them and
// their results are dropped once a newer generation exists.
type Controller struct {
	provider identity.Provider
	roles    rolestore.Client
	logger   zerolog.Logger

	lock         sync.Mutex
	state        Snapshot
	queue        []input
	draining     bool
	started      bool
	closed       bool
	stopProvider func()

	current   atomic.Pointer[Snapshot]
	listeners *registry
	counters  counters

	lookupCtx     context.Context
	cancelLookups context.CancelFunc
	firstEvent    chan struct{}
	done          chan struct{}
}

// ControllerOption defines a function type to modify the Controller instance.
type ControllerOption func(*Controller)

// WithLogger sets the logger (defaults to the global zerolog logger).
func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a controller in StatusInitializing. Call Start to
// subscribe to the provider.
func NewController(provider identity.Provider, roleClient rolestore.Client, options ...ControllerOption) (*Controller, error) {
	if provider == nil {
		return nil, errors.New("[NewController] identity provider is required")
	}
	if roleClient == nil {
		return nil, errors.New("[NewController] role store client is required")
	}

	c := &Controller{
		provider:   provider,
		roles:      roleClient,
		logger:     log.Logger,
		firstEvent: make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range options {
		opt(c)
	}
	c.listeners = newRegistry(c.logger)
	c.lookupCtx, c.cancelLookups = context.WithCancel(context.Background())

	initial := Snapshot{Status: StatusInitializing}
	c.state = initial
	c.current.Store(&initial)
	return c, nil
}

// Start subscribes to the identity provider and waits until the first identity
// event has been applied. It fails with ErrAdapterEvent when the provider
// rejects the subscription or ctx ends first; the subscription is kept in the
// latter case so a late first event is still applied. Close ends the wait with
// ErrClosed.
func (c *Controller) Start(ctx context.Context) error {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return ErrClosed
	}
	if c.started {
		c.lock.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.lock.Unlock()

	stop, err := c.provider.OnIdentityChange(c.handleIdentityChange)
	if err != nil {
		return ierrors.Join(ErrAdapterEvent, errors.Wrap(err, "[Controller.Start] OnIdentityChange"))
	}

	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		stop()
		return ErrClosed
	}
	c.stopProvider = stop
	c.lock.Unlock()

	select {
	case <-c.firstEvent:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ierrors.Join(ErrAdapterEvent, fmt.Errorf("[Controller.Start] no identity event before deadline: %w", ctx.Err()))
	}
}

// Close unsubscribes from the provider and cancels in-flight lookups. The last
// snapshot stays readable; later events are ignored.
func (c *Controller) Close() {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return
	}
	c.closed = true
	c.queue = nil
	close(c.done)
	stop := c.stopProvider
	c.stopProvider = nil
	c.lock.Unlock()

	c.cancelLookups()
	if stop != nil {
		stop()
	}
}

// CurrentSnapshot returns the latest committed snapshot without blocking.
func (c *Controller) CurrentSnapshot() Snapshot {
	return *c.current.Load()
}

// Subscribe registers l and delivers the current snapshot to it before
// returning, then every later commit in order. Calling the returned function
// stops delivery.
func (c *Controller) Subscribe(l Listener) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}
	sub := c.listeners.add(l)
	c.listeners.deliver(sub, c.CurrentSnapshot())

	var once sync.Once
	return func() {
		once.Do(func() {
			c.listeners.remove(sub)
		})
	}
}

// SignOut asks the provider to end the session. State changes only when the
// provider reports the resulting identity change.
func (c *Controller) SignOut(ctx context.Context) error {
	c.lock.Lock()
	closed := c.closed
	c.lock.Unlock()
	if closed {
		return ErrClosed
	}
	if err := c.provider.SignOut(ctx); err != nil {
		return errors.Wrap(err, "[Controller.SignOut] provider.SignOut")
	}
	return nil
}

// Refresh re-resolves the role of the signed-in identity under a new
// generation. It does nothing while signed out or before the first event.
func (c *Controller) Refresh() error {
	c.lock.Lock()
	started, closed := c.started, c.closed
	c.lock.Unlock()
	switch {
	case closed:
		return ErrClosed
	case !started:
		return ErrNotStarted
	}
	c.enqueue(input{kind: refreshRequested})
	return nil
}

// Stats returns the controller counters.
func (c *Controller) Stats() Stats {
	s := c.counters.snapshot()
	s.Listeners = c.listeners.count()
	return s
}

func (c *Controller) handleIdentityChange(id identity.Identity) {
	c.counters.identityEvents.Add(1)
	c.enqueue(input{kind: identityChanged, identity: id})
}

// enqueue appends in and, if no other goroutine is applying inputs, applies
// the queue until it is empty. Listeners run outside the lock so they may call
// back into the controller; anything they trigger is queued behind the
// current commit.
func (c *Controller) enqueue(in input) {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return
	}
	c.queue = append(c.queue, in)
	if c.draining {
		c.lock.Unlock()
		return
	}
	c.draining = true

	for len(c.queue) > 0 && !c.closed {
		next := c.queue[0]
		c.queue = c.queue[1:]

		snap, committed := c.apply(next)
		if !committed {
			continue
		}
		c.current.Store(&snap)

		c.lock.Unlock()
		c.listeners.publish(snap)
		c.lock.Lock()
	}
	c.draining = false
	c.lock.Unlock()
}

// apply computes the transition for in. Must be called with c.lock held.
func (c *Controller) apply(in input) (Snapshot, bool) {
	switch in.kind {
	case identityChanged:
		return c.applyIdentity(in.identity)
	case lookupCompleted:
		return c.applyLookup(in)
	case refreshRequested:
		return c.applyRefresh()
	}
	return Snapshot{}, false
}

func (c *Controller) applyIdentity(id identity.Identity) (Snapshot, bool) {
	first := c.state.Status == StatusInitializing
	if !first && c.state.Identity == id {
		c.counters.duplicateEvents.Add(1)
		c.logger.Debug().Str("user_id", id.ID).Uint64("generation", c.state.Generation).Msg("duplicate identity event ignored")
		return Snapshot{}, false
	}
	if !first && c.state.Identity.Same(id) {
		// Same principal with new profile fields; the role does not depend on them
		next := c.state
		next.Identity = id
		next.Revision++
		c.state = next
		c.logger.Debug().Str("user_id", id.ID).Uint64("generation", next.Generation).Msg("identity profile updated")
		return next, true
	}

	next := Snapshot{
		Identity:   id,
		Role:       roles.None,
		Status:     StatusReady,
		Generation: c.state.Generation + 1,
		Revision:   c.state.Revision + 1,
	}
	if !id.IsZero() {
		next.Status = StatusResolving
		c.startLookup(next.Generation, id.ID)
	}
	c.state = next
	if first {
		close(c.firstEvent)
	}

	c.logger.Debug().Str("user_id", id.ID).Uint64("generation", next.Generation).Stringer("status", next.Status).Msg("identity changed")
	return next, true
}

func (c *Controller) applyLookup(in input) (Snapshot, bool) {
	if in.generation != c.state.Generation || c.state.Status != StatusResolving {
		c.counters.staleDiscarded.Add(1)
		c.logger.Debug().
			Err(ierrors.ErrStaleResult).
			Uint64("captured_generation", in.generation).
			Uint64("current_generation", c.state.Generation).
			Msg("role lookup result discarded")
		return Snapshot{}, false
	}

	err := in.err
	if err == nil && in.role != roles.None && !in.role.Valid() {
		err = ierrors.Wrapf(roles.ErrUnknownRole, "[Controller] role store returned %q", string(in.role))
	}

	next := c.state
	next.Revision++
	if err != nil {
		next.Status = StatusError
		next.Role = roles.None
		next.LastError = ierrors.Join(ErrRoleLookupFailure, err)
		c.counters.lookupsFailed.Add(1)
		c.logger.Warn().Err(err).Str("user_id", next.Identity.ID).Uint64("generation", next.Generation).Msg("role lookup failed")
	} else {
		next.Status = StatusReady
		next.Role = in.role
		next.LastError = nil
		c.counters.lookupsApplied.Add(1)
		c.logger.Debug().Str("user_id", next.Identity.ID).Stringer("role", next.Role).Uint64("generation", next.Generation).Msg("role resolved")
	}
	c.state = next
	return next, true
}

func (c *Controller) applyRefresh() (Snapshot, bool) {
	if c.state.Status == StatusInitializing || !c.state.SignedIn() {
		return Snapshot{}, false
	}
	next := Snapshot{
		Identity:   c.state.Identity,
		Role:       roles.None,
		Status:     StatusResolving,
		Generation: c.state.Generation + 1,
		Revision:   c.state.Revision + 1,
	}
	c.startLookup(next.Generation, next.Identity.ID)
	c.state = next
	c.logger.Debug().Str("user_id", next.Identity.ID).Uint64("generation", next.Generation).Msg("role refresh requested")
	return next, true
}

// startLookup issues the role lookup tagged with generation. Must be called with c.lock held.
func (c *Controller) startLookup(generation uint64, userID string) {
	c.counters.lookupsIssued.Add(1)
	ctx := c.lookupCtx
	go func() {
		role, err := c.lookup(ctx, userID)
		c.enqueue(input{kind: lookupCompleted, generation: generation, role: role, err: err})
	}()
}

func (c *Controller) lookup(ctx context.Context, userID string) (role roles.Role, err error) {
	defer func() {
		if r := recover(); r != nil {
			role, err = roles.None, fmt.Errorf("[Controller.lookup] role store panicked: %v", r)
		}
	}()
	return c.roles.LookupRole(ctx, userID)
}
