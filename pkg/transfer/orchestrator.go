package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/internal/logging"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/ports"
)

// Listener receives a session snapshot on every state change. Snapshots are
// deep copies; mutating one never affects engine state.
type Listener func(domain.Session)

// Orchestrator drives one transfer session through its mode's step sequence.
// It is bound to exactly one session record, one chain adapter and one store.
//
// Two orchestrators constructed over the same session ID produce undefined
// interleaving of persistence writes; that contract belongs to the caller.
type Orchestrator struct {
	store   ports.SessionStore
	adapter ports.ChainAdapter
	logger  *slog.Logger

	mu        sync.Mutex
	session   domain.Session
	driving   bool
	cancelled bool

	listeners  map[int]Listener
	nextListID int

	// Async persistence bookkeeping: writes are chained so snapshots land
	// in step-completion order, and waited for before a record removal.
	saveMu   sync.Mutex
	savePrev chan struct{}
	saves    sync.WaitGroup

	handlers map[domain.Step]stepFunc

	paymaster bool // creation-time flag, consumed by Create only
}

type stepFunc func(ctx context.Context) error

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger configures a logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithListener subscribes a listener at construction time.
func WithListener(fn Listener) Option {
	return func(o *Orchestrator) {
		o.listeners[o.nextListID] = fn
		o.nextListID++
	}
}

// WithPaymaster makes the smart-account user operation use a paymaster for
// gas. Only meaningful on Create in smart-account mode; ignored on Resume.
func WithPaymaster() Option {
	return func(o *Orchestrator) {
		o.paymaster = true
	}
}

func newOrchestrator(session domain.Session, store ports.SessionStore, adapter ports.ChainAdapter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		adapter:   adapter,
		logger:    logging.NewNop(),
		session:   session,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.handlers = o.buildHandlers()
	return o
}

// Create allocates a fresh session ID, builds the initial record, persists it
// and returns a bound orchestrator. The engine performs no amount or address
// validation; parameters are the caller's responsibility.
func Create(ctx context.Context, store ports.SessionStore, adapter ports.ChainAdapter, mode domain.Mode, amount, destinationAddress string, opts ...Option) (*Orchestrator, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown execution mode %q", mode)
	}

	o := newOrchestrator(domain.Session{}, store, adapter, opts...)
	o.session = domain.NewSession(uuid.NewString(), mode, amount, destinationAddress, o.paymaster)
	// The handler table depends on the mode, which was unknown above.
	o.handlers = o.buildHandlers()

	// Persist immediately to reserve the ID. A store failure is logged but
	// does not block progress; the next step update retries the write.
	if err := store.Save(ctx, o.session.ID, o.session); err != nil {
		o.logger.Warn("failed to persist new session",
			"session_id", o.session.ID,
			"err", err,
		)
	}
	return o, nil
}

// Resume loads the session record for the given ID and binds a new
// orchestrator to it. Returns domain.ErrSessionNotFound when no record exists.
//
// A persisted Loading flag cannot be trusted after a restart because no
// operation is actually in flight anymore, so Loading and Error are cleared
// unconditionally on load.
func Resume(ctx context.Context, store ports.SessionStore, adapter ports.ChainAdapter, id string, opts ...Option) (*Orchestrator, error) {
	session, err := store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resume session %s: %w", id, err)
	}

	session.Loading = false
	session.Error = ""

	return newOrchestrator(session, store, adapter, opts...), nil
}

// ID returns the session identifier, usable as a resume token.
func (o *Orchestrator) ID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.ID
}

// State returns an immutable snapshot of the current session.
func (o *Orchestrator) State() domain.Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.Clone()
}

// Subscribe registers a listener and returns its unsubscribe function.
// Listeners are notified synchronously, in subscription order is not
// guaranteed. A panicking listener is isolated and logged.
func (o *Orchestrator) Subscribe(fn Listener) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextListID
	o.nextListID++
	o.listeners[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.listeners, id)
		o.mu.Unlock()
	}
}

// apply merges a patch through domain.Apply, notifies listeners with a
// snapshot, and issues the persistence write. The write is intentionally not
// awaited: observers see the update immediately, and at most the very latest
// single-step update can be lost on a crash, which resumption re-executes
// safely.
//
// Once the session is cancelled the patch is discarded: a step handler that
// was in flight when Cancel ran must not advance state, notify observers, or
// re-save the removed record. The save slot is reserved while holding mu so
// a patch admitted just before cancellation has its write drained by Cancel
// before the record removal.
func (o *Orchestrator) apply(ctx context.Context, p domain.Patch) error {
	o.mu.Lock()
	if o.cancelled {
		o.mu.Unlock()
		return nil
	}
	next, err := o.session.Apply(p)
	if err != nil {
		o.mu.Unlock()
		return fmt.Errorf("apply session patch: %w", err)
	}
	o.session = next
	snapshot := next.Clone()
	listeners := o.snapshotListenersLocked()
	slot := o.reserveSave()
	o.mu.Unlock()

	o.notify(snapshot, listeners)
	o.launchSave(ctx, snapshot, slot)
	return nil
}

// snapshotListenersLocked copies the listener list so a listener
// unsubscribing itself mid-notification cannot corrupt the iteration.
func (o *Orchestrator) snapshotListenersLocked() []Listener {
	out := make([]Listener, 0, len(o.listeners))
	for _, fn := range o.listeners {
		out = append(out, fn)
	}
	return out
}

func (o *Orchestrator) notify(snapshot domain.Session, listeners []Listener) {
	for _, fn := range listeners {
		o.safeNotify(snapshot, fn)
	}
}

// safeNotify delivers one notification, isolating listener panics so they
// never affect engine state or the remaining listeners.
func (o *Orchestrator) safeNotify(snapshot domain.Session, fn Listener) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("transfer listener panicked",
				"session_id", snapshot.ID,
				"step", snapshot.Step,
				"panic", r,
			)
		}
	}()
	fn(snapshot.Clone())
}

// saveSlot is a reserved position in the write chain.
type saveSlot struct {
	prev chan struct{}
	done chan struct{}
}

// reserveSave claims the next position in the write chain so updates reach
// the store in order. drainSaves waits for reserved slots even before their
// goroutine launches.
func (o *Orchestrator) reserveSave() saveSlot {
	o.saveMu.Lock()
	defer o.saveMu.Unlock()

	slot := saveSlot{prev: o.savePrev, done: make(chan struct{})}
	o.savePrev = slot.done
	o.saves.Add(1)
	return slot
}

// launchSave issues the write without blocking the caller.
func (o *Orchestrator) launchSave(ctx context.Context, snapshot domain.Session, slot saveSlot) {
	// Detach from the caller's cancellation: the write must not be torn
	// down by a request context that ends right after Execute returns.
	bg := context.WithoutCancel(ctx)

	go func() {
		defer o.saves.Done()
		defer close(slot.done)
		if slot.prev != nil {
			<-slot.prev
		}
		if err := o.store.Save(bg, snapshot.ID, snapshot); err != nil {
			o.logger.Warn("failed to persist session update",
				"session_id", snapshot.ID,
				"step", snapshot.Step,
				"err", err,
			)
		}
	}()
}

// drainSaves blocks until every issued persistence write has settled. Called
// before removing a record so a trailing write cannot resurrect it.
func (o *Orchestrator) drainSaves() {
	o.saves.Wait()
}
