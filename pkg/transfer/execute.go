package transfer

import (
	"context"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
)

// Execute drives the session forward until the terminal step, a step failure,
// or a transition-table miss. It is safe to call repeatedly: each call retries
// the current step and continues from wherever the session stands.
//
// Step-handler failures never surface through the returned error; they are
// recorded in the snapshot's Error field, which is the canonical failure
// carrier, and the step stays put for retry. The returned error is reserved
// for store removal failures during the automatic cleanup of a completed
// session.
//
// Calling Execute while a step is already in flight is a no-op that returns
// the current snapshot unchanged.
func (o *Orchestrator) Execute(ctx context.Context) (domain.Session, error) {
	o.mu.Lock()
	if o.driving || o.session.Loading {
		snapshot := o.session.Clone()
		o.mu.Unlock()
		return snapshot, nil
	}
	o.driving = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.driving = false
		o.mu.Unlock()
	}()

	// A new attempt clears the previous failure.
	if o.State().Error != "" {
		if err := o.apply(ctx, domain.Patch{Error: strPtr("")}); err != nil {
			o.logger.Error("failed to clear previous error", "err", err)
		}
	}

	o.drive(ctx)

	snapshot := o.State()
	if snapshot.Terminal() {
		if err := o.cleanup(ctx); err != nil {
			return snapshot, err
		}
	}
	return snapshot, nil
}

// drive runs the step loop. Iteration is bounded by the mode's step count + 1,
// guaranteeing termination even if a handler misbehaves.
func (o *Orchestrator) drive(ctx context.Context) {
	limit := len(o.State().Mode.Sequence()) + 1

	for i := 0; i < limit; i++ {
		o.mu.Lock()
		cancelled := o.cancelled
		current := o.session.Step
		o.mu.Unlock()

		// Cancellation is cooperative: it takes effect between handler
		// invocations, never mid-flight.
		if cancelled {
			return
		}

		handler, ok := o.handlers[current]
		if !ok {
			if current != domain.StepCompleted {
				o.logger.Warn("no handler for step, halting",
					"session_id", o.State().ID,
					"step", current,
				)
			}
			return
		}

		if err := handler(ctx); err != nil {
			// Single catch point: record the failure, clear the
			// in-flight flag, leave the step unchanged for retry.
			o.logger.Warn("step failed",
				"session_id", o.State().ID,
				"step", current,
				"err", err,
			)
			msg := err.Error()
			if applyErr := o.apply(ctx, domain.Patch{Error: &msg, Loading: boolPtr(false)}); applyErr != nil {
				o.logger.Error("failed to record step failure", "err", applyErr)
			}
			return
		}

		// Cancellation while the handler was in flight discards its
		// final apply, so the unchanged step is expected, not a table
		// disconnect.
		o.mu.Lock()
		cancelled = o.cancelled
		o.mu.Unlock()
		if cancelled {
			return
		}

		if o.State().Step == current {
			// Defends against a disconnect between handler behavior
			// and the transition table.
			o.logger.Error("handler returned without advancing step, halting",
				"session_id", o.State().ID,
				"step", current,
			)
			return
		}
	}
}

// Cancel removes the persisted record and resets local state to idle with an
// explicit cancellation marker. This is bookkeeping only: an already-submitted
// burn or mint stays pending on-chain regardless. A step handler in flight
// when Cancel runs finishes its adapter call, but its result is discarded and
// never reaches observers or the store.
func (o *Orchestrator) Cancel(ctx context.Context) error {
	o.mu.Lock()
	o.cancelled = true
	id := o.session.ID

	// A reset is not a step transition, so it bypasses the patch path:
	// the record is rebuilt at idle with the original parameters.
	reset := domain.NewSession(id, o.session.Mode, o.session.Amount, o.session.DestinationAddress, o.session.UsePaymaster)
	reset.Error = domain.ErrCancelled.Error()
	o.session = reset
	snapshot := reset.Clone()
	listeners := o.snapshotListenersLocked()
	o.mu.Unlock()

	o.notify(snapshot, listeners)

	o.drainSaves()
	if err := o.store.Remove(ctx, id); err != nil {
		o.logger.Warn("failed to remove cancelled session", "session_id", id, "err", err)
		return err
	}
	return nil
}

// cleanup deletes the completed record so finished sessions never accumulate
// in storage. Remove failures surface to the caller per the store contract.
func (o *Orchestrator) cleanup(ctx context.Context) error {
	id := o.ID()
	o.drainSaves()
	if err := o.store.Remove(ctx, id); err != nil {
		o.logger.Warn("failed to remove completed session", "session_id", id, "err", err)
		return err
	}
	o.logger.Info("transfer completed, session removed", "session_id", id)
	return nil
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }
