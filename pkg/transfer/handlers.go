package transfer

import (
	"context"
	"fmt"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
)

// buildHandlers returns the mode's transition table, mapping each
// non-terminal step to the handler that executes next. The tables are fixed
// per mode; lookups outside them halt the drive loop.
func (o *Orchestrator) buildHandlers() map[domain.Step]stepFunc {
	switch o.session.Mode {
	case domain.ModeSmartAccount:
		return map[domain.Step]stepFunc{
			domain.StepIdle:     o.stepBundledApproveAndBurn,
			domain.StepBurned:   o.stepAttest,
			domain.StepAttested: o.stepMintViaRelay,
		}
	default:
		return map[domain.Step]stepFunc{
			domain.StepIdle:     o.stepApprove,
			domain.StepApproved: o.stepBurn,
			domain.StepBurned:   o.stepAttest,
			domain.StepAttested: o.stepMintDirect,
		}
	}
}

// beginStep marks the handler in flight. The existing error is preserved
// until the attempt succeeds or produces a new one.
func (o *Orchestrator) beginStep(ctx context.Context) error {
	return o.apply(ctx, domain.Patch{Loading: boolPtr(true)})
}

// stepApprove ensures the burn allowance. The adapter is idempotent: it
// checks the existing allowance first and reports "already sufficient"
// without submitting, so an approval is never double-submitted within a
// session. In that case no approval hash is recorded.
func (o *Orchestrator) stepApprove(ctx context.Context) error {
	if err := o.beginStep(ctx); err != nil {
		return err
	}

	res, err := o.adapter.Approve(ctx, o.State().Amount)
	if err != nil {
		return fmt.Errorf("approve: %w", err)
	}

	patch := domain.Patch{Step: domain.StepApproved, Loading: boolPtr(false)}
	if !res.AlreadySufficient {
		patch.ApprovalTxHash = res.TxHash
	}
	return o.apply(ctx, patch)
}

// stepBurn submits the irreversible source-chain burn.
func (o *Orchestrator) stepBurn(ctx context.Context) error {
	if err := o.beginStep(ctx); err != nil {
		return err
	}

	s := o.State()
	txHash, err := o.adapter.Burn(ctx, s.Amount, s.DestinationAddress)
	if err != nil {
		return fmt.Errorf("burn: %w", err)
	}

	return o.apply(ctx, domain.Patch{
		Step:       domain.StepBurned,
		BurnTxHash: txHash,
		Loading:    boolPtr(false),
	})
}

// stepBundledApproveAndBurn submits approve+burn as one user operation and
// waits for its on-chain receipt. The submission ID and the confirmed hash
// are persisted as two separate sub-updates: a crash between them leaves a
// resumable partial record, and resumption re-enters the wait instead of
// resubmitting.
func (o *Orchestrator) stepBundledApproveAndBurn(ctx context.Context) error {
	if err := o.beginStep(ctx); err != nil {
		return err
	}

	s := o.State()
	opID := s.UserOpHash
	if opID == "" {
		var err error
		opID, err = o.adapter.SubmitBundledApproveAndBurn(ctx, s.Amount, s.DestinationAddress, s.UsePaymaster)
		if err != nil {
			return fmt.Errorf("submit bundled approve+burn: %w", err)
		}
		// Sub-update 1: submission ID only, step stays put.
		if err := o.apply(ctx, domain.Patch{UserOpHash: opID}); err != nil {
			return err
		}
	}

	txHash, err := o.adapter.AwaitBundledOperation(ctx, opID, s.UsePaymaster)
	if err != nil {
		return fmt.Errorf("await bundled operation %s: %w", opID, err)
	}

	// Sub-update 2: confirmed hash and the step advance.
	return o.apply(ctx, domain.Patch{
		Step:                domain.StepBurned,
		UserOpReceiptTxHash: txHash,
		Loading:             boolPtr(false),
	})
}

// stepAttest suspends until the attestation service certifies the burn.
// From the engine's perspective this is one suspension point with two
// outcomes; no intermediate record updates occur while the adapter polls.
func (o *Orchestrator) stepAttest(ctx context.Context) error {
	if err := o.beginStep(ctx); err != nil {
		return err
	}

	s := o.State()
	burnRef := s.BurnTxHash
	if burnRef == "" {
		burnRef = s.UserOpReceiptTxHash
	}
	if burnRef == "" {
		return fmt.Errorf("attest: no burn transaction recorded for session %s", s.ID)
	}

	att, err := o.adapter.AwaitAttestation(ctx, burnRef)
	if err != nil {
		return fmt.Errorf("await attestation for %s: %w", burnRef, err)
	}

	return o.apply(ctx, domain.Patch{
		Step:        domain.StepAttested,
		Attestation: &att,
		Loading:     boolPtr(false),
	})
}

// stepMintDirect submits the destination mint from the session's own wallet.
func (o *Orchestrator) stepMintDirect(ctx context.Context) error {
	if err := o.beginStep(ctx); err != nil {
		return err
	}

	s := o.State()
	txHash, err := o.adapter.MintDirect(ctx, *s.Attestation)
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}

	return o.apply(ctx, domain.Patch{
		Step:       domain.StepCompleted,
		MintTxHash: txHash,
		Loading:    boolPtr(false),
	})
}

// stepMintViaRelay delegates the destination mint to the relay service.
// A relay rejection is an ordinary retryable step failure.
func (o *Orchestrator) stepMintViaRelay(ctx context.Context) error {
	if err := o.beginStep(ctx); err != nil {
		return err
	}

	s := o.State()
	txHash, err := o.adapter.MintViaRelay(ctx, *s.Attestation)
	if err != nil {
		return fmt.Errorf("mint via relay: %w", err)
	}

	return o.apply(ctx, domain.Patch{
		Step:       domain.StepCompleted,
		MintTxHash: txHash,
		Loading:    boolPtr(false),
	})
}
