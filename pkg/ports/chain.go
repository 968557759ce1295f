package ports

import (
	"context"
	"fmt"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
)

// ApproveResult distinguishes a freshly submitted approval from an allowance
// that was already sufficient, so the engine never double-submits within a
// session.
type ApproveResult struct {
	// AlreadySufficient is true when the existing allowance covered the
	// amount and no transaction was submitted.
	AlreadySufficient bool

	// TxHash is the approval transaction hash, empty when
	// AlreadySufficient is true.
	TxHash string
}

// RelayError is a machine-readable failure reported by the relay service.
// It is an ordinary retryable step failure, not a fatal condition.
type RelayError struct {
	Code    string
	Message string
}

func (e *RelayError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("relay rejected mint: %s", e.Code)
	}
	return fmt.Sprintf("relay rejected mint: %s: %s", e.Code, e.Message)
}

// ChainAdapter performs the atomic chain operations the engine sequences.
// Implementations own transaction submission, contract encoding and balance
// queries; the engine only cares about the operation outcomes.
//
// Each method suspends until its operation reaches a terminal outcome or the
// context is cancelled. Approve must be idempotent (allowance check first).
type ChainAdapter interface {
	// Approve ensures the burn contract may spend the amount.
	Approve(ctx context.Context, amount string) (ApproveResult, error)

	// Burn submits the irreversible source-chain burn and returns its
	// transaction hash.
	Burn(ctx context.Context, amount, destinationAddress string) (string, error)

	// AwaitAttestation suspends until the attestation service certifies
	// the burn, or fails.
	AwaitAttestation(ctx context.Context, burnTxHash string) (domain.Attestation, error)

	// MintDirect submits the destination mint from the session's own
	// wallet and returns its transaction hash.
	MintDirect(ctx context.Context, attestation domain.Attestation) (string, error)

	// MintViaRelay delegates the destination mint to the relay service.
	// Failures carry a *RelayError reachable via errors.As.
	MintViaRelay(ctx context.Context, attestation domain.Attestation) (string, error)

	// SubmitBundledApproveAndBurn submits approve+burn as one smart-account
	// user operation and returns the operation ID without waiting for
	// inclusion.
	SubmitBundledApproveAndBurn(ctx context.Context, amount, destinationAddress string, usePaymaster bool) (string, error)

	// AwaitBundledOperation suspends until the user operation is included
	// on-chain and returns the confirmed transaction hash.
	AwaitBundledOperation(ctx context.Context, operationID string, usePaymaster bool) (string, error)
}
