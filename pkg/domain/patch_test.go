package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func testAttestation() *Attestation {
	return &Attestation{Message: HexBytes{0xaa}, Proof: HexBytes{0xbb}}
}

func TestApply_StepAdvance(t *testing.T) {
	s := NewSession("s1", ModeStandard, "10", "0xabc", false)

	next, err := s.Apply(Patch{Step: StepApproved})
	require.NoError(t, err)
	assert.Equal(t, StepApproved, next.Step)
	assert.Equal(t, StepIdle, s.Step, "receiver must be untouched")
}

func TestApply_StepRegressionRejected(t *testing.T) {
	s := NewSession("s1", ModeStandard, "10", "0xabc", false)
	s.Step = StepBurned
	s.BurnTxHash = "0xburn"

	_, err := s.Apply(Patch{Step: StepApproved})
	assert.ErrorIs(t, err, ErrStepRegression)
}

func TestApply_SameStepIsNoOp(t *testing.T) {
	s := NewSession("s1", ModeStandard, "10", "0xabc", false)
	s.Step = StepApproved

	next, err := s.Apply(Patch{Step: StepApproved})
	require.NoError(t, err)
	assert.Equal(t, StepApproved, next.Step)
}

func TestApply_StepOutsideModeRejected(t *testing.T) {
	s := NewSession("s1", ModeSmartAccount, "10", "0xabc", true)

	_, err := s.Apply(Patch{Step: StepApproved})
	assert.Error(t, err, "approved is not part of the smart-account sequence")
}

func TestApply_AdvanceClearsError(t *testing.T) {
	s := NewSession("s1", ModeStandard, "10", "0xabc", false)
	s.Error = "burn failed"
	s.Step = StepApproved

	next, err := s.Apply(Patch{Step: StepBurned, BurnTxHash: "0xburn"})
	require.NoError(t, err)
	assert.Empty(t, next.Error)
}

func TestApply_LoadingPreservesError(t *testing.T) {
	s := NewSession("s1", ModeStandard, "10", "0xabc", false)
	s.Error = "previous failure"

	next, err := s.Apply(Patch{Loading: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, next.Loading)
	assert.Equal(t, "previous failure", next.Error)
}

func TestApply_ExplicitErrorClear(t *testing.T) {
	s := NewSession("s1", ModeStandard, "10", "0xabc", false)
	s.Error = "previous failure"

	next, err := s.Apply(Patch{Error: strPtr("")})
	require.NoError(t, err)
	assert.Empty(t, next.Error)
}

func TestApply_ArtifactWriteOnce(t *testing.T) {
	s := NewSession("s1", ModeStandard, "10", "0xabc", false)
	s.Step = StepApproved

	next, err := s.Apply(Patch{Step: StepBurned, BurnTxHash: "0xburn"})
	require.NoError(t, err)
	assert.Equal(t, "0xburn", next.BurnTxHash)

	// Re-recording the same value is tolerated (idempotent retry).
	_, err = next.Apply(Patch{BurnTxHash: "0xburn"})
	assert.NoError(t, err)

	// Overwriting with a different value is not.
	_, err = next.Apply(Patch{BurnTxHash: "0xother"})
	assert.Error(t, err)
}

func TestApply_AttestationCoupledToStep(t *testing.T) {
	s := NewSession("s1", ModeStandard, "10", "0xabc", false)
	s.Step = StepBurned
	s.BurnTxHash = "0xburn"

	// Attested without an attestation payload is invalid.
	_, err := s.Apply(Patch{Step: StepAttested})
	assert.Error(t, err)

	// Attestation payload before the attested step is invalid.
	_, err = s.Apply(Patch{Attestation: testAttestation()})
	assert.Error(t, err)

	// Both together is the only legal shape.
	next, err := s.Apply(Patch{Step: StepAttested, Attestation: testAttestation()})
	require.NoError(t, err)
	require.NotNil(t, next.Attestation)
	assert.Equal(t, HexBytes{0xaa}, next.Attestation.Message)
}

func TestApply_RefreshesUpdatedAt(t *testing.T) {
	s := NewSession("s1", ModeStandard, "10", "0xabc", false)
	s.UpdatedAt = s.UpdatedAt.Add(-time.Minute)
	before := s.UpdatedAt

	next, err := s.Apply(Patch{Loading: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, next.UpdatedAt.After(before))
}

func TestApply_FailedPatchLeavesSessionUntouched(t *testing.T) {
	s := NewSession("s1", ModeStandard, "10", "0xabc", false)
	s.Step = StepBurned
	s.BurnTxHash = "0xburn"

	got, err := s.Apply(Patch{Step: StepIdle})
	require.Error(t, err)
	assert.Equal(t, s, got, "failed Apply returns the original session")
}
