package domain

import (
	"fmt"
	"time"
)

// Patch is a partial update to a Session. Zero-valued fields are left
// untouched; pointer fields distinguish "unchanged" from "set to zero".
type Patch struct {
	// Step advances the FSM. Empty means unchanged; equal to the current
	// step is a no-op; moving backwards is rejected.
	Step Step

	// Loading toggles the in-flight flag. Setting it true preserves the
	// existing error until the attempt succeeds or fails again.
	Loading *bool

	// Error sets the failure message. A pointer to the empty string clears
	// it explicitly; nil leaves it alone.
	Error *string

	// Artifacts. Empty means unchanged; overwriting an existing artifact
	// with a different value is rejected.
	ApprovalTxHash      string
	BurnTxHash          string
	UserOpHash          string
	UserOpReceiptTxHash string
	Attestation         *Attestation
	MintTxHash          string
}

// Apply merges the patch into the session and returns the updated copy.
// It is the single mutation path for session records and enforces every
// record invariant in one place:
//
//   - the step only advances along the mode's sequence, never regresses
//   - artifacts are write-once
//   - an attestation is present exactly when the step is attested or later
//   - a step advance clears the error (advances only happen on success)
//   - UpdatedAt is refreshed on every mutation
func (s Session) Apply(p Patch) (Session, error) {
	out := s.Clone()

	if p.Step != "" {
		if !p.Step.Valid() {
			return s, fmt.Errorf("unknown step %q", p.Step)
		}
		if !out.Mode.Contains(p.Step) {
			return s, fmt.Errorf("step %q is not part of mode %q", p.Step, out.Mode)
		}
		if stepRank[p.Step] < stepRank[out.Step] {
			return s, fmt.Errorf("%w: %s -> %s", ErrStepRegression, out.Step, p.Step)
		}
		if stepRank[p.Step] > stepRank[out.Step] {
			out.Error = ""
		}
		out.Step = p.Step
	}

	if p.Loading != nil {
		out.Loading = *p.Loading
	}
	if p.Error != nil {
		out.Error = *p.Error
	}

	for _, a := range []struct {
		name string
		dst  *string
		val  string
	}{
		{"approval tx hash", &out.ApprovalTxHash, p.ApprovalTxHash},
		{"burn tx hash", &out.BurnTxHash, p.BurnTxHash},
		{"user op hash", &out.UserOpHash, p.UserOpHash},
		{"user op receipt tx hash", &out.UserOpReceiptTxHash, p.UserOpReceiptTxHash},
		{"mint tx hash", &out.MintTxHash, p.MintTxHash},
	} {
		if a.val == "" {
			continue
		}
		if *a.dst != "" && *a.dst != a.val {
			return s, fmt.Errorf("%s already recorded as %q, cannot overwrite with %q", a.name, *a.dst, a.val)
		}
		*a.dst = a.val
	}

	if p.Attestation != nil {
		if out.Attestation != nil {
			return s, fmt.Errorf("attestation already recorded, cannot overwrite")
		}
		att := Attestation{
			Message: append(HexBytes(nil), p.Attestation.Message...),
			Proof:   append(HexBytes(nil), p.Attestation.Proof...),
		}
		out.Attestation = &att
	}

	attested := stepRank[out.Step] >= stepRank[StepAttested]
	if attested && out.Attestation == nil {
		return s, fmt.Errorf("step %s requires an attestation", out.Step)
	}
	if !attested && out.Attestation != nil {
		return s, fmt.Errorf("attestation recorded before step %s", StepAttested)
	}

	out.UpdatedAt = time.Now().UTC()
	return out, nil
}
