package domain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Step identifies the FSM position of a transfer session.
type Step string

const (
	StepIdle      Step = "idle"
	StepApproved  Step = "approved"
	StepBurned    Step = "burned"
	StepAttested  Step = "attested"
	StepCompleted Step = "completed"
)

// stepRank orders steps for the monotonic-advance invariant.
// Ranks are global: the smart-account sequence is a subsequence of the
// standard one, so a shared ordering works for both modes.
var stepRank = map[Step]int{
	StepIdle:      0,
	StepApproved:  1,
	StepBurned:    2,
	StepAttested:  3,
	StepCompleted: 4,
}

// Valid reports whether the step is a known FSM position.
func (s Step) Valid() bool {
	_, ok := stepRank[s]
	return ok
}

// Mode identifies the execution path, fixed at session creation.
type Mode string

const (
	// ModeStandard drives approve and burn as separate wallet transactions.
	ModeStandard Mode = "standard"

	// ModeSmartAccount bundles approve and burn into one user operation
	// submitted through a bundler, skipping the approved step entirely.
	ModeSmartAccount Mode = "smart_account"
)

// Valid reports whether the mode is known.
func (m Mode) Valid() bool {
	return m == ModeStandard || m == ModeSmartAccount
}

// HexBytes is a byte slice that round-trips through JSON as a 0x-prefixed
// hex string, matching the wire shape of attestation payloads.
type HexBytes []byte

// MarshalJSON encodes the bytes as "0x…".
func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + hex.EncodeToString(h))
}

// UnmarshalJSON decodes a hex string with optional 0x prefix.
func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("hex bytes must be a string: %w", err)
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return fmt.Errorf("invalid hex payload: %w", err)
	}
	*h = raw
	return nil
}

// Attestation is the signed burn proof issued by the off-chain attestation
// service. It authorizes the destination-chain mint.
type Attestation struct {
	Message HexBytes `json:"message"`
	Proof   HexBytes `json:"proof"`
}

// Session is the persisted snapshot of one transfer's progress.
// It is pure data; all mutation goes through Apply.
type Session struct {
	ID   string `json:"id"`
	Step Step   `json:"step"`
	Mode Mode   `json:"mode"`

	// Loading is true only while a step handler is in flight. It is never
	// trusted across a process restart.
	Loading bool `json:"loading"`

	// Error carries the last failure message, empty when the last attempt
	// succeeded. It is orthogonal to Step.
	Error string `json:"error,omitempty"`

	// Transfer parameters, write-once at creation.
	Amount             string `json:"amount"`
	DestinationAddress string `json:"destination_address"`
	UsePaymaster       bool   `json:"use_paymaster,omitempty"`

	// Step artifacts, populated progressively and never retracted.
	ApprovalTxHash      string       `json:"approval_tx_hash,omitempty"`
	BurnTxHash          string       `json:"burn_tx_hash,omitempty"`
	UserOpHash          string       `json:"user_op_hash,omitempty"`
	UserOpReceiptTxHash string       `json:"user_op_receipt_tx_hash,omitempty"`
	Attestation         *Attestation `json:"attestation,omitempty"`
	MintTxHash          string       `json:"mint_tx_hash,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a fresh idle session for the given transfer parameters.
// Parameter validation (amount format, address shape) is the caller's job.
func NewSession(id string, mode Mode, amount, destinationAddress string, usePaymaster bool) Session {
	now := time.Now().UTC()
	return Session{
		ID:                 id,
		Step:               StepIdle,
		Mode:               mode,
		Amount:             amount,
		DestinationAddress: destinationAddress,
		UsePaymaster:       usePaymaster,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Terminal reports whether the session has reached the completed step.
func (s Session) Terminal() bool {
	return s.Step == StepCompleted
}

// Clone returns a deep copy so callers cannot mutate live state through a
// snapshot.
func (s Session) Clone() Session {
	out := s
	if s.Attestation != nil {
		att := Attestation{
			Message: append(HexBytes(nil), s.Attestation.Message...),
			Proof:   append(HexBytes(nil), s.Attestation.Proof...),
		}
		out.Attestation = &att
	}
	return out
}
