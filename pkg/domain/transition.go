package domain

// Per-mode transition tables. These are fixed at compile time: the standard
// path visits every step, the smart-account path skips approved because the
// approval travels inside the bundled user operation.
var (
	standardSequence     = []Step{StepIdle, StepApproved, StepBurned, StepAttested, StepCompleted}
	smartAccountSequence = []Step{StepIdle, StepBurned, StepAttested, StepCompleted}
)

// Sequence returns the ordered step sequence for the mode.
func (m Mode) Sequence() []Step {
	switch m {
	case ModeSmartAccount:
		return append([]Step(nil), smartAccountSequence...)
	default:
		return append([]Step(nil), standardSequence...)
	}
}

// Next looks up the step that follows s in the mode's transition table.
// It returns false when s is terminal or not part of the mode's sequence;
// the engine halts on such lookups instead of guessing.
func (m Mode) Next(s Step) (Step, bool) {
	seq := smartAccountSequence
	if m != ModeSmartAccount {
		seq = standardSequence
	}
	for i, step := range seq {
		if step == s && i+1 < len(seq) {
			return seq[i+1], true
		}
	}
	return "", false
}

// Contains reports whether the step is part of the mode's sequence.
func (m Mode) Contains(s Step) bool {
	for _, step := range m.Sequence() {
		if step == s {
			return true
		}
	}
	return false
}
