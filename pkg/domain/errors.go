package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrCancelled marks a session that was cancelled by the caller. It is
// bookkeeping only: submitted on-chain operations are not reversed.
var ErrCancelled = errors.New("transfer cancelled")

// ErrStepRegression is returned by Apply when a patch would move the step
// backwards. The step only ever advances, even on error.
var ErrStepRegression = errors.New("step cannot regress")
