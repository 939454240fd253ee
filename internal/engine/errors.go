package engine

import (
	"errors"
	"fmt"
)

// ReplayError reports a recorded trace that the engine no longer reproduces.
type ReplayError struct {
	// Code identifies the error category.
	Code ReplayErrorCode

	// TraceID identifies the affected trace.
	TraceID string

	// Seq is the first step that diverged.
	Seq int64

	// Message is a human-readable description.
	Message string

	// Expected and Actual describe the mismatch.
	Expected string
	Actual   string
}

// ReplayErrorCode categorizes replay failures.
type ReplayErrorCode string

const (
	// ErrCodeIntentsDiverged indicates different intents for the same key.
	ErrCodeIntentsDiverged ReplayErrorCode = "INTENTS_DIVERGED"

	// ErrCodeStateDiverged indicates the same intents but a different state.
	ErrCodeStateDiverged ReplayErrorCode = "STATE_DIVERGED"

	// ErrCodeSequenceGap indicates recorded steps are not numbered 1, 2, 3...
	ErrCodeSequenceGap ReplayErrorCode = "SEQUENCE_GAP"

	// ErrCodeUnknownOp indicates a step operation the engine cannot replay.
	ErrCodeUnknownOp ReplayErrorCode = "UNKNOWN_OP"
)

// Error implements the error interface.
func (e *ReplayError) Error() string {
	msg := fmt.Sprintf("%s: %s (seq=%d)", e.Code, e.Message, e.Seq)
	if e.TraceID != "" {
		msg = fmt.Sprintf("%s: %s (trace=%s, seq=%d)", e.Code, e.Message, e.TraceID, e.Seq)
	}
	if e.Expected != "" || e.Actual != "" {
		msg += fmt.Sprintf(": expected %s, got %s", e.Expected, e.Actual)
	}
	return msg
}

// IsDivergence returns true if err reports intents or state that differ
// from the recording. Uses errors.As to handle wrapped errors.
func IsDivergence(err error) bool {
	var re *ReplayError
	if errors.As(err, &re) {
		return re.Code == ErrCodeIntentsDiverged || re.Code == ErrCodeStateDiverged
	}
	return false
}
