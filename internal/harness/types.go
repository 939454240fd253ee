package harness

import (
	"github.com/roach88/mnemo/internal/ir"
)

// TraceEvent records one operation the harness performed and what the
// engine answered.
type TraceEvent struct {
	Seq        int64    `json:"seq"`
	Op         string   `json:"op"`              // "key", "select" or "deactivate"
	Key        string   `json:"key,omitempty"`   // key-spec notation
	Index      int      `json:"index,omitempty"` // select only
	Intents    []string `json:"intents"`
	MarkedText string   `json:"marked_text"`
	Active     bool     `json:"active"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all step expectations and assertions match.
	Pass bool `json:"pass"`

	// Trace contains every operation in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the summary of the final composition state.
	State ir.IRObject `json:"state,omitempty"`

	// Committed is all committed text, concatenated in order.
	Committed string `json:"committed"`

	// MaxBuffer is the longest buffer observed, in characters.
	MaxBuffer int `json:"max_buffer"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addEvent appends an operation to the trace and folds its commits into
// Committed.
func (r *Result) addEvent(ev TraceEvent, intents []ir.Intent) {
	r.Trace = append(r.Trace, ev)
	r.Committed += ir.CommitText(intents)
}

// renderIntents converts intents to their compact string form.
// Returns an empty (non-nil) slice for no intents.
func renderIntents(intents []ir.Intent) []string {
	out := make([]string, len(intents))
	for i, in := range intents {
		out[i] = in.String()
	}
	return out
}
