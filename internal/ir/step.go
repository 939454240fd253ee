package ir

import "fmt"

// Trace identifies one recorded session: a run of steps processed against a
// single dictionary and activator.
type Trace struct {
	ID             string `json:"id"`
	DictionaryHash string `json:"dictionary_hash"`
	Activator      string `json:"activator"`
	EngineVersion  string `json:"engine_version"`
	TraceVersion   string `json:"trace_version"`
}

// StepOp is what the host asked the session to do.
type StepOp string

const (
	// OpKey is a key event; Step.Key is set.
	OpKey StepOp = "key"
	// OpSelect is a direct candidate selection; Step.Index is set.
	OpSelect StepOp = "select"
	// OpDeactivate is a forced reset.
	OpDeactivate StepOp = "deactivate"
)

// Step is one session operation and everything the engine produced for it.
type Step struct {
	ID          string   `json:"id"`
	TraceID     string   `json:"trace_id"`
	Seq         int64    `json:"seq"` // Logical clock, strictly increasing per trace
	Op          StepOp   `json:"op"`
	Key         Key      `json:"key"`
	Index       int      `json:"index,omitempty"`
	Intents     []Intent `json:"intents"`
	Rules       []string `json:"rules"`
	StateDigest string   `json:"state_digest"`
}

// Describe renders the operation compactly: the key in key-spec notation,
// "select(3)" or "deactivate".
func (s Step) Describe() string {
	switch s.Op {
	case OpSelect:
		return fmt.Sprintf("select(%d)", s.Index)
	case OpDeactivate:
		return "deactivate"
	default:
		return FormatKey(s.Key)
	}
}
