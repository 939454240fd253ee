package ir

import "fmt"

// IntentKind identifies what the host should do after a key was processed.
type IntentKind string

const (
	// IntentReject asks the host to handle the key itself.
	IntentReject IntentKind = "reject"
	// IntentSync asks the host to redraw marked text and candidates.
	IntentSync IntentKind = "sync"
	// IntentNavigate asks the host to move its candidate highlight.
	IntentNavigate IntentKind = "navigate"
	// IntentCommit asks the host to insert Text and clear marked text.
	IntentCommit IntentKind = "commit"
)

// Direction is the payload of a navigate intent.
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// Intent is an instruction to the host. Direction is set only for navigate,
// Text only for commit and (optionally) reject.
type Intent struct {
	Kind      IntentKind `json:"kind"`
	Direction Direction  `json:"direction,omitempty"`
	Text      string     `json:"text,omitempty"`
}

// Reject returns a reject intent. text is the rejected input, empty when the
// host should simply pass the original key through.
func Reject(text string) Intent { return Intent{Kind: IntentReject, Text: text} }

func Sync() Intent { return Intent{Kind: IntentSync} }

func Navigate(d Direction) Intent { return Intent{Kind: IntentNavigate, Direction: d} }

func Commit(text string) Intent { return Intent{Kind: IntentCommit, Text: text} }

// String renders the intent compactly, e.g. "commit(λ)" or "navigate(down)".
func (i Intent) String() string {
	switch i.Kind {
	case IntentSync:
		return "sync"
	case IntentNavigate:
		return fmt.Sprintf("navigate(%s)", i.Direction)
	case IntentCommit:
		return fmt.Sprintf("commit(%s)", i.Text)
	case IntentReject:
		if i.Text == "" {
			return "reject"
		}
		return fmt.Sprintf("reject(%s)", i.Text)
	default:
		return string(i.Kind)
	}
}

// ToIR converts the intent to a canonical object for hashing and storage.
func (i Intent) ToIR() IRObject {
	obj := IRObject{"kind": IRString(i.Kind)}
	if i.Direction != "" {
		obj["direction"] = IRString(i.Direction)
	}
	if i.Text != "" {
		obj["text"] = IRString(i.Text)
	}
	return obj
}

// IntentsToIR converts a list of intents for canonical marshaling.
// A nil list becomes an empty array.
func IntentsToIR(intents []Intent) IRArray {
	arr := make(IRArray, len(intents))
	for i, in := range intents {
		arr[i] = in.ToIR()
	}
	return arr
}

// FormatIntents renders intents as a bracketed list, e.g. "[sync]".
func FormatIntents(intents []Intent) string {
	s := "["
	for i, in := range intents {
		if i > 0 {
			s += ", "
		}
		s += in.String()
	}
	return s + "]"
}

// CommitText concatenates the text of every commit intent in order.
func CommitText(intents []Intent) string {
	var out string
	for _, in := range intents {
		if in.Kind == IntentCommit {
			out += in.Text
		}
	}
	return out
}
