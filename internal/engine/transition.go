package engine

import (
	"github.com/roach88/mnemo/internal/ir"
)

// Transition is the pure reducer at the heart of the engine: it returns the
// next state and the intents the host must carry out. It never fails and
// never mutates s. Repeated calls with equal inputs return equal results.
func Transition(s State, k ir.Key) (State, []ir.Intent) {
	next, intents, _ := Apply(s, k)
	return next, intents
}

// Apply is Transition plus the names of the rules that fired, one per
// atomic event. A Characters key is folded one character at a time,
// threading state and accumulating intents; an empty run does nothing.
func Apply(s State, k ir.Key) (State, []ir.Intent, []string) {
	if k.Kind != ir.KeyCharacters {
		next, intents, name := step(s, event{key: k})
		return next, intents, []string{name}
	}

	var (
		intents []ir.Intent
		fired   []string
	)
	for _, r := range k.Text {
		var out []ir.Intent
		var name string
		s, out, name = step(s, event{key: ir.Char(r), char: r, isChar: true})
		intents = append(intents, out...)
		fired = append(fired, name)
	}
	return s, intents, fired
}

// step runs the first matching rule for one atomic event.
func step(s State, ev event) (State, []ir.Intent, string) {
	for _, r := range rules {
		if !r.match(s, ev) {
			continue
		}
		next, intents := r.apply(s, ev)
		return next, intents, r.name
	}
	// The last rule matches every active character and the first every
	// inactive event; only a non-character key on an active state with an
	// unknown kind gets here.
	return s, []ir.Intent{ir.Reject("")}, "unhandled"
}
