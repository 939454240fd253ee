package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/mnemo/internal/ir"
	"github.com/roach88/mnemo/internal/trie"
)

// Replay re-runs a recorded trace from the canonical inactive state and
// checks that every step yields the recorded intents and state digest.
//
// Replay shares Apply with live sessions; there is no separate replay mode.
// A trace that replays cleanly is evidence that the transition function is
// deterministic for those inputs. The first divergence is returned as a
// *ReplayError together with the state reached before it.
func Replay(root *trie.Node, activator rune, steps []ir.Step) (State, error) {
	s := NewState(root, activator)
	for i, st := range steps {
		if st.Seq != int64(i+1) {
			return s, &ReplayError{
				Code:     ErrCodeSequenceGap,
				TraceID:  st.TraceID,
				Seq:      st.Seq,
				Message:  "steps must be numbered from 1 without gaps",
				Expected: fmt.Sprint(i + 1),
				Actual:   fmt.Sprint(st.Seq),
			}
		}

		var next State
		var intents []ir.Intent
		switch st.Op {
		case ir.OpKey, "":
			next, intents, _ = Apply(s, st.Key)
		case ir.OpSelect:
			next = s.SelectCandidate(st.Index)
		case ir.OpDeactivate:
			next = s.reset()
		default:
			return s, &ReplayError{
				Code:    ErrCodeUnknownOp,
				TraceID: st.TraceID,
				Seq:     st.Seq,
				Message: fmt.Sprintf("cannot replay operation %q", st.Op),
			}
		}

		if !slices.Equal(intents, st.Intents) {
			return s, &ReplayError{
				Code:     ErrCodeIntentsDiverged,
				TraceID:  st.TraceID,
				Seq:      st.Seq,
				Message:  fmt.Sprintf("step %s produced different intents", st.Describe()),
				Expected: ir.FormatIntents(st.Intents),
				Actual:   ir.FormatIntents(intents),
			}
		}
		if digest := next.Digest(); digest != st.StateDigest {
			return s, &ReplayError{
				Code:     ErrCodeStateDiverged,
				TraceID:  st.TraceID,
				Seq:      st.Seq,
				Message:  fmt.Sprintf("step %s reached a different state", st.Describe()),
				Expected: st.StateDigest,
				Actual:   digest,
			}
		}
		s = next
	}
	return s, nil
}
