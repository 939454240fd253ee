package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mnemo/internal/ir"
	"github.com/roach88/mnemo/internal/trie"
)

func mustTrie(t *testing.T, tree map[string]any) *trie.Node {
	t.Helper()
	root, err := trie.Build(tree)
	require.NoError(t, err)
	return root
}

func cands(c ...string) map[string]any {
	return map[string]any{trie.CandidatesKey: c}
}

// feed applies keys in order and returns the final state together with the
// intents of the last key.
func feed(s State, keys ...ir.Key) (State, []ir.Intent) {
	var intents []ir.Intent
	for _, k := range keys {
		s, intents = Transition(s, k)
	}
	return s, intents
}

func chars(s string) []ir.Key {
	var keys []ir.Key
	for _, r := range s {
		keys = append(keys, ir.Char(r))
	}
	return keys
}

func lambdaTrie(t *testing.T) *trie.Node {
	return mustTrie(t, map[string]any{"l": map[string]any{"a": cands("λ")}})
}

func leTrie(t *testing.T) *trie.Node {
	return mustTrie(t, map[string]any{"l": map[string]any{"e": cands("≤", "<=")}})
}

func TestRuleNames_PriorityOrder(t *testing.T) {
	assert.Equal(t, []string{
		"inactive-reject",
		"activate",
		"navigate",
		"enter",
		"backspace-undo",
		"backspace-pop",
		"backspace-deactivate",
		"auto-commit",
		"continue",
		"overflow-commit",
		"soft-commit",
		"hard-commit",
		"digit-select",
		"implicit-commit",
	}, RuleNames())
}

func TestTransition_InactiveRejects(t *testing.T) {
	s := NewState(lambdaTrie(t), DefaultActivator)

	next, intents := Transition(s, ir.Char('x'))
	assert.Equal(t, []ir.Intent{ir.Reject("x")}, intents)
	assert.True(t, next.IsCanonicalInactive())

	for _, k := range []ir.Key{ir.Enter(), ir.Backspace(), ir.Up(), ir.Right()} {
		next, intents = Transition(s, k)
		assert.Equal(t, []ir.Intent{ir.Reject("")}, intents, "key %s", k)
		assert.True(t, next.Equal(s))
	}
}

func TestTransition_Activate(t *testing.T) {
	s := NewState(lambdaTrie(t), DefaultActivator)

	next, intents, fired := Apply(s, ir.Char('\\'))
	assert.Equal(t, []ir.Intent{ir.Sync()}, intents)
	assert.Equal(t, []string{RuleActivate}, fired)
	assert.True(t, next.Active())
	assert.Equal(t, `\`, next.Buffer())
	assert.Equal(t, 1, next.PathLength())
	assert.Equal(t, 1, next.HistoryDepth())
	assert.Equal(t, `\`, next.MarkedText())
	assert.Equal(t, 1, next.CursorPosition())
}

func TestTransition_CustomActivator(t *testing.T) {
	s := NewState(lambdaTrie(t), '§')

	_, intents := Transition(s, ir.Char('\\'))
	assert.Equal(t, []ir.Intent{ir.Reject(`\`)}, intents)

	next, intents := feed(s, chars("§la")...)
	assert.Equal(t, []ir.Intent{ir.Commit("λ")}, intents)
	assert.True(t, next.IsCanonicalInactive())
	assert.Equal(t, '§', next.Activator())
}

func TestTransition_ScenarioA_AutoCommit(t *testing.T) {
	s := NewState(lambdaTrie(t), DefaultActivator)

	next, intents := feed(s, chars(`\la`)...)
	assert.Equal(t, []ir.Intent{ir.Commit("λ")}, intents)
	assert.False(t, next.Active())
	assert.Empty(t, next.Buffer())
	assert.True(t, next.IsCanonicalInactive())
}

func TestTransition_ScenarioB_SoftCommit(t *testing.T) {
	s := NewState(leTrie(t), DefaultActivator)

	s, _ = feed(s, chars(`\le`)...)
	require.Equal(t, `\le`, s.Buffer())
	require.Equal(t, 2, s.Window().Count())
	assert.True(t, s.CandidatesVisible())

	next, intents, fired := Apply(s, ir.Char('\\'))
	assert.Equal(t, []ir.Intent{ir.Sync()}, intents)
	assert.Equal(t, []string{RuleSoftCommit}, fired)
	assert.Equal(t, `\`, next.Buffer())
	assert.Equal(t, "≤", next.CommittedPrefix())
	assert.Equal(t, `≤\`, next.MarkedText())
	assert.Equal(t, 1, next.PathLength())
	assert.True(t, next.Window().IsEmpty())
}

func TestTransition_ScenarioC_UndoSoftCommit(t *testing.T) {
	s := NewState(leTrie(t), DefaultActivator)
	before, _ := feed(s, chars(`\le`)...)
	soft, _ := Transition(before, ir.Char('\\'))

	restored, intents, fired := Apply(soft, ir.Backspace())
	assert.Equal(t, []ir.Intent{ir.Sync()}, intents)
	assert.Equal(t, []string{RuleBackspaceUndo}, fired)
	assert.Equal(t, `\le`, restored.Buffer())
	assert.Empty(t, restored.CommittedPrefix())
	assert.True(t, restored.Equal(before))
	assert.Equal(t, before.HistoryDepth(), restored.HistoryDepth())
}

func TestTransition_ScenarioD_ImplicitCommit(t *testing.T) {
	root := mustTrie(t, map[string]any{"l": cands("A", "B")})
	s, _ := feed(NewState(root, DefaultActivator), chars(`\l`)...)
	require.Equal(t, 2, s.Window().Count())

	next, intents, fired := Apply(s, ir.Char(' '))
	assert.Equal(t, []ir.Intent{ir.Commit("A"), ir.Reject(" ")}, intents)
	assert.Equal(t, []string{RuleImplicitCommit}, fired)
	assert.True(t, next.IsCanonicalInactive())
}

func TestTransition_ScenarioE_DigitSelect(t *testing.T) {
	root := mustTrie(t, map[string]any{"l": cands("A", "B", "C")})
	s, _ := feed(NewState(root, DefaultActivator), chars(`\l`)...)

	next, intents, fired := Apply(s, ir.Char('2'))
	assert.Equal(t, []ir.Intent{ir.Commit("B")}, intents)
	assert.Equal(t, []string{RuleDigitSelect}, fired)
	assert.True(t, next.IsCanonicalInactive())
}

func TestTransition_ScenarioF_BufferCap(t *testing.T) {
	const depth = 60
	leaf := cands("deep")
	tree := leaf
	for i := 0; i < depth; i++ {
		tree = map[string]any{"x": tree}
	}
	root := mustTrie(t, tree)

	s, _ := Transition(NewState(root, DefaultActivator), ir.Char('\\'))
	committedAt := 0
	for i := 1; i <= depth; i++ {
		var intents []ir.Intent
		s, intents = Transition(s, ir.Char('x'))
		require.LessOrEqual(t, s.BufferLength(), MaxBufferLength, "after character %d", i)
		if text := ir.CommitText(intents); text != "" {
			committedAt = i
			assert.Equal(t, `\`+strings.Repeat("x", MaxBufferLength-1), text)
			assert.Equal(t, ir.Reject("x"), intents[len(intents)-1])
			break
		}
	}
	require.NotZero(t, committedAt, "the buffer cap must force a commit")
	assert.LessOrEqual(t, committedAt+1, MaxBufferLength+1, "commit at or before the 51st buffer character")
	assert.True(t, s.IsCanonicalInactive())
}

func TestTransition_OverflowRuleFires(t *testing.T) {
	tree := cands("deep")
	for i := 0; i < MaxBufferLength+5; i++ {
		tree = map[string]any{"x": tree}
	}
	s := NewState(mustTrie(t, tree), DefaultActivator)

	_, _, fired := Apply(s, ir.Characters(`\`+strings.Repeat("x", MaxBufferLength)))
	require.Len(t, fired, MaxBufferLength+1)
	assert.Equal(t, RuleOverflowCommit, fired[len(fired)-1])
	for _, name := range fired[1 : len(fired)-1] {
		assert.Equal(t, RuleContinue, name)
	}
}

func TestTransition_HardCommit(t *testing.T) {
	s, _ := feed(NewState(lambdaTrie(t), DefaultActivator), chars(`\l`)...)
	require.True(t, s.Window().IsEmpty())

	next, intents, fired := Apply(s, ir.Char('\\'))
	assert.Equal(t, []ir.Intent{ir.Commit(`\l\`)}, intents)
	assert.Equal(t, []string{RuleHardCommit}, fired)
	assert.True(t, next.IsCanonicalInactive())
}

func TestTransition_HardCommitKeepsPrefix(t *testing.T) {
	root := mustTrie(t, map[string]any{
		"l": map[string]any{"e": cands("≤", "<="), "x": map[string]any{"y": cands("?")}},
	})
	s, _ := feed(NewState(root, DefaultActivator), chars(`\le\lx`)...)
	require.Equal(t, "≤", s.CommittedPrefix())

	_, intents := Transition(s, ir.Char('\\'))
	assert.Equal(t, []ir.Intent{ir.Commit(`≤\lx\`)}, intents)
}

func TestTransition_ActivatorAsEdge(t *testing.T) {
	root := mustTrie(t, map[string]any{`\`: cands(`\`)})

	_, intents, fired := Apply(NewState(root, DefaultActivator), ir.Characters(`\\`))
	assert.Equal(t, []ir.Intent{ir.Sync(), ir.Commit(`\`)}, intents)
	assert.Equal(t, []string{RuleActivate, RuleAutoCommit}, fired)
}

func TestTransition_Enter(t *testing.T) {
	t.Run("commits selected candidate", func(t *testing.T) {
		s, _ := feed(NewState(leTrie(t), DefaultActivator), chars(`\le`)...)
		s, _ = Transition(s, ir.Down())

		next, intents := Transition(s, ir.Enter())
		assert.Equal(t, []ir.Intent{ir.Commit("<=")}, intents)
		assert.True(t, next.IsCanonicalInactive())
	})

	t.Run("commits raw buffer without candidates", func(t *testing.T) {
		s, _ := feed(NewState(lambdaTrie(t), DefaultActivator), chars(`\l`)...)

		_, intents := Transition(s, ir.Enter())
		assert.Equal(t, []ir.Intent{ir.Commit(`\l`)}, intents)
	})

	t.Run("prefix precedes selected candidate", func(t *testing.T) {
		s, _ := feed(NewState(leTrie(t), DefaultActivator), chars(`\le\le`)...)

		_, intents := Transition(s, ir.Enter())
		assert.Equal(t, []ir.Intent{ir.Commit("≤≤")}, intents)
	})

	t.Run("rejects with nothing to commit", func(t *testing.T) {
		s := State{path: []*trie.Node{leTrie(t)}, active: true, activator: DefaultActivator}

		next, intents := Transition(s, ir.Enter())
		assert.Equal(t, []ir.Intent{ir.Reject("")}, intents)
		assert.True(t, next.Equal(s))
	})
}

func TestTransition_Navigate(t *testing.T) {
	root := mustTrie(t, map[string]any{"l": cands("A", "B", "C")})
	s, _ := feed(NewState(root, DefaultActivator), chars(`\l`)...)
	depth := s.HistoryDepth()

	tests := []struct {
		key      ir.Key
		dir      ir.Direction
		selected int
	}{
		{ir.Down(), ir.DirDown, 1},
		{ir.Down(), ir.DirDown, 2},
		{ir.Down(), ir.DirDown, 2},
		{ir.Up(), ir.DirUp, 1},
		{ir.Right(), ir.DirRight, 2},
		{ir.Left(), ir.DirLeft, 2},
	}
	for _, tt := range tests {
		var intents []ir.Intent
		s, intents = Transition(s, tt.key)
		assert.Equal(t, []ir.Intent{ir.Navigate(tt.dir)}, intents)
		assert.Equal(t, tt.selected, s.Window().Selected(), "after %s", tt.key)
	}
	assert.Equal(t, depth, s.HistoryDepth(), "navigation does not push history")
	assert.Equal(t, `\l`, s.Buffer())
}

func TestTransition_DigitSelectPaged(t *testing.T) {
	root := mustTrie(t, map[string]any{"l": cands(numbered(20)...)})
	s, _ := feed(NewState(root, DefaultActivator), chars(`\l`)...)
	s, _ = Transition(s, ir.Right())

	_, intents := Transition(s, ir.Char('1'))
	assert.Equal(t, []ir.Intent{ir.Commit("c9")}, intents, "digits are relative to the visible page")
}

func TestTransition_DigitOutOfRange(t *testing.T) {
	root := mustTrie(t, map[string]any{"l": cands("A", "B")})
	s, _ := feed(NewState(root, DefaultActivator), chars(`\l`)...)

	next, intents, fired := Apply(s, ir.Char('5'))
	assert.Equal(t, []ir.Intent{ir.Commit("A"), ir.Reject("5")}, intents)
	assert.Equal(t, []string{RuleImplicitCommit}, fired)
	assert.True(t, next.IsCanonicalInactive())
}

func TestTransition_DigitAsEdgeWins(t *testing.T) {
	root := mustTrie(t, map[string]any{"l": map[string]any{trie.CandidatesKey: []string{"A", "B"}, "2": cands("two")}})
	s, _ := feed(NewState(root, DefaultActivator), chars(`\l`)...)

	_, intents := Transition(s, ir.Char('2'))
	assert.Equal(t, []ir.Intent{ir.Commit("two")}, intents)
}

func TestTransition_ImplicitCommitRawBuffer(t *testing.T) {
	s, _ := feed(NewState(lambdaTrie(t), DefaultActivator), chars(`\l`)...)

	_, intents := Transition(s, ir.Char('x'))
	assert.Equal(t, []ir.Intent{ir.Commit(`\l`), ir.Reject("x")}, intents)
}

func TestTransition_Backspace(t *testing.T) {
	t.Run("undo restores previous state", func(t *testing.T) {
		s := NewState(leTrie(t), DefaultActivator)
		one, _ := feed(s, chars(`\l`)...)
		two, _ := Transition(one, ir.Char('e'))

		back, intents := Transition(two, ir.Backspace())
		assert.Equal(t, []ir.Intent{ir.Sync()}, intents)
		assert.True(t, back.Equal(one))
		assert.Equal(t, one.HistoryDepth(), back.HistoryDepth())
	})

	t.Run("undo to inactive resets", func(t *testing.T) {
		active, _ := Transition(NewState(leTrie(t), DefaultActivator), ir.Char('\\'))

		next, intents, fired := Apply(active, ir.Backspace())
		assert.Equal(t, []ir.Intent{ir.Sync()}, intents)
		assert.Equal(t, []string{RuleBackspaceUndo}, fired)
		assert.True(t, next.IsCanonicalInactive())
	})

	t.Run("pop without history", func(t *testing.T) {
		root := leTrie(t)
		l, _ := root.Lookup('l')
		le, _ := l.Lookup('e')
		s := State{
			path:      []*trie.Node{root, l, le},
			buffer:    `\le`,
			active:    true,
			window:    NewCandidateWindow(le.Candidates()),
			activator: DefaultActivator,
		}

		next, intents, fired := Apply(s, ir.Backspace())
		assert.Equal(t, []ir.Intent{ir.Sync()}, intents)
		assert.Equal(t, []string{RuleBackspacePop}, fired)
		assert.Equal(t, `\l`, next.Buffer())
		assert.Equal(t, 2, next.PathLength())
		assert.Same(t, l, next.Tail())
		assert.True(t, next.Window().IsEmpty())
		assert.Equal(t, 3, s.PathLength(), "input state untouched")
	})

	t.Run("pop of the last character resets", func(t *testing.T) {
		root := leTrie(t)
		s := State{path: []*trie.Node{root}, buffer: `\`, active: true, activator: DefaultActivator}

		next, _ := Transition(s, ir.Backspace())
		assert.True(t, next.IsCanonicalInactive())
	})

	t.Run("pop keeps prefix", func(t *testing.T) {
		root := leTrie(t)
		s := State{path: []*trie.Node{root}, buffer: `\`, committedPrefix: "≤", active: true, activator: DefaultActivator}

		next, _ := Transition(s, ir.Backspace())
		assert.True(t, next.Active())
		assert.Empty(t, next.Buffer())
		assert.Equal(t, "≤", next.CommittedPrefix())
		assert.Equal(t, 1, next.PathLength())
	})

	t.Run("deactivate when nothing left", func(t *testing.T) {
		s := State{path: []*trie.Node{leTrie(t)}, committedPrefix: "≤", active: true, activator: DefaultActivator}

		next, _, fired := Apply(s, ir.Backspace())
		assert.Equal(t, []string{RuleBackspaceDeactivate}, fired)
		assert.True(t, next.IsCanonicalInactive())
	})
}

func TestTransition_UndoChainReturnsToInactive(t *testing.T) {
	s := NewState(leTrie(t), DefaultActivator)
	s, _ = feed(s, chars(`\le\le`)...)
	require.Equal(t, "≤", s.CommittedPrefix())

	steps := 0
	for s.Active() {
		s, _ = Transition(s, ir.Backspace())
		steps++
		require.LessOrEqual(t, steps, 10)
	}
	assert.Equal(t, 6, steps, "one backspace per pushed state")
	assert.True(t, s.IsCanonicalInactive())
}

func TestTransition_HistoryBounded(t *testing.T) {
	root := mustTrie(t, map[string]any{"a": cands("x", "y")})
	s, _ := Transition(NewState(root, DefaultActivator), ir.Char('\\'))

	for i := 0; i < 120; i++ {
		s, _ = feed(s, chars(`a\`)...)
		require.LessOrEqual(t, s.HistoryDepth(), MaxHistoryDepth)
		for _, h := range s.History() {
			require.Zero(t, h.HistoryDepth(), "snapshots never nest")
		}
	}
	assert.Equal(t, MaxHistoryDepth, s.HistoryDepth())
	assert.Equal(t, strings.Repeat("x", 120), s.CommittedPrefix())

	// The oldest snapshots were evicted, so undo bottoms out while active.
	for s.HistoryDepth() > 0 {
		s, _ = Transition(s, ir.Backspace())
	}
	assert.True(t, s.Active())
	assert.Equal(t, strings.Repeat("x", 70), s.CommittedPrefix())
}

func TestApply_CharactersRun(t *testing.T) {
	s := NewState(lambdaTrie(t), DefaultActivator)

	next, intents, fired := Apply(s, ir.Characters(`\lax`))
	assert.Equal(t, []ir.Intent{ir.Sync(), ir.Sync(), ir.Commit("λ"), ir.Reject("x")}, intents)
	assert.Equal(t, []string{RuleActivate, RuleContinue, RuleAutoCommit, RuleInactiveReject}, fired)
	assert.True(t, next.IsCanonicalInactive())

	folded, foldedIntents := feed(s, chars(`\lax`)...)
	assert.True(t, folded.Equal(next))
	assert.Equal(t, ir.Reject("x"), foldedIntents[0])
}

func TestApply_EmptyCharacters(t *testing.T) {
	s := NewState(lambdaTrie(t), DefaultActivator)

	next, intents, fired := Apply(s, ir.Characters(""))
	assert.Empty(t, intents)
	assert.Empty(t, fired)
	assert.True(t, next.Equal(s))
}

func TestApply_UnknownKeyKind(t *testing.T) {
	s, _ := Transition(NewState(lambdaTrie(t), DefaultActivator), ir.Char('\\'))

	next, intents, fired := Apply(s, ir.Key{Kind: "home"})
	assert.Equal(t, []ir.Intent{ir.Reject("")}, intents)
	assert.Equal(t, []string{"unhandled"}, fired)
	assert.True(t, next.Equal(s))
}

func TestTransition_Deterministic(t *testing.T) {
	root := mustTrie(t, map[string]any{
		"l": map[string]any{"a": cands("λ"), "e": cands("≤", "<=")},
		"a": cands("α", "∀", "∧"),
	})
	keys := append(chars(`\le`), ir.Down(), ir.Char('\\'), ir.Char('a'), ir.Down(), ir.Backspace(), ir.Char('l'), ir.Char('a'))

	run := func() ([]ir.Intent, string) {
		s := NewState(root, DefaultActivator)
		var all []ir.Intent
		for _, k := range keys {
			var out []ir.Intent
			s, out = Transition(s, k)
			all = append(all, out...)
		}
		return all, s.Digest()
	}

	intents1, digest1 := run()
	intents2, digest2 := run()
	assert.Equal(t, intents1, intents2)
	assert.Equal(t, digest1, digest2)
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	s, _ := feed(NewState(leTrie(t), DefaultActivator), chars(`\l`)...)
	digest := s.Digest()
	history := s.History()

	for _, k := range []ir.Key{ir.Char('e'), ir.Backspace(), ir.Char('\\'), ir.Enter(), ir.Down(), ir.Char('z')} {
		Transition(s, k)
		require.Equal(t, digest, s.Digest(), "after %s", k)
		require.Equal(t, len(history), s.HistoryDepth())
	}

	// Two successors of the same state must not share a history tail.
	a, _ := Transition(s, ir.Char('e'))
	b, _ := Transition(s, ir.Char('e'))
	a, _ = Transition(a, ir.Char('\\'))
	b, _ = Transition(b, ir.Backspace())
	assert.Equal(t, `≤\`, a.MarkedText())
	assert.True(t, b.Equal(s))
}

func TestTransition_CanonicalInactiveAfterCommit(t *testing.T) {
	root := mustTrie(t, map[string]any{"l": cands("A", "B")})
	paths := [][]ir.Key{
		chars(`\l1`),
		append(chars(`\l`), ir.Enter()),
		chars(`\l `),
		append(chars(`\`), ir.Backspace()),
	}
	for _, keys := range paths {
		s, _ := feed(NewState(root, DefaultActivator), keys...)
		assert.True(t, s.IsCanonicalInactive(), "after %s", ir.FormatKeys(keys))
		assert.Equal(t, NewState(root, DefaultActivator).Digest(), s.Digest())
	}
}
