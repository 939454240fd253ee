package engine

import (
	"slices"
	"unicode/utf8"

	"github.com/roach88/mnemo/internal/trie"
)

// Resource ceilings enforced synchronously by the transition function.
const (
	// MaxBufferLength is the longest buffer, in characters, including the
	// activator.
	MaxBufferLength = 50

	// MaxHistoryDepth is the number of undo snapshots kept; the oldest is
	// evicted first.
	MaxHistoryDepth = 100

	// DefaultActivator begins a composition.
	DefaultActivator = '\\'
)

// State is an immutable snapshot of a composition.
//
// Every transition returns a new State; no method mutates the receiver and
// slices are never shared between a state and its successor in a way that
// an append could observe.
//
// Invariants:
//   - len(path) >= 1 and path[0] is the root
//   - the buffer holds at most MaxBufferLength characters
//   - len(history) <= MaxHistoryDepth, and every snapshot has no history
//   - when inactive: empty buffer, empty prefix, path == [root], no history
type State struct {
	path            []*trie.Node
	buffer          string
	committedPrefix string
	active          bool
	window          CandidateWindow
	history         []State
	activator       rune
}

// NewState returns the canonical inactive state over root.
func NewState(root *trie.Node, activator rune) State {
	if root == nil {
		root = trie.Empty()
	}
	return State{
		path:      []*trie.Node{root},
		activator: activator,
	}
}

// Root returns the trie root the state walks.
func (s State) Root() *trie.Node { return s.path[0] }

// Tail returns the node at the end of the traversal path.
func (s State) Tail() *trie.Node { return s.path[len(s.path)-1] }

// Path returns a copy of the traversal path.
func (s State) Path() []*trie.Node { return slices.Clone(s.path) }

// PathLength returns the number of nodes on the path, root included.
func (s State) PathLength() int { return len(s.path) }

// Buffer returns the raw characters typed since activation.
func (s State) Buffer() string { return s.buffer }

// BufferLength returns the buffer length in characters.
func (s State) BufferLength() int { return utf8.RuneCountInString(s.buffer) }

// CommittedPrefix returns soft-committed text not yet sent to the host.
func (s State) CommittedPrefix() string { return s.committedPrefix }

// Active reports whether a composition is in progress.
func (s State) Active() bool { return s.active }

// Window returns the candidate window.
func (s State) Window() CandidateWindow { return s.window }

// Activator returns the character that starts a composition.
func (s State) Activator() rune { return s.activator }

// HistoryDepth returns the number of undo snapshots.
func (s State) HistoryDepth() int { return len(s.history) }

// History returns a copy of the undo snapshots, most recent last.
func (s State) History() []State { return slices.Clone(s.history) }

// MarkedText is what the host shows as uncommitted composition text.
func (s State) MarkedText() string { return s.committedPrefix + s.buffer }

// CursorPosition is the caret offset within MarkedText, in characters.
func (s State) CursorPosition() int { return utf8.RuneCountInString(s.MarkedText()) }

// CandidatesVisible reports whether the host should show the candidate panel.
func (s State) CandidatesVisible() bool { return s.active && !s.window.IsEmpty() }

// IsCanonicalInactive reports whether s is the reset form.
func (s State) IsCanonicalInactive() bool {
	return !s.active && s.buffer == "" && s.committedPrefix == "" &&
		len(s.path) == 1 && len(s.history) == 0 && s.window.IsEmpty()
}

// Equal reports observable equality: path, buffer, prefix, activity and
// window. History is not compared.
func (s State) Equal(o State) bool {
	return s.active == o.active &&
		s.buffer == o.buffer &&
		s.committedPrefix == o.committedPrefix &&
		s.activator == o.activator &&
		slices.Equal(s.path, o.path) &&
		s.window.Equal(o.window)
}

// SelectCandidate returns s with the window selection moved to index i.
// It does not touch history; selection is not a content change.
func (s State) SelectCandidate(i int) State {
	s.window = s.window.Select(i)
	return s
}

// reset returns the canonical inactive state over the same root.
func (s State) reset() State {
	return NewState(s.Root(), s.activator)
}

// snapshot is s without its history, the form stored in undo stacks.
func (s State) snapshot() State {
	s.history = nil
	return s
}

// archived returns s's history with s itself pushed on top, evicting the
// oldest entries beyond MaxHistoryDepth. The result never aliases
// s.history.
func (s State) archived() []State {
	start := max(0, len(s.history)+1-MaxHistoryDepth)
	h := make([]State, 0, len(s.history)-start+1)
	h = append(h, s.history[start:]...)
	return append(h, s.snapshot())
}

// descend returns a fresh path with child appended.
func (s State) descend(child *trie.Node) []*trie.Node {
	p := make([]*trie.Node, len(s.path), len(s.path)+1)
	copy(p, s.path)
	return append(p, child)
}

// rootPath returns a fresh one-element path.
func (s State) rootPath() []*trie.Node {
	return []*trie.Node{s.Root()}
}
