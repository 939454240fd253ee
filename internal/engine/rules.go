package engine

import (
	"github.com/roach88/mnemo/internal/ir"
)

// Rule names, in priority order.
const (
	RuleInactiveReject      = "inactive-reject"
	RuleActivate            = "activate"
	RuleNavigate            = "navigate"
	RuleEnter               = "enter"
	RuleBackspaceUndo       = "backspace-undo"
	RuleBackspacePop        = "backspace-pop"
	RuleBackspaceDeactivate = "backspace-deactivate"
	RuleAutoCommit          = "auto-commit"
	RuleContinue            = "continue"
	RuleOverflowCommit      = "overflow-commit"
	RuleSoftCommit          = "soft-commit"
	RuleHardCommit          = "hard-commit"
	RuleDigitSelect         = "digit-select"
	RuleImplicitCommit      = "implicit-commit"
)

// event is one atomic input: a special key, or a single character taken
// from a Characters run.
type event struct {
	key    ir.Key
	char   rune
	isChar bool
}

// text is what a reject intent reports back to the host.
func (ev event) text() string {
	if ev.isChar {
		return string(ev.char)
	}
	return ""
}

type rule struct {
	name  string
	match func(State, event) bool
	apply func(State, event) (State, []ir.Intent)
}

// rules is evaluated top to bottom; the first match wins.
var rules = []rule{
	{RuleInactiveReject, matchInactiveReject, applyInactiveReject},
	{RuleActivate, matchActivate, applyActivate},
	{RuleNavigate, matchNavigate, applyNavigate},
	{RuleEnter, matchKey(ir.KeyEnter), applyEnter},
	{RuleBackspaceUndo, matchBackspaceUndo, applyBackspaceUndo},
	{RuleBackspacePop, matchBackspacePop, applyBackspacePop},
	{RuleBackspaceDeactivate, matchKey(ir.KeyBackspace), applyDeactivate},
	{RuleAutoCommit, matchAutoCommit, applyAutoCommit},
	{RuleContinue, matchContinue, applyContinue},
	{RuleOverflowCommit, matchOverflow, applyImplicitCommit},
	{RuleSoftCommit, matchSoftCommit, applySoftCommit},
	{RuleHardCommit, matchActivatorChar, applyHardCommit},
	{RuleDigitSelect, matchDigitSelect, applyDigitSelect},
	{RuleImplicitCommit, matchActiveChar, applyImplicitCommit},
}

// RuleNames returns the rule names in priority order.
func RuleNames() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}

func isActivator(s State, ev event) bool {
	return ev.isChar && ev.char == s.activator
}

func matchInactiveReject(s State, ev event) bool {
	return !s.active && !isActivator(s, ev)
}

func applyInactiveReject(s State, ev event) (State, []ir.Intent) {
	return s, []ir.Intent{ir.Reject(ev.text())}
}

func matchActivate(s State, ev event) bool {
	return !s.active && isActivator(s, ev)
}

func applyActivate(s State, _ event) (State, []ir.Intent) {
	next := State{
		path:      s.rootPath(),
		buffer:    string(s.activator),
		active:    true,
		history:   s.archived(),
		activator: s.activator,
	}
	return next, []ir.Intent{ir.Sync()}
}

func matchKey(kind ir.KeyKind) func(State, event) bool {
	return func(s State, ev event) bool {
		return s.active && !ev.isChar && ev.key.Kind == kind
	}
}

func matchNavigate(s State, ev event) bool {
	return s.active && !ev.isChar && ev.key.IsNavigation()
}

// applyNavigate moves the selection only; navigation is not a content
// change, so history is left alone.
func applyNavigate(s State, ev event) (State, []ir.Intent) {
	var dir ir.Direction
	switch ev.key.Kind {
	case ir.KeyUp:
		s.window, dir = s.window.MoveUp(), ir.DirUp
	case ir.KeyDown:
		s.window, dir = s.window.MoveDown(), ir.DirDown
	case ir.KeyLeft:
		s.window, dir = s.window.PageUp(), ir.DirLeft
	case ir.KeyRight:
		s.window, dir = s.window.PageDown(), ir.DirRight
	}
	return s, []ir.Intent{ir.Navigate(dir)}
}

func applyEnter(s State, _ event) (State, []ir.Intent) {
	if c, ok := s.window.SelectedCandidate(); ok {
		return commit(s, s.committedPrefix+c)
	}
	if text := s.committedPrefix + s.buffer; text != "" {
		return commit(s, text)
	}
	return s, []ir.Intent{ir.Reject("")}
}

func matchBackspaceUndo(s State, ev event) bool {
	return matchKey(ir.KeyBackspace)(s, ev) && len(s.history) > 0
}

// applyBackspaceUndo restores the most recent snapshot verbatim, giving it
// the remaining history.
func applyBackspaceUndo(s State, _ event) (State, []ir.Intent) {
	last := len(s.history) - 1
	restored := s.history[last]
	if !restored.active {
		return s.reset(), []ir.Intent{ir.Sync()}
	}
	restored.history = s.history[:last:last]
	return restored, []ir.Intent{ir.Sync()}
}

func matchBackspacePop(s State, ev event) bool {
	return matchKey(ir.KeyBackspace)(s, ev) && s.buffer != ""
}

// applyBackspacePop drops the last character by hand, for states that have
// no snapshot to restore.
func applyBackspacePop(s State, _ event) (State, []ir.Intent) {
	runes := []rune(s.buffer)
	buffer := string(runes[:len(runes)-1])
	if buffer == "" && s.committedPrefix == "" {
		return s.reset(), []ir.Intent{ir.Sync()}
	}

	path := s.path
	if len(path) > 1 {
		path = path[: len(path)-1 : len(path)-1]
	}
	next := s
	next.buffer = buffer
	next.path = path
	next.window = NewCandidateWindow(path[len(path)-1].Candidates())
	return next, []ir.Intent{ir.Sync()}
}

func applyDeactivate(s State, _ event) (State, []ir.Intent) {
	return s.reset(), []ir.Intent{ir.Sync()}
}

func matchActiveChar(s State, ev event) bool {
	return s.active && ev.isChar
}

// edge returns the child of the path's tail reached by the event.
func edge(s State, ev event) (bool, bool) {
	if !matchActiveChar(s, ev) {
		return false, false
	}
	child, ok := s.Tail().Lookup(ev.char)
	if !ok {
		return false, false
	}
	return true, child.IsLeaf() && len(child.Candidates()) == 1
}

func hasRoom(s State) bool {
	return s.BufferLength() < MaxBufferLength
}

func matchAutoCommit(s State, ev event) bool {
	ok, single := edge(s, ev)
	return ok && single && hasRoom(s)
}

func applyAutoCommit(s State, ev event) (State, []ir.Intent) {
	child, _ := s.Tail().Lookup(ev.char)
	return commit(s, s.committedPrefix+child.Candidates()[0])
}

func matchContinue(s State, ev event) bool {
	ok, _ := edge(s, ev)
	return ok && hasRoom(s)
}

func applyContinue(s State, ev event) (State, []ir.Intent) {
	child, _ := s.Tail().Lookup(ev.char)
	next := State{
		path:            s.descend(child),
		buffer:          s.buffer + string(ev.char),
		committedPrefix: s.committedPrefix,
		active:          true,
		window:          NewCandidateWindow(child.Candidates()),
		history:         s.archived(),
		activator:       s.activator,
	}
	return next, []ir.Intent{ir.Sync()}
}

// matchOverflow catches a valid continuation that would push the buffer
// past MaxBufferLength.
func matchOverflow(s State, ev event) bool {
	ok, _ := edge(s, ev)
	return ok && !hasRoom(s)
}

func matchActivatorChar(s State, ev event) bool {
	return s.active && isActivator(s, ev)
}

func matchSoftCommit(s State, ev event) bool {
	_, selected := s.window.SelectedCandidate()
	return matchActivatorChar(s, ev) && selected
}

// applySoftCommit moves the selected candidate into the prefix and starts a
// new sub-sequence. Nothing leaves the engine yet.
func applySoftCommit(s State, _ event) (State, []ir.Intent) {
	c, _ := s.window.SelectedCandidate()
	next := State{
		path:            s.rootPath(),
		buffer:          string(s.activator),
		committedPrefix: s.committedPrefix + c,
		active:          true,
		history:         s.archived(),
		activator:       s.activator,
	}
	return next, []ir.Intent{ir.Sync()}
}

// applyHardCommit sends the literal characters typed, trailing activator
// included, because the sequence matched nothing.
func applyHardCommit(s State, ev event) (State, []ir.Intent) {
	return commit(s, s.committedPrefix+s.buffer+string(ev.char))
}

func digitIndex(s State, ev event) (int, bool) {
	if !ev.isChar || ev.char < '1' || ev.char > '9' || s.window.IsEmpty() {
		return 0, false
	}
	i := s.window.FirstVisible() + int(ev.char-'1')
	return i, i < s.window.Count()
}

func matchDigitSelect(s State, ev event) bool {
	_, ok := digitIndex(s, ev)
	return s.active && ok
}

func applyDigitSelect(s State, ev event) (State, []ir.Intent) {
	i, _ := digitIndex(s, ev)
	c, _ := s.window.Candidate(i)
	return commit(s, s.committedPrefix+c)
}

// applyImplicitCommit commits the best match and hands the triggering
// character back to the host, which inserts it after the commit. The best
// match is the selected candidate, or the raw buffer when there is none.
func applyImplicitCommit(s State, ev event) (State, []ir.Intent) {
	best, ok := s.window.SelectedCandidate()
	if !ok {
		best = s.buffer
	}
	text := s.committedPrefix + best
	if text == "" {
		return s.reset(), []ir.Intent{ir.Reject(ev.text())}
	}
	return s.reset(), []ir.Intent{ir.Commit(text), ir.Reject(ev.text())}
}

// commit ends the composition with text.
func commit(s State, text string) (State, []ir.Intent) {
	return s.reset(), []ir.Intent{ir.Commit(text)}
}
