package engine

import "slices"

// PageSize is the number of candidates visible at once.
const PageSize = 9

// CandidateWindow tracks the visible page and the selection over a
// candidate list. It is a value type: every operation returns a new window
// and none of them can fail. Out-of-range requests clamp or do nothing.
//
// Invariants, whenever the list is non-empty:
//
//	0 <= selected < count
//	firstVisible <= selected < firstVisible+PageSize
type CandidateWindow struct {
	candidates   []string
	selected     int
	firstVisible int
}

// NewCandidateWindow returns a window over candidates with the first one
// selected. The slice is shared, not copied; trie candidate lists are
// immutable.
func NewCandidateWindow(candidates []string) CandidateWindow {
	if len(candidates) == 0 {
		return CandidateWindow{}
	}
	return CandidateWindow{candidates: candidates}
}

// Candidates returns the full candidate list. Callers must not modify it.
func (w CandidateWindow) Candidates() []string { return w.candidates }

// Count returns the number of candidates.
func (w CandidateWindow) Count() int { return len(w.candidates) }

// IsEmpty reports whether there are no candidates.
func (w CandidateWindow) IsEmpty() bool { return len(w.candidates) == 0 }

// Selected returns the selected index. It is meaningless when empty.
func (w CandidateWindow) Selected() int { return w.selected }

// FirstVisible returns the index of the first candidate on the current page.
func (w CandidateWindow) FirstVisible() int { return w.firstVisible }

// SelectedCandidate returns the selected string, if any.
func (w CandidateWindow) SelectedCandidate() (string, bool) {
	if w.IsEmpty() {
		return "", false
	}
	return w.candidates[w.selected], true
}

// Candidate returns the candidate at absolute index i, if in range.
func (w CandidateWindow) Candidate(i int) (string, bool) {
	if i < 0 || i >= len(w.candidates) {
		return "", false
	}
	return w.candidates[i], true
}

// Visible returns the candidates on the current page.
func (w CandidateWindow) Visible() []string {
	if w.IsEmpty() {
		return nil
	}
	end := min(w.firstVisible+PageSize, len(w.candidates))
	return w.candidates[w.firstVisible:end]
}

// MoveDown selects the next candidate, scrolling by one when the selection
// would leave the page.
func (w CandidateWindow) MoveDown() CandidateWindow {
	if w.selected+1 >= len(w.candidates) {
		return w
	}
	w.selected++
	if w.selected >= w.firstVisible+PageSize {
		w.firstVisible = w.selected - PageSize + 1
	}
	return w
}

// MoveUp selects the previous candidate, scrolling by one when needed.
func (w CandidateWindow) MoveUp() CandidateWindow {
	if w.selected == 0 || w.IsEmpty() {
		return w
	}
	w.selected--
	if w.selected < w.firstVisible {
		w.firstVisible = w.selected
	}
	return w
}

// PageDown jumps a full page forward and selects the first candidate of the
// new page. On the last page it keeps the page and selects the last
// candidate.
func (w CandidateWindow) PageDown() CandidateWindow {
	if w.IsEmpty() {
		return w
	}
	if w.firstVisible+PageSize < len(w.candidates) {
		w.firstVisible += PageSize
		w.selected = w.firstVisible
		return w
	}
	w.selected = len(w.candidates) - 1
	return w
}

// PageUp jumps a full page back, keeping the selection at the same offset
// within the page.
func (w CandidateWindow) PageUp() CandidateWindow {
	if w.IsEmpty() {
		return w
	}
	offset := w.selected - w.firstVisible
	w.firstVisible = max(0, w.firstVisible-PageSize)
	w.selected = min(w.firstVisible+offset, len(w.candidates)-1)
	return w
}

// Select moves the selection to absolute index i, scrolling as little as
// possible to keep it visible. Out-of-range indexes are ignored.
func (w CandidateWindow) Select(i int) CandidateWindow {
	if i < 0 || i >= len(w.candidates) {
		return w
	}
	w.selected = i
	switch {
	case i < w.firstVisible:
		w.firstVisible = i
	case i >= w.firstVisible+PageSize:
		w.firstVisible = i - PageSize + 1
	}
	return w
}

// Equal reports whether two windows show the same list with the same
// selection and page.
func (w CandidateWindow) Equal(o CandidateWindow) bool {
	return w.selected == o.selected &&
		w.firstVisible == o.firstVisible &&
		slices.Equal(w.candidates, o.candidates)
}
