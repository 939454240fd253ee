package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/roach88/mnemo/internal/engine"
)

// displayWidth is the number of terminal cells s occupies. Candidates are
// often wide (CJK) or zero-width (combining marks), so byte and rune
// counts both misalign columns.
func displayWidth(s string) int {
	return uniseg.StringWidth(s)
}

// padRight pads s with spaces to width cells.
func padRight(s string, width int) string {
	if n := width - displayWidth(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// writeTable writes rows with columns aligned by display width. The last
// column is not padded.
func writeTable(w io.Writer, indent string, rows [][]string) {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], displayWidth(cell))
		}
	}
	for _, row := range rows {
		var b strings.Builder
		b.WriteString(indent)
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(padRight(cell, widths[i]))
			b.WriteString("  ")
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

// writePanel renders the candidate panel for s the way an input method
// would: the current page, numbered for digit selection, with the
// selection marked.
func writePanel(w io.Writer, s engine.State) {
	if !s.CandidatesVisible() {
		return
	}
	win := s.Window()
	rows := make([][]string, 0, engine.PageSize)
	for i, c := range win.Visible() {
		marker := " "
		if win.FirstVisible()+i == win.Selected() {
			marker = ">"
		}
		rows = append(rows, []string{marker, fmt.Sprintf("%d", i+1), c})
	}
	writeTable(w, "  ", rows)

	if visible := win.Visible(); len(visible) < win.Count() {
		fmt.Fprintf(w, "  [%d-%d of %d]\n", win.FirstVisible()+1, win.FirstVisible()+len(visible), win.Count())
	}
}
