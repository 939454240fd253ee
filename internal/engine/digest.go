package engine

import (
	"github.com/roach88/mnemo/internal/ir"
)

// Summary returns the canonical description of everything observable about
// s. Nodes have no identity outside the process, so the path is described
// by its depth; together with the buffer it pins the node down.
func (s State) Summary() ir.IRObject {
	return ir.IRObject{
		"active":           ir.IRBool(s.active),
		"buffer":           ir.IRString(s.buffer),
		"committed_prefix": ir.IRString(s.committedPrefix),
		"path_depth":       ir.IRInt(len(s.path)),
		"candidates":       ir.Strings(s.window.Candidates()),
		"selected":         ir.IRInt(s.window.Selected()),
		"first_visible":    ir.IRInt(s.window.FirstVisible()),
		"history_depth":    ir.IRInt(len(s.history)),
	}
}

// Digest returns the content digest of Summary.
func (s State) Digest() string {
	d, err := ir.DigestState(s.Summary())
	if err != nil {
		// Summary holds only strings, ints and bools.
		panic(err)
	}
	return d
}
