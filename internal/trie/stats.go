package trie

import (
	"github.com/roach88/mnemo/internal/ir"
)

// Stats summarizes a trie.
type Stats struct {
	Nodes      int `json:"nodes"`
	Entries    int `json:"entries"`    // nodes with at least one candidate
	Candidates int `json:"candidates"` // total candidate strings
	MaxDepth   int `json:"max_depth"`
}

// Entry is one complete mnemonic and its candidates.
type Entry struct {
	Sequence   string   `json:"sequence"`
	Candidates []string `json:"candidates"`
}

// Stats walks the whole trie.
func (n *Node) Stats() Stats {
	var s Stats
	n.visit("", 0, func(_ string, depth int, node *Node) {
		s.Nodes++
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		if len(node.candidates) > 0 {
			s.Entries++
			s.Candidates += len(node.candidates)
		}
	})
	return s
}

// Entries lists every node with candidates in edge order, so sequences
// come out sorted by rune value.
func (n *Node) Entries() []Entry {
	var out []Entry
	n.visit("", 0, func(seq string, _ int, node *Node) {
		if len(node.candidates) > 0 {
			out = append(out, Entry{Sequence: seq, Candidates: node.candidates})
		}
	})
	return out
}

// Fingerprint returns a content digest of the trie. Two tries built from
// dictionaries with the same entries have the same fingerprint regardless
// of source format or key order.
func (n *Node) Fingerprint() (string, error) {
	entries := n.Entries()
	listing := make(ir.IRArray, len(entries))
	for i, e := range entries {
		listing[i] = ir.IRObject{
			"sequence":   ir.IRString(e.Sequence),
			"candidates": ir.Strings(e.Candidates),
		}
	}
	return ir.DigestDictionary(listing)
}

func (n *Node) visit(seq string, depth int, fn func(string, int, *Node)) {
	if n == nil {
		return
	}
	fn(seq, depth, n)
	for _, r := range n.edges {
		n.children[r].visit(seq+string(r), depth+1, fn)
	}
}
