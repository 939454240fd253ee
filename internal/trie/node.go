package trie

import (
	"slices"
	"unicode/utf8"
)

// CandidatesKey is the reserved mapping key whose value lists the
// candidates of the enclosing level.
const CandidatesKey = ">>"

// MaxDepth bounds dictionary nesting.
const MaxDepth = 512

// Node is an immutable trie node.
type Node struct {
	candidates []string
	children   map[rune]*Node
	edges      []rune // sorted keys of children
}

// Lookup returns the child reached by r, if any.
func (n *Node) Lookup(r rune) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	child, ok := n.children[r]
	return child, ok
}

// LookupString returns the child reached by s when s is exactly one rune.
func (n *Node) LookupString(s string) (*Node, bool) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) {
		return nil, false
	}
	return n.Lookup(r)
}

// Candidates returns the ordered candidate list, possibly empty.
// The returned slice must not be modified.
func (n *Node) Candidates() []string {
	if n == nil {
		return nil
	}
	return n.candidates
}

// HasCandidates reports whether the node is a complete match.
func (n *Node) HasCandidates() bool {
	return n != nil && len(n.candidates) > 0
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n == nil || len(n.children) == 0
}

// Edges returns the child edge runes in ascending order.
func (n *Node) Edges() []rune {
	if n == nil {
		return nil
	}
	return slices.Clone(n.edges)
}

// Walk follows seq from n and returns the node it reaches.
func (n *Node) Walk(seq string) (*Node, bool) {
	cur := n
	for _, r := range seq {
		next, ok := cur.Lookup(r)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// Empty returns a root with no edges and no candidates.
func Empty() *Node {
	return &Node{}
}
