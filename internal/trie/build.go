package trie

import (
	"fmt"
	"slices"
	"unicode/utf8"
)

// Build constructs a trie from a decoded dictionary tree.
//
// Every level must be a map[string]any. Keys are either exactly one
// character (a child edge whose value is the next level) or CandidatesKey
// (whose value is a list of strings). Build stops at the first problem and
// returns it as a *MalformedDictionaryError.
func Build(tree any) (*Node, error) {
	b := &builder{}
	root := b.level(tree, "", 0)
	if len(b.problems) > 0 {
		return nil, b.problems[0]
	}
	return root, nil
}

// Check reports every problem Build would find, in traversal order.
// An empty result means Build will succeed.
func Check(tree any) []*MalformedDictionaryError {
	b := &builder{collectAll: true}
	b.level(tree, "", 0)
	return b.problems
}

type builder struct {
	collectAll bool
	problems   []*MalformedDictionaryError
}

func (b *builder) fail(e *MalformedDictionaryError) {
	b.problems = append(b.problems, e)
}

func (b *builder) done() bool {
	return !b.collectAll && len(b.problems) > 0
}

func (b *builder) level(v any, path string, depth int) *Node {
	if depth > MaxDepth {
		b.fail(&MalformedDictionaryError{
			Code:    CodeTooDeep,
			Path:    path,
			Message: fmt.Sprintf("nesting exceeds %d levels", MaxDepth),
		})
		return nil
	}

	m, ok := v.(map[string]any)
	if !ok {
		b.fail(&MalformedDictionaryError{
			Code:    CodeNotMapping,
			Path:    path,
			Message: fmt.Sprintf("expected a mapping, got %s", describe(v)),
		})
		return nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	n := &Node{}
	for _, k := range keys {
		if b.done() {
			return nil
		}
		if k == CandidatesKey {
			n.candidates = b.candidates(m[k], path)
			continue
		}
		if utf8.RuneCountInString(k) != 1 {
			b.fail(&MalformedDictionaryError{
				Code:    CodeKeyLength,
				Path:    path,
				Key:     k,
				Message: "edge keys must be exactly one character",
			})
			continue
		}
		r, _ := utf8.DecodeRuneInString(k)
		child := b.level(m[k], path+k, depth+1)
		if child == nil {
			continue
		}
		if n.children == nil {
			n.children = make(map[rune]*Node)
		}
		n.children[r] = child
		n.edges = append(n.edges, r)
	}
	slices.Sort(n.edges)
	return n
}

func (b *builder) candidates(v any, path string) []string {
	switch list := v.(type) {
	case []string:
		return slices.Clone(list)
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				b.fail(&MalformedDictionaryError{
					Code:    CodeCandidates,
					Path:    path,
					Key:     CandidatesKey,
					Message: fmt.Sprintf("candidate %d is %s, not a string", i, describe(item)),
				})
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		b.fail(&MalformedDictionaryError{
			Code:    CodeCandidates,
			Path:    path,
			Key:     CandidatesKey,
			Message: fmt.Sprintf("expected a list of strings, got %s", describe(v)),
		})
		return nil
	}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case []any, []string:
		return "a list"
	case map[string]any:
		return "a mapping"
	default:
		return fmt.Sprintf("a %T", v)
	}
}
