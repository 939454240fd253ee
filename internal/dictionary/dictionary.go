package dictionary

import (
	"fmt"
	"os"

	"github.com/roach88/mnemo/internal/trie"
	"golang.org/x/text/unicode/norm"
)

// Dictionary is a loaded trie plus where it came from.
type Dictionary struct {
	Root        *trie.Node
	Source      string // file path, or a label for inline data
	Format      Format
	Fingerprint string
}

// Load reads and parses a dictionary file, picking the format from its
// extension.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	d, err := parse(data, FormatFromPath(path), path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return d, nil
}

// Parse parses dictionary bytes in the given format. It stops at the first
// problem; use Validate to see all of them.
func Parse(data []byte, format Format) (*Dictionary, error) {
	return parse(data, format, "")
}

// FromTree builds a dictionary from an already-decoded tree, e.g. one
// embedded in a scenario file.
func FromTree(tree any, source string) (*Dictionary, error) {
	root, err := buildTree(tree)
	if err != nil {
		return nil, err
	}
	return newDictionary(root, source, "")
}

func parse(data []byte, format Format, source string) (*Dictionary, error) {
	tree, err := decode(data, format, source)
	if err != nil {
		return nil, trie.NewDecodeError(string(format), err)
	}
	root, err := buildTree(tree)
	if err != nil {
		return nil, err
	}
	return newDictionary(root, source, format)
}

// buildTree runs the schema gate, normalizes candidates and builds the trie.
func buildTree(tree any) (*trie.Node, error) {
	if err := checkSchema(tree); err != nil {
		if problems := trie.Check(tree); len(problems) > 0 {
			return nil, problems[0]
		}
		path := ""
		if leaves := schemaLeaves(err); len(leaves) > 0 {
			path = pointerToPath(leaves[0].InstanceLocation)
		}
		return nil, trie.NewSchemaError(path, err)
	}
	normalizeCandidates(tree)
	return trie.Build(tree)
}

func newDictionary(root *trie.Node, source string, format Format) (*Dictionary, error) {
	fp, err := root.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint dictionary: %w", err)
	}
	if source == "" {
		source = "<inline>"
	}
	return &Dictionary{Root: root, Source: source, Format: format, Fingerprint: fp}, nil
}

// normalizeCandidates rewrites every candidate string to NFC in place.
// Edge keys are left alone: lookups must match the typed characters exactly.
func normalizeCandidates(tree any) {
	m, ok := tree.(map[string]any)
	if !ok {
		return
	}
	for k, v := range m {
		if k != trie.CandidatesKey {
			normalizeCandidates(v)
			continue
		}
		list, ok := v.([]any)
		if !ok {
			continue
		}
		for i, item := range list {
			if s, ok := item.(string); ok {
				list[i] = norm.NFC.String(s)
			}
		}
	}
}
