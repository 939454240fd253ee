package dictionary

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/mnemo/internal/trie"
)

// Report is the outcome of validating a dictionary source.
type Report struct {
	Source   string
	Format   Format
	Problems []error
	Stats    trie.Stats // zero unless the dictionary is valid
}

// OK reports whether the dictionary has no problems.
func (r *Report) OK() bool { return len(r.Problems) == 0 }

// Err aggregates all problems, or returns nil.
func (r *Report) Err() error {
	var result *multierror.Error
	for _, p := range r.Problems {
		result = multierror.Append(result, p)
	}
	return result.ErrorOrNil()
}

// Validate checks dictionary bytes and reports every problem rather than
// stopping at the first one.
func Validate(data []byte, format Format) error {
	return check(data, format, "").Err()
}

// ValidateFile is Validate for a file on disk, returning a full report.
func ValidateFile(path string) *Report {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Report{
			Source:   path,
			Format:   FormatFromPath(path),
			Problems: []error{fmt.Errorf("read dictionary: %w", err)},
		}
	}
	return check(data, FormatFromPath(path), path)
}

func check(data []byte, format Format, source string) *Report {
	report := &Report{Source: source, Format: format}

	tree, err := decode(data, format, source)
	if err != nil {
		report.Problems = append(report.Problems, trie.NewDecodeError(string(format), err))
		return report
	}

	if err := checkSchema(tree); err != nil {
		problems := trie.Check(tree)
		for _, p := range problems {
			report.Problems = append(report.Problems, p)
		}
		if len(problems) == 0 {
			for _, leaf := range schemaLeaves(err) {
				report.Problems = append(report.Problems,
					trie.NewSchemaError(pointerToPath(leaf.InstanceLocation), leaf))
			}
		}
		if len(report.Problems) == 0 {
			report.Problems = append(report.Problems, trie.NewSchemaError("", err))
		}
		return report
	}

	normalizeCandidates(tree)
	root, err := trie.Build(tree)
	if err != nil {
		report.Problems = append(report.Problems, err)
		return report
	}
	report.Stats = root.Stats()
	return report
}
