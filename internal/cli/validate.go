package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mnemo/internal/dictionary"
	"github.com/roach88/mnemo/internal/trie"
)

// ValidationProblem is one problem found in a dictionary.
type ValidationProblem struct {
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// DictionaryReport is the validation outcome for one file.
type DictionaryReport struct {
	Source   string              `json:"source"`
	Format   string              `json:"format"`
	Valid    bool                `json:"valid"`
	Problems []ValidationProblem `json:"problems,omitempty"`
	Stats    *trie.Stats         `json:"stats,omitempty"`
}

// ValidationResult holds validation results for every file.
type ValidationResult struct {
	Valid        bool               `json:"valid"`
	Dictionaries []DictionaryReport `json:"dictionaries"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <dictionary>...",
		Short: "Check dictionaries without starting a session",
		Long: `Validate one or more dictionary files (YAML, JSON or CUE).

Every problem in a file is reported, not just the first one. Valid files
print their trie statistics.

Examples:
  mnemo validate symbols.yaml
  mnemo validate greek.json math.cue --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return outputValidateError(formatter, ErrCodeNotFound, "dictionary not found: "+p, nil)
		}
	}

	result := ValidationResult{Valid: true}
	problems := 0
	for _, p := range paths {
		formatter.VerboseLog("Validating %s", p)
		report := toDictionaryReport(dictionary.ValidateFile(p))
		if !report.Valid {
			result.Valid = false
			problems += len(report.Problems)
		}
		result.Dictionaries = append(result.Dictionaries, report)
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result, problems)
	}
	return outputValidateSuccess(formatter, result)
}

func toDictionaryReport(r *dictionary.Report) DictionaryReport {
	out := DictionaryReport{
		Source: r.Source,
		Format: string(r.Format),
		Valid:  r.OK(),
	}
	if out.Valid {
		stats := r.Stats
		out.Stats = &stats
		return out
	}
	for _, p := range r.Problems {
		out.Problems = append(out.Problems, toProblem(p))
	}
	return out
}

func toProblem(err error) ValidationProblem {
	var malformed *trie.MalformedDictionaryError
	if errors.As(err, &malformed) {
		return ValidationProblem{
			Code:    string(malformed.Code),
			Path:    malformed.Path,
			Message: err.Error(),
		}
	}
	return ValidationProblem{Code: ErrCodeGeneric, Message: err.Error()}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, d := range result.Dictionaries {
		fmt.Fprintf(formatter.Writer, "✓ %s (%s)\n", d.Source, d.Format)
		fmt.Fprintf(formatter.Writer, "  %d entries, %d candidates, %d nodes, depth %d\n",
			d.Stats.Entries, d.Stats.Candidates, d.Stats.Nodes, d.Stats.MaxDepth)
	}
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Validation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every problem across all files.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult, count int) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeMalformed,
				Message: fmt.Sprintf("%d problem(s) found", count),
			},
		}

		if err := encodeResponse(formatter.Writer, response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, d := range result.Dictionaries {
		if d.Valid {
			fmt.Fprintf(formatter.Writer, "✓ %s\n\n", d.Source)
			continue
		}
		fmt.Fprintf(formatter.Writer, "✗ %s\n", d.Source)
		for _, p := range d.Problems {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", p.Code, p.Message)
		}
		fmt.Fprintln(formatter.Writer)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
}
