package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mnemo/internal/trie"
)

// LookupResult is the view of one dictionary prefix.
type LookupResult struct {
	Dictionary string       `json:"dictionary"`
	Sequence   string       `json:"sequence"`
	Found      bool         `json:"found"`
	Candidates []string     `json:"candidates"`
	Next       []string     `json:"next"`
	Entries    []trie.Entry `json:"entries,omitempty"`
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <dictionary> [sequence]",
		Short: "Show the candidates and continuations of a mnemonic",
		Long: `Walk a dictionary along a mnemonic sequence.

With a sequence, print its candidates and the characters that may follow
it. Without one, list every mnemonic in the dictionary.

Examples:
  mnemo lookup symbols.yaml le
  mnemo lookup symbols.yaml l
  mnemo lookup symbols.yaml`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			seq := ""
			if len(args) == 2 {
				seq = args[1]
			}
			return runLookup(rootOpts, args[0], seq, len(args) == 2, cmd)
		},
	}

	return cmd
}

func runLookup(opts *RootOptions, path, seq string, hasSeq bool, cmd *cobra.Command) error {
	dict, err := loadDictionary(path)
	if err != nil {
		return err
	}

	result := LookupResult{
		Dictionary: dict.Source,
		Sequence:   seq,
		Candidates: []string{},
		Next:       []string{},
	}
	node, ok := dict.Root.Walk(seq)
	if ok {
		result.Found = true
		result.Candidates = append(result.Candidates, node.Candidates()...)
		for _, r := range node.Edges() {
			result.Next = append(result.Next, string(r))
		}
	}
	if !hasSeq {
		result.Entries = dict.Root.Entries()
	}

	if opts.Format == "json" {
		resp := CLIResponse{Data: result}
		if hasSeq && !result.Found {
			resp.Error = &CLIError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no mnemonic %q", seq)}
		}
		return writeJSON(cmd.OutOrStdout(), resp, ExitFailure)
	}

	w := cmd.OutOrStdout()
	if !hasSeq {
		rows := [][]string{{"sequence", "candidates"}}
		for _, e := range result.Entries {
			rows = append(rows, []string{e.Sequence, strings.Join(e.Candidates, " ")})
		}
		writeTable(w, "", rows)
		fmt.Fprintf(w, "\n%d mnemonics\n", len(result.Entries))
		return nil
	}

	if !result.Found {
		fmt.Fprintf(w, "✗ %s: no such mnemonic\n", strconv.Quote(seq))
		return NewExitError(ExitFailure, fmt.Sprintf("%s: no mnemonic %q", ErrCodeNotFound, seq))
	}
	fmt.Fprintf(w, "%s\n", seq)
	if len(result.Candidates) == 0 {
		fmt.Fprintln(w, "  candidates: (none)")
	} else {
		rows := make([][]string, len(result.Candidates))
		for i, c := range result.Candidates {
			rows[i] = []string{strconv.Itoa(i + 1), c}
		}
		fmt.Fprintln(w, "  candidates:")
		writeTable(w, "    ", rows)
	}
	if len(result.Next) == 0 {
		fmt.Fprintln(w, "  next: (leaf)")
	} else {
		fmt.Fprintf(w, "  next: %s\n", strings.Join(result.Next, " "))
	}
	return nil
}
