package cli

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/roach88/mnemo/internal/dictionary"
	"github.com/roach88/mnemo/internal/engine"
	"github.com/roach88/mnemo/internal/ir"
	"github.com/roach88/mnemo/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database   string
	Dictionary string
	TraceID    string // optional - specific trace only
	Latest     bool
}

// ReplayTraceResult holds the replay result for a single trace.
type ReplayTraceResult struct {
	TraceID       string `json:"trace_id"`
	Steps         int    `json:"steps"`
	Deterministic bool   `json:"deterministic"`
	Error         string `json:"error,omitempty"`
	Expected      string `json:"expected,omitempty"`
	Actual        string `json:"actual,omitempty"`
	Seq           int64  `json:"seq,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Dictionary       string              `json:"dictionary"`
	Traces           []ReplayTraceResult `json:"traces"`
	TotalTraces      int                 `json:"total_traces"`
	AllDeterministic bool                `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded sessions and verify determinism",
		Long: `Replay recorded sessions against a dictionary.

Every step is fed back through the engine from the canonical inactive
state. Each must produce the recorded intents and reach a state with the
recorded digest. A trace recorded against a different dictionary is
reported as not verified.

Exit codes:
  0 - All traces replay identically
  1 - A trace diverged or its dictionary differs
  2 - Command error (database not found, etc.)

Examples:
  mnemo replay --db traces.db --dict symbols.yaml
  mnemo replay --db traces.db --dict symbols.yaml --latest
  mnemo replay --db traces.db --dict symbols.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Dictionary, "dict", "", "dictionary the traces were recorded against")
	cmd.Flags().StringVar(&opts.TraceID, "trace", "", "replay specific trace only")
	cmd.Flags().BoolVar(&opts.Latest, "latest", false, "replay the most recent trace only")
	cmd.MarkFlagsMutuallyExclusive("trace", "latest")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path, err := opts.dictionaryPath(opts.Dictionary)
	if err != nil {
		return err
	}
	dict, err := loadDictionary(path)
	if err != nil {
		return err
	}

	db := opts.storePath(opts.Database)
	if db == "" {
		return NewExitError(ExitCommandError, ErrCodeStore+": no database given (use --db or set [store] path)")
	}
	st, err := openStore(db, false)
	if err != nil {
		return err
	}
	defer st.Close()

	traces, err := tracesToReplay(ctx, opts, st)
	if err != nil {
		return err
	}

	result := ReplayResult{
		Dictionary:       dict.Source,
		Traces:           make([]ReplayTraceResult, 0, len(traces)),
		TotalTraces:      len(traces),
		AllDeterministic: true,
	}
	for _, t := range traces {
		traceResult, err := replayTrace(ctx, st, dict, t)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("%s: failed to replay trace %s", ErrCodeStore, t.ID), err)
		}
		opts.logger().Debug("replayed trace", "trace_id", t.ID, "steps", traceResult.Steps, "deterministic", traceResult.Deterministic)

		result.Traces = append(result.Traces, traceResult)
		if !traceResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

func tracesToReplay(ctx context.Context, opts *ReplayOptions, st *store.Store) ([]ir.Trace, error) {
	if opts.TraceID != "" || opts.Latest {
		t, err := resolveTrace(ctx, st, opts.TraceID, opts.Latest)
		if err != nil {
			return nil, err
		}
		return []ir.Trace{t}, nil
	}

	summaries, err := st.ListTraces(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeStore+": failed to list traces", err)
	}
	traces := make([]ir.Trace, len(summaries))
	for i, s := range summaries {
		traces[i] = s.Trace
	}
	return traces, nil
}

// replayTrace replays one trace. Divergence is reported in the result;
// only store failures are returned as errors.
func replayTrace(ctx context.Context, st *store.Store, dict *dictionary.Dictionary, t ir.Trace) (ReplayTraceResult, error) {
	steps, err := st.ReadSteps(ctx, t.ID)
	if err != nil {
		return ReplayTraceResult{}, err
	}
	result := ReplayTraceResult{TraceID: t.ID, Steps: len(steps)}

	if t.DictionaryHash != dict.Fingerprint {
		result.Error = "recorded against a different dictionary"
		result.Expected = t.DictionaryHash
		result.Actual = dict.Fingerprint
		return result, nil
	}

	activator, size := utf8.DecodeRuneInString(t.Activator)
	if size == 0 || size != len(t.Activator) {
		result.Error = fmt.Sprintf("invalid recorded activator %q", t.Activator)
		return result, nil
	}

	if _, err := engine.Replay(dict.Root, activator, steps); err != nil {
		var re *engine.ReplayError
		if errors.As(err, &re) {
			result.Error = fmt.Sprintf("%s: %s", re.Code, re.Message)
			result.Expected = re.Expected
			result.Actual = re.Actual
			result.Seq = re.Seq
			return result, nil
		}
		return ReplayTraceResult{}, err
	}
	result.Deterministic = true
	return result, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeDiverged,
			Message: "determinism verification failed",
		}
	}

	if err := encodeResponse(cmd.OutOrStdout(), response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		// Determinism failure = exit code 1
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.TotalTraces == 0 {
		fmt.Fprintln(w, "No traces found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d trace(s)\n", result.TotalTraces)
	fmt.Fprintln(w)

	for _, tr := range result.Traces {
		status := "✓"
		if !tr.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Trace: %s\n", status, tr.TraceID)
		fmt.Fprintf(w, "  Steps: %d\n", tr.Steps)

		if !tr.Deterministic {
			if tr.Seq > 0 {
				fmt.Fprintf(w, "  Diverged at seq %d: %s\n", tr.Seq, tr.Error)
			} else {
				fmt.Fprintf(w, "  %s\n", tr.Error)
			}
			if verbose || tr.Seq > 0 {
				fmt.Fprintf(w, "  Expected: %s\n", tr.Expected)
				fmt.Fprintf(w, "  Actual:   %s\n", tr.Actual)
			}
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All traces verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}
