package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mnemo/internal/ir"
	"github.com/roach88/mnemo/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	TraceID  string
	Latest   bool
}

// TraceListing is one recorded session in the trace list.
type TraceListing struct {
	ID             string `json:"id"`
	DictionaryHash string `json:"dictionary_hash"`
	Activator      string `json:"activator"`
	EngineVersion  string `json:"engine_version"`
	Steps          int    `json:"steps"`
}

// TraceStep is one recorded operation.
type TraceStep struct {
	Seq         int64    `json:"seq"`
	Op          string   `json:"op"`
	Rules       []string `json:"rules"`
	Intents     []string `json:"intents"`
	StateDigest string   `json:"state_digest"`
}

// TraceResult holds a trace header and its timeline.
type TraceResult struct {
	Trace    ir.Trace    `json:"trace"`
	Timeline []TraceStep `json:"timeline"`
	Stats    TraceStats  `json:"stats"`
}

// TraceStats holds summary statistics for a trace.
type TraceStats struct {
	Steps     int    `json:"steps"`
	Commits   int    `json:"commits"`
	Rejects   int    `json:"rejects"`
	Committed string `json:"committed"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded sessions",
		Long: `List recorded sessions, or show the timeline of one.

Without --trace or --latest every recorded session is listed. With one
of them, each step is shown with the rules it fired, the intents it
produced and the digest of the state it reached.

The database defaults to the configured store path.

Examples:
  mnemo trace --db traces.db
  mnemo trace --db traces.db --latest
  mnemo trace --db traces.db --trace 0192f0c4-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.TraceID, "trace", "", "trace ID to show")
	cmd.Flags().BoolVar(&opts.Latest, "latest", false, "show the most recent trace")
	cmd.MarkFlagsMutuallyExclusive("trace", "latest")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
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

	if opts.TraceID == "" && !opts.Latest {
		return listTraces(ctx, opts, st, cmd)
	}

	trace, err := resolveTrace(ctx, st, opts.TraceID, opts.Latest)
	if err != nil {
		return err
	}
	steps, err := st.ReadSteps(ctx, trace.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeStore+": failed to read steps", err)
	}

	result := buildTraceResult(trace, steps)
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Data: result, TraceID: trace.ID}, ExitFailure)
	}
	outputTraceText(cmd, result)
	return nil
}

// resolveTrace finds a trace by ID, or the newest one.
func resolveTrace(ctx context.Context, st *store.Store, id string, latest bool) (ir.Trace, error) {
	var (
		trace ir.Trace
		err   error
	)
	if latest {
		trace, err = st.LatestTrace(ctx)
	} else {
		trace, err = st.ReadTrace(ctx, id)
	}
	if errors.Is(err, store.ErrTraceNotFound) {
		if latest {
			return ir.Trace{}, NewExitError(ExitCommandError, ErrCodeNotFound+": no traces recorded")
		}
		return ir.Trace{}, NewExitError(ExitCommandError, fmt.Sprintf("%s: trace not found: %s", ErrCodeNotFound, id))
	}
	if err != nil {
		return ir.Trace{}, WrapExitError(ExitCommandError, ErrCodeStore+": failed to read trace", err)
	}
	return trace, nil
}

func listTraces(ctx context.Context, opts *TraceOptions, st *store.Store, cmd *cobra.Command) error {
	summaries, err := st.ListTraces(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeStore+": failed to list traces", err)
	}

	listing := make([]TraceListing, len(summaries))
	for i, s := range summaries {
		listing[i] = TraceListing{
			ID:             s.ID,
			DictionaryHash: s.DictionaryHash,
			Activator:      s.Activator,
			EngineVersion:  s.EngineVersion,
			Steps:          s.Steps,
		}
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Data: listing}, ExitFailure)
	}

	w := cmd.OutOrStdout()
	if len(listing) == 0 {
		fmt.Fprintln(w, "No traces recorded.")
		return nil
	}
	rows := [][]string{{"trace", "steps", "activator", "dictionary"}}
	for _, l := range listing {
		rows = append(rows, []string{l.ID, strconv.Itoa(l.Steps), l.Activator, shortDigest(l.DictionaryHash)})
	}
	writeTable(w, "", rows)
	return nil
}

func buildTraceResult(trace ir.Trace, steps []ir.Step) TraceResult {
	result := TraceResult{
		Trace:    trace,
		Timeline: make([]TraceStep, len(steps)),
	}
	for i, st := range steps {
		rules := st.Rules
		if rules == nil {
			rules = []string{}
		}
		result.Timeline[i] = TraceStep{
			Seq:         st.Seq,
			Op:          st.Describe(),
			Rules:       rules,
			Intents:     intentStrings(st.Intents),
			StateDigest: st.StateDigest,
		}
		for _, in := range st.Intents {
			switch in.Kind {
			case ir.IntentCommit:
				result.Stats.Commits++
			case ir.IntentReject:
				result.Stats.Rejects++
			}
		}
		result.Stats.Committed += ir.CommitText(st.Intents)
	}
	result.Stats.Steps = len(steps)
	return result
}

func outputTraceText(cmd *cobra.Command, result TraceResult) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace: %s\n", result.Trace.ID)
	fmt.Fprintf(w, "Dictionary: %s\n", shortDigest(result.Trace.DictionaryHash))
	fmt.Fprintf(w, "Activator: %s\n", result.Trace.Activator)
	fmt.Fprintf(w, "Engine: %s\n", result.Trace.EngineVersion)
	fmt.Fprintln(w)

	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No steps recorded.")
		return
	}

	rows := [][]string{{"seq", "op", "rules", "intents", "state"}}
	for _, st := range result.Timeline {
		rows = append(rows, []string{
			strconv.FormatInt(st.Seq, 10),
			visibleKey(st.Op),
			strings.Join(st.Rules, ","),
			"[" + strings.Join(st.Intents, ", ") + "]",
			shortDigest(st.StateDigest),
		})
	}
	writeTable(w, "  ", rows)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Steps: %d, commits: %d, rejects: %d\n", result.Stats.Steps, result.Stats.Commits, result.Stats.Rejects)
	fmt.Fprintf(w, "Committed: %s\n", result.Stats.Committed)
}

// shortDigest trims a digest for tables.
func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
