package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mnemo/internal/engine"
	"github.com/roach88/mnemo/internal/ir"
)

// ComposeOptions holds flags for the compose command.
type ComposeOptions struct {
	*RootOptions
	Database  string
	Activator string

	// TraceIDs allows overriding the trace ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	TraceIDs engine.TraceIDGenerator
}

// ComposeStep is what one key did.
type ComposeStep struct {
	Key        string   `json:"key"`
	Rules      []string `json:"rules"`
	Intents    []string `json:"intents"`
	MarkedText string   `json:"marked_text"`
	Active     bool     `json:"active"`
}

// ComposeResult is the outcome of a key script.
type ComposeResult struct {
	Dictionary string        `json:"dictionary"`
	Keys       string        `json:"keys"`
	TraceID    string        `json:"trace_id,omitempty"`
	Steps      []ComposeStep `json:"steps"`
	Committed  string        `json:"committed"`
	MarkedText string        `json:"marked_text"`
	Active     bool          `json:"active"`
	Candidates []string      `json:"candidates"`
}

// NewComposeCommand creates the compose command.
func NewComposeCommand(rootOpts *RootOptions) *cobra.Command {
	return newComposeCommand(&ComposeOptions{RootOptions: rootOpts})
}

func newComposeCommand(opts *ComposeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose [dictionary] <keys>",
		Short: "Run a key script through the engine",
		Long: `Feed a key script to a composition session and show what each key did.

Literal characters are typed one at a time. Named keys use angle brackets:
<Up> <Down> <Left> <Right> <BS> <CR> <Space> <lt> <Bslash>.

The dictionary argument may be omitted when one is configured. With --db
the session is recorded and can be inspected with "mnemo trace" and
verified with "mnemo replay".

Examples:
  mnemo compose symbols.yaml '\la'
  mnemo compose symbols.yaml '\le<Down><CR>'
  mnemo compose symbols.yaml '\==\a' --db traces.db
  mnemo compose '\la' --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var dictArg string
			if len(args) == 2 {
				dictArg = args[0]
			}
			return runCompose(opts, dictArg, args[len(args)-1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the session to this SQLite database")
	cmd.Flags().StringVar(&opts.Activator, "activator", "", "activator character (default from config)")

	return cmd
}

func runCompose(opts *ComposeOptions, dictArg, script string, cmd *cobra.Command) error {
	path, err := opts.dictionaryPath(dictArg)
	if err != nil {
		return err
	}
	dict, err := loadDictionary(path)
	if err != nil {
		return err
	}
	keys, err := ir.ParseKeys(script)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeKeySpec+": invalid key script", err)
	}
	activator, err := opts.activator(opts.Activator)
	if err != nil {
		return err
	}

	rec := &captureRecorder{}
	traceIDs := opts.TraceIDs
	if traceIDs == nil {
		traceIDs = engine.UUIDv7Generator{}
	}
	sessionOpts := []engine.SessionOption{
		engine.WithActivator(activator),
		engine.WithLogger(opts.logger()),
		engine.WithRecorder(rec),
		engine.WithTraceIDGenerator(traceIDs),
	}

	db := opts.storePath(opts.Database)
	if db != "" {
		st, err := openStore(db, true)
		if err != nil {
			return err
		}
		defer st.Close()
		rec.next = st
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	session := engine.NewSession(dict.Root, sessionOpts...)
	result := ComposeResult{
		Dictionary: dict.Source,
		Keys:       script,
		Steps:      make([]ComposeStep, 0, len(keys)),
	}
	for _, k := range keys {
		before := len(rec.steps)
		intents := session.Step(ctx, k)
		state := session.CurrentState()

		rules := []string{}
		for _, st := range rec.steps[before:] {
			rules = append(rules, st.Rules...)
		}
		result.Steps = append(result.Steps, ComposeStep{
			Key:        ir.FormatKey(k),
			Rules:      rules,
			Intents:    intentStrings(intents),
			MarkedText: state.MarkedText(),
			Active:     state.Active(),
		})
		result.Committed += ir.CommitText(intents)
	}

	final := session.CurrentState()
	result.MarkedText = final.MarkedText()
	result.Active = final.Active()
	result.Candidates = append([]string{}, final.Window().Candidates()...)
	if db != "" {
		result.TraceID = session.TraceID()
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Data: result, TraceID: result.TraceID}, ExitFailure)
	}
	return outputComposeText(cmd, result, final)
}

func outputComposeText(cmd *cobra.Command, result ComposeResult, final engine.State) error {
	w := cmd.OutOrStdout()

	rows := [][]string{{"key", "rules", "intents", "marked"}}
	for _, st := range result.Steps {
		rules := strings.Join(st.Rules, ",")
		if rules == "" {
			rules = "(pass)"
		}
		rows = append(rows, []string{
			visibleKey(st.Key),
			rules,
			"[" + strings.Join(st.Intents, ", ") + "]",
			st.MarkedText,
		})
	}
	writeTable(w, "  ", rows)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Committed: %s\n", result.Committed)
	if final.Active() {
		fmt.Fprintf(w, "Composing: %s (cursor %d)\n", final.MarkedText(), final.CursorPosition())
		writePanel(w, final)
	} else {
		fmt.Fprintln(w, "Composing: (inactive)")
	}
	if result.TraceID != "" {
		fmt.Fprintf(w, "Trace: %s\n", result.TraceID)
	}
	return nil
}

// visibleKey makes blank keys readable in tables.
func visibleKey(k string) string {
	if k == " " {
		return "<Space>"
	}
	return k
}

func intentStrings(intents []ir.Intent) []string {
	out := make([]string, len(intents))
	for i, in := range intents {
		out[i] = in.String()
	}
	return out
}

// captureRecorder keeps every recorded step in memory and forwards to next
// when set. It lets compose show the rules each key fired.
type captureRecorder struct {
	next  engine.Recorder
	steps []ir.Step
}

func (r *captureRecorder) BeginTrace(ctx context.Context, t ir.Trace) error {
	if r.next == nil {
		return nil
	}
	return r.next.BeginTrace(ctx, t)
}

func (r *captureRecorder) RecordStep(ctx context.Context, s ir.Step) error {
	r.steps = append(r.steps, s)
	if r.next == nil {
		return nil
	}
	return r.next.RecordStep(ctx, s)
}
