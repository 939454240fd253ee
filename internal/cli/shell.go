package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/mnemo/internal/dictionary"
	"github.com/roach88/mnemo/internal/engine"
	"github.com/roach88/mnemo/internal/ir"
)

// ShellOptions holds flags for the shell command.
type ShellOptions struct {
	*RootOptions
	Database  string
	Activator string
	Watch     bool

	// TraceIDs allows overriding the trace ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	TraceIDs engine.TraceIDGenerator
}

// NewShellCommand creates the shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	return newShellCommand(&ShellOptions{RootOptions: rootOpts})
}

func newShellCommand(opts *ShellOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell [dictionary]",
		Short: "Compose interactively, one key script per line",
		Long: `Start a composition session that reads key scripts from standard input.

Each line is a key script in the same notation as "mnemo compose". The
session persists across lines, so a mnemonic may span several of them.
After each line the committed document, the marked text and the candidate
panel are printed.

Lines starting with ":" are session commands:
  :select N     select candidate N (counting from 1)
  :deactivate   drop the current composition
  :doc          print the committed document
  :quit         end the session

With --watch the dictionary file is reloaded when it changes. A reload
during a composition takes effect when the composition ends.

Examples:
  mnemo shell symbols.yaml
  mnemo shell symbols.yaml --watch --db traces.db
  printf '\\la\n' | mnemo shell symbols.yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var dictArg string
			if len(args) == 1 {
				dictArg = args[0]
			}
			return runShell(opts, dictArg, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the session to this SQLite database")
	cmd.Flags().StringVar(&opts.Activator, "activator", "", "activator character (default from config)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "reload the dictionary when the file changes")

	return cmd
}

func runShell(opts *ShellOptions, dictArg string, cmd *cobra.Command) error {
	logger := opts.logger()
	cfg := opts.config()

	path, err := opts.dictionaryPath(dictArg)
	if err != nil {
		return err
	}
	activator, err := opts.activator(opts.Activator)
	if err != nil {
		return err
	}

	var (
		dict    *dictionary.Dictionary
		watcher *dictionary.Watcher
	)
	if opts.Watch || cfg.Dictionary.Watch {
		if _, err := loadDictionary(path); err != nil {
			return err
		}
		watcher, err = dictionary.NewWatcher(path,
			dictionary.WithDebounce(cfg.Debounce()),
			dictionary.WithLogger(logger))
		if err != nil {
			return WrapExitError(ExitCommandError, ErrCodeGeneric+": failed to watch dictionary", err)
		}
		defer func() {
			if closeErr := watcher.Close(); closeErr != nil {
				logger.Error("error closing watcher", "error", closeErr)
			}
		}()
		dict = watcher.Current()
	} else {
		dict, err = loadDictionary(path)
		if err != nil {
			return err
		}
	}

	traceIDs := opts.TraceIDs
	if traceIDs == nil {
		traceIDs = engine.UUIDv7Generator{}
	}
	sessionOpts := []engine.SessionOption{
		engine.WithActivator(activator),
		engine.WithLogger(logger),
		engine.WithTraceIDGenerator(traceIDs),
	}
	if db := opts.storePath(opts.Database); db != "" {
		logger.Info("opening database", "path", db)
		st, err := openStore(db, true)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		sessionOpts = append(sessionOpts, engine.WithRecorder(st))
	}

	session := engine.NewSession(dict.Root, sessionOpts...)
	eng := engine.New(session)

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- eng.Run(ctx)
	}()

	if watcher != nil {
		watcher.OnChange(func(d *dictionary.Dictionary) {
			eng.Enqueue(engine.Event{Type: engine.EventTypeSwap, Root: d.Root})
		})
		if err := watcher.Start(); err != nil {
			cancel()
			<-runErr
			return WrapExitError(ExitCommandError, ErrCodeGeneric+": failed to watch dictionary", err)
		}
		go func() {
			for {
				select {
				case err := <-watcher.Errors():
					fmt.Fprintf(cmd.ErrOrStderr(), "dictionary: %v\n", err)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	logger.Info("session starting", "dictionary", dict.Source, "entries", dict.Root.Stats().Entries)
	sh := &shell{
		ctx:    ctx,
		engine: eng,
		out:    cmd.OutOrStdout(),
	}
	// A blocked read must not hold up shutdown on a signal.
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- sh.loop(cmd.InOrStdin())
	}()
	var loopErr error
	select {
	case loopErr = <-loopDone:
	case <-ctx.Done():
	}

	eng.Stop()
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "engine error", err)
	}
	if loopErr != nil {
		return WrapExitError(ExitFailure, "read input", loopErr)
	}

	if id := session.TraceID(); id != "" {
		fmt.Fprintf(sh.out, "Trace: %s\n", id)
	}
	logger.Info("session stopped gracefully")
	return nil
}

// shell turns input lines into engine events and renders the results.
type shell struct {
	ctx      context.Context
	engine   *engine.Engine
	out      io.Writer
	document strings.Builder
}

func (s *shell) loop(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if s.ctx.Err() != nil {
			return nil
		}
		line := scanner.Text()
		if strings.HasPrefix(line, ":") {
			if quit := s.command(strings.Fields(line[1:])); quit {
				return nil
			}
			continue
		}
		s.keys(line)
	}
	return scanner.Err()
}

func (s *shell) keys(script string) {
	keys, err := ir.ParseKeys(script)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	if len(keys) == 0 {
		return
	}

	var last engine.Result
	for _, k := range keys {
		r, ok := s.engine.Submit(s.ctx, engine.Event{Type: engine.EventTypeKey, Key: k})
		if !ok {
			return
		}
		s.apply(k, r.Intents)
		last = r
	}
	s.render(last.State)
}

func (s *shell) command(fields []string) bool {
	if len(fields) == 0 {
		fmt.Fprintln(s.out, "error: empty command")
		return false
	}
	switch fields[0] {
	case "quit", "q":
		return true
	case "doc":
		fmt.Fprintf(s.out, "Document: %s\n", s.document.String())
	case "deactivate":
		r, ok := s.engine.Submit(s.ctx, engine.Event{Type: engine.EventTypeDeactivate})
		if ok {
			s.render(r.State)
		}
	case "select":
		if len(fields) != 2 {
			fmt.Fprintln(s.out, "error: usage :select N")
			return false
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			fmt.Fprintf(s.out, "error: invalid candidate number %q\n", fields[1])
			return false
		}
		r, ok := s.engine.Submit(s.ctx, engine.Event{Type: engine.EventTypeSelect, Index: n - 1})
		if !ok {
			return false
		}
		if !r.Changed {
			fmt.Fprintln(s.out, "selection unchanged")
		}
		s.render(r.State)
	default:
		fmt.Fprintf(s.out, "error: unknown command %q\n", fields[0])
	}
	return false
}

func (s *shell) render(st engine.State) {
	fmt.Fprintf(s.out, "Document: %s\n", s.document.String())
	if !st.Active() {
		fmt.Fprintln(s.out, "Composing: (inactive)")
		return
	}
	fmt.Fprintf(s.out, "Composing: %s (cursor %d)\n", st.MarkedText(), st.CursorPosition())
	writePanel(s.out, st)
}

// apply plays the host's part: commits are inserted, and a key the
// session did not consume is handled as an ordinary editor would.
func (s *shell) apply(k ir.Key, intents []ir.Intent) {
	if intents == nil {
		s.passThrough(k)
		return
	}
	for _, in := range intents {
		switch in.Kind {
		case ir.IntentCommit:
			s.document.WriteString(in.Text)
		case ir.IntentReject:
			if in.Text != "" {
				s.document.WriteString(in.Text)
			} else {
				s.passThrough(k)
			}
		}
	}
}

func (s *shell) passThrough(k ir.Key) {
	switch k.Kind {
	case ir.KeyCharacters:
		s.document.WriteString(k.Text)
	case ir.KeyEnter:
		s.document.WriteString("\n")
	case ir.KeyBackspace:
		doc := []rune(s.document.String())
		if len(doc) > 0 {
			s.document.Reset()
			s.document.WriteString(string(doc[:len(doc)-1]))
		}
	}
}
