package cli

import (
	"fmt"
	"log/slog"
	"slices"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/roach88/mnemo/internal/config"
	"github.com/roach88/mnemo/internal/ir"
	"github.com/roach88/mnemo/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config and Logger are set by the root command before a subcommand
	// runs. Commands invoked directly (tests) fall back to defaults.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the mnemo CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "mnemo",
		Version: ir.EngineVersion,
		Short:   "mnemo - Unicode mnemonic composition",
		Long: `Compose Unicode symbols from escape-triggered mnemonics.

Type an activator (\ by default) followed by a mnemonic such as "la" and
the engine offers the matching symbols (λ) from a dictionary of
character-to-symbol mappings.`,
		SilenceErrors: true, // main reports errors with their exit code
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.setup(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default "+config.DefaultPath()+")")

	// Add subcommands
	cmd.AddCommand(NewComposeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewLookupCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// setup loads the configuration and installs the process logger.
// Diagnostics go to the command's error stream so JSON output stays clean.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	lc := cfg.LoggerConfig()
	lc.Output = cmd.ErrOrStderr()
	if o.Verbose {
		lc.Level = logging.LevelDebug
	}

	o.Config = cfg
	o.Logger = logging.New(lc)
	slog.SetDefault(o.Logger)
	return nil
}

func (o *RootOptions) config() *config.Config {
	if o.Config == nil {
		o.Config = config.Default()
	}
	return o.Config
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o.Logger
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// activator picks the activator: the flag wins over the configuration.
func (o *RootOptions) activator(flag string) (rune, error) {
	if flag == "" {
		return o.config().ActivatorRune(), nil
	}
	if utf8.RuneCountInString(flag) != 1 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("activator must be exactly one character, got %q", flag))
	}
	r, _ := utf8.DecodeRuneInString(flag)
	return r, nil
}
