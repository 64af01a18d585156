package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/cpql/internal/dialect"
	"github.com/roach88/cpql/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Dialect    string // empty selects the config dialect, then the default
	ConfigPath string

	// Config is loaded before any subcommand runs. Never nil after
	// PersistentPreRunE.
	Config *Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cpql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "cpql",
		Version: ir.CompilerVersion,
		Short:   "CPQL - entity query compiler",
		Long: `Compile entity-oriented CPQL queries into parameterized SQL for
SQL Server, PostgreSQL, MySQL and SQLite.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return WrapExitError(ExitCommandError, ErrCodeGeneric, fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if err := opts.loadConfig(); err != nil {
				return WrapExitError(ExitCommandError, ErrCodeConfig, err)
			}
			if _, err := opts.dialect(); err != nil {
				return WrapExitError(ExitCommandError, ErrCodeDialect, err)
			}
			slog.SetDefault(opts.logger(cmd.ErrOrStderr()))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Dialect, "dialect", "d", "", "target dialect (sqlserver|postgres|mysql|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./"+DefaultConfigFile+" when present)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// loadConfig reads --config, or ./cpql.yaml when it exists.
func (o *RootOptions) loadConfig() error {
	path := o.ConfigPath
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			o.Config = &Config{}
			return nil
		}
		path = DefaultConfigFile
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	o.Config = cfg
	return nil
}

func (o *RootOptions) config() *Config {
	if o.Config == nil {
		return &Config{}
	}
	return o.Config
}

// dialect resolves the target dialect from the flag, then the config.
func (o *RootOptions) dialect() (*dialect.Dialect, error) {
	name := o.Dialect
	if name == "" {
		name = o.config().Dialect
	}
	return dialect.Lookup(name)
}

// logger returns a text logger on w: Debug when verbose, Warn otherwise.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// Execute runs the root command and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		// cobra argument and flag errors
		fmt.Fprintln(stderr, "Error:", err)
		return ExitCommandError
	}
	if exitErr.Code == ExitCommandError && exitErr.Err != nil {
		fmt.Fprintln(stderr, "Error:", exitErr)
	}
	return exitErr.Code
}
