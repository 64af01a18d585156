package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cpql/internal/ir"
	"github.com/roach88/cpql/internal/store"
)

// CatalogOptions holds flags for the catalog command.
type CatalogOptions struct {
	*RootOptions
	Runs bool   // list runs instead of statements
	Run  string // show one run
}

// CatalogResult is the output of the catalog command. Only the fields for
// the selected view are set.
type CatalogResult struct {
	Path       string          `json:"path"`
	Dialect    string          `json:"dialect,omitempty"`
	Statements []ir.Statement  `json:"statements,omitempty"`
	Runs       []store.Run     `json:"runs,omitempty"`
	Run        *store.Run      `json:"run,omitempty"`
	Failures   []store.Failure `json:"failures,omitempty"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog [db]",
		Short: "Inspect a statement catalog",
		Long: `Inspect a statement catalog written by "cpql compile --catalog".

By default every recorded statement is listed, ordered by dialect and query.
--dialect restricts the listing to one dialect.

Examples:
  cpql catalog catalog.db
  cpql catalog catalog.db --runs
  cpql catalog catalog.db --run 0192f5e4-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.config().Catalog
			if len(args) == 1 {
				path = args[0]
			}
			return runCatalog(opts, path, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Runs, "runs", false, "list compile runs")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show statements and failures of one run")

	return cmd
}

func runCatalog(opts *CatalogOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if path == "" {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, "no catalog given and none configured")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("catalog not found: %s", path))
	}

	st, err := store.Open(path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeCatalog, err.Error())
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result := CatalogResult{Path: path}
	switch {
	case opts.Run != "":
		err = readRun(ctx, st, opts.Run, &result)
	case opts.Runs:
		result.Runs, err = st.ListRuns(ctx)
	default:
		if opts.Dialect != "" || opts.config().Dialect != "" {
			d, _ := opts.dialect()
			result.Dialect = string(d.Name())
		}
		result.Statements, err = st.ListStatements(ctx, result.Dialect)
	}
	if err != nil {
		code := ErrCodeCatalog
		if errors.Is(err, store.ErrNotFound) {
			code = ErrCodeNotFound
		}
		return formatter.fail(ExitCommandError, code, err.Error())
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	writeCatalogText(formatter, opts, result)
	return nil
}

func readRun(ctx context.Context, st *store.Store, id string, result *CatalogResult) error {
	run, err := st.ReadRun(ctx, id)
	if err != nil {
		return err
	}
	result.Run = &run
	if result.Statements, err = st.RunStatements(ctx, id); err != nil {
		return err
	}
	result.Failures, err = st.RunFailures(ctx, id)
	return err
}

func writeCatalogText(formatter *OutputFormatter, opts *CatalogOptions, result CatalogResult) {
	w := formatter.Writer
	switch {
	case opts.Run != "":
		r := result.Run
		fmt.Fprintf(w, "Run %d (%s)\n  schema:  %s\n  dialect: %s\n  version: %s\n\n", r.Seq, r.ID, r.SchemaSource, r.Dialect, r.CompilerVersion)
		for _, stmt := range result.Statements {
			fmt.Fprintf(w, "✓ %s\n  %s\n", stmt.Query, stmt.SQL)
		}
		for _, f := range result.Failures {
			fmt.Fprintf(w, "✗ %s\n  %s\n", f.Query, f.Error)
		}
	case opts.Runs:
		if len(result.Runs) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return
		}
		for _, r := range result.Runs {
			fmt.Fprintf(w, "%4d  %s  %-9s  %s\n", r.Seq, r.ID, r.Dialect, r.SchemaSource)
		}
	default:
		if len(result.Statements) == 0 {
			fmt.Fprintln(w, "No statements recorded.")
			return
		}
		for _, stmt := range result.Statements {
			fmt.Fprintf(w, "%s  [%s] %s\n  %s\n", shortID(stmt.ID), stmt.Dialect, stmt.Query, stmt.SQL)
		}
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
