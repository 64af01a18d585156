package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cpql/internal/compiler"
	"github.com/roach88/cpql/internal/ir"
	"github.com/roach88/cpql/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Schema  string // metadata file or CUE directory
	File    string // query file, one query per line
	Catalog string // statement catalog to record into
	Output  string // JSON output file
	Lint    bool   // report portability warnings
}

// CompiledQuery is the outcome of one query.
type CompiledQuery struct {
	Statement *ir.Statement      `json:"statement,omitempty"`
	Query     string             `json:"query"`
	Error     string             `json:"error,omitempty"`
	ErrorKind string             `json:"error_kind,omitempty"`
	Warnings  []compiler.Warning `json:"warnings,omitempty"`
}

// CompileResult holds every compiled query.
type CompileResult struct {
	Dialect string          `json:"dialect"`
	RunID   string          `json:"run_id,omitempty"`
	Queries []CompiledQuery `json:"queries"`
	Failed  int             `json:"failed"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [query...]",
		Short: "Compile CPQL queries to SQL",
		Long: `Compile CPQL queries to parameterized SQL for the target dialect.

Queries come from the arguments or from --file (one per line; blank lines
and lines starting with # or -- are skipped). With --catalog, every statement is
recorded in the SQLite statement catalog under a new run.

Exit codes:
  0 - All queries compiled
  1 - One or more queries failed
  2 - Command error (schema not found, catalog unwritable, etc.)

Examples:
  cpql compile -s schema.yaml "SELECT u FROM User u WHERE u.IsActive = :active"
  cpql compile -s ./schema -d postgres --file queries.cpql --catalog catalog.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "metadata file or CUE directory")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read queries from file")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "record statements in this catalog database")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write statements as JSON to this file")
	cmd.Flags().BoolVar(&opts.Lint, "lint", false, "report portability warnings")

	return cmd
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	queries := append([]string(nil), args...)
	if opts.File != "" {
		fromFile, err := readQueryFile(opts.File)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeNotFound, err.Error())
		}
		queries = append(queries, fromFile...)
	}
	if len(queries) == 0 {
		return formatter.fail(ExitCommandError, ErrCodeNoQuery, "no queries given (pass queries as arguments or use --file)")
	}

	path, err := opts.schemaPath(opts.Schema)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, err.Error())
	}
	schema, verrs, err := loadSchema(path)
	if err != nil {
		return loadFailure(formatter, err)
	}
	if len(verrs) > 0 {
		return outputValidationErrors(formatter, verrs)
	}

	c, err := opts.newCompiler(schema, opts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeDialect, err.Error())
	}
	formatter.VerboseLog("Compiling %d query(ies) for %s", len(queries), c.Dialect())

	result := CompileResult{Dialect: string(c.Dialect().Name()), Queries: make([]CompiledQuery, 0, len(queries))}
	var records []ir.Statement
	for _, text := range queries {
		cq := CompiledQuery{Query: text}
		stmt, err := c.Compile(text)
		if err != nil {
			cq.Error = err.Error()
			cq.ErrorKind = compiler.ErrorKind(err)
			result.Failed++
		} else {
			rec := stmt.Record()
			cq.Statement = &rec
			records = append(records, rec)
		}
		if opts.Lint {
			if q, err := c.Parse(text); err == nil {
				cq.Warnings = c.Lint(q).Warnings
			}
		}
		result.Queries = append(result.Queries, cq)
	}

	catalogPath := opts.Catalog
	if catalogPath == "" {
		catalogPath = opts.config().Catalog
	}
	if catalogPath != "" {
		runID, err := recordRun(cmd.Context(), catalogPath, path, result)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeCatalog, err.Error())
		}
		result.RunID = runID
		formatter.VerboseLog("Recorded run %s in %s", runID, catalogPath)
	}

	if opts.Output != "" {
		if err := writeStatements(records, opts.Output); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileResult(formatter, result, opts.Output)
}

// readQueryFile reads one query per line.
func readQueryFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "--") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return queries, nil
}

// recordRun writes every outcome of a compile invocation to the catalog.
func recordRun(ctx context.Context, catalogPath, schemaSource string, result CompileResult) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(catalogPath)
	if err != nil {
		return "", fmt.Errorf("open catalog: %w", err)
	}
	defer st.Close()

	run, err := st.BeginRun(ctx, schemaSource, result.Dialect)
	if err != nil {
		return "", err
	}
	for _, q := range result.Queries {
		if q.Statement != nil {
			err = st.WriteStatement(ctx, run.ID, *q.Statement)
		} else {
			err = st.WriteFailure(ctx, run.ID, q.Query, fmt.Errorf("%s", q.Error))
		}
		if err != nil {
			return "", err
		}
	}
	return run.ID, nil
}

// writeStatements writes statements as indented JSON. Canonical JSON
// without indentation is used only for hashing.
func writeStatements(stmts []ir.Statement, filename string) error {
	if stmts == nil {
		stmts = []ir.Statement{}
	}
	data, err := json.MarshalIndent(stmts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling statements: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

func outputCompileResult(formatter *OutputFormatter, result CompileResult, outputFile string) error {
	if formatter.JSON() {
		if result.Failed > 0 {
			if err := formatter.Failure(ErrCodeQueryFailure, fmt.Sprintf("%d query(ies) failed to compile", result.Failed), result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, fmt.Sprintf("%d query(ies) failed", result.Failed))
		}
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, q := range result.Queries {
		writeCompiledQuery(w, q)
	}

	if result.RunID != "" {
		fmt.Fprintf(w, "Recorded run %s\n", result.RunID)
	}
	if outputFile != "" {
		fmt.Fprintf(w, "Wrote statements to %s\n", outputFile)
	}
	if result.Failed > 0 {
		fmt.Fprintf(w, "✗ %d of %d query(ies) failed\n", result.Failed, len(result.Queries))
		return NewExitError(ExitFailure, fmt.Sprintf("%d query(ies) failed", result.Failed))
	}
	fmt.Fprintf(w, "✓ Compiled %d query(ies) for %s\n", len(result.Queries), result.Dialect)
	return nil
}

func writeCompiledQuery(w io.Writer, q CompiledQuery) {
	if q.Statement == nil {
		fmt.Fprintf(w, "✗ %s\n  %s: %s\n\n", q.Query, q.ErrorKind, q.Error)
		return
	}
	fmt.Fprintln(w, q.Statement.SQL)
	if len(q.Statement.Bindings) > 0 {
		fmt.Fprintf(w, "  bindings: %s\n", strings.Join(q.Statement.Bindings, ", "))
	}
	for _, warn := range q.Warnings {
		fmt.Fprintf(w, "  warning %s\n", warn)
	}
	fmt.Fprintln(w)
}
