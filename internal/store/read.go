package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/cpql/internal/ir"
)

// Failure is a query that failed to compile in a run.
type Failure struct {
	RunID string `json:"run_id"`
	Seq   int64  `json:"seq"`
	Query string `json:"query"`
	Error string `json:"error"`
}

const statementColumns = `s.id, s.query_hash, s.query, s.dialect, s.sql, s.params, s.bindings`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatement(row rowScanner) (ir.Statement, error) {
	var (
		stmt     ir.Statement
		params   string
		bindings string
	)
	if err := row.Scan(&stmt.ID, &stmt.QueryHash, &stmt.Query, &stmt.Dialect, &stmt.SQL, &params, &bindings); err != nil {
		return ir.Statement{}, err
	}
	var err error
	if stmt.Params, err = unmarshalParams(params); err != nil {
		return ir.Statement{}, err
	}
	if stmt.Bindings, err = unmarshalBindings(bindings); err != nil {
		return ir.Statement{}, err
	}
	return stmt, nil
}

// ReadStatement returns the statement with the given ID, or ErrNotFound.
func (s *Store) ReadStatement(ctx context.Context, id string) (ir.Statement, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+statementColumns+` FROM statements s WHERE s.id = ?`, id)
	stmt, err := scanStatement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Statement{}, fmt.Errorf("read statement %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.Statement{}, fmt.Errorf("read statement %s: %w", id, err)
	}
	return stmt, nil
}

// ListStatements returns catalog statements ordered by dialect, query text
// and ID. An empty dialect lists every dialect.
func (s *Store) ListStatements(ctx context.Context, dialect string) ([]ir.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements s`
	var args []any
	if dialect != "" {
		query += ` WHERE s.dialect = ?`
		args = append(args, dialect)
	}
	query += ` ORDER BY s.dialect COLLATE BINARY, s.query COLLATE BINARY, s.id COLLATE BINARY`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()
	return collectStatements(rows, "list statements")
}

// RunStatements returns the statements a run produced, in the order they
// were written. Unknown runs yield ErrNotFound.
func (s *Store) RunStatements(ctx context.Context, runID string) ([]ir.Statement, error) {
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+statementColumns+`
		FROM run_statements r
		JOIN statements s ON s.id = r.statement_id
		WHERE r.run_id = ?
		ORDER BY r.seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("run statements: %w", err)
	}
	defer rows.Close()
	return collectStatements(rows, "run statements")
}

func collectStatements(rows *sql.Rows, op string) ([]ir.Statement, error) {
	stmts := []ir.Statement{}
	for rows.Next() {
		stmt, err := scanStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		stmts = append(stmts, stmt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stmts, nil
}

// ReadRun returns the run with the given ID, or ErrNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, schema_source, dialect, compiler_version FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Seq, &run.SchemaSource, &run.Dialect, &run.CompilerVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns all runs, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, schema_source, dialect, compiler_version FROM runs ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Seq, &run.SchemaSource, &run.Dialect, &run.CompilerVersion); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// RunFailures returns the failures recorded for a run, in order.
func (s *Store) RunFailures(ctx context.Context, runID string) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, query, error FROM run_failures WHERE run_id = ? ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("run failures: %w", err)
	}
	defer rows.Close()

	failures := []Failure{}
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.RunID, &f.Seq, &f.Query, &f.Error); err != nil {
			return nil, fmt.Errorf("run failures: scan: %w", err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run failures: %w", err)
	}
	return failures, nil
}
