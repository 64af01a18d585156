package store

import (
	"context"
	"fmt"

	"github.com/roach88/cpql/internal/ir"
)

// Run describes one compile invocation.
type Run struct {
	ID              string `json:"id"`
	Seq             int64  `json:"seq"`
	SchemaSource    string `json:"schema_source"`
	Dialect         string `json:"dialect"`
	CompilerVersion string `json:"compiler_version"`
}

// BeginRun records a new run and returns it with its ID and seq assigned.
func (s *Store) BeginRun(ctx context.Context, schemaSource, dialect string) (Run, error) {
	run := Run{
		ID:              s.runID.Generate(),
		SchemaSource:    schemaSource,
		Dialect:         dialect,
		CompilerVersion: ir.CompilerVersion,
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO runs (id, seq, schema_source, dialect, compiler_version)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?, ?)
		RETURNING seq
	`, run.ID, run.SchemaSource, run.Dialect, run.CompilerVersion).Scan(&run.Seq)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}
	return run, nil
}

// WriteStatement stores stmt and, when runID is not empty, appends it to
// the run. Writing a statement that already exists only records the run
// membership.
func (s *Store) WriteStatement(ctx context.Context, runID string, stmt ir.Statement) error {
	params, err := marshalParams(stmt.Params)
	if err != nil {
		return fmt.Errorf("write statement: %w", err)
	}
	bindings, err := marshalBindings(stmt.Bindings)
	if err != nil {
		return fmt.Errorf("write statement: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write statement: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO statements (id, query_hash, query, dialect, sql, params, bindings, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, stmt.ID, stmt.QueryHash, stmt.Query, stmt.Dialect, stmt.SQL, params, bindings, ir.IRVersion)
	if err != nil {
		return fmt.Errorf("write statement: %w", err)
	}

	if runID != "" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_statements (run_id, statement_id, seq)
			VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM run_statements WHERE run_id = ?))
		`, runID, stmt.ID, runID)
		if err != nil {
			return fmt.Errorf("write statement: run membership: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write statement: commit: %w", err)
	}
	return nil
}

// WriteFailure records a query that failed to compile in a run.
func (s *Store) WriteFailure(ctx context.Context, runID, query string, compileErr error) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_failures (run_id, seq, query, error)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM run_failures WHERE run_id = ?), ?, ?)
	`, runID, runID, query, compileErr.Error())
	if err != nil {
		return fmt.Errorf("write failure: %w", err)
	}
	return nil
}
