package harness

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/cpql/internal/compiler"
	"github.com/roach88/cpql/internal/dialect"
	"github.com/roach88/cpql/internal/metadata"
)

// Option configures a scenario run.
type Option func(*options)

type options struct {
	resolver metadata.Resolver
	logger   *slog.Logger
}

// WithResolver supplies entity metadata, overriding the scenario's schema.
func WithResolver(r metadata.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithLogger sets the logger handed to the compiler. Logs are discarded by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Harness is the state of one scenario run.
type Harness struct {
	scenario *Scenario
	compiler *compiler.Compiler
	dialects []dialect.Name
	logger   *slog.Logger
	fixture  *sql.DB
}

// Run compiles every case of a scenario for each of its dialects, checks
// the expectations and evaluates the assertions.
//
// An error is returned only when the scenario cannot run at all; failed
// expectations are reported through Result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	if o.resolver == nil {
		if scenario.Schema == "" {
			return nil, fmt.Errorf("scenario %s: no schema and no resolver given", scenario.Name)
		}
		schema, err := metadata.Load(scenario.Schema)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: load schema: %w", scenario.Name, err)
		}
		o.resolver = schema
	}

	c, err := compiler.New(o.resolver, compiler.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	h := &Harness{scenario: scenario, compiler: c, logger: o.logger}
	for _, name := range scenario.Dialects {
		d, err := dialect.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		h.dialects = append(h.dialects, d.Name())
	}
	defer h.close()

	result := NewResult()
	for _, tc := range scenario.Cases {
		h.runCase(tc, result)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"cases", len(scenario.Cases),
		"pass", result.Pass,
	)
	return result, nil
}

func (h *Harness) runCase(tc Case, result *Result) {
	if q, err := h.compiler.Parse(tc.Query); err == nil {
		result.Lint[tc.Name] = h.compiler.Lint(q)
	}

	for _, d := range h.dialects {
		out := Output{Case: tc.Name, Dialect: string(d)}
		stmt, err := h.compiler.CompileFor(tc.Query, d)
		if err != nil {
			out.Error = err.Error()
			out.ErrorKind = compiler.ErrorKind(err)
		} else {
			out.SQL = stmt.SQL
			out.Params = stmt.ParamNames()
			out.Bindings = stmt.Bindings
			out.StatementID = stmt.ID
			out.QueryHash = stmt.QueryHash
		}
		result.Outputs = append(result.Outputs, out)
		h.checkExpect(tc, out, result)
	}
}

// checkExpect compares one output with the case's expectation. A case
// without an expected error must compile.
func (h *Harness) checkExpect(tc Case, out Output, result *Result) {
	exp := tc.Expect
	if exp == nil {
		exp = &Expect{}
	}
	where := fmt.Sprintf("case %s [%s]", tc.Name, out.Dialect)

	if exp.Error != "" {
		switch {
		case !out.Failed():
			result.AddError(fmt.Sprintf("%s: expected %s error, compiled to %q", where, exp.Error, out.SQL))
		case out.ErrorKind != exp.Error:
			result.AddError(fmt.Sprintf("%s: expected %s error, got %s: %s", where, exp.Error, out.ErrorKind, out.Error))
		case exp.ErrorContains != "" && !strings.Contains(out.Error, exp.ErrorContains):
			result.AddError(fmt.Sprintf("%s: error %q does not contain %q", where, out.Error, exp.ErrorContains))
		}
		return
	}

	if out.Failed() {
		result.AddError(fmt.Sprintf("%s: unexpected %s error: %s", where, out.ErrorKind, out.Error))
		return
	}

	for name, want := range exp.SQL {
		d, err := dialect.Lookup(name)
		if err != nil || string(d.Name()) != out.Dialect {
			continue
		}
		if out.SQL != want {
			result.AddError(fmt.Sprintf("%s: SQL mismatch\n  Expected: %s\n  Actual:   %s", where, want, out.SQL))
		}
	}

	if exp.Params != nil && !slices.Equal(exp.Params, out.Params) {
		result.AddError(fmt.Sprintf("%s: params mismatch: expected %v, got %v", where, exp.Params, out.Params))
	}
}

// primaryDialect is the dialect assertions use when they name none.
func (h *Harness) primaryDialect() dialect.Name {
	return h.dialects[0]
}

// fixtureDB opens the in-memory SQLite database on first use and applies
// the scenario fixture.
func (h *Harness) fixtureDB() (*sql.DB, error) {
	if h.fixture != nil {
		return h.fixture, nil
	}
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open fixture database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	for i, stmt := range h.scenario.Fixture {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("fixture[%d]: %w", i, err)
		}
	}
	h.fixture = db
	return db, nil
}

func (h *Harness) close() {
	if h.fixture != nil {
		h.fixture.Close()
	}
}
