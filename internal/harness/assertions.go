package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/cpql/internal/dialect"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Case     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Case != "" {
		fmt.Fprintf(&buf, " (case %s)", e.Case)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion, h *Harness) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, h); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, h *Harness) error {
	switch a.Type {
	case AssertSQLContains:
		return assertSQLContains(result, a, h)
	case AssertBindings:
		return assertBindings(result, a, h)
	case AssertSameStatement:
		return assertSameStatement(result, a, h)
	case AssertPortable:
		return assertPortable(result, a)
	case AssertLintCode:
		return assertLintCode(result, a)
	case AssertRowCount:
		return assertRowCount(a, h)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// compiled returns the successful output of a case for the assertion's
// dialect.
func compiled(result *Result, a Assertion, caseName string, h *Harness) (Output, error) {
	d := h.primaryDialect()
	if a.Dialect != "" {
		l, err := dialect.Lookup(a.Dialect)
		if err != nil {
			return Output{}, err
		}
		d = l.Name()
	}
	out, ok := result.Output(caseName, string(d))
	if !ok {
		return Output{}, &AssertionError{
			Type:     a.Type,
			Case:     caseName,
			Expected: fmt.Sprintf("output for dialect %s", d),
			Actual:   "dialect not compiled by this scenario",
		}
	}
	if out.Failed() {
		return Output{}, &AssertionError{
			Type:     a.Type,
			Case:     caseName,
			Expected: "successful compilation",
			Actual:   out.Error,
		}
	}
	return out, nil
}

func assertSQLContains(result *Result, a Assertion, h *Harness) error {
	out, err := compiled(result, a, a.Case, h)
	if err != nil {
		return err
	}
	if !strings.Contains(out.SQL, a.Text) {
		return &AssertionError{
			Type:     a.Type,
			Case:     a.Case,
			Expected: fmt.Sprintf("SQL containing %q", a.Text),
			Actual:   out.SQL,
		}
	}
	return nil
}

func assertBindings(result *Result, a Assertion, h *Harness) error {
	out, err := compiled(result, a, a.Case, h)
	if err != nil {
		return err
	}
	if !slices.Equal(out.Bindings, a.Bindings) {
		return &AssertionError{
			Type:     a.Type,
			Case:     a.Case,
			Expected: fmt.Sprintf("%v", a.Bindings),
			Actual:   fmt.Sprintf("%v", out.Bindings),
		}
	}
	return nil
}

// assertSameStatement checks that cases written differently compile to
// the same statement on every dialect.
func assertSameStatement(result *Result, a Assertion, h *Harness) error {
	for _, d := range h.dialects {
		b := a
		b.Dialect = string(d)
		first, err := compiled(result, b, a.Cases[0], h)
		if err != nil {
			return err
		}
		for _, name := range a.Cases[1:] {
			out, err := compiled(result, b, name, h)
			if err != nil {
				return err
			}
			if out.StatementID != first.StatementID {
				return &AssertionError{
					Type:     a.Type,
					Case:     name,
					Expected: fmt.Sprintf("same statement as %s on %s: %s", a.Cases[0], d, first.SQL),
					Actual:   out.SQL,
				}
			}
		}
	}
	return nil
}

func assertPortable(result *Result, a Assertion) error {
	lint, ok := result.Lint[a.Case]
	if !ok {
		return &AssertionError{Type: a.Type, Case: a.Case, Expected: "query that parses", Actual: "parse failed"}
	}
	if lint.Portable != *a.Expect {
		codes := make([]string, len(lint.Warnings))
		for i, w := range lint.Warnings {
			codes[i] = w.String()
		}
		return &AssertionError{
			Type:     a.Type,
			Case:     a.Case,
			Expected: fmt.Sprintf("portable=%t", *a.Expect),
			Actual:   fmt.Sprintf("portable=%t %v", lint.Portable, codes),
		}
	}
	return nil
}

func assertLintCode(result *Result, a Assertion) error {
	lint, ok := result.Lint[a.Case]
	if !ok {
		return &AssertionError{Type: a.Type, Case: a.Case, Expected: "query that parses", Actual: "parse failed"}
	}
	var codes []string
	for _, w := range lint.Warnings {
		if w.Code == a.Code {
			return nil
		}
		codes = append(codes, w.Code)
	}
	return &AssertionError{
		Type:     a.Type,
		Case:     a.Case,
		Expected: "warning " + a.Code,
		Actual:   fmt.Sprintf("%v", codes),
	}
}

// assertRowCount compiles the case for SQLite and runs it against the
// fixture database. SELECT statements count returned rows; UPDATE and
// DELETE count affected rows and change the fixture for later assertions.
func assertRowCount(a Assertion, h *Harness) error {
	tc, ok := h.caseByName(a.Case)
	if !ok {
		return fmt.Errorf("unknown case %q", a.Case)
	}
	stmt, err := h.compiler.CompileFor(tc.Query, dialect.SQLite)
	if err != nil {
		return &AssertionError{Type: a.Type, Case: a.Case, Expected: "statement that compiles for sqlite", Actual: err.Error()}
	}
	args, err := stmt.Bind(a.Args)
	if err != nil {
		return &AssertionError{Type: a.Type, Case: a.Case, Expected: "values for every parameter", Actual: err.Error()}
	}
	db, err := h.fixtureDB()
	if err != nil {
		return err
	}

	var n int64
	if strings.HasPrefix(stmt.SQL, "SELECT") {
		rows, err := db.Query(stmt.SQL, args...)
		if err != nil {
			return &AssertionError{Type: a.Type, Case: a.Case, Expected: "statement that executes", Actual: err.Error()}
		}
		defer rows.Close()
		for rows.Next() {
			n++
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("row_count: %w", err)
		}
	} else {
		res, err := db.Exec(stmt.SQL, args...)
		if err != nil {
			return &AssertionError{Type: a.Type, Case: a.Case, Expected: "statement that executes", Actual: err.Error()}
		}
		if n, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("row_count: %w", err)
		}
	}

	if n != int64(a.Count) {
		return &AssertionError{
			Type:     a.Type,
			Case:     a.Case,
			Expected: fmt.Sprintf("%d rows", a.Count),
			Actual:   fmt.Sprintf("%d rows", n),
		}
	}
	return nil
}

func (h *Harness) caseByName(name string) (Case, bool) {
	for _, c := range h.scenario.Cases {
		if c.Name == name {
			return c, true
		}
	}
	return Case{}, false
}
