package compiler

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/cpql/internal/dialect"
	"github.com/roach88/cpql/internal/ir"
	"github.com/roach88/cpql/internal/sqlgen"
)

// Statement is a compiled query ready to execute.
type Statement struct {
	// ID is the content hash of the parsed query, dialect and generated SQL.
	ID        string
	QueryHash string
	Query     string
	Dialect   *dialect.Dialect
	SQL       string
	Params    []sqlgen.Param
	// Bindings lists parameter names in placeholder order.
	Bindings []string
}

// ErrUnboundParameter is matched by *UnboundParameterError.
var ErrUnboundParameter = errors.New("unbound parameter")

// UnboundParameterError reports a parameter with no value at bind time.
type UnboundParameterError struct {
	Name string
}

func (e *UnboundParameterError) Error() string {
	return fmt.Sprintf("no value bound for parameter %q", e.Name)
}

// Is reports whether target is ErrUnboundParameter.
func (e *UnboundParameterError) Is(target error) bool { return target == ErrUnboundParameter }

// IsUnboundParameter reports whether err is or wraps an *UnboundParameterError.
func IsUnboundParameter(err error) bool {
	var e *UnboundParameterError
	return errors.As(err, &e)
}

// Bind turns parameter values into driver arguments in placeholder order.
// Indexed parameters are bound under "p<N>" (?1 as "p1"); a query may not
// also name :p<N>. Dialects with @name placeholders receive sql.NamedArg
// values. Extra values are ignored.
func (s *Statement) Bind(values map[string]any) ([]any, error) {
	named := s.Dialect.Placeholder() == dialect.PlaceholderNamed
	args := make([]any, 0, len(s.Bindings))
	for _, name := range s.Bindings {
		v, ok := values[name]
		if !ok {
			return nil, &UnboundParameterError{Name: name}
		}
		if named {
			args = append(args, sql.Named(name, v))
		} else {
			args = append(args, v)
		}
	}
	return args, nil
}

// ParamNames returns the distinct parameter names in first-appearance order.
func (s *Statement) ParamNames() []string {
	names := make([]string, len(s.Params))
	for i, p := range s.Params {
		names[i] = p.Name
	}
	return names
}

// Record converts s into its catalog form.
func (s *Statement) Record() ir.Statement {
	params := make([]ir.Param, len(s.Params))
	for i, p := range s.Params {
		params[i] = ir.Param{Name: p.Name, Placeholder: p.Placeholder}
	}
	return ir.Statement{
		ID:        s.ID,
		QueryHash: s.QueryHash,
		Query:     s.Query,
		Dialect:   string(s.Dialect.Name()),
		SQL:       s.SQL,
		Params:    params,
		Bindings:  append([]string(nil), s.Bindings...),
	}
}
