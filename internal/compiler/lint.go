package compiler

import (
	"fmt"

	"github.com/roach88/cpql/internal/ast"
	"github.com/roach88/cpql/internal/dialect"
	"github.com/roach88/cpql/internal/functions"
	"github.com/roach88/cpql/internal/token"
)

// Portability warning codes (W300-W399)
const (
	WarnSelectStar       = "W301" // no explicit select list
	WarnOuterJoin        = "W302" // LEFT/RIGHT join
	WarnFullJoin         = "W303" // FULL join, not available on every dialect
	WarnNullComparison   = "W304" // = NULL or <> NULL never matches
	WarnDialectFunction  = "W305" // function missing on some dialects
	WarnUnknownFunction  = "W306" // function not registered at all
	WarnRepeatedPosition = "W307" // parameter repeated, bound once per use on positional dialects
)

// Warning is one portability finding.
type Warning struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Pos     token.Position `json:"-"`
}

func (w Warning) String() string {
	if w.Pos.IsValid() {
		return fmt.Sprintf("[%s] %s: %s", w.Code, w.Pos, w.Message)
	}
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}

// LintResult is the portability analysis of one query.
type LintResult struct {
	// Portable is true when the query compiles to equivalent SQL on every
	// supported dialect and has no NULL-comparison pitfalls.
	Portable bool      `json:"portable"`
	Warnings []Warning `json:"warnings"`
}

// Lint reports constructs that compile but behave differently, or not at
// all, across dialects. Lint never fails; structural errors are Validate's
// concern.
func (c *Compiler) Lint(q ast.Query) LintResult {
	l := &linter{registry: c.registry, warnings: []Warning{}}
	l.query(q)
	return LintResult{Portable: len(l.warnings) == 0, Warnings: l.warnings}
}

type linter struct {
	registry *functions.Registry
	warnings []Warning
}

func (l *linter) warn(code string, pos token.Position, format string, args ...any) {
	l.warnings = append(l.warnings, Warning{Code: code, Message: fmt.Sprintf(format, args...), Pos: pos})
}

func (l *linter) query(q ast.Query) {
	if sel, ok := q.(*ast.SelectQuery); ok {
		if sel.Select == nil || len(sel.Select.Items) == 0 {
			l.warn(WarnSelectStar, token.Position{}, "SELECT * depends on column order; list the properties explicitly")
		}
		if sel.From != nil {
			for _, j := range sel.From.Joins {
				switch j.Type {
				case ast.JoinLeft, ast.JoinRight:
					l.warn(WarnOuterJoin, j.Pos, "%s JOIN %s yields NULL-padded rows", j.Type, j.Binding())
				case ast.JoinFull:
					l.warn(WarnFullJoin, j.Pos, "FULL JOIN %s is not supported by %s", j.Binding(), unsupportedFullJoin())
				}
			}
		}
	}

	uses := make(map[string]int)
	for _, e := range ast.Expressions(q) {
		ast.Inspect(e, func(e ast.Expr) bool {
			switch n := e.(type) {
			case *ast.BinaryOp:
				if (n.Op == ast.OpEq || n.Op == ast.OpNeq) && (isNull(n.Left) || isNull(n.Right)) {
					l.warn(WarnNullComparison, n.Pos, "comparison with NULL using %s is never true; use IS [NOT] NULL", n.Op)
				}
			case *ast.FunctionCall:
				l.function(n)
			case *ast.Parameter:
				uses[n.Key()]++
			}
			return true
		})
	}
	for _, name := range ast.Parameters(q) {
		if uses[name] > 1 {
			l.warn(WarnRepeatedPosition, token.Position{}, "parameter %s is used %d times and needs one value per use with ? placeholders", name, uses[name])
		}
	}
}

func (l *linter) function(f *ast.FunctionCall) {
	if !l.registry.IsRegistered(f.Name) {
		l.warn(WarnUnknownFunction, f.Pos, "function %s is not registered", f.Name)
		return
	}
	var missing []string
	for _, d := range dialect.All() {
		if _, err := l.registry.SQLFunction(f.Name, d.Name()); err != nil {
			missing = append(missing, d.String())
		}
	}
	if len(missing) > 0 {
		l.warn(WarnDialectFunction, f.Pos, "function %s is unavailable on %v", f.Name, missing)
	}
}

func isNull(e ast.Expr) bool {
	lit, ok := e.(*ast.Literal)
	return ok && lit.Kind == ast.LiteralNull
}

func unsupportedFullJoin() []string {
	var names []string
	for _, d := range dialect.All() {
		if !d.SupportsJoin(string(ast.JoinFull)) {
			names = append(names, d.String())
		}
	}
	return names
}
