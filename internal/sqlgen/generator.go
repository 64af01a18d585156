// Package sqlgen turns a parsed CPQL query into parameterized SQL for one
// dialect.
//
// Generation runs in two phases. Every alias from the FROM items and joins
// is registered with a fresh Scope first, so expressions anywhere in the
// query may refer to any alias. Clauses are then emitted in a fixed order
// regardless of how the query text was laid out:
//
//	SELECT [DISTINCT] list FROM items joins [WHERE] [GROUP BY] [HAVING] [ORDER BY]
//	UPDATE table SET assignments [WHERE]
//	DELETE FROM table [WHERE]
//
// Caller values never reach the SQL text. Literals come from the query
// text itself and are quoted by the dialect; everything else is bound
// through placeholders listed in Result.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/roach88/cpql/internal/ast"
	"github.com/roach88/cpql/internal/dialect"
	"github.com/roach88/cpql/internal/functions"
	"github.com/roach88/cpql/internal/metadata"
)

// Result is the output of one successful generation.
type Result struct {
	SQL string
	// Params lists distinct parameters in first-appearance order.
	Params []Param
	// Bindings lists parameter names in placeholder order. For positional
	// dialects a name appears once per occurrence.
	Bindings []string
}

// Generator is the SQL generator facade. It holds only immutable
// collaborators and is safe for concurrent use.
type Generator struct {
	resolver metadata.Resolver
	registry *functions.Registry
	dialect  *dialect.Dialect
}

// New returns a generator. A nil registry selects functions.Default and a
// nil dialect selects dialect.Default.
func New(resolver metadata.Resolver, registry *functions.Registry, d *dialect.Dialect) *Generator {
	if registry == nil {
		registry = functions.Default()
	}
	if d == nil {
		d = dialect.MustLookup(dialect.Default)
	}
	return &Generator{resolver: resolver, registry: registry, dialect: d}
}

// Dialect returns the target dialect.
func (g *Generator) Dialect() *dialect.Dialect { return g.dialect }

// Generate compiles q. On error no partial SQL is returned.
func (g *Generator) Generate(q ast.Query) (*Result, error) {
	if err := Check(q); err != nil {
		return nil, err
	}

	var (
		sql  string
		expr *ExprGenerator
		err  error
	)
	switch n := q.(type) {
	case *ast.SelectQuery:
		expr = NewExprGenerator(NewScope(g.resolver, g.dialect), g.registry, g.dialect)
		sql, err = g.selectSQL(n, expr)
	case *ast.UpdateQuery:
		expr = NewExprGenerator(NewUnqualifiedScope(g.resolver, g.dialect), g.registry, g.dialect)
		sql, err = g.updateSQL(n, expr)
	case *ast.DeleteQuery:
		expr = NewExprGenerator(NewUnqualifiedScope(g.resolver, g.dialect), g.registry, g.dialect)
		sql, err = g.deleteSQL(n, expr)
	default:
		return nil, &UnsupportedConstructError{Construct: fmt.Sprintf("query %T", q)}
	}
	if err != nil {
		return nil, err
	}
	return &Result{SQL: sql, Params: expr.Params(), Bindings: expr.Bindings()}, nil
}

func (g *Generator) selectSQL(q *ast.SelectQuery, expr *ExprGenerator) (string, error) {
	scope := expr.scope
	for _, item := range q.From.Items {
		if err := scope.RegisterAlias(item.Alias, item.EntityName, true, item.Pos); err != nil {
			return "", err
		}
	}
	for _, j := range q.From.Joins {
		if err := scope.RegisterAlias(j.Alias, j.EntityName, false, j.Pos); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if q.Select != nil && q.Select.Distinct {
		b.WriteString("DISTINCT ")
	}
	if q.Select == nil || len(q.Select.Items) == 0 {
		b.WriteString("*")
	} else {
		items := make([]string, len(q.Select.Items))
		for i, item := range q.Select.Items {
			s, err := expr.generate(item.Expr, posSelect)
			if err != nil {
				return "", err
			}
			if item.Alias != "" {
				s += " AS " + g.dialect.Ident(item.Alias)
			}
			items[i] = s
		}
		b.WriteString(strings.Join(items, ", "))
	}

	from := make([]string, len(q.From.Items))
	for i, item := range q.From.Items {
		from[i] = scope.FromSQL(item.Binding())
	}
	b.WriteString(" FROM ")
	b.WriteString(strings.Join(from, ", "))

	joins, err := NewJoinGenerator(expr).Generate(q.From.Joins)
	if err != nil {
		return "", err
	}
	b.WriteString(joins)

	if q.Where != nil {
		cond, err := expr.GenerateCondition(q.Where.Condition)
		if err != nil {
			return "", err
		}
		b.WriteString(" WHERE ")
		b.WriteString(cond)
	}

	if q.GroupBy != nil && len(q.GroupBy.Items) > 0 {
		items := make([]string, len(q.GroupBy.Items))
		for i, e := range q.GroupBy.Items {
			if items[i], err = expr.Generate(e); err != nil {
				return "", err
			}
		}
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(items, ", "))
	}

	if q.Having != nil {
		cond, err := expr.GenerateCondition(q.Having.Condition)
		if err != nil {
			return "", err
		}
		b.WriteString(" HAVING ")
		b.WriteString(cond)
	}

	order, err := NewOrderByGenerator(expr).Generate(q.OrderBy)
	if err != nil {
		return "", err
	}
	if order != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(order)
	}

	return b.String(), nil
}

func (g *Generator) updateSQL(q *ast.UpdateQuery, expr *ExprGenerator) (string, error) {
	scope := expr.scope
	if err := scope.RegisterAlias(q.Alias, q.EntityName, true, q.Pos); err != nil {
		return "", err
	}
	table, err := scope.TableName(q.EntityName, q.Pos)
	if err != nil {
		return "", err
	}

	sets := make([]string, len(q.Assignments))
	for i, a := range q.Assignments {
		pk, err := scope.isPrimaryKey(a.Target.Alias, a.Target.Property, a.Target.Pos)
		if err != nil {
			return "", err
		}
		if pk {
			return "", &UnsupportedConstructError{
				Construct: "primary key assignment",
				Detail:    q.EntityName + "." + a.Target.Property,
				Pos:       a.Target.Pos,
			}
		}
		col, err := scope.ColumnName(a.Target.Alias, a.Target.Property, a.Target.Pos)
		if err != nil {
			return "", err
		}
		val, err := expr.Generate(a.Value)
		if err != nil {
			return "", err
		}
		sets[i] = col + " = " + val
	}

	sql := "UPDATE " + g.dialect.Ident(table) + " SET " + strings.Join(sets, ", ")
	if q.Where != nil {
		cond, err := expr.GenerateCondition(q.Where.Condition)
		if err != nil {
			return "", err
		}
		sql += " WHERE " + cond
	}
	return sql, nil
}

func (g *Generator) deleteSQL(q *ast.DeleteQuery, expr *ExprGenerator) (string, error) {
	scope := expr.scope
	if err := scope.RegisterAlias(q.Alias, q.EntityName, true, q.Pos); err != nil {
		return "", err
	}
	table, err := scope.TableName(q.EntityName, q.Pos)
	if err != nil {
		return "", err
	}

	sql := "DELETE FROM " + g.dialect.Ident(table)
	if q.Where != nil {
		cond, err := expr.GenerateCondition(q.Where.Condition)
		if err != nil {
			return "", err
		}
		sql += " WHERE " + cond
	}
	return sql, nil
}
