package sqlgen

import (
	"strings"

	"github.com/roach88/cpql/internal/ast"
)

// JoinGenerator renders JOIN clauses in source order.
type JoinGenerator struct {
	expr *ExprGenerator
}

// NewJoinGenerator returns a join generator sharing expr's scope and
// placeholder bookkeeping.
func NewJoinGenerator(expr *ExprGenerator) *JoinGenerator {
	return &JoinGenerator{expr: expr}
}

// Generate renders every join as " <TYPE> JOIN <table> [AS <alias>] ON <cond>".
// Join aliases must already be registered with the scope.
func (j *JoinGenerator) Generate(joins []ast.JoinClause) (string, error) {
	var b strings.Builder
	d := j.expr.dialect
	for _, join := range joins {
		if !d.SupportsJoin(string(join.Type)) {
			return "", &UnsupportedConstructError{
				Construct: "join type",
				Detail:    string(join.Type) + " JOIN",
				Dialect:   d.Name(),
				Pos:       join.Pos,
			}
		}
		if join.On == nil {
			return "", &UnsupportedConstructError{Construct: "join without ON condition", Detail: join.Binding(), Pos: join.Pos}
		}
		cond, err := j.expr.GenerateCondition(join.On)
		if err != nil {
			return "", err
		}
		b.WriteString(" ")
		b.WriteString(string(join.Type))
		b.WriteString(" JOIN ")
		b.WriteString(j.expr.scope.FromSQL(join.Binding()))
		b.WriteString(" ON ")
		b.WriteString(cond)
	}
	return b.String(), nil
}

// OrderByGenerator renders ORDER BY items.
type OrderByGenerator struct {
	expr *ExprGenerator
}

// NewOrderByGenerator returns an order-by generator sharing expr's state.
func NewOrderByGenerator(expr *ExprGenerator) *OrderByGenerator {
	return &OrderByGenerator{expr: expr}
}

// Generate renders "expr ASC|DESC" per item joined by ", ". An empty or
// nil clause yields "" and the caller omits the keyword.
func (o *OrderByGenerator) Generate(clause *ast.OrderByClause) (string, error) {
	if clause == nil || len(clause.Items) == 0 {
		return "", nil
	}
	parts := make([]string, len(clause.Items))
	for i, item := range clause.Items {
		s, err := o.expr.Generate(item.Expr)
		if err != nil {
			return "", err
		}
		dir := item.Direction
		if dir == "" {
			dir = ast.Asc
		}
		parts[i] = s + " " + string(dir)
	}
	return strings.Join(parts, ", "), nil
}
