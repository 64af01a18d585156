package sqlgen

import (
	"fmt"
	"strings"

	"github.com/roach88/cpql/internal/ast"
	"github.com/roach88/cpql/internal/dialect"
	"github.com/roach88/cpql/internal/functions"
)

// Operator precedence, lowest first. Rendering parenthesizes an operand
// whenever its precedence is lower than its parent's.
const (
	precOr = iota + 1
	precAnd
	precNot
	precCompare
	precAdd
	precMul
	precNeg
	precPrimary
)

// position says where an expression is rendered, which decides how a bare
// alias reference or boolean constant is spelled.
type position int

const (
	posValue     position = iota // alias renders as its primary key
	posSelect                    // top-level select item: alias renders as alias.*
	posPredicate                 // search condition: TRUE/FALSE render as predicates
)

// ExprGenerator renders AST expressions into SQL fragments. Its only side
// effect is placeholder bookkeeping.
type ExprGenerator struct {
	scope    *Scope
	registry *functions.Registry
	dialect  *dialect.Dialect
	params   *paramTable
}

// NewExprGenerator returns an expression generator for one compilation.
func NewExprGenerator(scope *Scope, registry *functions.Registry, d *dialect.Dialect) *ExprGenerator {
	return &ExprGenerator{scope: scope, registry: registry, dialect: d, params: newParamTable(d)}
}

// Generate renders e.
func (g *ExprGenerator) Generate(e ast.Expr) (string, error) {
	return g.generate(e, posValue)
}

// GenerateCondition renders e as a WHERE, HAVING or ON condition.
func (g *ExprGenerator) GenerateCondition(e ast.Expr) (string, error) {
	return g.generate(e, posPredicate)
}

// Params returns the distinct parameters in first-appearance order.
func (g *ExprGenerator) Params() []Param {
	return append([]Param(nil), g.params.params...)
}

// Bindings returns parameter names in placeholder order.
func (g *ExprGenerator) Bindings() []string {
	return append([]string(nil), g.params.bindings...)
}

func (g *ExprGenerator) generate(e ast.Expr, pos position) (string, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return g.literal(n, pos)
	case *ast.Parameter:
		return g.params.placeholder(n)
	case *ast.MemberPath:
		return g.scope.resolvePath(n, func(b *binding) (string, error) {
			if pos == posSelect {
				return g.scope.star(b), nil
			}
			return g.scope.primaryKey(b, n.Pos)
		})
	case *ast.BinaryOp:
		return g.binary(n)
	case *ast.UnaryOp:
		return g.unary(n)
	case *ast.FunctionCall:
		return g.call(n)
	case *ast.IsNull:
		operand, err := g.operand(n.Operand, precCompare, true)
		if err != nil {
			return "", err
		}
		if n.Not {
			return operand + " IS NOT NULL", nil
		}
		return operand + " IS NULL", nil
	case *ast.InList:
		return g.inList(n)
	case *ast.Between:
		return g.between(n)
	case nil:
		return "", &UnsupportedConstructError{Construct: "missing expression"}
	default:
		return "", &UnsupportedConstructError{Construct: fmt.Sprintf("expression %T", e)}
	}
}

// literal renders a constant from the query text.
func (g *ExprGenerator) literal(l *ast.Literal, pos position) (string, error) {
	switch l.Kind {
	case ast.LiteralString:
		return g.dialect.QuoteString(l.Value), nil
	case ast.LiteralNumber:
		if !isNumber(l.Value) {
			return "", &UnsupportedConstructError{Construct: "numeric literal", Detail: fmt.Sprintf("%q", l.Value), Pos: l.Pos}
		}
		return l.Value, nil
	case ast.LiteralBoolean:
		v := strings.EqualFold(l.Value, "TRUE")
		if pos == posPredicate {
			return g.dialect.BoolPredicate(v), nil
		}
		return g.dialect.Bool(v), nil
	case ast.LiteralNull:
		return "NULL", nil
	default:
		return "", &UnsupportedConstructError{Construct: "literal kind", Detail: string(l.Kind), Pos: l.Pos}
	}
}

// isNumber accepts an optional leading minus, digits and one decimal point.
func isNumber(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	dot := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !dot && i > 0 && i < len(s)-1:
			dot = true
		default:
			return false
		}
	}
	return true
}

var binaryOps = map[ast.Operator]struct {
	sql  string
	prec int
}{
	ast.OpOr:      {"OR", precOr},
	ast.OpAnd:     {"AND", precAnd},
	ast.OpEq:      {"=", precCompare},
	ast.OpNeq:     {"<>", precCompare},
	ast.OpLt:      {"<", precCompare},
	ast.OpLte:     {"<=", precCompare},
	ast.OpGt:      {">", precCompare},
	ast.OpGte:     {">=", precCompare},
	ast.OpLike:    {"LIKE", precCompare},
	ast.OpNotLike: {"NOT LIKE", precCompare},
	ast.OpAdd:     {"+", precAdd},
	ast.OpSub:     {"-", precAdd},
	ast.OpMul:     {"*", precMul},
	ast.OpDiv:     {"/", precMul},
	ast.OpMod:     {"%", precMul},
}

func (g *ExprGenerator) binary(b *ast.BinaryOp) (string, error) {
	op, ok := binaryOps[b.Op]
	if !ok {
		return "", &UnsupportedConstructError{Construct: "operator", Detail: string(b.Op), Pos: b.Pos}
	}

	left, err := g.child(b.Op, op.prec, b.Left, false)
	if err != nil {
		return "", err
	}
	right, err := g.child(b.Op, op.prec, b.Right, true)
	if err != nil {
		return "", err
	}
	return left + " " + op.sql + " " + right, nil
}

// child renders an operand of a binary operator. A nested AND/OR is always
// parenthesized unless it continues a left-leaning chain of the same
// operator; comparisons never chain.
func (g *ExprGenerator) child(parent ast.Operator, parentPrec int, e ast.Expr, right bool) (string, error) {
	at := posValue
	if parent == ast.OpAnd || parent == ast.OpOr {
		at = posPredicate
	}
	s, err := g.generate(e, at)
	if err != nil {
		return "", err
	}
	prec := precedence(e)
	wrap := prec < parentPrec
	if !wrap && prec == parentPrec {
		switch {
		case parentPrec == precCompare:
			wrap = true
		case right:
			wrap = true
		}
	}
	if !wrap {
		if cb, ok := e.(*ast.BinaryOp); ok && (cb.Op == ast.OpAnd || cb.Op == ast.OpOr) && cb.Op != parent {
			wrap = true
		}
	}
	if wrap {
		return "(" + s + ")", nil
	}
	return s, nil
}

// operand renders e, parenthesizing it when its precedence is below min
// (or equal to it when strict).
func (g *ExprGenerator) operand(e ast.Expr, min int, strict bool) (string, error) {
	return g.operandAt(e, posValue, min, strict)
}

func (g *ExprGenerator) operandAt(e ast.Expr, at position, min int, strict bool) (string, error) {
	s, err := g.generate(e, at)
	if err != nil {
		return "", err
	}
	prec := precedence(e)
	if prec < min || (strict && prec == min) {
		return "(" + s + ")", nil
	}
	return s, nil
}

func (g *ExprGenerator) unary(u *ast.UnaryOp) (string, error) {
	switch u.Op {
	case ast.OpNot:
		operand, err := g.operandAt(u.Operand, posPredicate, precNot, false)
		if err != nil {
			return "", err
		}
		return "NOT " + operand, nil
	case ast.OpNeg:
		operand, err := g.operand(u.Operand, precNeg, false)
		if err != nil {
			return "", err
		}
		// "--" would start a line comment.
		if strings.HasPrefix(operand, "-") {
			operand = "(" + operand + ")"
		}
		return "-" + operand, nil
	default:
		return "", &UnsupportedConstructError{Construct: "unary operator", Detail: string(u.Op), Pos: u.Pos}
	}
}

func (g *ExprGenerator) call(f *ast.FunctionCall) (string, error) {
	spelling, err := g.registry.SQLFunction(f.Name, g.dialect.Name())
	if err != nil {
		return "", &UnknownFunctionError{Name: strings.ToUpper(f.Name), Dialect: g.dialect.Name(), Pos: f.Pos, Err: err}
	}

	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		if spelling.Form == functions.Infix {
			args[i], err = g.operand(a, precPrimary, false)
		} else {
			args[i], err = g.generate(a, posValue)
		}
		if err != nil {
			return "", err
		}
	}

	sql, err := spelling.Render(args, f.Distinct, f.Star)
	if err != nil {
		return "", &UnsupportedConstructError{
			Construct: "function call",
			Detail:    strings.ToUpper(f.Name),
			Dialect:   g.dialect.Name(),
			Pos:       f.Pos,
			Err:       err,
		}
	}
	return sql, nil
}

func (g *ExprGenerator) inList(n *ast.InList) (string, error) {
	if len(n.Items) == 0 {
		return "", &UnsupportedConstructError{Construct: "empty IN list", Pos: n.Pos}
	}
	operand, err := g.operand(n.Operand, precCompare, true)
	if err != nil {
		return "", err
	}
	items := make([]string, len(n.Items))
	for i, item := range n.Items {
		if items[i], err = g.operand(item, precCompare, true); err != nil {
			return "", err
		}
	}
	kw := " IN ("
	if n.Not {
		kw = " NOT IN ("
	}
	return operand + kw + strings.Join(items, ", ") + ")", nil
}

func (g *ExprGenerator) between(n *ast.Between) (string, error) {
	operand, err := g.operand(n.Operand, precCompare, true)
	if err != nil {
		return "", err
	}
	low, err := g.operand(n.Low, precCompare, true)
	if err != nil {
		return "", err
	}
	high, err := g.operand(n.High, precCompare, true)
	if err != nil {
		return "", err
	}
	kw := " BETWEEN "
	if n.Not {
		kw = " NOT BETWEEN "
	}
	return operand + kw + low + " AND " + high, nil
}

func precedence(e ast.Expr) int {
	switch n := e.(type) {
	case *ast.BinaryOp:
		if op, ok := binaryOps[n.Op]; ok {
			return op.prec
		}
		return precPrimary
	case *ast.UnaryOp:
		if n.Op == ast.OpNot {
			return precNot
		}
		return precNeg
	case *ast.IsNull, *ast.InList, *ast.Between:
		return precCompare
	case *ast.Literal:
		if strings.HasPrefix(n.Value, "-") {
			return precNeg
		}
		return precPrimary
	default:
		return precPrimary
	}
}
