// Package parser turns CPQL query text into an ast.Query.
//
// The parser is recursive descent over statements and precedence climbing
// over expressions. Operator precedence, lowest first:
//
//	OR < AND < NOT < comparison (= <> < <= > >= LIKE IN BETWEEN IS) < + - < * / % < unary -
//
// Parsing stops at the first error, which is always a *SyntaxError.
package parser

import (
	"fmt"
	"strconv"

	"github.com/roach88/cpql/internal/ast"
	"github.com/roach88/cpql/internal/lexer"
	"github.com/roach88/cpql/internal/token"
)

// MaxDepth limits expression nesting to keep recursion bounded.
const MaxDepth = 100

// Parser consumes tokens from a lexer and produces one statement.
type Parser struct {
	l     *lexer.Lexer
	cur   token.Token
	peek  token.Token
	depth int
}

// New returns a parser over the provided lexer.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.next()
	p.next()
	return p
}

// Parse parses a complete CPQL statement.
func Parse(text string) (ast.Query, error) {
	return New(lexer.New(text)).ParseQuery()
}

// ParseQuery parses one statement followed by optional semicolons and the end of input.
func (p *Parser) ParseQuery() (ast.Query, error) {
	var (
		q   ast.Query
		err error
	)
	switch p.cur.Type {
	case token.SELECT:
		q, err = p.parseSelect()
	case token.UPDATE:
		q, err = p.parseUpdate()
	case token.DELETE:
		q, err = p.parseDelete()
	case token.EOF:
		return nil, p.errorf(KindUnexpectedEOF, p.cur, "empty query")
	case token.IDENT:
		return nil, p.errorf(KindUnknownKeyword, p.cur, "unknown statement keyword %q", p.cur.Literal)
	default:
		if token.IsKeyword(p.cur.Type) {
			return nil, p.errorf(KindUnknownKeyword, p.cur, "statement cannot start with %s", p.cur.Type)
		}
		return nil, p.unexpected("SELECT, UPDATE or DELETE")
	}
	if err != nil {
		return nil, err
	}

	for p.cur.Type == token.SEMICOLON {
		p.next()
	}
	if p.cur.Type != token.EOF {
		return nil, p.unexpected("end of query")
	}
	return q, nil
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) accept(t token.Type) bool {
	if p.cur.Type == t {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expect(t token.Type) (token.Token, error) {
	tok := p.cur
	if tok.Type != t {
		return tok, p.unexpected(string(t))
	}
	p.next()
	return tok, nil
}

func (p *Parser) errorf(kind ErrorKind, tok token.Token, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Kind:  kind,
		Pos:   tok.Pos,
		Token: tok.Literal,
		Msg:   fmt.Sprintf(format, args...),
	}
}

// unexpected reports the current token as not matching what the grammar expects.
func (p *Parser) unexpected(expected string) *SyntaxError {
	switch p.cur.Type {
	case token.EOF:
		return p.errorf(KindUnexpectedEOF, p.cur, "expected %s", expected)
	case token.ILLEGAL:
		return p.errorf(KindUnexpectedToken, p.cur, "%s, expected %s", p.cur.Literal, expected)
	default:
		return p.errorf(KindUnexpectedToken, p.cur, "expected %s, got %s", expected, describe(p.cur))
	}
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.IDENT, token.NUMBER:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	case token.STRING:
		return "string literal"
	case token.NAMED_PARAM:
		return "parameter :" + tok.Literal
	case token.INDEXED_PARAM:
		return "parameter ?" + tok.Literal
	default:
		return string(tok.Type)
	}
}

func (p *Parser) parseSelect() (*ast.SelectQuery, error) {
	p.next() // SELECT
	q := &ast.SelectQuery{}

	distinct := p.accept(token.DISTINCT)
	if p.cur.Type == token.STAR {
		p.next()
		if distinct {
			q.Select = &ast.SelectClause{Distinct: true}
		}
	} else {
		sel := &ast.SelectClause{Distinct: distinct}
		for {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			alias, err := p.parseAlias()
			if err != nil {
				return nil, err
			}
			sel.Items = append(sel.Items, ast.SelectItem{Expr: expr, Alias: alias})
			if !p.accept(token.COMMA) {
				break
			}
		}
		q.Select = sel
	}

	if _, err := p.expect(token.FROM); err != nil {
		return nil, err
	}
	from, err := p.parseFrom()
	if err != nil {
		return nil, err
	}
	q.From = from

	if p.accept(token.WHERE) {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		q.Where = &ast.WhereClause{Condition: cond}
	}

	if p.accept(token.GROUP) {
		if _, err := p.expect(token.BY); err != nil {
			return nil, err
		}
		items, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		q.GroupBy = &ast.GroupByClause{Items: items}
	}

	if p.accept(token.HAVING) {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		q.Having = &ast.HavingClause{Condition: cond}
	}

	if p.accept(token.ORDER) {
		if _, err := p.expect(token.BY); err != nil {
			return nil, err
		}
		order, err := p.parseOrderList()
		if err != nil {
			return nil, err
		}
		q.OrderBy = order
	}

	return q, nil
}

func (p *Parser) parseFrom() (*ast.FromClause, error) {
	from := &ast.FromClause{}
	for {
		name, alias, pos, err := p.parseEntity()
		if err != nil {
			return nil, err
		}
		from.Items = append(from.Items, ast.FromItem{EntityName: name, Alias: alias, Pos: pos})
		if !p.accept(token.COMMA) {
			break
		}
	}

	for {
		joinType, ok, err := p.parseJoinType()
		if err != nil {
			return nil, err
		}
		if !ok {
			return from, nil
		}
		pos := p.cur.Pos
		name, alias, _, err := p.parseEntity()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.ON); err != nil {
			return nil, err
		}
		on, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		from.Joins = append(from.Joins, ast.JoinClause{
			Type:       joinType,
			EntityName: name,
			Alias:      alias,
			On:         on,
			Pos:        pos,
		})
	}
}

// parseJoinType consumes a join prefix through the JOIN keyword.
func (p *Parser) parseJoinType() (ast.JoinType, bool, error) {
	var jt ast.JoinType
	switch p.cur.Type {
	case token.JOIN:
		p.next()
		return ast.JoinInner, true, nil
	case token.INNER:
		jt = ast.JoinInner
	case token.LEFT:
		jt = ast.JoinLeft
	case token.RIGHT:
		jt = ast.JoinRight
	case token.FULL:
		jt = ast.JoinFull
	default:
		return "", false, nil
	}
	p.next()
	if jt != ast.JoinInner {
		p.accept(token.OUTER)
	}
	if _, err := p.expect(token.JOIN); err != nil {
		return "", false, err
	}
	return jt, true, nil
}

// parseEntity parses `Entity [AS] [alias]`. Entity names may collide with
// keywords (an entity called Order is common), so keywords are accepted here.
func (p *Parser) parseEntity() (string, string, token.Position, error) {
	tok := p.cur
	if tok.Type != token.IDENT && !token.IsKeyword(tok.Type) {
		return "", "", token.Position{}, p.unexpected("entity name")
	}
	p.next()
	alias, err := p.parseAlias()
	if err != nil {
		return "", "", token.Position{}, err
	}
	return tok.Literal, alias, tok.Pos, nil
}

func (p *Parser) parseAlias() (string, error) {
	if p.accept(token.AS) {
		tok, err := p.expect(token.IDENT)
		if err != nil {
			return "", err
		}
		return tok.Literal, nil
	}
	if p.cur.Type == token.IDENT {
		alias := p.cur.Literal
		p.next()
		return alias, nil
	}
	return "", nil
}

func (p *Parser) parseOrderList() (*ast.OrderByClause, error) {
	clause := &ast.OrderByClause{}
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		dir := ast.Asc
		switch p.cur.Type {
		case token.ASC:
			p.next()
		case token.DESC:
			p.next()
			dir = ast.Desc
		}
		clause.Items = append(clause.Items, ast.OrderByItem{Expr: expr, Direction: dir})
		if !p.accept(token.COMMA) {
			return clause, nil
		}
	}
}

func (p *Parser) parseExprList() ([]ast.Expr, error) {
	var exprs []ast.Expr
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
		if !p.accept(token.COMMA) {
			return exprs, nil
		}
	}
}

func (p *Parser) parseUpdate() (*ast.UpdateQuery, error) {
	p.next() // UPDATE
	name, alias, pos, err := p.parseEntity()
	if err != nil {
		return nil, err
	}
	q := &ast.UpdateQuery{EntityName: name, Alias: alias, Pos: pos}

	if _, err := p.expect(token.SET); err != nil {
		return nil, err
	}
	for {
		target, err := p.parseAssignmentTarget()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.EQ); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		q.Assignments = append(q.Assignments, ast.PropertyAssignment{Target: target, Value: value})
		if !p.accept(token.COMMA) {
			break
		}
	}

	if p.accept(token.WHERE) {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		q.Where = &ast.WhereClause{Condition: cond}
	}
	return q, nil
}

func (p *Parser) parseAssignmentTarget() (*ast.MemberPath, error) {
	tok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.DOT {
		return &ast.MemberPath{Property: tok.Literal, Pos: tok.Pos}, nil
	}
	return p.parseQualifiedPath(tok)
}

func (p *Parser) parseDelete() (*ast.DeleteQuery, error) {
	p.next() // DELETE
	if _, err := p.expect(token.FROM); err != nil {
		return nil, err
	}
	name, alias, pos, err := p.parseEntity()
	if err != nil {
		return nil, err
	}
	q := &ast.DeleteQuery{EntityName: name, Alias: alias, Pos: pos}
	if p.accept(token.WHERE) {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		q.Where = &ast.WhereClause{Condition: cond}
	}
	return q, nil
}

func (p *Parser) parseExpr() (ast.Expr, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxDepth {
		return nil, p.errorf(KindUnexpectedToken, p.cur, "expression nesting exceeds %d levels", MaxDepth)
	}
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.OR {
		pos := p.cur.Pos
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: ast.OpOr, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.AND {
		pos := p.cur.Pos
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: ast.OpAnd, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.cur.Type != token.NOT {
		return p.parseComparison()
	}
	pos := p.cur.Pos
	p.next()
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxDepth {
		return nil, p.errorf(KindUnexpectedToken, p.cur, "expression nesting exceeds %d levels", MaxDepth)
	}
	operand, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &ast.UnaryOp{Op: ast.OpNot, Operand: operand, Pos: pos}, nil
}

var comparisonOps = map[token.Type]ast.Operator{
	token.EQ:  ast.OpEq,
	token.NEQ: ast.OpNeq,
	token.LT:  ast.OpLt,
	token.LTE: ast.OpLte,
	token.GT:  ast.OpGt,
	token.GTE: ast.OpGte,
}

// parseComparison parses at most one comparison; comparisons do not chain.
func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	pos := p.cur.Pos

	if op, ok := comparisonOps[p.cur.Type]; ok {
		p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Op: op, Left: left, Right: right, Pos: pos}, nil
	}

	not := false
	if p.cur.Type == token.NOT {
		switch p.peek.Type {
		case token.LIKE, token.IN, token.BETWEEN:
			not = true
			p.next()
		default:
			return left, nil
		}
	}

	switch p.cur.Type {
	case token.LIKE:
		p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		op := ast.OpLike
		if not {
			op = ast.OpNotLike
		}
		return &ast.BinaryOp{Op: op, Left: left, Right: right, Pos: pos}, nil
	case token.IN:
		p.next()
		if _, err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		items, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return &ast.InList{Operand: left, Items: items, Not: not, Pos: pos}, nil
	case token.BETWEEN:
		p.next()
		low, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.AND); err != nil {
			return nil, err
		}
		high, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.Between{Operand: left, Low: low, High: high, Not: not, Pos: pos}, nil
	case token.IS:
		p.next()
		isNot := p.accept(token.NOT)
		if _, err := p.expect(token.NULL); err != nil {
			return nil, err
		}
		return &ast.IsNull{Operand: left, Not: isNot, Pos: pos}, nil
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.Operator
		switch p.cur.Type {
		case token.PLUS:
			op = ast.OpAdd
		case token.MINUS:
			op = ast.OpSub
		default:
			return left, nil
		}
		pos := p.cur.Pos
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: op, Left: left, Right: right, Pos: pos}
	}
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.Operator
		switch p.cur.Type {
		case token.STAR:
			op = ast.OpMul
		case token.SLASH:
			op = ast.OpDiv
		case token.PERCENT:
			op = ast.OpMod
		default:
			return left, nil
		}
		pos := p.cur.Pos
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: op, Left: left, Right: right, Pos: pos}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.cur.Type != token.MINUS {
		return p.parsePrimary()
	}
	pos := p.cur.Pos
	p.next()
	if p.cur.Type == token.NUMBER {
		lit := &ast.Literal{Kind: ast.LiteralNumber, Value: "-" + p.cur.Literal, Pos: pos}
		p.next()
		return lit, nil
	}
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxDepth {
		return nil, p.errorf(KindUnexpectedToken, p.cur, "expression nesting exceeds %d levels", MaxDepth)
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.UnaryOp{Op: ast.OpNeg, Operand: operand, Pos: pos}, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur
	switch tok.Type {
	case token.NUMBER:
		p.next()
		return &ast.Literal{Kind: ast.LiteralNumber, Value: tok.Literal, Pos: tok.Pos}, nil
	case token.STRING:
		p.next()
		return &ast.Literal{Kind: ast.LiteralString, Value: tok.Literal, Pos: tok.Pos}, nil
	case token.TRUE, token.FALSE:
		p.next()
		return &ast.Literal{Kind: ast.LiteralBoolean, Value: string(tok.Type), Pos: tok.Pos}, nil
	case token.NULL:
		p.next()
		return &ast.Literal{Kind: ast.LiteralNull, Value: "NULL", Pos: tok.Pos}, nil
	case token.NAMED_PARAM:
		p.next()
		return &ast.Parameter{Name: tok.Literal, Pos: tok.Pos}, nil
	case token.INDEXED_PARAM:
		idx, err := strconv.Atoi(tok.Literal)
		if err != nil || idx < 1 {
			return nil, p.errorf(KindUnexpectedToken, tok, "invalid parameter index ?%s", tok.Literal)
		}
		p.next()
		return &ast.Parameter{Index: idx, Pos: tok.Pos}, nil
	case token.LPAREN:
		p.next()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case token.IDENT:
		p.next()
		switch p.cur.Type {
		case token.LPAREN:
			return p.parseCall(tok)
		case token.DOT:
			return p.parseQualifiedPath(tok)
		}
		return &ast.MemberPath{Property: tok.Literal, Pos: tok.Pos}, nil
	default:
		return nil, p.unexpected("expression")
	}
}

// parseQualifiedPath parses `.Property` after an alias token. Keywords are
// accepted as property names since the dot makes them unambiguous.
func (p *Parser) parseQualifiedPath(alias token.Token) (*ast.MemberPath, error) {
	p.next() // .
	prop := p.cur
	if prop.Type != token.IDENT && !token.IsKeyword(prop.Type) {
		return nil, p.unexpected("property name")
	}
	p.next()
	if p.cur.Type == token.DOT {
		return nil, p.errorf(KindUnexpectedToken, p.cur, "nested property paths are not supported")
	}
	return &ast.MemberPath{Alias: alias.Literal, Property: prop.Literal, Pos: alias.Pos}, nil
}

func (p *Parser) parseCall(name token.Token) (*ast.FunctionCall, error) {
	p.next() // (
	call := &ast.FunctionCall{Name: name.Literal, Pos: name.Pos}
	if p.accept(token.RPAREN) {
		return call, nil
	}
	if p.cur.Type == token.STAR {
		p.next()
		call.Star = true
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return call, nil
	}
	call.Distinct = p.accept(token.DISTINCT)
	args, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	call.Args = args
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return call, nil
}
