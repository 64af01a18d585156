package ast

import "github.com/roach88/cpql/internal/token"

// Query is the root of a parsed CPQL statement.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern enables exhaustive type switches in generators:
//
//	switch q := query.(type) {
//	case *SelectQuery:
//	case *UpdateQuery:
//	case *DeleteQuery:
//	}
type Query interface {
	queryNode()
}

// Expr is any scalar or boolean expression.
//
// Sealed like Query. Expression kinds:
//   - MemberPath: alias.Property or a bare Property / alias
//   - Literal: string, number, boolean or NULL constant from the query text
//   - Parameter: :name or ?N placeholder bound by the caller
//   - BinaryOp, UnaryOp: operators
//   - FunctionCall: logical function resolved per dialect
//   - IsNull, InList, Between: predicate forms
type Expr interface {
	exprNode()
	// Position returns where the expression starts in the query text.
	Position() token.Position
}

// SelectQuery captures a SELECT statement.
//
// Semantics:
//
//	SELECT [DISTINCT] <Select> FROM <From> [WHERE] [GROUP BY] [HAVING] [ORDER BY]
//
// Select is nil for a query that selects everything (rendered as SELECT *).
type SelectQuery struct {
	Select  *SelectClause
	From    *FromClause
	Where   *WhereClause
	GroupBy *GroupByClause
	Having  *HavingClause
	OrderBy *OrderByClause
}

func (*SelectQuery) queryNode() {}

// UpdateQuery captures UPDATE Entity [alias] SET ... [WHERE ...].
type UpdateQuery struct {
	EntityName  string
	Alias       string
	Assignments []PropertyAssignment
	Where       *WhereClause
	Pos         token.Position // of the entity name
}

func (*UpdateQuery) queryNode() {}

// DeleteQuery captures DELETE FROM Entity [alias] [WHERE ...].
type DeleteQuery struct {
	EntityName string
	Alias      string
	Where      *WhereClause
	Pos        token.Position // of the entity name
}

func (*DeleteQuery) queryNode() {}

// PropertyAssignment is one SET target = value pair.
type PropertyAssignment struct {
	Target *MemberPath
	Value  Expr
}

// FromClause lists the root entities and the joins that follow them, in source order.
type FromClause struct {
	Items []FromItem
	Joins []JoinClause
}

// FromItem is an entity reference in FROM. Alias may be empty.
type FromItem struct {
	EntityName string
	Alias      string
	Pos        token.Position
}

// Binding returns the name the item is addressable by: its alias, or the entity name.
func (f FromItem) Binding() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.EntityName
}

// JoinType enumerates join kinds.
type JoinType string

const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
)

// JoinClause is one JOIN in source order. On is nil when the query omitted it.
type JoinClause struct {
	Type       JoinType
	EntityName string
	Alias      string
	On         Expr
	Pos        token.Position
}

// Binding returns the join alias, or the entity name when no alias was given.
func (j JoinClause) Binding() string {
	if j.Alias != "" {
		return j.Alias
	}
	return j.EntityName
}

// SelectClause is the projection list.
type SelectClause struct {
	Distinct bool
	Items    []SelectItem
}

// SelectItem is one projected expression with an optional output alias.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// WhereClause holds the row filter.
type WhereClause struct {
	Condition Expr
}

// HavingClause holds the group filter.
type HavingClause struct {
	Condition Expr
}

// GroupByClause holds grouping expressions.
type GroupByClause struct {
	Items []Expr
}

// Direction is an ORDER BY direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// OrderByClause holds ordering terms in source order.
type OrderByClause struct {
	Items []OrderByItem
}

// OrderByItem is one ordering term. An empty Direction means ascending.
type OrderByItem struct {
	Expr      Expr
	Direction Direction
}

// MemberPath references a property, optionally qualified by an alias.
// A bare identifier is stored in Property with an empty Alias; whether it
// names an alias or a property of the sole FROM entity is decided during
// generation, once aliases are known.
type MemberPath struct {
	Alias    string
	Property string
	Pos      token.Position
}

func (*MemberPath) exprNode()                  {}
func (m *MemberPath) Position() token.Position { return m.Pos }

// LiteralKind classifies literal constants.
type LiteralKind string

const (
	LiteralString  LiteralKind = "string"
	LiteralNumber  LiteralKind = "number"
	LiteralBoolean LiteralKind = "boolean"
	LiteralNull    LiteralKind = "null"
)

// Literal is a constant taken verbatim from the query text.
// Value holds the unquoted string, the numeric text, or "TRUE"/"FALSE".
type Literal struct {
	Kind  LiteralKind
	Value string
	Pos   token.Position
}

func (*Literal) exprNode()                  {}
func (l *Literal) Position() token.Position { return l.Pos }

// Parameter is a caller-bound value: either named (:name) or indexed (?N).
type Parameter struct {
	Name  string
	Index int
	Pos   token.Position
}

func (*Parameter) exprNode()                  {}
func (p *Parameter) Position() token.Position { return p.Pos }

// Operator is a binary or unary operator.
type Operator string

const (
	OpOr      Operator = "OR"
	OpAnd     Operator = "AND"
	OpNot     Operator = "NOT"
	OpEq      Operator = "="
	OpNeq     Operator = "<>"
	OpLt      Operator = "<"
	OpLte     Operator = "<="
	OpGt      Operator = ">"
	OpGte     Operator = ">="
	OpLike    Operator = "LIKE"
	OpNotLike Operator = "NOT LIKE"
	OpAdd     Operator = "+"
	OpSub     Operator = "-"
	OpMul     Operator = "*"
	OpDiv     Operator = "/"
	OpMod     Operator = "%"
	OpNeg     Operator = "NEG"
)

// BinaryOp is Left Op Right.
type BinaryOp struct {
	Op    Operator
	Left  Expr
	Right Expr
	Pos   token.Position
}

func (*BinaryOp) exprNode()                  {}
func (b *BinaryOp) Position() token.Position { return b.Pos }

// UnaryOp is a prefix operator: NOT or arithmetic negation (OpNeg).
type UnaryOp struct {
	Op      Operator
	Operand Expr
	Pos     token.Position
}

func (*UnaryOp) exprNode()                  {}
func (u *UnaryOp) Position() token.Position { return u.Pos }

// FunctionCall is a logical function such as UPPER or COUNT.
// Star is set for COUNT(*).
type FunctionCall struct {
	Name     string
	Distinct bool
	Star     bool
	Args     []Expr
	Pos      token.Position
}

func (*FunctionCall) exprNode()                  {}
func (f *FunctionCall) Position() token.Position { return f.Pos }

// IsNull is Operand IS [NOT] NULL.
type IsNull struct {
	Operand Expr
	Not     bool
	Pos     token.Position
}

func (*IsNull) exprNode()                  {}
func (n *IsNull) Position() token.Position { return n.Pos }

// InList is Operand [NOT] IN (Items...).
type InList struct {
	Operand Expr
	Items   []Expr
	Not     bool
	Pos     token.Position
}

func (*InList) exprNode()                  {}
func (n *InList) Position() token.Position { return n.Pos }

// Between is Operand [NOT] BETWEEN Low AND High.
type Between struct {
	Operand Expr
	Low     Expr
	High    Expr
	Not     bool
	Pos     token.Position
}

func (*Between) exprNode()                  {}
func (b *Between) Position() token.Position { return b.Pos }
