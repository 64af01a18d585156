// Package token defines the lexical vocabulary of the CPQL query language.
package token

import (
	"fmt"
	"strings"
)

// Type identifies the lexical class of a token.
type Type string

// Position points to a location in the query text (1-based line and column).
type Position struct {
	Line   int
	Column int
}

// IsValid reports whether the position points inside some source text.
func (p Position) IsValid() bool { return p.Line > 0 && p.Column > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token holds the type, literal representation, and source location.
type Token struct {
	Type    Type
	Literal string
	Pos     Position
}

// Token types produced by the lexer.
const (
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	IDENT  Type = "IDENT"
	NUMBER Type = "NUMBER"
	STRING Type = "STRING"
	// NAMED_PARAM is a ':name' parameter; Literal holds the name without the colon.
	NAMED_PARAM Type = "NAMED_PARAM"
	// INDEXED_PARAM is a '?N' parameter; Literal holds the digits.
	INDEXED_PARAM Type = "INDEXED_PARAM"

	COMMA     Type = ","
	SEMICOLON Type = ";"
	LPAREN    Type = "("
	RPAREN    Type = ")"
	DOT       Type = "."
	STAR      Type = "*"
	PLUS      Type = "+"
	MINUS     Type = "-"
	SLASH     Type = "/"
	PERCENT   Type = "%"
	EQ        Type = "="
	NEQ       Type = "<>"
	LT        Type = "<"
	LTE       Type = "<="
	GT        Type = ">"
	GTE       Type = ">="

	// Keywords
	SELECT   Type = "SELECT"
	DISTINCT Type = "DISTINCT"
	FROM     Type = "FROM"
	WHERE    Type = "WHERE"
	GROUP    Type = "GROUP"
	BY       Type = "BY"
	HAVING   Type = "HAVING"
	ORDER    Type = "ORDER"
	ASC      Type = "ASC"
	DESC     Type = "DESC"
	AS       Type = "AS"
	UPDATE   Type = "UPDATE"
	SET      Type = "SET"
	DELETE   Type = "DELETE"

	JOIN  Type = "JOIN"
	INNER Type = "INNER"
	LEFT  Type = "LEFT"
	RIGHT Type = "RIGHT"
	FULL  Type = "FULL"
	OUTER Type = "OUTER"
	ON    Type = "ON"

	AND     Type = "AND"
	OR      Type = "OR"
	NOT     Type = "NOT"
	LIKE    Type = "LIKE"
	IN      Type = "IN"
	IS      Type = "IS"
	BETWEEN Type = "BETWEEN"
	NULL    Type = "NULL"
	TRUE    Type = "TRUE"
	FALSE   Type = "FALSE"
)

var keywords = map[string]Type{
	"SELECT":   SELECT,
	"DISTINCT": DISTINCT,
	"FROM":     FROM,
	"WHERE":    WHERE,
	"GROUP":    GROUP,
	"BY":       BY,
	"HAVING":   HAVING,
	"ORDER":    ORDER,
	"ASC":      ASC,
	"DESC":     DESC,
	"AS":       AS,
	"UPDATE":   UPDATE,
	"SET":      SET,
	"DELETE":   DELETE,
	"JOIN":     JOIN,
	"INNER":    INNER,
	"LEFT":     LEFT,
	"RIGHT":    RIGHT,
	"FULL":     FULL,
	"OUTER":    OUTER,
	"ON":       ON,
	"AND":      AND,
	"OR":       OR,
	"NOT":      NOT,
	"LIKE":     LIKE,
	"IN":       IN,
	"IS":       IS,
	"BETWEEN":  BETWEEN,
	"NULL":     NULL,
	"TRUE":     TRUE,
	"FALSE":    FALSE,
}

// Lookup returns the keyword token type for ident (case-insensitive),
// or IDENT when ident is not reserved.
func Lookup(ident string) Type {
	if tok, ok := keywords[strings.ToUpper(ident)]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword reports whether t is a reserved word.
func IsKeyword(t Type) bool {
	_, ok := keywords[string(t)]
	return ok
}
