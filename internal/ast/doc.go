// Package ast defines the intermediate representation of a parsed CPQL query.
//
// The AST sits between the parser and the SQL generators:
//
//	[query text] → [parser] → [ast.Query] → [sqlgen] → SQL + parameters
//
// # Ownership
//
// Nodes form a strict tree: parents own children, and there are no back
// references. The parser builds the tree once per query string and nothing
// mutates it afterwards, so a single tree may be cached and rendered for
// several dialects concurrently.
//
// # Sealed Interfaces
//
// Query and Expr are sealed using the marker method pattern. Only types in
// this package implement them, which lets generators use exhaustive type
// switches and report an unsupported construct for anything else.
//
// # Values
//
// Literal nodes carry constants written in the query text. Values supplied
// by callers never appear in the tree; they are bound later through
// Parameter placeholders.
package ast
