package sqlgen

import (
	"fmt"

	"github.com/roach88/cpql/internal/ast"
	"github.com/roach88/cpql/internal/token"
)

// Check runs the structural checks that need no metadata: a SELECT has FROM
// items, aliases are declared once, every alias-qualified path names a
// declared alias, bare properties are unambiguous, joins carry ON
// conditions and every parameter has a name or index.
//
// Generate runs Check first; it is exported so callers can validate a
// query without a resolver.
func Check(q ast.Query) error {
	declared := make(map[string]bool)
	roots := 0

	declare := func(name string, pos token.Position) error {
		if declared[name] {
			return &UnsupportedConstructError{Construct: "duplicate alias", Detail: fmt.Sprintf("%q", name), Pos: pos}
		}
		declared[name] = true
		return nil
	}

	switch n := q.(type) {
	case *ast.SelectQuery:
		if n.From == nil || len(n.From.Items) == 0 {
			return &MissingFromClauseError{}
		}
		for _, item := range n.From.Items {
			if err := declare(item.Binding(), item.Pos); err != nil {
				return err
			}
			roots++
		}
		for _, j := range n.From.Joins {
			if err := declare(j.Binding(), j.Pos); err != nil {
				return err
			}
		}
		for _, j := range n.From.Joins {
			if j.On == nil {
				return &UnsupportedConstructError{Construct: "join without ON condition", Detail: j.Binding(), Pos: j.Pos}
			}
		}
	case *ast.UpdateQuery:
		if len(n.Assignments) == 0 {
			return &UnsupportedConstructError{Construct: "UPDATE without SET assignments", Pos: n.Pos}
		}
		declared[bindingName(n.Alias, n.EntityName)] = true
		roots = 1
	case *ast.DeleteQuery:
		declared[bindingName(n.Alias, n.EntityName)] = true
		roots = 1
	case nil:
		return &UnsupportedConstructError{Construct: "empty query"}
	default:
		return &UnsupportedConstructError{Construct: fmt.Sprintf("query %T", q)}
	}

	// indexed parameters bind under "p<N>", which a named :p<N> would share
	named := make(map[string]bool)
	indexed := make(map[string]bool)

	var err error
	for _, e := range ast.Expressions(q) {
		ast.Inspect(e, func(e ast.Expr) bool {
			if err != nil {
				return false
			}
			switch n := e.(type) {
			case *ast.MemberPath:
				if n.Alias != "" && !declared[n.Alias] {
					err = &UnresolvedEntityError{Alias: n.Alias, Reason: "alias is not declared in FROM or JOIN", Pos: n.Pos}
				} else if n.Alias == "" && !declared[n.Property] && roots != 1 {
					err = &UnresolvedEntityError{Property: n.Property, Reason: "property without alias is ambiguous across several FROM entities", Pos: n.Pos}
				}
			case *ast.Parameter:
				key := n.Key()
				switch {
				case key == "":
					err = &UnresolvedParameterError{Pos: n.Pos}
				case n.Name != "":
					named[key] = true
					if indexed[key] {
						err = &UnresolvedParameterError{Key: key, Pos: n.Pos}
					}
				default:
					indexed[key] = true
					if named[key] {
						err = &UnresolvedParameterError{Key: key, Pos: n.Pos}
					}
				}
			}
			return err == nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func bindingName(alias, entity string) string {
	if alias != "" {
		return alias
	}
	return entity
}
