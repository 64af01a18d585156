package sqlgen

import (
	"github.com/roach88/cpql/internal/ast"
	"github.com/roach88/cpql/internal/dialect"
)

// Param maps a parameter name from the query text to its placeholder.
type Param struct {
	Name        string `json:"name"`
	Placeholder string `json:"placeholder"`
}

// paramTable is the placeholder bookkeeping of one compilation.
type paramTable struct {
	dialect  *dialect.Dialect
	index    map[string]int
	params   []Param
	bindings []string
}

func newParamTable(d *dialect.Dialect) *paramTable {
	return &paramTable{dialect: d, index: make(map[string]int)}
}

// placeholder returns the marker for p, recording it on first appearance.
// Named and numbered styles reuse one placeholder per name; the positional
// style records a binding for every occurrence.
func (t *paramTable) placeholder(p *ast.Parameter) (string, error) {
	name := p.Key()
	if name == "" {
		return "", &UnresolvedParameterError{Pos: p.Pos}
	}

	i, seen := t.index[name]
	if !seen {
		i = len(t.params)
		t.index[name] = i
		t.params = append(t.params, Param{Name: name, Placeholder: t.dialect.PlaceholderFor(name, i+1)})
		if t.dialect.Placeholder() != dialect.PlaceholderPositional {
			t.bindings = append(t.bindings, name)
		}
	}
	if t.dialect.Placeholder() == dialect.PlaceholderPositional {
		t.bindings = append(t.bindings, name)
	}
	return t.params[i].Placeholder, nil
}
