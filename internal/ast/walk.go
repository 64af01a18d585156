package ast

import (
	"fmt"
	"strconv"
)

// Key returns the name a parameter is bound by: its name, or "p<index>"
// for indexed parameters. The empty string means the parameter is unusable.
func (p *Parameter) Key() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Index > 0 {
		return "p" + strconv.Itoa(p.Index)
	}
	return ""
}

// Inspect traverses e depth-first in source order, calling fn for every
// expression. Traversal of a subtree stops when fn returns false.
func Inspect(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *BinaryOp:
		Inspect(n.Left, fn)
		Inspect(n.Right, fn)
	case *UnaryOp:
		Inspect(n.Operand, fn)
	case *FunctionCall:
		for _, a := range n.Args {
			Inspect(a, fn)
		}
	case *IsNull:
		Inspect(n.Operand, fn)
	case *InList:
		Inspect(n.Operand, fn)
		for _, item := range n.Items {
			Inspect(item, fn)
		}
	case *Between:
		Inspect(n.Operand, fn)
		Inspect(n.Low, fn)
		Inspect(n.High, fn)
	}
}

// Expressions returns the top-level expressions of q in the order the
// generator emits their clauses.
func Expressions(q Query) []Expr {
	var out []Expr
	switch n := q.(type) {
	case *SelectQuery:
		if n.Select != nil {
			for _, item := range n.Select.Items {
				out = append(out, item.Expr)
			}
		}
		if n.From != nil {
			for _, j := range n.From.Joins {
				if j.On != nil {
					out = append(out, j.On)
				}
			}
		}
		if n.Where != nil {
			out = append(out, n.Where.Condition)
		}
		if n.GroupBy != nil {
			out = append(out, n.GroupBy.Items...)
		}
		if n.Having != nil {
			out = append(out, n.Having.Condition)
		}
		if n.OrderBy != nil {
			for _, item := range n.OrderBy.Items {
				out = append(out, item.Expr)
			}
		}
	case *UpdateQuery:
		for _, a := range n.Assignments {
			out = append(out, a.Target, a.Value)
		}
		if n.Where != nil {
			out = append(out, n.Where.Condition)
		}
	case *DeleteQuery:
		if n.Where != nil {
			out = append(out, n.Where.Condition)
		}
	}
	return out
}

// Parameters returns the distinct parameter keys referenced by q, in
// clause emission order.
func Parameters(q Query) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, e := range Expressions(q) {
		Inspect(e, func(e Expr) bool {
			if p, ok := e.(*Parameter); ok {
				k := p.Key()
				if k != "" && !seen[k] {
					seen[k] = true
					keys = append(keys, k)
				}
			}
			return true
		})
	}
	return keys
}

// Dump converts q into nested maps and slices of strings, bools and ints,
// suitable for canonical JSON encoding. Absent clauses are omitted.
func Dump(q Query) (map[string]any, error) {
	switch n := q.(type) {
	case *SelectQuery:
		out := map[string]any{"kind": "select"}
		if n.Select != nil {
			items := make([]any, len(n.Select.Items))
			for i, item := range n.Select.Items {
				m := map[string]any{"expr": dumpExpr(item.Expr)}
				if item.Alias != "" {
					m["alias"] = item.Alias
				}
				items[i] = m
			}
			out["select"] = map[string]any{"distinct": n.Select.Distinct, "items": items}
		}
		if n.From != nil {
			from := make([]any, len(n.From.Items))
			for i, item := range n.From.Items {
				from[i] = dumpEntity(item.EntityName, item.Alias)
			}
			out["from"] = from
			if len(n.From.Joins) > 0 {
				joins := make([]any, len(n.From.Joins))
				for i, j := range n.From.Joins {
					m := dumpEntity(j.EntityName, j.Alias)
					m["type"] = string(j.Type)
					if j.On != nil {
						m["on"] = dumpExpr(j.On)
					}
					joins[i] = m
				}
				out["joins"] = joins
			}
		}
		if n.Where != nil {
			out["where"] = dumpExpr(n.Where.Condition)
		}
		if n.GroupBy != nil {
			out["group_by"] = dumpExprs(n.GroupBy.Items)
		}
		if n.Having != nil {
			out["having"] = dumpExpr(n.Having.Condition)
		}
		if n.OrderBy != nil {
			items := make([]any, len(n.OrderBy.Items))
			for i, item := range n.OrderBy.Items {
				dir := item.Direction
				if dir == "" {
					dir = Asc
				}
				items[i] = map[string]any{"expr": dumpExpr(item.Expr), "direction": string(dir)}
			}
			out["order_by"] = items
		}
		return out, nil
	case *UpdateQuery:
		out := map[string]any{"kind": "update", "entity": dumpEntity(n.EntityName, n.Alias)}
		set := make([]any, len(n.Assignments))
		for i, a := range n.Assignments {
			set[i] = map[string]any{"target": dumpExpr(a.Target), "value": dumpExpr(a.Value)}
		}
		out["set"] = set
		if n.Where != nil {
			out["where"] = dumpExpr(n.Where.Condition)
		}
		return out, nil
	case *DeleteQuery:
		out := map[string]any{"kind": "delete", "entity": dumpEntity(n.EntityName, n.Alias)}
		if n.Where != nil {
			out["where"] = dumpExpr(n.Where.Condition)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func dumpEntity(name, alias string) map[string]any {
	m := map[string]any{"entity": name}
	if alias != "" {
		m["alias"] = alias
	}
	return m
}

func dumpExprs(exprs []Expr) []any {
	out := make([]any, len(exprs))
	for i, e := range exprs {
		out[i] = dumpExpr(e)
	}
	return out
}

func dumpExpr(e Expr) map[string]any {
	switch n := e.(type) {
	case *MemberPath:
		m := map[string]any{"path": n.Property}
		if n.Alias != "" {
			m["alias"] = n.Alias
		}
		return m
	case *Literal:
		return map[string]any{"literal": n.Value, "type": string(n.Kind)}
	case *Parameter:
		return map[string]any{"param": n.Key()}
	case *BinaryOp:
		return map[string]any{"op": string(n.Op), "left": dumpExpr(n.Left), "right": dumpExpr(n.Right)}
	case *UnaryOp:
		return map[string]any{"op": string(n.Op), "operand": dumpExpr(n.Operand)}
	case *FunctionCall:
		m := map[string]any{"func": n.Name, "args": dumpExprs(n.Args)}
		if n.Distinct {
			m["distinct"] = true
		}
		if n.Star {
			m["star"] = true
		}
		return m
	case *IsNull:
		return map[string]any{"is_null": dumpExpr(n.Operand), "not": n.Not}
	case *InList:
		return map[string]any{"in": dumpExpr(n.Operand), "items": dumpExprs(n.Items), "not": n.Not}
	case *Between:
		return map[string]any{"between": dumpExpr(n.Operand), "low": dumpExpr(n.Low), "high": dumpExpr(n.High), "not": n.Not}
	default:
		return map[string]any{"unknown": fmt.Sprintf("%T", e)}
	}
}
