package ir

// Param maps a parameter name from the query text to its placeholder.
type Param struct {
	Name        string `json:"name"`
	Placeholder string `json:"placeholder"`
}

// Statement is a compiled statement as recorded in the catalog.
type Statement struct {
	ID        string   `json:"id"`
	QueryHash string   `json:"query_hash"`
	Query     string   `json:"query"`
	Dialect   string   `json:"dialect"`
	SQL       string   `json:"sql"`
	Params    []Param  `json:"params"`
	Bindings  []string `json:"bindings"`
}

// Canonical returns the statement's canonical object form. Query text is
// excluded: statements differing only in layout share a canonical form.
func (s Statement) Canonical() Object {
	params := make(Array, len(s.Params))
	for i, p := range s.Params {
		params[i] = Object{"name": String(p.Name), "placeholder": String(p.Placeholder)}
	}
	return Object{
		"id":         String(s.ID),
		"query_hash": String(s.QueryHash),
		"dialect":    String(s.Dialect),
		"sql":        String(s.SQL),
		"params":     params,
		"bindings":   Strings(s.Bindings),
	}
}
