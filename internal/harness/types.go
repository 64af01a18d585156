package harness

import "github.com/roach88/cpql/internal/compiler"

// Output is the compile outcome of one case for one dialect.
type Output struct {
	Case        string   `json:"case"`
	Dialect     string   `json:"dialect"`
	SQL         string   `json:"sql,omitempty"`
	Params      []string `json:"params,omitempty"`
	Bindings    []string `json:"bindings,omitempty"`
	StatementID string   `json:"statement_id,omitempty"`
	QueryHash   string   `json:"query_hash,omitempty"`
	Error       string   `json:"error,omitempty"`
	ErrorKind   string   `json:"error_kind,omitempty"`
}

// Failed reports whether compilation failed.
func (o Output) Failed() bool { return o.ErrorKind != "" }

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Outputs holds one entry per case and dialect, cases in file order and
	// dialects in scenario order within a case.
	Outputs []Output `json:"outputs"`

	// Lint holds the portability result of every case that parsed.
	Lint map[string]compiler.LintResult `json:"lint,omitempty"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Outputs: []Output{},
		Lint:    make(map[string]compiler.LintResult),
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Output returns the output for a case and dialect.
func (r *Result) Output(caseName, dialect string) (Output, bool) {
	for _, o := range r.Outputs {
		if o.Case == caseName && o.Dialect == dialect {
			return o, true
		}
	}
	return Output{}, false
}

// CaseOutputs returns every output of a case.
func (r *Result) CaseOutputs(caseName string) []Output {
	var outs []Output
	for _, o := range r.Outputs {
		if o.Case == caseName {
			outs = append(outs, o)
		}
	}
	return outs
}
