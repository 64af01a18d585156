package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cpql/internal/ir"
)

// Snapshot is the golden form of a scenario result. Statement IDs and
// query hashes are left out so snapshots survive hash domain changes.
type Snapshot struct {
	ScenarioName string
	Outputs      []Output
	Lint         map[string][]string
}

// NewSnapshot builds the snapshot of a result.
func NewSnapshot(name string, result *Result) Snapshot {
	lint := make(map[string][]string)
	for caseName, l := range result.Lint {
		if len(l.Warnings) == 0 {
			continue
		}
		codes := make([]string, len(l.Warnings))
		for i, w := range l.Warnings {
			codes[i] = w.Code
		}
		lint[caseName] = codes
	}
	return Snapshot{ScenarioName: name, Outputs: result.Outputs, Lint: lint}
}

// toCanonicalMap converts the snapshot for ir.MarshalCanonical, which only
// accepts IR values and primitives.
func (s Snapshot) toCanonicalMap() map[string]any {
	outputs := make([]any, len(s.Outputs))
	for i, o := range s.Outputs {
		m := map[string]any{
			"case":    o.Case,
			"dialect": o.Dialect,
		}
		if o.SQL != "" {
			m["sql"] = o.SQL
		}
		if len(o.Params) > 0 {
			m["params"] = o.Params
		}
		if len(o.Bindings) > 0 {
			m["bindings"] = o.Bindings
		}
		if o.ErrorKind != "" {
			m["error_kind"] = o.ErrorKind
			m["error"] = o.Error
		}
		outputs[i] = m
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"outputs":       outputs,
	}
	if len(s.Lint) > 0 {
		lint := make(map[string]any, len(s.Lint))
		for k, v := range s.Lint {
			lint[k] = v
		}
		result["lint"] = lint
	}
	return result
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot with
// testdata/golden/<scenario.Name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot run. Snapshot mismatches fail t
// through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(name, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
