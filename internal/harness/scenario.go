package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cpql/internal/compiler"
	"github.com/roach88/cpql/internal/dialect"
)

// Scenario defines a compile scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the metadata file or CUE directory. Relative paths are
	// resolved against the scenario file. Optional when the harness is
	// given a resolver.
	Schema string `yaml:"schema,omitempty"`

	// Dialects to compile every case for. Defaults to the default dialect.
	Dialects []string `yaml:"dialects,omitempty"`

	// Fixture holds SQLite statements run before row_count assertions.
	Fixture []string `yaml:"fixture,omitempty"`

	// Cases are the queries under test.
	Cases []Case `yaml:"cases"`

	// Assertions validate the outputs as a whole.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Case is one query and its expected outcome.
type Case struct {
	Name   string  `yaml:"name"`
	Query  string  `yaml:"query"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected compile outcome of a case.
type Expect struct {
	// SQL maps dialect name to exact SQL text. Dialects not listed are
	// not checked.
	SQL map[string]string `yaml:"sql,omitempty"`

	// Params lists distinct parameter names in first-appearance order.
	Params []string `yaml:"params,omitempty"`

	// Error is the expected error kind (see compiler.ErrorKind). A case
	// with an expected error must fail on every dialect.
	Error string `yaml:"error,omitempty"`

	// ErrorContains is a substring of the expected error message.
	ErrorContains string `yaml:"error_contains,omitempty"`
}

// Assertion validates compiled outputs.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Case names the case under test (all types except same_statement).
	Case string `yaml:"case,omitempty"`

	// Cases names the cases compared by same_statement.
	Cases []string `yaml:"cases,omitempty"`

	// Dialect selects the output (sql_contains, bindings). Defaults to the
	// scenario's first dialect.
	Dialect string `yaml:"dialect,omitempty"`

	// Text is the expected substring (sql_contains).
	Text string `yaml:"text,omitempty"`

	// Bindings is the expected binding order (bindings).
	Bindings []string `yaml:"bindings,omitempty"`

	// Expect is the expected portability verdict (portable).
	Expect *bool `yaml:"expect,omitempty"`

	// Code is the expected warning code (lint_code).
	Code string `yaml:"code,omitempty"`

	// Args binds parameter values (row_count).
	Args map[string]any `yaml:"args,omitempty"`

	// Count is the expected number of rows (row_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertSQLContains   = "sql_contains"
	AssertBindings      = "bindings"
	AssertSameStatement = "same_statement"
	AssertPortable      = "portable"
	AssertLintCode      = "lint_code"
	AssertRowCount      = "row_count"
)

// ScenarioExt is the file extension LoadScenarios picks up.
const ScenarioExt = ".yaml"

// LoadScenario reads and parses a scenario YAML file, resolving the schema
// path against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the schema path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if s.Schema != "" && !filepath.IsAbs(s.Schema) && basePath != "" {
		s.Schema = filepath.Join(basePath, s.Schema)
	}
	if s.Schema != "" {
		if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: schema not found: %s", s.Schema)
		}
	}
	return s, nil
}

// ParseScenario decodes a scenario. Unknown fields are rejected so typos
// surface as errors.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(s.Dialects) == 0 {
		s.Dialects = []string{string(dialect.Default)}
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// LoadScenarios loads every scenario file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ScenarioExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for i, d := range s.Dialects {
		if _, err := dialect.Lookup(d); err != nil {
			return fmt.Errorf("dialects[%d]: %w", i, err)
		}
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true
		if strings.TrimSpace(c.Query) == "" {
			return fmt.Errorf("cases[%d]: query is required", i)
		}
		if c.Expect != nil && c.Expect.Error != "" {
			if len(c.Expect.SQL) > 0 || len(c.Expect.Params) > 0 {
				return fmt.Errorf("cases[%d].expect: error cannot be combined with sql or params", i)
			}
			if !knownErrorKinds[c.Expect.Error] {
				return fmt.Errorf("cases[%d].expect: unknown error kind %q", i, c.Expect.Error)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, seen); err != nil {
			return err
		}
	}
	return nil
}

var knownErrorKinds = map[string]bool{
	compiler.KindSyntax:               true,
	compiler.KindUnresolvedEntity:     true,
	compiler.KindUnresolvedProperty:   true,
	compiler.KindUnknownFunction:      true,
	compiler.KindUnsupportedConstruct: true,
	compiler.KindMissingFrom:          true,
	compiler.KindUnresolvedParameter:  true,
}

func validateAssertion(index int, a Assertion, cases map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needCase := func() error {
		if a.Case == "" {
			return fmt.Errorf("assertions[%d]: %s requires case", index, a.Type)
		}
		if !cases[a.Case] {
			return fmt.Errorf("assertions[%d]: unknown case %q", index, a.Case)
		}
		return nil
	}

	switch a.Type {
	case AssertSQLContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: sql_contains requires text", index)
		}
		return needCase()
	case AssertBindings:
		if a.Bindings == nil {
			return fmt.Errorf("assertions[%d]: bindings requires bindings (use [] for none)", index)
		}
		return needCase()
	case AssertSameStatement:
		if len(a.Cases) < 2 {
			return fmt.Errorf("assertions[%d]: same_statement requires at least two cases", index)
		}
		for _, c := range a.Cases {
			if !cases[c] {
				return fmt.Errorf("assertions[%d]: unknown case %q", index, c)
			}
		}
		return nil
	case AssertPortable:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: portable requires expect", index)
		}
		return needCase()
	case AssertLintCode:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: lint_code requires code", index)
		}
		return needCase()
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: row_count requires a non-negative count", index)
		}
		return needCase()
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
}
