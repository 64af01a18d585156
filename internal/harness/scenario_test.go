package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ResolvesSchemaPath(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/core.yaml")
	require.NoError(t, err)

	assert.Equal(t, "core", s.Name)
	assert.Equal(t, filepath.Join("testdata", "schema.yaml"), s.Schema)
	assert.Equal(t, []string{"sqlserver", "postgres"}, s.Dialects)
	require.Len(t, s.Cases, 6)
	assert.Equal(t, "unresolved_entity", s.Cases[3].Expect.Error)
}

func TestLoadScenarios_SortedByFileName(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "core", scenarios[0].Name)
	assert.Equal(t, "execution", scenarios[1].Name)
}

func TestLoadScenarios_MissingDir(t *testing.T) {
	_, err := LoadScenarios(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoadScenario_MissingSchema(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "s.yaml", `
name: s
description: d
schema: missing.yaml
cases:
  - name: a
    query: "SELECT u FROM User u"
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema not found")
}

func TestParseScenario_DefaultDialect(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: s
description: d
cases:
  - name: a
    query: "SELECT u FROM User u"
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"sqlserver"}, s.Dialects)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "name: s\ndescription: d\ncase: []\n", "field case not found"},
		{"missing name", "description: d\ncases: [{name: a, query: q}]\n", "name is required"},
		{"missing description", "name: s\ncases: [{name: a, query: q}]\n", "description is required"},
		{"no cases", "name: s\ndescription: d\n", "cases list is required"},
		{"unknown dialect", "name: s\ndescription: d\ndialects: [oracle]\ncases: [{name: a, query: q}]\n", `unknown dialect "oracle"`},
		{"unnamed case", "name: s\ndescription: d\ncases: [{query: q}]\n", "cases[0]: name is required"},
		{"duplicate case", "name: s\ndescription: d\ncases: [{name: a, query: q}, {name: a, query: q}]\n", `duplicate case name "a"`},
		{"empty query", "name: s\ndescription: d\ncases: [{name: a, query: ' '}]\n", "cases[0]: query is required"},
		{"unknown error kind", "name: s\ndescription: d\ncases: [{name: a, query: q, expect: {error: oops}}]\n", `unknown error kind "oops"`},
		{"error with sql", "name: s\ndescription: d\ncases: [{name: a, query: q, expect: {error: syntax, params: [x]}}]\n", "cannot be combined"},
		{"assertion without type", "name: s\ndescription: d\ncases: [{name: a, query: q}]\nassertions: [{case: a}]\n", "type is required"},
		{"unknown assertion", "name: s\ndescription: d\ncases: [{name: a, query: q}]\nassertions: [{type: vibes, case: a}]\n", `unknown assertion type "vibes"`},
		{"assertion unknown case", "name: s\ndescription: d\ncases: [{name: a, query: q}]\nassertions: [{type: sql_contains, case: b, text: x}]\n", `unknown case "b"`},
		{"sql_contains without text", "name: s\ndescription: d\ncases: [{name: a, query: q}]\nassertions: [{type: sql_contains, case: a}]\n", "requires text"},
		{"same_statement single case", "name: s\ndescription: d\ncases: [{name: a, query: q}]\nassertions: [{type: same_statement, cases: [a]}]\n", "at least two cases"},
		{"portable without expect", "name: s\ndescription: d\ncases: [{name: a, query: q}]\nassertions: [{type: portable, case: a}]\n", "requires expect"},
		{"lint_code without code", "name: s\ndescription: d\ncases: [{name: a, query: q}]\nassertions: [{type: lint_code, case: a}]\n", "requires code"},
		{"bindings missing", "name: s\ndescription: d\ncases: [{name: a, query: q}]\nassertions: [{type: bindings, case: a}]\n", "use [] for none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
