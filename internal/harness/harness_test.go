package harness

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cpql/internal/testutil"
)

func runYAML(t *testing.T, content string) *Result {
	t.Helper()
	s, err := ParseScenario([]byte(content))
	require.NoError(t, err)
	result, err := Run(s, WithResolver(testutil.SampleSchema(t)))
	require.NoError(t, err)
	return result
}

func TestRun_Scenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_Golden(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/core.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_OutputsInCaseThenDialectOrder(t *testing.T) {
	result := runYAML(t, `
name: order
description: d
dialects: [postgresql, sqlite3]
cases:
  - name: a
    query: "SELECT u FROM User u WHERE u.Id = :id"
  - name: b
    query: "DELETE FROM User u WHERE u.Id = :id"
`)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	var got []string
	for _, o := range result.Outputs {
		got = append(got, o.Case+"/"+o.Dialect)
	}
	assert.Equal(t, []string{"a/postgres", "a/sqlite", "b/postgres", "b/sqlite"}, got)

	out, ok := result.Output("b", "postgres")
	require.True(t, ok)
	assert.Equal(t, "DELETE FROM users WHERE id = $1", out.SQL)
	assert.NotEmpty(t, out.StatementID)
	assert.NotEmpty(t, out.QueryHash)
	assert.Len(t, result.CaseOutputs("a"), 2)
}

func TestRun_ExpectationFailures(t *testing.T) {
	result := runYAML(t, `
name: failing
description: every expectation is wrong
cases:
  - name: wrong_sql
    query: "SELECT u FROM User u"
    expect:
      sql:
        sqlserver: "SELECT * FROM users"
  - name: wrong_params
    query: "SELECT u FROM User u WHERE u.Id = :id"
    expect:
      params: [key]
  - name: should_fail
    query: "SELECT u FROM User u"
    expect:
      error: unresolved_entity
  - name: wrong_kind
    query: "SELECT u FROM User u WHERE u.Shoe = 1"
    expect:
      error: unresolved_entity
  - name: wrong_message
    query: "SELECT g FROM Ghost g"
    expect:
      error: unresolved_entity
      error_contains: Phantom
  - name: unexpected_error
    query: "SELECT u FROM"
`)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Contains(t, result.Errors[0], "case wrong_sql [sqlserver]: SQL mismatch")
	assert.Contains(t, result.Errors[1], "params mismatch: expected [key], got [id]")
	assert.Contains(t, result.Errors[2], "expected unresolved_entity error, compiled to")
	assert.Contains(t, result.Errors[3], "expected unresolved_entity error, got unresolved_property")
	assert.Contains(t, result.Errors[4], `does not contain "Phantom"`)
	assert.Contains(t, result.Errors[5], "unexpected syntax error")

	_, parsed := result.Lint["unexpected_error"]
	assert.False(t, parsed)
}

func TestRun_NoSchema(t *testing.T) {
	s, err := ParseScenario([]byte("name: s\ndescription: d\ncases: [{name: a, query: 'SELECT u FROM User u'}]\n"))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema and no resolver")
}

func TestRun_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s, err := ParseScenario([]byte("name: logged\ndescription: d\ncases: [{name: a, query: 'SELECT u FROM User u'}]\n"))
	require.NoError(t, err)
	_, err = Run(s, WithResolver(testutil.SampleSchema(t)), WithLogger(logger))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "scenario completed")
	assert.Contains(t, buf.String(), "scenario=logged")
	assert.Contains(t, buf.String(), "query compiled")
}
