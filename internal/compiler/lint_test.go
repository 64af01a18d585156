package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lintCodes(t *testing.T, c *Compiler, text string) []string {
	t.Helper()
	q, err := c.Parse(text)
	require.NoError(t, err)
	res := c.Lint(q)
	codes := make([]string, len(res.Warnings))
	for i, w := range res.Warnings {
		codes[i] = w.Code
	}
	assert.Equal(t, len(codes) == 0, res.Portable)
	return codes
}

func TestLint(t *testing.T) {
	c := newCompiler(t)

	tests := []struct {
		name  string
		text  string
		codes []string
	}{
		{"portable", "SELECT u.Name FROM User u WHERE u.Id = :id", []string{}},
		{"select star", "SELECT * FROM User u", []string{WarnSelectStar}},
		{"outer join", "SELECT c.Name FROM Customer c LEFT JOIN Order o ON o.CustomerId = c.Id", []string{WarnOuterJoin}},
		{"full join", "SELECT c.Name FROM Customer c FULL JOIN Order o ON o.CustomerId = c.Id", []string{WarnFullJoin}},
		{"null comparison", "SELECT u.Name FROM User u WHERE u.Email = NULL OR NULL <> u.Name", []string{WarnNullComparison, WarnNullComparison}},
		{"is null is fine", "SELECT u.Name FROM User u WHERE u.Email IS NULL", []string{}},
		{"dialect function", "SELECT u.Name FROM User u WHERE REGEXP(u.Email, :re) = 1", []string{WarnDialectFunction}},
		{"unknown function", "SELECT FOO(u.Name) FROM User u", []string{WarnUnknownFunction}},
		{"repeated parameter", "SELECT u.Name FROM User u WHERE u.Name = :n OR u.Email = :n", []string{WarnRepeatedPosition}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.codes, lintCodes(t, c, tt.text))
		})
	}
}

func TestLint_WarningText(t *testing.T) {
	c := newCompiler(t)
	q, err := c.Parse("SELECT c.Name FROM Customer c FULL JOIN Order o ON o.CustomerId = c.Id")
	require.NoError(t, err)

	res := c.Lint(q)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "[W303] 1:41: FULL JOIN o is not supported by [mysql]", res.Warnings[0].String())
}
