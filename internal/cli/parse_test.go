package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runParseCmd(t *testing.T, format, query string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewParseCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{query})
	err := cmd.Execute()
	return buf.String(), err
}

func parseResult(t *testing.T, query string) ParseResult {
	t.Helper()
	out, err := runParseCmd(t, "json", query)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ParseResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestParse_JSON(t *testing.T) {
	res := parseResult(t, "SELECT u FROM User u WHERE u.Id = :id")
	assert.Len(t, res.QueryHash, 64)
	assert.NotEmpty(t, res.AST)
}

func TestParse_HashIgnoresLayoutAndKeywordCase(t *testing.T) {
	a := parseResult(t, "SELECT u FROM User u WHERE u.Id = :id")
	b := parseResult(t, "select  u\n  from User u\n where u.Id = :id")
	c := parseResult(t, "SELECT u FROM User u WHERE u.Id = :other")

	assert.Equal(t, a.QueryHash, b.QueryHash)
	assert.NotEqual(t, a.QueryHash, c.QueryHash)
}

func TestParse_Text(t *testing.T) {
	out, err := runParseCmd(t, "text", "DELETE FROM User u WHERE u.Id = :id")
	require.NoError(t, err)
	assert.Contains(t, out, "query_hash: ")
	assert.Contains(t, out, `"id"`)
}

func TestParse_SyntaxError(t *testing.T) {
	out, err := runParseCmd(t, "text", "SELECT u FROM")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ ")
}

func TestParse_SyntaxErrorJSON(t *testing.T) {
	out, err := runParseCmd(t, "json", "SELECT u FROM")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeQueryFailure, resp.Error.Code)
	assert.Equal(t, map[string]any{"kind": "syntax"}, resp.Error.Details)
}

func TestParse_RequiresOneArgument(t *testing.T) {
	cmd := NewParseCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	require.Error(t, cmd.Execute())
}
