package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runValidateCmd(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidate_ValidSchema(t *testing.T) {
	out, err := runValidateCmd(t, &RootOptions{Format: "text"}, testSchema)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Schema valid: 4 entities, 1 functions")
	assert.Contains(t, out, "  - AuditEntry")
}

func TestValidate_ValidSchemaJSON(t *testing.T) {
	out, err := runValidateCmd(t, &RootOptions{Format: "json"}, testSchema)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   ValidateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.ElementsMatch(t, []string{"AuditEntry", "Customer", "Order", "User"}, resp.Data.Entities)
}

func TestValidate_ConfiguredSchema(t *testing.T) {
	out, err := runValidateCmd(t, &RootOptions{Format: "text", Config: &Config{Schema: testSchema}})
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Schema valid")
}

func TestValidate_InvalidSchema(t *testing.T) {
	out, err := runValidateCmd(t, &RootOptions{Format: "text"}, filepath.Join("testdata", "invalid.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ schema has 3 validation error(s)")
}

func TestValidate_InvalidSchemaJSON(t *testing.T) {
	out, err := runValidateCmd(t, &RootOptions{Format: "json"}, filepath.Join("testdata", "invalid.yaml"))
	require.Error(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   ValidateResult `json:"data"`
		Error  *CLIError      `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Len(t, resp.Data.Errors, 3)
	assert.Equal(t, resp.Data.Errors[0].Code, resp.Error.Code)
}

func TestValidate_NotFound(t *testing.T) {
	out, err := runValidateCmd(t, &RootOptions{Format: "text"}, "/nonexistent/schema")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, out, "not found")
}

func TestValidate_NoSchema(t *testing.T) {
	_, err := runValidateCmd(t, &RootOptions{Format: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema given")
}
