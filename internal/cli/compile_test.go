package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cpql/internal/ir"
)

var testSchema = filepath.Join("testdata", "schema.yaml")

func runCompileCmd(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCompile_Text(t *testing.T) {
	out, err := runCompileCmd(t, &RootOptions{Format: "text"},
		"-s", testSchema, "SELECT u FROM User u WHERE u.IsActive = :active")
	require.NoError(t, err)

	assert.Contains(t, out, "SELECT u.* FROM users AS u WHERE u.is_active = @active")
	assert.Contains(t, out, "bindings: active")
	assert.Contains(t, out, "✓ Compiled 1 query(ies) for sqlserver")
}

func TestCompile_JSON(t *testing.T) {
	out, err := runCompileCmd(t, &RootOptions{Format: "json", Dialect: "postgres"},
		"-s", testSchema, "SELECT u FROM User u WHERE u.IsActive = :active")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   CompileResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "postgres", resp.Data.Dialect)
	require.Len(t, resp.Data.Queries, 1)

	stmt := resp.Data.Queries[0].Statement
	require.NotNil(t, stmt)
	assert.Equal(t, "SELECT u.* FROM users AS u WHERE u.is_active = $1", stmt.SQL)
	assert.Equal(t, []string{"active"}, stmt.Bindings)
	assert.Equal(t, []ir.Param{{Name: "active", Placeholder: "$1"}}, stmt.Params)
	assert.Len(t, stmt.ID, 64)
}

func TestCompile_FailureExitsOne(t *testing.T) {
	out, err := runCompileCmd(t, &RootOptions{Format: "text"},
		"-s", testSchema,
		"SELECT u FROM User u WHERE x.Foo = 1",
		"DELETE FROM User u WHERE u.Id = :id",
	)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "unresolved_entity")
	assert.Contains(t, out, `unresolved alias "x"`)
	assert.Contains(t, out, "DELETE FROM users WHERE id = @id")
	assert.Contains(t, out, "✗ 1 of 2 query(ies) failed")
}

func TestCompile_FailureJSON(t *testing.T) {
	out, err := runCompileCmd(t, &RootOptions{Format: "json"},
		"-s", testSchema, "SELECT FROM")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string        `json:"status"`
		Data   CompileResult `json:"data"`
		Error  *CLIError     `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeQueryFailure, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	assert.Equal(t, "syntax", resp.Data.Queries[0].ErrorKind)
}

func TestCompile_NoQueries(t *testing.T) {
	_, err := runCompileCmd(t, &RootOptions{Format: "text"}, "-s", testSchema)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNoQuery)
}

func TestCompile_SchemaNotFound(t *testing.T) {
	out, err := runCompileCmd(t, &RootOptions{Format: "text"},
		"-s", "/nonexistent/schema.yaml", "SELECT u FROM User u")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, out, "schema not found")
}

func TestCompile_InvalidSchema(t *testing.T) {
	out, err := runCompileCmd(t, &RootOptions{Format: "text"},
		"-s", filepath.Join("testdata", "invalid.yaml"), "SELECT u FROM User u")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "validation error(s)")
}

func TestCompile_File(t *testing.T) {
	out, err := runCompileCmd(t, &RootOptions{Format: "json", Dialect: "mysql"},
		"-s", testSchema, "--file", filepath.Join("testdata", "queries.cpql"))
	require.NoError(t, err)

	var resp struct {
		Data CompileResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Queries, 2)
	assert.Equal(t, "SELECT u.* FROM users AS u WHERE u.is_active = ?", resp.Data.Queries[0].Statement.SQL)
	assert.Equal(t, "DELETE FROM users WHERE id = ?", resp.Data.Queries[1].Statement.SQL)
}

func TestCompile_FileNotFound(t *testing.T) {
	_, err := runCompileCmd(t, &RootOptions{Format: "text"},
		"-s", testSchema, "--file", "/nonexistent/queries.cpql")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
}

func TestCompile_OutputFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "statements.json")
	out, err := runCompileCmd(t, &RootOptions{Format: "text"},
		"-s", testSchema, "-o", outputFile,
		"SELECT u FROM User u WHERE u.IsActive = :active",
		"SELECT u FROM User u WHERE nope",
	)
	require.Error(t, err)
	assert.Contains(t, out, "Wrote statements to")

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var stmts []ir.Statement
	require.NoError(t, json.Unmarshal(data, &stmts))
	require.Len(t, stmts, 1)
	assert.Equal(t, "sqlserver", stmts[0].Dialect)
}

func TestCompile_Lint(t *testing.T) {
	out, err := runCompileCmd(t, &RootOptions{Format: "text"},
		"-s", testSchema, "--lint",
		"SELECT c.Name, o.Total FROM Customer c LEFT JOIN Order o ON o.CustomerId = c.Id")
	require.NoError(t, err)
	assert.Contains(t, out, "warning [W302]")
}

func TestCompile_CatalogRecordsRun(t *testing.T) {
	catalog := filepath.Join(t.TempDir(), "catalog.db")
	out, err := runCompileCmd(t, &RootOptions{Format: "text"},
		"-s", testSchema, "--catalog", catalog,
		"SELECT u FROM User u WHERE u.IsActive = :active",
		"SELECT u FROM User u WHERE x.Foo = 1",
	)
	require.Error(t, err)
	assert.Contains(t, out, "Recorded run ")

	// the same catalog is readable by the catalog command
	buf := &bytes.Buffer{}
	cmd := NewCatalogCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{catalog, "--runs"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data CatalogResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data.Runs, 1)
	run := resp.Data.Runs[0]
	assert.Equal(t, int64(1), run.Seq)
	assert.Equal(t, testSchema, run.SchemaSource)

	buf.Reset()
	cmd = NewCatalogCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{catalog, "--run", run.ID})
	require.NoError(t, cmd.Execute())

	resp.Data = CatalogResult{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data.Statements, 1)
	assert.Equal(t, "SELECT u FROM User u WHERE u.IsActive = :active", resp.Data.Statements[0].Query)
	require.Len(t, resp.Data.Failures, 1)
	assert.Contains(t, resp.Data.Failures[0].Error, `unresolved alias "x"`)
}

func TestReadQueryFile_SkipsCommentsAndBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.cpql")
	require.NoError(t, os.WriteFile(path, []byte("-- header\n\n  SELECT u FROM User u  \n# note\n"), 0o644))

	queries, err := readQueryFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT u FROM User u"}, queries)
}
