package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cpql/internal/ir"
	"github.com/roach88/cpql/internal/testutil"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"), WithIDGenerator(testutil.NewSequentialIDGenerator("run")))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleStatement(query, dialect, sql string, bindings ...string) ir.Statement {
	qh := ir.MustQueryHash(map[string]any{"query": query})
	params := []ir.Param{}
	seen := map[string]bool{}
	for _, b := range bindings {
		if !seen[b] {
			seen[b] = true
			params = append(params, ir.Param{Name: b, Placeholder: "@" + b})
		}
	}
	if bindings == nil {
		bindings = []string{}
	}
	id, err := ir.StatementID(qh, dialect, sql, bindings)
	if err != nil {
		panic(err)
	}
	return ir.Statement{
		ID:        id,
		QueryHash: qh,
		Query:     query,
		Dialect:   dialect,
		SQL:       sql,
		Params:    params,
		Bindings:  bindings,
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := createTestStore(t)

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"foreign_keys": "1",
		"busy_timeout": "5000",
		"user_version": "1",
	} {
		got, err := s.pragma(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	s, err := Open(path)
	require.NoError(t, err)
	stmt := sampleStatement("SELECT u FROM User u", "sqlserver", "SELECT u.* FROM users AS u")
	require.NoError(t, s.WriteStatement(testContext(t), "", stmt))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.ReadStatement(testContext(t), stmt.ID)
	require.NoError(t, err)
	assert.Equal(t, stmt, got)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.DB().Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestClose_NilDB(t *testing.T) {
	var s Store
	assert.NoError(t, s.Close())
}

func TestUUIDGenerator_ProducesVersion7(t *testing.T) {
	id := uuidGenerator{}.Generate()
	require.Len(t, id, 36)
	assert.Equal(t, byte('7'), id[14])
}
