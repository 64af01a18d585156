// Package harness runs YAML compile scenarios against the compiler.
//
// A scenario names a schema, the dialects to compile for, and a list of
// query cases with their expected outcome. Assertions then check the
// compiled statements as a whole.
//
// # Scenario Format
//
//	name: active_users
//	description: "Filtering users by flag"
//	schema: ../schema.yaml
//	dialects: [sqlserver, postgres]
//	fixture:
//	  - CREATE TABLE users (id INTEGER PRIMARY KEY, is_active INTEGER)
//	  - INSERT INTO users VALUES (1, 1), (2, 0)
//	cases:
//	  - name: active
//	    query: "SELECT u FROM User u WHERE u.IsActive = :active"
//	    expect:
//	      sql:
//	        sqlserver: "SELECT u.* FROM users AS u WHERE u.is_active = @active"
//	      params: [active]
//	  - name: ghost
//	    query: "SELECT g FROM Ghost g"
//	    expect:
//	      error: unresolved_entity
//	assertions:
//	  - type: sql_contains
//	    case: active
//	    dialect: postgres
//	    text: "$1"
//	  - type: row_count
//	    case: active
//	    args: { active: 1 }
//	    count: 1
//
// Schema paths are resolved relative to the scenario file.
//
// # Assertion Types
//
//   - sql_contains: the case's SQL for a dialect contains text
//   - bindings: the case's binding order for a dialect
//   - same_statement: several cases compile to the same query hash
//   - portable: the case's portability verdict
//   - lint_code: the case raises a given portability warning
//   - row_count: the SQLite statement returns count rows against the fixture
//
// # Golden Snapshots
//
// RunWithGolden serializes every output as canonical JSON and compares it
// with testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
