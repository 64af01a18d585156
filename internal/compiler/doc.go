// Package compiler is the entry point for turning CPQL text into
// executable, parameterized SQL.
//
// A Compiler ties together the parser (through a shared parse cache), the
// metadata resolver, the function registry and a default dialect:
//
//	c, err := compiler.New(schema, compiler.WithDialect(dialect.Postgres))
//	stmt, err := c.Compile("SELECT u FROM User u WHERE u.Name = :name")
//	args, err := stmt.Bind(map[string]any{"name": "ann"})
//	rows, err := db.QueryContext(ctx, stmt.SQL, args...)
//
// Compilation is synchronous and atomic: on error no statement is returned.
// A Compiler is safe for concurrent use.
package compiler
