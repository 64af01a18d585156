// Package metadata describes how entities map onto relational tables.
//
// The compiler never inspects Go types at runtime. Every entity, its table,
// its properties and their columns are plain data, supplied either in code
// through NewSchema or loaded from a YAML or CUE file:
//
//	schema, err := metadata.Load("schema.yaml")
//	table, err := schema.TableName("User") // "users"
//
// Names that are not spelled out follow a naming convention: tables are the
// pluralized snake_case entity name and columns are the snake_case property
// name.
//
// Resolver is the only interface the SQL generators depend on, so any other
// metadata source (an ORM registry, a service catalog) can be plugged in.
package metadata
