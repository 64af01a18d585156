// Package store provides the SQLite-backed statement catalog.
//
// The catalog records compiled statements so they can be reviewed, diffed
// between releases, or shipped to services that execute SQL without
// compiling CPQL themselves:
//   - statements: one row per content-addressed statement ID
//   - runs: one row per compile invocation (UUIDv7 IDs)
//   - run_statements: which statements a run produced, in order
//   - run_failures: queries that failed to compile in a run
//
// # Ordering
//
// Reads are deterministic. Run membership is ordered by seq; catalog
// listings by dialect, query text and ID (COLLATE BINARY).
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
