// Package ir holds the canonical, hashable representation of compiled
// statements.
//
// Every compiled statement has a content-addressed identity: the SHA-256 of
// its canonical JSON form under a versioned domain prefix. The same query
// text compiled for the same dialect always yields the same ID, which is
// what the statement catalog and golden tests key on.
//
// Key constraints:
//   - No floats or nulls in canonical values
//   - All JSON tags use snake_case
//   - ir imports nothing internal
package ir
