package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// allows the hashed form to change without colliding with old IDs.
const (
	DomainQuery     = "cpql/query/v1"
	DomainStatement = "cpql/statement/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// QueryHash identifies a parsed query independent of its source layout:
// two texts that parse to the same tree share a hash.
func QueryHash(tree map[string]any) (string, error) {
	canonical, err := MarshalCanonical(tree)
	if err != nil {
		return "", fmt.Errorf("QueryHash: %w", err)
	}
	return hashWithDomain(DomainQuery, canonical), nil
}

// StatementID identifies a compiled statement by query hash, dialect and
// the generated SQL with its binding order.
func StatementID(queryHash, dialect, sql string, bindings []string) (string, error) {
	obj := Object{
		"query_hash": String(queryHash),
		"dialect":    String(dialect),
		"sql":        String(sql),
		"bindings":   Strings(bindings),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("StatementID: %w", err)
	}
	return hashWithDomain(DomainStatement, canonical), nil
}

// MustQueryHash is like QueryHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustQueryHash(tree map[string]any) string {
	h, err := QueryHash(tree)
	if err != nil {
		panic(err)
	}
	return h
}
