// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cpql/internal/metadata"
)

// SampleEntities is the entity set most tests compile against.
//
//	User       users       Id Name Email IsActive CreatedAt
//	Customer   customers   Id Name Region
//	Order      orders      Id CustomerId Total Status(order_status)
//	AuditEntry audit_log   EntryKey(pk) Message
func SampleEntities() []metadata.Entity {
	return []metadata.Entity{
		{Name: "User", Properties: props("Id", "Name", "Email", "IsActive", "CreatedAt")},
		{Name: "Customer", Properties: props("Id", "Name", "Region")},
		{Name: "Order", Properties: []metadata.Property{
			{Name: "Id"},
			{Name: "CustomerId"},
			{Name: "Total"},
			{Name: "Status", Column: "order_status"},
		}},
		{
			Name:       "AuditEntry",
			Table:      "audit_log",
			PrimaryKey: "EntryKey",
			Properties: props("EntryKey", "Message"),
		},
	}
}

// SampleSchema builds SampleEntities, failing the test on error.
func SampleSchema(t testing.TB) *metadata.Schema {
	t.Helper()
	s, err := metadata.NewSchema(SampleEntities()...)
	require.NoError(t, err)
	return s
}

func props(names ...string) []metadata.Property {
	out := make([]metadata.Property, len(names))
	for i, n := range names {
		out[i] = metadata.Property{Name: n}
	}
	return out
}
