package metadata

import "github.com/go-openapi/inflect"

// TableNameFor returns the conventional table name for an entity:
// the pluralized snake_case form (Order → orders, OrderLine → order_lines).
func TableNameFor(entity string) string {
	return inflect.Pluralize(inflect.Underscore(entity))
}

// ColumnNameFor returns the conventional column name for a property:
// its snake_case form (CustomerId → customer_id).
func ColumnNameFor(property string) string {
	return inflect.Underscore(property)
}
