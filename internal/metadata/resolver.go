package metadata

import "errors"

var (
	// ErrUnknownEntity is returned when no metadata exists for an entity name.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrUnknownProperty is returned when an entity has no such property.
	ErrUnknownProperty = errors.New("unknown property")
)

// Resolver maps entities and properties to tables and columns.
//
// Implementations must be safe for concurrent use and must fail with an
// error wrapping ErrUnknownEntity or ErrUnknownProperty so callers can tell
// the two apart with errors.Is.
type Resolver interface {
	// TableName returns the table an entity is stored in.
	TableName(entity string) (string, error)

	// ColumnName returns the column backing entity.property.
	ColumnName(entity, property string) (string, error)

	// PrimaryKey returns the name of the entity's primary-key property.
	PrimaryKey(entity string) (string, error)
}
