package metadata

import (
	"errors"
	"fmt"
	"sort"
)

// Entity describes one mapped entity.
//
// Table and Property.Column may be left empty; the naming convention fills
// them in when the schema is built. PrimaryKey defaults to a property named
// "Id" (or "ID") when one exists, otherwise to the first property.
type Entity struct {
	Name       string     `yaml:"name" json:"name"`
	Table      string     `yaml:"table,omitempty" json:"table"`
	PrimaryKey string     `yaml:"primary_key,omitempty" json:"primary_key"`
	Properties []Property `yaml:"properties" json:"properties"`
}

// Property maps one entity property to its column.
type Property struct {
	Name   string `yaml:"name" json:"name"`
	Column string `yaml:"column,omitempty" json:"column"`
}

// FunctionDef declares an extra function-registry entry supplied by a
// metadata file. Dialects maps dialect names to the SQL spelling. Infix
// spellings are rendered between the two arguments.
type FunctionDef struct {
	Name     string            `yaml:"name" json:"name"`
	Infix    bool              `yaml:"infix,omitempty" json:"infix,omitempty"`
	Dialects map[string]string `yaml:"dialects" json:"dialects"`
}

// Schema is an explicit, immutable metadata table. It implements Resolver.
type Schema struct {
	entities  map[string]*Entity
	columns   map[string]map[string]string
	order     []string
	functions []FunctionDef
}

var _ Resolver = (*Schema)(nil)

// NewSchema validates the entities, applies naming conventions to
// everything left unspecified and returns the resulting schema.
func NewSchema(entities ...Entity) (*Schema, error) {
	return build(entities, nil)
}

// WithFunctions returns a copy of s carrying extra function definitions.
func (s *Schema) WithFunctions(defs ...FunctionDef) (*Schema, error) {
	entities := make([]Entity, 0, len(s.order))
	for _, name := range s.order {
		entities = append(entities, *s.entities[name])
	}
	return build(entities, append(append([]FunctionDef(nil), s.functions...), defs...))
}

func build(entities []Entity, functions []FunctionDef) (*Schema, error) {
	normalized := make([]Entity, len(entities))
	for i, e := range entities {
		normalized[i] = normalize(e)
	}

	if errs := Validate(normalized, functions); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i := range errs {
			joined[i] = errs[i]
		}
		return nil, fmt.Errorf("invalid schema: %w", errors.Join(joined...))
	}

	s := &Schema{
		entities:  make(map[string]*Entity, len(normalized)),
		columns:   make(map[string]map[string]string, len(normalized)),
		functions: functions,
	}
	for i := range normalized {
		e := &normalized[i]
		s.entities[e.Name] = e
		s.order = append(s.order, e.Name)
		cols := make(map[string]string, len(e.Properties))
		for _, p := range e.Properties {
			cols[p.Name] = p.Column
		}
		s.columns[e.Name] = cols
	}
	return s, nil
}

// normalize fills in conventional table, column and primary-key names.
func normalize(e Entity) Entity {
	out := Entity{
		Name:       e.Name,
		Table:      e.Table,
		PrimaryKey: e.PrimaryKey,
		Properties: make([]Property, len(e.Properties)),
	}
	if out.Table == "" && out.Name != "" {
		out.Table = TableNameFor(out.Name)
	}
	for i, p := range e.Properties {
		if p.Column == "" {
			p.Column = ColumnNameFor(p.Name)
		}
		out.Properties[i] = p
	}
	if out.PrimaryKey == "" {
		out.PrimaryKey = defaultPrimaryKey(out.Properties)
	}
	return out
}

func defaultPrimaryKey(props []Property) string {
	for _, p := range props {
		if p.Name == "Id" || p.Name == "ID" {
			return p.Name
		}
	}
	if len(props) > 0 {
		return props[0].Name
	}
	return ""
}

// TableName implements Resolver.
func (s *Schema) TableName(entity string) (string, error) {
	e, ok := s.entities[entity]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	return e.Table, nil
}

// ColumnName implements Resolver.
func (s *Schema) ColumnName(entity, property string) (string, error) {
	cols, ok := s.columns[entity]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	col, ok := cols[property]
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrUnknownProperty, entity, property)
	}
	return col, nil
}

// PrimaryKey implements Resolver.
func (s *Schema) PrimaryKey(entity string) (string, error) {
	e, ok := s.entities[entity]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	return e.PrimaryKey, nil
}

// Entity returns a copy of the named entity's normalized definition.
func (s *Schema) Entity(name string) (Entity, bool) {
	e, ok := s.entities[name]
	if !ok {
		return Entity{}, false
	}
	cp := *e
	cp.Properties = append([]Property(nil), e.Properties...)
	return cp, true
}

// Entities returns every entity in declaration order.
func (s *Schema) Entities() []Entity {
	out := make([]Entity, 0, len(s.order))
	for _, name := range s.order {
		e, _ := s.Entity(name)
		out = append(out, e)
	}
	return out
}

// EntityNames returns the entity names sorted alphabetically.
func (s *Schema) EntityNames() []string {
	names := append([]string(nil), s.order...)
	sort.Strings(names)
	return names
}

// Functions returns the extra function definitions declared with the schema.
func (s *Schema) Functions() []FunctionDef {
	return append([]FunctionDef(nil), s.functions...)
}
