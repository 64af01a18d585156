package sqlgen

import (
	"errors"
	"fmt"

	"github.com/roach88/cpql/internal/ast"
	"github.com/roach88/cpql/internal/dialect"
	"github.com/roach88/cpql/internal/metadata"
	"github.com/roach88/cpql/internal/token"
)

// binding is one alias declared by a FROM item or join.
type binding struct {
	name     string // alias, or the entity name when no alias was given
	entity   string
	table    string
	declared bool // an explicit alias was written
	root     bool // declared by a FROM item rather than a join
}

// Scope is the entity mapper of one compilation: the alias table plus
// column resolution through a metadata.Resolver.
//
// A Scope is created per compilation and must not be shared.
type Scope struct {
	resolver  metadata.Resolver
	dialect   *dialect.Dialect
	qualified bool
	bindings  map[string]*binding
	order     []*binding
}

// NewScope returns a scope whose columns are qualified with their alias,
// as in SELECT statements.
func NewScope(r metadata.Resolver, d *dialect.Dialect) *Scope {
	return &Scope{resolver: r, dialect: d, qualified: true, bindings: make(map[string]*binding)}
}

// NewUnqualifiedScope returns a scope that renders bare column names, as
// UPDATE and DELETE statements require.
func NewUnqualifiedScope(r metadata.Resolver, d *dialect.Dialect) *Scope {
	s := NewScope(r, d)
	s.qualified = false
	return s
}

// RegisterAlias binds alias to entity. An empty alias binds the entity
// name itself. root marks FROM items, which bare properties resolve against.
func (s *Scope) RegisterAlias(alias, entity string, root bool, pos token.Position) error {
	name := alias
	if name == "" {
		name = entity
	}
	if _, dup := s.bindings[name]; dup {
		return &UnsupportedConstructError{Construct: "duplicate alias", Detail: fmt.Sprintf("%q", name), Pos: pos}
	}

	table, err := s.TableName(entity, pos)
	if err != nil {
		return err
	}

	b := &binding{name: name, entity: entity, table: table, declared: alias != "", root: root}
	s.bindings[name] = b
	s.order = append(s.order, b)
	return nil
}

// TableName resolves an entity's table.
func (s *Scope) TableName(entity string, pos token.Position) (string, error) {
	table, err := s.resolver.TableName(entity)
	if err != nil {
		return "", s.wrapResolverError(err, entity, "", pos)
	}
	return table, nil
}

// Entity returns the entity bound to alias.
func (s *Scope) Entity(alias string) (string, bool) {
	b, ok := s.bindings[alias]
	if !ok {
		return "", false
	}
	return b.entity, true
}

// ColumnName resolves alias.property to rendered SQL. An empty alias
// resolves against the single FROM item.
func (s *Scope) ColumnName(alias, property string, pos token.Position) (string, error) {
	b, err := s.lookup(alias, property, pos)
	if err != nil {
		return "", err
	}
	return s.column(b, property, pos)
}

// FromSQL renders the table reference for a FROM item or join target.
func (s *Scope) FromSQL(name string) string {
	b := s.bindings[name]
	if b.declared {
		return s.dialect.Ident(b.table) + " AS " + s.dialect.Ident(b.name)
	}
	return s.dialect.Ident(b.table)
}

func (s *Scope) lookup(alias, property string, pos token.Position) (*binding, error) {
	if alias != "" {
		b, ok := s.bindings[alias]
		if !ok {
			return nil, &UnresolvedEntityError{Alias: alias, Reason: "alias is not declared in FROM or JOIN", Pos: pos}
		}
		return b, nil
	}
	var roots []*binding
	for _, b := range s.order {
		if b.root {
			roots = append(roots, b)
		}
	}
	if len(roots) != 1 {
		return nil, &UnresolvedEntityError{Property: property, Reason: "property without alias is ambiguous across several FROM entities", Pos: pos}
	}
	return roots[0], nil
}

// resolvePath renders a member path. Bare names that match a declared
// binding are alias references and render through aliasRef.
func (s *Scope) resolvePath(m *ast.MemberPath, aliasRef func(*binding) (string, error)) (string, error) {
	if m.Alias == "" {
		if b, ok := s.bindings[m.Property]; ok {
			return aliasRef(b)
		}
	}
	return s.ColumnName(m.Alias, m.Property, m.Pos)
}

func (s *Scope) column(b *binding, property string, pos token.Position) (string, error) {
	col, err := s.resolver.ColumnName(b.entity, property)
	if err != nil {
		return "", s.wrapResolverError(err, b.entity, property, pos)
	}
	if !s.qualified {
		return s.dialect.Ident(col), nil
	}
	return s.qualifier(b) + "." + s.dialect.Ident(col), nil
}

func (s *Scope) qualifier(b *binding) string {
	if b.declared {
		return s.dialect.Ident(b.name)
	}
	return s.dialect.Ident(b.table)
}

// star renders b.* for select lists.
func (s *Scope) star(b *binding) string {
	if !s.qualified {
		return "*"
	}
	return s.qualifier(b) + ".*"
}

// primaryKey renders the primary-key column of b.
func (s *Scope) primaryKey(b *binding, pos token.Position) (string, error) {
	pk, err := s.resolver.PrimaryKey(b.entity)
	if err != nil {
		return "", s.wrapResolverError(err, b.entity, "", pos)
	}
	return s.column(b, pk, pos)
}

// isPrimaryKey reports whether property is the primary key of alias' entity.
func (s *Scope) isPrimaryKey(alias, property string, pos token.Position) (bool, error) {
	b, err := s.lookup(alias, property, pos)
	if err != nil {
		return false, err
	}
	pk, err := s.resolver.PrimaryKey(b.entity)
	if err != nil {
		return false, s.wrapResolverError(err, b.entity, "", pos)
	}
	return pk == property, nil
}

func (s *Scope) wrapResolverError(err error, entity, property string, pos token.Position) error {
	switch {
	case errors.Is(err, metadata.ErrUnknownEntity):
		return &UnresolvedEntityError{Entity: entity, Pos: pos, Err: err}
	case errors.Is(err, metadata.ErrUnknownProperty):
		return &UnresolvedPropertyError{Entity: entity, Property: property, Pos: pos, Err: err}
	default:
		return fmt.Errorf("resolve %s: %w", entity, err)
	}
}
