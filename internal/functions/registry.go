// Package functions maps logical CPQL function names to the SQL each
// dialect spells them as.
//
// A missing entry is always an error: the registry never passes a logical
// name through unchanged, since that would emit SQL the target database
// may not understand.
package functions

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/cpql/internal/dialect"
	"github.com/roach88/cpql/internal/metadata"
)

var (
	// ErrUnknownFunction is returned when a function has no spelling for a dialect.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrInvalidCall is returned when arguments do not fit a spelling,
	// such as an infix operator called with one argument.
	ErrInvalidCall = errors.New("invalid function call")

	// ErrFrozen is returned by Register on the shared default registry.
	ErrFrozen = errors.New("registry is read-only")
)

// Form is how a spelling is rendered.
type Form int

const (
	// Call renders NAME(arg, ...).
	Call Form = iota
	// Infix renders (arg OP arg ...).
	Infix
	// Niladic renders NAME with no parentheses and accepts no arguments.
	Niladic
)

// Spelling is one dialect's rendering of a logical function.
type Spelling struct {
	Name string
	Form Form
}

// Fn is a function-call spelling.
func Fn(name string) Spelling { return Spelling{Name: name, Form: Call} }

// Op is an infix-operator spelling.
func Op(op string) Spelling { return Spelling{Name: op, Form: Infix} }

// Bare is a niladic spelling such as CURRENT_TIMESTAMP.
func Bare(name string) Spelling { return Spelling{Name: name, Form: Niladic} }

// Render renders the call with already generated argument SQL.
// star renders COUNT(*)-style calls; distinct prefixes the arguments.
func (s Spelling) Render(args []string, distinct, star bool) (string, error) {
	switch s.Form {
	case Infix:
		if star || distinct {
			return "", fmt.Errorf("%w: operator %s does not take * or DISTINCT", ErrInvalidCall, s.Name)
		}
		if len(args) < 2 {
			return "", fmt.Errorf("%w: operator %s needs at least two operands, got %d", ErrInvalidCall, s.Name, len(args))
		}
		return "(" + strings.Join(args, " "+s.Name+" ") + ")", nil
	case Niladic:
		if star || distinct || len(args) > 0 {
			return "", fmt.Errorf("%w: %s takes no arguments", ErrInvalidCall, s.Name)
		}
		return s.Name, nil
	default:
		if star {
			if len(args) > 0 {
				return "", fmt.Errorf("%w: %s(*) takes no other arguments", ErrInvalidCall, s.Name)
			}
			return s.Name + "(*)", nil
		}
		prefix := ""
		if distinct {
			if len(args) == 0 {
				return "", fmt.Errorf("%w: %s(DISTINCT) needs an argument", ErrInvalidCall, s.Name)
			}
			prefix = "DISTINCT "
		}
		return s.Name + "(" + prefix + strings.Join(args, ", ") + ")", nil
	}
}

// Registry is a per-dialect function table. Lookups are case-insensitive.
// A Registry is safe for concurrent reads once callers stop registering.
type Registry struct {
	entries map[string]map[dialect.Name]Spelling
	frozen  bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]map[dialect.Name]Spelling)}
}

// Register adds or replaces the spelling of name for one dialect.
func (r *Registry) Register(name string, d dialect.Name, s Spelling) error {
	if r.frozen {
		return ErrFrozen
	}
	key := strings.ToUpper(name)
	if key == "" {
		return fmt.Errorf("%w: empty function name", ErrInvalidCall)
	}
	m, ok := r.entries[key]
	if !ok {
		m = make(map[dialect.Name]Spelling)
		r.entries[key] = m
	}
	m[d] = s
	return nil
}

// RegisterAll registers the same spelling for every supported dialect.
func (r *Registry) RegisterAll(name string, s Spelling) error {
	for _, d := range dialect.All() {
		if err := r.Register(name, d.Name(), s); err != nil {
			return err
		}
	}
	return nil
}

// Apply registers function definitions loaded with a schema.
// Dialect names go through dialect.Lookup, so aliases such as mssql work.
func (r *Registry) Apply(defs ...metadata.FunctionDef) error {
	for _, def := range defs {
		names := make([]string, 0, len(def.Dialects))
		for name := range def.Dialects {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			d, err := dialect.Lookup(name)
			if err != nil {
				return fmt.Errorf("function %s: %w", def.Name, err)
			}
			s := Fn(def.Dialects[name])
			if def.Infix {
				s = Op(def.Dialects[name])
			}
			if err := r.Register(def.Name, d.Name(), s); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsRegistered reports whether name has a spelling for at least one dialect.
func (r *Registry) IsRegistered(name string) bool {
	return len(r.entries[strings.ToUpper(name)]) > 0
}

// SQLFunction returns the spelling of name for dialect d.
func (r *Registry) SQLFunction(name string, d dialect.Name) (Spelling, error) {
	m, ok := r.entries[strings.ToUpper(name)]
	if !ok {
		return Spelling{}, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	s, ok := m[d]
	if !ok {
		return Spelling{}, fmt.Errorf("%w: %s has no %s spelling", ErrUnknownFunction, name, d)
	}
	return s, nil
}

// Names returns the registered logical names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a mutable deep copy.
func (r *Registry) Clone() *Registry {
	c := New()
	for name, m := range r.entries {
		cm := make(map[dialect.Name]Spelling, len(m))
		for d, s := range m {
			cm[d] = s
		}
		c.entries[name] = cm
	}
	return c
}

var defaultRegistry = newDefault()

// Default returns the shared built-in registry. It is read-only; use Clone
// to extend it.
func Default() *Registry {
	return defaultRegistry
}

func newDefault() *Registry {
	r := New()
	for _, name := range []string{"UPPER", "LOWER", "TRIM", "ABS", "COALESCE", "COUNT", "SUM", "AVG", "MIN", "MAX"} {
		mustRegister(r.RegisterAll(name, Fn(name)))
	}

	perDialect := map[string]map[dialect.Name]Spelling{
		"LENGTH": {
			dialect.SQLServer: Fn("LEN"),
			dialect.Postgres:  Fn("LENGTH"),
			dialect.MySQL:     Fn("CHAR_LENGTH"),
			dialect.SQLite:    Fn("LENGTH"),
		},
		"SUBSTRING": {
			dialect.SQLServer: Fn("SUBSTRING"),
			dialect.Postgres:  Fn("SUBSTRING"),
			dialect.MySQL:     Fn("SUBSTRING"),
			dialect.SQLite:    Fn("SUBSTR"),
		},
		"CONCAT": {
			dialect.SQLServer: Fn("CONCAT"),
			dialect.Postgres:  Fn("CONCAT"),
			dialect.MySQL:     Fn("CONCAT"),
			dialect.SQLite:    Op("||"),
		},
		"NOW": {
			dialect.SQLServer: Fn("GETDATE"),
			dialect.Postgres:  Fn("NOW"),
			dialect.MySQL:     Fn("NOW"),
			dialect.SQLite:    Bare("CURRENT_TIMESTAMP"),
		},
		"MOD": {
			dialect.SQLServer: Op("%"),
			dialect.Postgres:  Fn("MOD"),
			dialect.MySQL:     Fn("MOD"),
			dialect.SQLite:    Op("%"),
		},
		// SQL Server has no regular-expression operator.
		"REGEXP": {
			dialect.Postgres: Op("~"),
			dialect.MySQL:    Op("REGEXP"),
			dialect.SQLite:   Op("REGEXP"),
		},
	}
	for name, spellings := range perDialect {
		for d, s := range spellings {
			mustRegister(r.Register(name, d, s))
		}
	}

	r.frozen = true
	return r
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}
