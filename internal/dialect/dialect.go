// Package dialect describes the SQL variants the compiler can target.
//
// A Dialect controls everything about the output that varies between
// database engines except function spellings, which live in the function
// registry: placeholder markers, identifier quoting, literal syntax and
// which join types are available.
package dialect

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Name identifies a dialect. It is the canonical spelling used in
// registries, statements and the catalog.
type Name string

const (
	SQLServer Name = "sqlserver"
	Postgres  Name = "postgres"
	MySQL     Name = "mysql"
	SQLite    Name = "sqlite"
)

// Default is the dialect used when none is configured.
const Default = SQLServer

// PlaceholderStyle is how parameters are marked in SQL text.
type PlaceholderStyle int

const (
	// PlaceholderNamed renders @name; repeated names share one placeholder.
	PlaceholderNamed PlaceholderStyle = iota
	// PlaceholderNumbered renders $1, $2, ...; repeated names share a number.
	PlaceholderNumbered
	// PlaceholderPositional renders ?; every occurrence is bound separately.
	PlaceholderPositional
)

// ErrUnknownDialect is matched by every *UnknownDialectError.
var ErrUnknownDialect = errors.New("unknown dialect")

// UnknownDialectError reports a dialect name that Lookup does not recognize.
type UnknownDialectError struct {
	Name string
}

func (e *UnknownDialectError) Error() string {
	return fmt.Sprintf("unknown dialect %q (want sqlserver, postgres, mysql or sqlite)", e.Name)
}

// Is reports whether target is ErrUnknownDialect.
func (e *UnknownDialectError) Is(target error) bool {
	return target == ErrUnknownDialect
}

// IsUnknownDialect reports whether err is or wraps an *UnknownDialectError.
func IsUnknownDialect(err error) bool {
	var ude *UnknownDialectError
	return errors.As(err, &ude)
}

// Dialect is the rendering configuration of one SQL variant.
// Dialects are immutable values shared by all compilations.
type Dialect struct {
	name        Name
	placeholder PlaceholderStyle
	quote       func(string) string
	quoteString func(string) string
	trueLit     string
	falseLit    string
	boolType    bool
	fullJoin    bool
	reserved    map[string]bool
}

// Name returns the canonical dialect name.
func (d *Dialect) Name() Name { return d.name }

// String implements fmt.Stringer.
func (d *Dialect) String() string { return string(d.name) }

// Placeholder returns the placeholder style.
func (d *Dialect) Placeholder() PlaceholderStyle { return d.placeholder }

// PlaceholderFor renders the marker for a parameter. ordinal is the
// 1-based position of the parameter's first appearance.
func (d *Dialect) PlaceholderFor(name string, ordinal int) string {
	switch d.placeholder {
	case PlaceholderNumbered:
		return "$" + strconv.Itoa(ordinal)
	case PlaceholderPositional:
		return "?"
	default:
		return "@" + name
	}
}

// SupportsJoin reports whether the dialect can render the join type.
// Join types are the upper-case keywords INNER, LEFT, RIGHT and FULL.
func (d *Dialect) SupportsJoin(joinType string) bool {
	switch joinType {
	case "INNER", "LEFT", "RIGHT":
		return true
	case "FULL":
		return d.fullJoin
	default:
		return false
	}
}

// Bool renders a boolean literal.
func (d *Dialect) Bool(v bool) string {
	if v {
		return d.trueLit
	}
	return d.falseLit
}

// BoolPredicate renders a boolean constant where a search condition is
// expected. Dialects without a boolean type spell it as a comparison.
func (d *Dialect) BoolPredicate(v bool) string {
	switch {
	case d.boolType:
		return d.Bool(v)
	case v:
		return "1 = 1"
	default:
		return "1 = 0"
	}
}

// QuoteString renders a string literal. Only constants from query text
// pass through here.
func (d *Dialect) QuoteString(s string) string {
	return d.quoteString(s)
}

var bareIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Ident renders a table, column or alias name, quoting it only when it is
// not a plain identifier or collides with a reserved word.
func (d *Dialect) Ident(name string) string {
	if bareIdent.MatchString(name) && !d.reserved[strings.ToUpper(name)] {
		return name
	}
	return d.quote(name)
}

// QuoteIdent always quotes name.
func (d *Dialect) QuoteIdent(name string) string {
	return d.quote(name)
}

var (
	sqlServer = &Dialect{
		name:        SQLServer,
		placeholder: PlaceholderNamed,
		quote:       bracketQuote,
		quoteString: singleQuote,
		trueLit:     "1",
		falseLit:    "0",
		fullJoin:    true,
		reserved:    reservedWords("TOP", "IDENTITY", "FILE", "PERCENT", "PLAN", "TRAN"),
	}
	postgres = &Dialect{
		name:        Postgres,
		placeholder: PlaceholderNumbered,
		quote:       pq.QuoteIdentifier,
		quoteString: postgresString,
		trueLit:     "TRUE",
		falseLit:    "FALSE",
		boolType:    true,
		fullJoin:    true,
		reserved:    reservedWords("ANALYSE", "ANALYZE", "ARRAY", "LIMIT", "OFFSET", "RETURNING", "USER"),
	}
	mysql = &Dialect{
		name:        MySQL,
		placeholder: PlaceholderPositional,
		quote:       backtickQuote,
		quoteString: mysqlString,
		trueLit:     "TRUE",
		falseLit:    "FALSE",
		boolType:    true,
		fullJoin:    false,
		reserved:    reservedWords("KEY", "LIMIT", "RANGE", "RANK", "READ", "USAGE"),
	}
	sqlite = &Dialect{
		name:        SQLite,
		placeholder: PlaceholderNamed,
		quote:       doubleQuote,
		quoteString: singleQuote,
		trueLit:     "1",
		falseLit:    "0",
		fullJoin:    true,
		reserved:    reservedWords("ABORT", "INDEX", "LIMIT", "OFFSET", "PRAGMA", "TRANSACTION"),
	}
)

var aliases = map[string]*Dialect{
	"sqlserver":  sqlServer,
	"mssql":      sqlServer,
	"postgres":   postgres,
	"postgresql": postgres,
	"mysql":      mysql,
	"sqlite":     sqlite,
	"sqlite3":    sqlite,
}

// Lookup returns the dialect for a name (case-insensitive). The empty
// name selects Default.
func Lookup(name string) (*Dialect, error) {
	if name == "" {
		name = string(Default)
	}
	d, ok := aliases[strings.ToLower(name)]
	if !ok {
		return nil, &UnknownDialectError{Name: name}
	}
	return d, nil
}

// MustLookup is like Lookup but panics on unknown names.
func MustLookup(name Name) *Dialect {
	d, err := Lookup(string(name))
	if err != nil {
		panic(err)
	}
	return d
}

// All returns every supported dialect in a fixed order.
func All() []*Dialect {
	return []*Dialect{sqlServer, postgres, mysql, sqlite}
}

// common words reserved in every supported dialect.
var commonReserved = []string{
	"ALL", "AND", "AS", "ASC", "BETWEEN", "BY", "CASE", "CHECK", "COLUMN", "CONSTRAINT",
	"CREATE", "CROSS", "DEFAULT", "DELETE", "DESC", "DISTINCT", "DROP", "ELSE", "END",
	"EXISTS", "FALSE", "FOR", "FOREIGN", "FROM", "FULL", "GRANT", "GROUP", "HAVING", "IN",
	"INNER", "INSERT", "INTO", "IS", "JOIN", "KEY", "LEFT", "LIKE", "NOT", "NULL", "ON",
	"OR", "ORDER", "OUTER", "PRIMARY", "REFERENCES", "RIGHT", "SELECT", "SET", "TABLE",
	"THEN", "TO", "TRUE", "UNION", "UNIQUE", "UPDATE", "USING", "VALUES", "WHEN", "WHERE", "WITH",
}

func reservedWords(extra ...string) map[string]bool {
	m := make(map[string]bool, len(commonReserved)+len(extra))
	for _, w := range commonReserved {
		m[w] = true
	}
	for _, w := range extra {
		m[w] = true
	}
	return m
}

func bracketQuote(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}

func backtickQuote(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func doubleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// mysqlString quotes s for MySQL, where a backslash escapes the next
// character. Backslashes are doubled before quotes.
func mysqlString(s string) string {
	if !strings.ContainsAny(s, `'\`) {
		return "'" + s + "'"
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// postgresString uses pq's literal quoting, which switches to the E-prefixed
// escape form when the literal contains backslashes.
func postgresString(s string) string {
	return strings.TrimSpace(pq.QuoteLiteral(s))
}
