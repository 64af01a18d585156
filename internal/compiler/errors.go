package compiler

import (
	"errors"

	"github.com/roach88/cpql/internal/dialect"
	"github.com/roach88/cpql/internal/parser"
	"github.com/roach88/cpql/internal/sqlgen"
)

// Error kinds reported by ErrorKind. Scenario files and JSON output refer
// to failures by these names.
const (
	KindSyntax               = "syntax"
	KindUnresolvedEntity     = "unresolved_entity"
	KindUnresolvedProperty   = "unresolved_property"
	KindUnknownFunction      = "unknown_function"
	KindUnsupportedConstruct = "unsupported_construct"
	KindMissingFrom          = "missing_from"
	KindUnresolvedParameter  = "unresolved_parameter"
	KindUnboundParameter     = "unbound_parameter"
	KindUnknownDialect       = "unknown_dialect"
	KindInternal             = "internal"
)

// ErrorKind classifies a compile error. It returns "" for a nil error.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, parser.ErrSyntax):
		return KindSyntax
	case errors.Is(err, sqlgen.ErrUnresolvedEntity):
		return KindUnresolvedEntity
	case errors.Is(err, sqlgen.ErrUnresolvedProperty):
		return KindUnresolvedProperty
	case errors.Is(err, sqlgen.ErrUnknownFunction):
		return KindUnknownFunction
	case errors.Is(err, sqlgen.ErrUnsupportedConstruct):
		return KindUnsupportedConstruct
	case errors.Is(err, sqlgen.ErrMissingFromClause):
		return KindMissingFrom
	case errors.Is(err, sqlgen.ErrUnresolvedParameter):
		return KindUnresolvedParameter
	case errors.Is(err, ErrUnboundParameter):
		return KindUnboundParameter
	case dialect.IsUnknownDialect(err):
		return KindUnknownDialect
	default:
		return KindInternal
	}
}
