package sqlgen

import (
	"errors"
	"fmt"

	"github.com/roach88/cpql/internal/dialect"
	"github.com/roach88/cpql/internal/token"
)

// Sentinel errors matched by the typed errors below via errors.Is.
var (
	ErrUnresolvedEntity     = errors.New("unresolved entity")
	ErrUnresolvedProperty   = errors.New("unresolved property")
	ErrUnknownFunction      = errors.New("unknown function")
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	ErrMissingFromClause    = errors.New("missing FROM clause")
	ErrUnresolvedParameter  = errors.New("unresolved parameter")
)

func at(pos token.Position) string {
	if pos.IsValid() {
		return pos.String() + ": "
	}
	return ""
}

// UnresolvedEntityError reports an entity without metadata, an alias that
// was never declared, or a bare property that cannot be attributed to a
// single entity.
type UnresolvedEntityError struct {
	Entity   string
	Alias    string
	Property string // set for bare properties that match no single entity
	Reason   string
	Pos      token.Position
	Err      error
}

func (e *UnresolvedEntityError) Error() string {
	var subject string
	switch {
	case e.Entity != "":
		subject = fmt.Sprintf("entity %q", e.Entity)
	case e.Alias != "":
		subject = fmt.Sprintf("alias %q", e.Alias)
	default:
		subject = fmt.Sprintf("entity for property %q", e.Property)
	}
	msg := fmt.Sprintf("%sunresolved %s", at(e.Pos), subject)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrUnresolvedEntity.
func (e *UnresolvedEntityError) Is(target error) bool { return target == ErrUnresolvedEntity }

// Unwrap returns the resolver error, if any.
func (e *UnresolvedEntityError) Unwrap() error { return e.Err }

// UnresolvedPropertyError reports a property the entity does not have.
type UnresolvedPropertyError struct {
	Entity   string
	Property string
	Pos      token.Position
	Err      error
}

func (e *UnresolvedPropertyError) Error() string {
	msg := fmt.Sprintf("%sunresolved property %s.%s", at(e.Pos), e.Entity, e.Property)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrUnresolvedProperty.
func (e *UnresolvedPropertyError) Is(target error) bool { return target == ErrUnresolvedProperty }

// Unwrap returns the resolver error, if any.
func (e *UnresolvedPropertyError) Unwrap() error { return e.Err }

// UnknownFunctionError reports a function with no spelling for the dialect.
type UnknownFunctionError struct {
	Name    string
	Dialect dialect.Name
	Pos     token.Position
	Err     error
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("%sunknown function %s for dialect %s", at(e.Pos), e.Name, e.Dialect)
}

// Is reports whether target is ErrUnknownFunction.
func (e *UnknownFunctionError) Is(target error) bool { return target == ErrUnknownFunction }

// Unwrap returns the registry error.
func (e *UnknownFunctionError) Unwrap() error { return e.Err }

// UnsupportedConstructError reports a query shape with no generation rule,
// either at all or for the active dialect.
type UnsupportedConstructError struct {
	Construct string
	Detail    string
	Dialect   dialect.Name
	Pos       token.Position
	Err       error
}

func (e *UnsupportedConstructError) Error() string {
	msg := fmt.Sprintf("%sunsupported construct: %s", at(e.Pos), e.Construct)
	if e.Detail != "" {
		msg += " " + e.Detail
	}
	if e.Dialect != "" {
		msg += " (dialect " + string(e.Dialect) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrUnsupportedConstruct.
func (e *UnsupportedConstructError) Is(target error) bool { return target == ErrUnsupportedConstruct }

// Unwrap returns the underlying cause, if any.
func (e *UnsupportedConstructError) Unwrap() error { return e.Err }

// MissingFromClauseError reports a SELECT without FROM items.
type MissingFromClauseError struct{}

func (e *MissingFromClauseError) Error() string {
	return "SELECT query has no FROM clause"
}

// Is reports whether target is ErrMissingFromClause.
func (e *MissingFromClauseError) Is(target error) bool { return target == ErrMissingFromClause }

// UnresolvedParameterError reports a parameter carrying neither a name nor
// a valid index, or an indexed parameter whose binding key is already taken
// by a named parameter (?1 next to :p1). Key is empty in the first case.
type UnresolvedParameterError struct {
	Key string
	Pos token.Position
}

func (e *UnresolvedParameterError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%sindexed parameter collides with named parameter :%s", at(e.Pos), e.Key)
	}
	return fmt.Sprintf("%sparameter has neither a name nor an index", at(e.Pos))
}

// Is reports whether target is ErrUnresolvedParameter.
func (e *UnresolvedParameterError) Is(target error) bool { return target == ErrUnresolvedParameter }

// IsUnresolvedEntity reports whether err is or wraps an *UnresolvedEntityError.
func IsUnresolvedEntity(err error) bool {
	var e *UnresolvedEntityError
	return errors.As(err, &e)
}

// IsUnresolvedProperty reports whether err is or wraps an *UnresolvedPropertyError.
func IsUnresolvedProperty(err error) bool {
	var e *UnresolvedPropertyError
	return errors.As(err, &e)
}

// IsUnknownFunction reports whether err is or wraps an *UnknownFunctionError.
func IsUnknownFunction(err error) bool {
	var e *UnknownFunctionError
	return errors.As(err, &e)
}

// IsUnsupportedConstruct reports whether err is or wraps an *UnsupportedConstructError.
func IsUnsupportedConstruct(err error) bool {
	var e *UnsupportedConstructError
	return errors.As(err, &e)
}

// IsMissingFromClause reports whether err is or wraps a *MissingFromClauseError.
func IsMissingFromClause(err error) bool {
	var e *MissingFromClauseError
	return errors.As(err, &e)
}

// IsUnresolvedParameter reports whether err is or wraps an *UnresolvedParameterError.
func IsUnresolvedParameter(err error) bool {
	var e *UnresolvedParameterError
	return errors.As(err, &e)
}
