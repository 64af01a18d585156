package metadata

import (
	"fmt"
	"strings"
)

// Validation error codes (E200-E299)
const (
	ErrCodeEntityName         = "E201" // entity name is required
	ErrCodeDuplicateEntity    = "E202" // entity declared twice
	ErrCodeNoProperties       = "E203" // entity has no properties
	ErrCodeDuplicateProperty  = "E204" // property declared twice
	ErrCodePrimaryKey         = "E205" // primary key is not a declared property
	ErrCodeDuplicateColumn    = "E206" // two properties share a column
	ErrCodeFunctionName       = "E207" // function name is required
	ErrCodeFunctionNoDialects = "E208" // function has no dialect spellings
	ErrCodeDuplicateTable     = "E209" // two entities share a table
)

// ValidationError describes one problem with a schema definition.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks normalized entity and function definitions.
// It reports every problem found rather than stopping at the first.
func Validate(entities []Entity, functions []FunctionDef) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(entities))
	tables := make(map[string]string, len(entities))

	for i, e := range entities {
		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("entities[%d].name", i),
				Message: "entity name is required",
				Code:    ErrCodeEntityName,
			})
			continue
		}
		if seen[e.Name] {
			errs = append(errs, ValidationError{
				Field:   e.Name,
				Message: "entity is declared more than once",
				Code:    ErrCodeDuplicateEntity,
			})
			continue
		}
		seen[e.Name] = true

		if other, ok := tables[e.Table]; ok {
			errs = append(errs, ValidationError{
				Field:   e.Name + ".table",
				Message: fmt.Sprintf("table %q is already mapped by %s", e.Table, other),
				Code:    ErrCodeDuplicateTable,
			})
		} else {
			tables[e.Table] = e.Name
		}

		errs = append(errs, validateProperties(e)...)
	}

	for i, f := range functions {
		if strings.TrimSpace(f.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("functions[%d].name", i),
				Message: "function name is required",
				Code:    ErrCodeFunctionName,
			})
			continue
		}
		if len(f.Dialects) == 0 {
			errs = append(errs, ValidationError{
				Field:   "functions." + f.Name,
				Message: "at least one dialect spelling is required",
				Code:    ErrCodeFunctionNoDialects,
			})
		}
	}

	return errs
}

func validateProperties(e Entity) []ValidationError {
	var errs []ValidationError
	if len(e.Properties) == 0 {
		return []ValidationError{{
			Field:   e.Name + ".properties",
			Message: "at least one property is required",
			Code:    ErrCodeNoProperties,
		}}
	}

	props := make(map[string]bool, len(e.Properties))
	cols := make(map[string]string, len(e.Properties))
	for _, p := range e.Properties {
		if props[p.Name] {
			errs = append(errs, ValidationError{
				Field:   e.Name + "." + p.Name,
				Message: "property is declared more than once",
				Code:    ErrCodeDuplicateProperty,
			})
			continue
		}
		props[p.Name] = true
		if other, ok := cols[p.Column]; ok {
			errs = append(errs, ValidationError{
				Field:   e.Name + "." + p.Name,
				Message: fmt.Sprintf("column %q is already mapped by %s", p.Column, other),
				Code:    ErrCodeDuplicateColumn,
			})
			continue
		}
		cols[p.Column] = p.Name
	}

	if !props[e.PrimaryKey] {
		errs = append(errs, ValidationError{
			Field:   e.Name + ".primary_key",
			Message: fmt.Sprintf("primary key %q is not a declared property", e.PrimaryKey),
			Code:    ErrCodePrimaryKey,
		})
	}
	return errs
}
