package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/cpql/internal/cache"
	"github.com/roach88/cpql/internal/compiler"
	"github.com/roach88/cpql/internal/metadata"
	"github.com/roach88/cpql/internal/parser"
)

// schemaPath returns the explicit path or the configured one.
func (o *RootOptions) schemaPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if p := o.config().Schema; p != "" {
		return p, nil
	}
	return "", fmt.Errorf("no schema given and none configured")
}

// loadSchema loads metadata and splits failures into load errors and
// validation errors.
func loadSchema(path string) (*metadata.Schema, []metadata.ValidationError, error) {
	schema, err := metadata.Load(path)
	if err == nil {
		return schema, nil, nil
	}
	if verrs := validationErrors(err); len(verrs) > 0 {
		return nil, verrs, nil
	}
	return nil, nil, err
}

// validationErrors collects every metadata.ValidationError in err's tree.
func validationErrors(err error) []metadata.ValidationError {
	var out []metadata.ValidationError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if ve, ok := e.(metadata.ValidationError); ok {
			out = append(out, ve)
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

// loadFailure reports a schema load failure with its load error code.
func loadFailure(formatter *OutputFormatter, err error) error {
	var le *metadata.LoadError
	if !errors.As(err, &le) {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error())
	}
	msg := le.Message
	if le.File != "" {
		msg = err.Error()
	}
	return formatter.fail(ExitCommandError, le.Code, msg)
}

// newCompiler builds a compiler for a schema with the configured dialect
// and cache bound.
func (o *RootOptions) newCompiler(schema *metadata.Schema, logger *slog.Logger) (*compiler.Compiler, error) {
	d, err := o.dialect()
	if err != nil {
		return nil, err
	}
	var cacheOpts []cache.Option
	if n := o.config().CacheSize; n > 0 {
		cacheOpts = append(cacheOpts, cache.WithMaxEntries(n))
	}
	return compiler.New(schema,
		compiler.WithDialect(d.Name()),
		compiler.WithCache(cache.New(parser.Parse, cacheOpts...)),
		compiler.WithLogger(logger),
	)
}
