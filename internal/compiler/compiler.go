package compiler

import (
	"fmt"
	"log/slog"

	"github.com/roach88/cpql/internal/ast"
	"github.com/roach88/cpql/internal/cache"
	"github.com/roach88/cpql/internal/dialect"
	"github.com/roach88/cpql/internal/functions"
	"github.com/roach88/cpql/internal/ir"
	"github.com/roach88/cpql/internal/metadata"
	"github.com/roach88/cpql/internal/parser"
	"github.com/roach88/cpql/internal/sqlgen"
)

// Compiler compiles CPQL text against one resolver.
type Compiler struct {
	resolver metadata.Resolver
	dialect  *dialect.Dialect
	registry *functions.Registry
	cache    *cache.QueryCache
	logger   *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler) error

// WithDialect sets the default dialect by name.
func WithDialect(name dialect.Name) Option {
	return func(c *Compiler) error {
		d, err := dialect.Lookup(string(name))
		if err != nil {
			return err
		}
		c.dialect = d
		return nil
	}
}

// WithRegistry replaces the built-in function registry.
func WithRegistry(r *functions.Registry) Option {
	return func(c *Compiler) error {
		c.registry = r
		return nil
	}
}

// WithCache shares a parse cache between compilers.
func WithCache(qc *cache.QueryCache) Option {
	return func(c *Compiler) error {
		c.cache = qc
		return nil
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) error {
		c.logger = l
		return nil
	}
}

// functionSource is implemented by resolvers that carry extra function
// definitions, such as *metadata.Schema.
type functionSource interface {
	Functions() []metadata.FunctionDef
}

// New returns a compiler. When the resolver carries function definitions
// they are registered on a copy of the registry.
func New(resolver metadata.Resolver, opts ...Option) (*Compiler, error) {
	if resolver == nil {
		return nil, fmt.Errorf("compiler: resolver is required")
	}
	c := &Compiler{
		resolver: resolver,
		dialect:  dialect.MustLookup(dialect.Default),
		registry: functions.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("compiler: %w", err)
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.cache == nil {
		c.cache = cache.New(parser.Parse)
	}

	if src, ok := resolver.(functionSource); ok {
		if defs := src.Functions(); len(defs) > 0 {
			reg := c.registry.Clone()
			if err := reg.Apply(defs...); err != nil {
				return nil, fmt.Errorf("compiler: schema functions: %w", err)
			}
			c.registry = reg
		}
	}
	return c, nil
}

// Dialect returns the default dialect.
func (c *Compiler) Dialect() *dialect.Dialect { return c.dialect }

// Registry returns the function registry in use.
func (c *Compiler) Registry() *functions.Registry { return c.registry }

// CacheStats returns the parse cache counters.
func (c *Compiler) CacheStats() cache.Stats { return c.cache.Stats() }

// Parse parses text through the cache.
func (c *Compiler) Parse(text string) (ast.Query, error) {
	q, hit, err := c.cache.Get(text)
	if err != nil {
		c.logger.Debug("parse failed", "query", text, "error", err)
		return nil, err
	}
	c.logger.Debug("query parsed", "cache_hit", hit)
	return q, nil
}

// Validate runs the metadata-free structural checks on q.
func (c *Compiler) Validate(q ast.Query) error {
	return sqlgen.Check(q)
}

// Compile compiles text for the default dialect.
func (c *Compiler) Compile(text string) (*Statement, error) {
	return c.compile(text, c.dialect)
}

// CompileFor compiles text for the named dialect.
func (c *Compiler) CompileFor(text string, name dialect.Name) (*Statement, error) {
	d, err := dialect.Lookup(string(name))
	if err != nil {
		return nil, err
	}
	return c.compile(text, d)
}

// CompileQuery compiles an already parsed query. A nil dialect selects the
// default. The resulting statement has no query text.
func (c *Compiler) CompileQuery(q ast.Query, d *dialect.Dialect) (*Statement, error) {
	if d == nil {
		d = c.dialect
	}
	return c.generate("", q, d)
}

func (c *Compiler) compile(text string, d *dialect.Dialect) (*Statement, error) {
	q, err := c.Parse(text)
	if err != nil {
		return nil, err
	}
	return c.generate(text, q, d)
}

func (c *Compiler) generate(text string, q ast.Query, d *dialect.Dialect) (*Statement, error) {
	res, err := sqlgen.New(c.resolver, c.registry, d).Generate(q)
	if err != nil {
		c.logger.Debug("compile failed", "dialect", d.Name(), "error", err)
		return nil, err
	}

	tree, err := ast.Dump(q)
	if err != nil {
		return nil, err
	}
	queryHash, err := ir.QueryHash(tree)
	if err != nil {
		return nil, err
	}
	id, err := ir.StatementID(queryHash, string(d.Name()), res.SQL, res.Bindings)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("query compiled",
		"dialect", d.Name(),
		"statement_id", id,
		"params", len(res.Params),
	)
	return &Statement{
		ID:        id,
		QueryHash: queryHash,
		Query:     text,
		Dialect:   d,
		SQL:       res.SQL,
		Params:    res.Params,
		Bindings:  res.Bindings,
	}, nil
}
