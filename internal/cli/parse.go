package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cpql/internal/ast"
	"github.com/roach88/cpql/internal/compiler"
	"github.com/roach88/cpql/internal/ir"
	"github.com/roach88/cpql/internal/parser"
)

// ParseResult is the output of the parse command.
type ParseResult struct {
	Query     string         `json:"query"`
	QueryHash string         `json:"query_hash"`
	AST       map[string]any `json:"ast"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <query>",
		Short: "Print the syntax tree of a query",
		Long: `Parse a CPQL query without resolving it against a schema and print
its syntax tree and query hash. Queries that differ only in whitespace or
keyword case share a hash.

Examples:
  cpql parse "SELECT u FROM User u WHERE u.Name LIKE :pattern"
  cpql parse --format json "DELETE FROM User u WHERE u.Id = :id"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}
}

func runParse(opts *RootOptions, text string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	q, err := parser.Parse(text)
	if err != nil {
		if formatter.JSON() {
			if ferr := formatter.Error(ErrCodeQueryFailure, err.Error(), map[string]string{"kind": compiler.ErrorKind(err)}); ferr != nil {
				return ferr
			}
			return NewExitError(ExitFailure, err.Error())
		}
		fmt.Fprintf(formatter.Writer, "✗ %s\n", err)
		return NewExitError(ExitFailure, err.Error())
	}

	tree, err := ast.Dump(q)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error())
	}
	hash, err := ir.QueryHash(tree)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error())
	}

	result := ParseResult{Query: text, QueryHash: hash, AST: tree}
	if formatter.JSON() {
		return formatter.Success(result)
	}

	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error())
	}
	fmt.Fprintf(formatter.Writer, "%s\nquery_hash: %s\n", data, hash)
	return nil
}
