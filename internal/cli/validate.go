package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cpql/internal/metadata"
)

// ValidateResult holds the result of schema validation.
type ValidateResult struct {
	Valid     bool                       `json:"valid"`
	Path      string                     `json:"path"`
	Entities  []string                   `json:"entities,omitempty"`
	Functions int                        `json:"functions"`
	Errors    []metadata.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [schema]",
		Short: "Validate entity metadata",
		Long: `Validate entity metadata in a YAML file or a directory of CUE files.

When no path is given, the schema from the config file is validated.

Exit codes:
  0 - Schema is valid
  1 - Schema has validation errors
  2 - Command error (path not found, unreadable file, etc.)

Examples:
  cpql validate ./schema
  cpql validate schema.yaml --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var explicit string
			if len(args) == 1 {
				explicit = args[0]
			}
			return runValidate(rootOpts, explicit, cmd)
		},
	}
}

func runValidate(opts *RootOptions, explicit string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	path, err := opts.schemaPath(explicit)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, err.Error())
	}
	formatter.VerboseLog("Validating %s", path)

	schema, verrs, err := loadSchema(path)
	if err != nil {
		return loadFailure(formatter, err)
	}
	if len(verrs) > 0 {
		return outputValidationErrors(formatter, verrs)
	}

	result := ValidateResult{
		Valid:     true,
		Path:      path,
		Entities:  schema.EntityNames(),
		Functions: len(schema.Functions()),
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Schema valid: %d entities, %d functions\n", len(result.Entities), result.Functions)
	for _, name := range result.Entities {
		fmt.Fprintf(formatter.Writer, "  - %s\n", name)
	}
	return nil
}

// outputValidationErrors reports schema validation errors and returns an
// ExitFailure error.
func outputValidationErrors(formatter *OutputFormatter, verrs []metadata.ValidationError) error {
	msg := fmt.Sprintf("schema has %d validation error(s)", len(verrs))
	if formatter.JSON() {
		if err := formatter.Failure(verrs[0].Code, msg, ValidateResult{Errors: verrs}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	fmt.Fprintf(formatter.Writer, "✗ %s\n", msg)
	for _, ve := range verrs {
		fmt.Fprintf(formatter.Writer, "  %s\n", ve)
	}
	return NewExitError(ExitFailure, msg)
}
