package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/flowsync/internal/schema"
)

// ValidationResult holds validation results across a workflow tree.
type ValidationResult struct {
	Valid bool                `json:"valid"`
	Files []schema.FileResult `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <workflows-dir>",
		Short: "Validate workflow definitions against the schema",
		Long: `Validate every workflow definition file against the embedded schema.

This is a strict pre-commit check: unlike the sync loader, which skips
malformed files and continues, validate reports every violation with its
field path.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	validator, err := schema.NewValidator()
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "building validator", err)
	}

	results, err := validator.ValidateDir(dir)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "validating workflows", err)
	}

	out := ValidationResult{Valid: true, Files: results}
	invalid := 0
	for _, res := range results {
		if !res.Valid() {
			out.Valid = false
			invalid++
		}
	}

	if opts.Format == "json" {
		if err := formatter.JSON(out); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if res.Valid() {
				formatter.VerboseLog("ok: %s", res.Path)
				continue
			}
			formatter.Textln("%s:", res.Path)
			for _, issue := range res.Issues {
				if issue.Path != "" {
					formatter.Textln("  %s: %s", issue.Path, issue.Message)
				} else {
					formatter.Textln("  %s", issue.Message)
				}
			}
		}
		formatter.Textln("%d file(s) checked, %d invalid", len(results), invalid)
	}

	if !out.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}
