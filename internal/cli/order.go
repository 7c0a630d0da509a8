package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/flowsync/internal/resolver"
	"github.com/roach88/flowsync/internal/workflow"
)

// OrderResult is the JSON payload of the order command.
type OrderResult struct {
	Order         []string                `json:"order"`
	CycleWarnings []resolver.CycleWarning `json:"cycleWarnings,omitempty"`
	LoadErrors    []string                `json:"loadErrors,omitempty"`
}

// NewOrderCommand creates the order command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order <workflows-dir>",
		Short: "Print the resolved apply order without touching the remote",
		Long: `Load the workflow tree and print the order a sync run would apply it in:
every workflow after the workflows it references. Dependency cycles are
reported as warnings and the offending edge is ignored.

Example:
  flowsync order ./workflows`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runOrder(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, err := workflow.Load(dir)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading workflows", err)
	}
	if len(loaded.Records) == 0 {
		_ = formatter.Error(ErrCodeNoRecords, "no valid workflow definitions found", nil)
		return NewExitError(ExitFailure, "no valid workflow definitions found")
	}

	ordered, cycles := resolver.Order(loaded.Records)

	result := OrderResult{}
	for _, rec := range ordered {
		result.Order = append(result.Order, rec.Name)
	}
	result.CycleWarnings = cycles
	for _, le := range loaded.Skipped {
		result.LoadErrors = append(result.LoadErrors, le.Error())
	}

	if opts.Format == "json" {
		return formatter.JSON(result)
	}
	for i, name := range result.Order {
		formatter.Textln("%3d. %s", i+1, name)
	}
	for _, warn := range cycles {
		formatter.Textln("warning: %s", warn.Message)
	}
	for _, le := range result.LoadErrors {
		formatter.Textln("warning: skipped %s", le)
	}
	return nil
}
