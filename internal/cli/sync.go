package cli

import (
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/roach88/flowsync/internal/config"
	"github.com/roach88/flowsync/internal/remote"
	"github.com/roach88/flowsync/internal/syncer"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Dir     string
	URL     string
	APIKey  string
	DryRun  bool
	Force   bool

	// NewClient allows overriding the remote client (for testing).
	// If nil, an HTTP client is built from the resolved configuration.
	NewClient func(cfg *config.Config) remote.Client
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return newSyncCommand(&SyncOptions{RootOptions: rootOpts})
}

func newSyncCommand(opts *SyncOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the workflow repository with the remote service",
		Long: `Reconcile the workflow definition tree with the remote service.

Definitions are loaded from the repository, ordered so every workflow is
applied after the workflows it references, and compared against a snapshot
of the remote service. Unchanged workflows are skipped; new ones are
created; changed ones are merged with their remote instance data and
updated. A single record's failure never halts the run.

Configuration comes from the environment (N8N_BASE_URL, N8N_API_KEY,
WORKFLOWS_DIR, DRY_RUN, FORCE_UPDATE), optionally seeded from a .env file;
flags override.

Example:
  flowsync sync --dir ./workflows
  flowsync sync --dry-run --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "workflow repository root (default $WORKFLOWS_DIR or ./workflows)")
	cmd.Flags().StringVar(&opts.URL, "url", "", "remote service base URL (default $N8N_BASE_URL)")
	cmd.Flags().StringVar(&opts.APIKey, "api-key", "", "remote service API key (default $N8N_API_KEY)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "log intended actions without writing")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "update even when no changes are detected")

	return cmd
}

func runSync(opts *SyncOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.FromEnv()
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	applyFlagOverrides(cfg, opts, cmd)

	if opts.NewClient == nil {
		if err := cfg.ValidateForSync(); err != nil {
			_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid configuration", err)
		}
	}

	client := buildClient(cfg, opts)
	eng := syncer.New(client, syncer.Options{DryRun: cfg.DryRun, Force: cfg.Force}, slog.Default())

	summary, err := eng.Run(cmd.Context(), cfg.WorkflowDir)
	if err != nil {
		_ = formatter.Error(ErrCodeRemote, err.Error(), nil)
		return WrapExitError(ExitCommandError, "sync aborted", err)
	}

	if opts.Format == "json" {
		if err := formatter.JSON(summary); err != nil {
			return err
		}
	} else {
		printSummary(formatter, summary)
	}

	if summary.Failed() {
		return NewExitError(ExitFailure, "one or more workflows failed to sync")
	}
	return nil
}

// applyFlagOverrides lets explicit flags win over environment values.
func applyFlagOverrides(cfg *config.Config, opts *SyncOptions, cmd *cobra.Command) {
	if opts.Dir != "" {
		cfg.WorkflowDir = opts.Dir
	}
	if opts.URL != "" {
		cfg.BaseURL = opts.URL
	}
	if opts.APIKey != "" {
		cfg.APIKey = opts.APIKey
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = opts.DryRun
	}
	if cmd.Flags().Changed("force") {
		cfg.Force = opts.Force
	}
}

func buildClient(cfg *config.Config, opts *SyncOptions) remote.Client {
	if opts.NewClient != nil {
		return opts.NewClient(cfg)
	}
	return remote.NewHTTPClient(cfg.BaseURL, cfg.APIKey,
		remote.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		remote.WithLogger(slog.Default()))
}

func printSummary(f *OutputFormatter, summary *syncer.Summary) {
	if summary.DryRun {
		f.Textln("dry run: no writes were issued")
	}
	for _, res := range summary.Results {
		if res.Detail != "" {
			f.Textln("%-8s %s (%s)", res.Outcome, res.Name, res.Detail)
		} else {
			f.Textln("%-8s %s", res.Outcome, res.Name)
		}
	}
	for _, warn := range summary.CycleWarnings {
		f.Textln("warning: %s", warn.Message)
	}
	for _, le := range summary.LoadErrors {
		f.Textln("warning: skipped %s", le)
	}
	f.Textln("%d created, %d updated, %d skipped, %d errored (%.2fs)",
		summary.Created, summary.Updated, summary.Skipped, summary.Errored,
		summary.Duration.Seconds())
}
