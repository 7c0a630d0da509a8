// Package syncer drives one reconciliation run: load definitions from disk,
// resolve a safe apply order, snapshot the remote service once, then walk the
// order applying create/update/skip decisions record by record.
//
// The run is strictly sequential. Dependency ordering requires that a
// referencing workflow is written only after its dependency's identifier is
// known, and the name→identifier map is mutated as creates succeed, so there
// is nothing to gain from fan-out at this scale. A single record's failure is
// counted and logged; it never halts the run.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/flowsync/internal/diff"
	"github.com/roach88/flowsync/internal/merge"
	"github.com/roach88/flowsync/internal/remote"
	"github.com/roach88/flowsync/internal/resolver"
	"github.com/roach88/flowsync/internal/workflow"
)

// Outcome classifies what happened to one record during apply.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeErrored Outcome = "errored"
)

// RecordResult is the per-record outcome reported to the user.
type RecordResult struct {
	Name    string  `json:"name"`
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"`
	Err     error   `json:"-"`
}

// Summary aggregates one run. A run with any errored record signals overall
// failure distinctly from a clean run; skips alone do not.
type Summary struct {
	RunID   string         `json:"runId"`
	DryRun  bool           `json:"dryRun"`
	Results []RecordResult `json:"results"`

	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errored int `json:"errored"`

	CycleWarnings []resolver.CycleWarning `json:"cycleWarnings,omitempty"`
	LoadErrors    []string                `json:"loadErrors,omitempty"`

	// Duration is exposed as fractional seconds: time.Duration marshals as
	// nanoseconds, which no consumer wants to divide.
	Duration        time.Duration `json:"-"`
	DurationSeconds float64       `json:"durationSeconds"`
}

// Failed reports whether any record errored.
func (s *Summary) Failed() bool { return s.Errored > 0 }

// Options control a run.
type Options struct {
	// DryRun computes and logs intended actions without issuing writes.
	DryRun bool
	// Force disables the change-detector skip and updates unconditionally.
	Force bool
}

// Syncer reconciles a repository tree against the remote service.
type Syncer struct {
	client remote.Client
	opts   Options
	log    *slog.Logger
}

// New builds a Syncer. A nil logger falls back to slog.Default.
func New(client remote.Client, opts Options, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{client: client, opts: opts, log: log}
}

// Run executes one reconciliation pass over the workflow tree at root.
//
// Fatal errors (missing root, zero valid definitions, snapshot failure)
// abort before any write and are returned directly. Per-record errors are
// accumulated in the summary instead.
func (s *Syncer) Run(ctx context.Context, root string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString(), DryRun: s.opts.DryRun}
	log := s.log.With("run", summary.RunID)

	loaded, err := workflow.Load(root)
	if err != nil {
		return nil, err
	}
	for _, le := range loaded.Skipped {
		log.Warn("skipping unloadable definition", "path", le.Path, "error", le.Err)
		summary.LoadErrors = append(summary.LoadErrors, le.Error())
	}
	if len(loaded.Records) == 0 {
		return nil, fmt.Errorf("no valid workflow definitions under %s", root)
	}
	log.Info("definitions loaded", "count", len(loaded.Records), "skipped", len(loaded.Skipped))

	ordered, cycles := resolver.Order(loaded.Records)
	for _, warn := range cycles {
		log.Warn("dependency cycle", "message", warn.Message)
	}
	summary.CycleWarnings = cycles

	// One snapshot per run, before any write. List responses are summaries;
	// full bodies are fetched per record just before the update decision.
	remoteList, err := s.client.ListWorkflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshotting remote workflows: %w", err)
	}
	snapshot := make(map[string]remote.Summary, len(remoteList))
	nameToID := make(map[string]string, len(remoteList))
	for _, item := range remoteList {
		key := workflow.IdentityKey(item.Name)
		snapshot[key] = item
		if item.ID != "" {
			nameToID[key] = item.ID
		}
	}
	log.Info("remote snapshot fetched", "workflows", len(snapshot))

	for _, rec := range ordered {
		result := s.applyRecord(ctx, log, rec, snapshot, nameToID)
		summary.Results = append(summary.Results, result)
		switch result.Outcome {
		case OutcomeCreated:
			summary.Created++
		case OutcomeUpdated:
			summary.Updated++
		case OutcomeSkipped:
			summary.Skipped++
		case OutcomeErrored:
			summary.Errored++
		}
	}

	summary.Duration = time.Since(start)
	summary.DurationSeconds = summary.Duration.Seconds()
	log.Info("run complete",
		"created", summary.Created,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"errored", summary.Errored,
		"duration", summary.Duration)
	return summary, nil
}

func (s *Syncer) applyRecord(ctx context.Context, log *slog.Logger, rec *workflow.Record, snapshot map[string]remote.Summary, nameToID map[string]string) RecordResult {
	// Forward references to repository workflows applied earlier in this
	// run resolve here, before the write.
	if n := workflow.RewriteSubworkflowRefs(rec, nameToID); n > 0 {
		log.Debug("rewrote sub-workflow references", "workflow", rec.Name, "count", n)
	}

	key := rec.IdentityKey()
	existing, exists := snapshot[key]
	if !exists {
		return s.createRecord(ctx, log, rec, nameToID)
	}
	return s.updateRecord(ctx, log, rec, existing)
}

func (s *Syncer) createRecord(ctx context.Context, log *slog.Logger, rec *workflow.Record, nameToID map[string]string) RecordResult {
	payload, err := workflow.CloneRecord(rec)
	if err != nil {
		return errored(log, rec.Name, "preparing create", err)
	}
	workflow.CleanRecordCredentials(payload)

	if s.opts.DryRun {
		log.Info("would create workflow", "workflow", rec.Name)
		// The identifier stays unknown, so later references to this
		// workflow cannot be rewritten within a dry run.
		return RecordResult{Name: rec.Name, Outcome: OutcomeCreated, Detail: "dry-run: create planned"}
	}

	created, err := s.client.CreateWorkflow(ctx, payload)
	if err != nil {
		return errored(log, rec.Name, "creating", err)
	}
	if created == nil || created.ID == "" {
		// Registering an empty identifier would poison the reference map
		// for every later record that depends on this one.
		return errored(log, rec.Name, "creating", fmt.Errorf("create response carried no identifier"))
	}
	nameToID[rec.IdentityKey()] = created.ID
	log.Info("created workflow", "workflow", rec.Name, "id", created.ID)
	return RecordResult{Name: rec.Name, Outcome: OutcomeCreated, Detail: "id " + created.ID}
}

func (s *Syncer) updateRecord(ctx context.Context, log *slog.Logger, rec *workflow.Record, existing remote.Summary) RecordResult {
	full, err := s.client.GetWorkflow(ctx, existing.ID)
	if err != nil {
		return errored(log, rec.Name, "fetching remote record", err)
	}

	res := diff.Detect(rec, full)
	if !res.HasChanges && !s.opts.Force {
		log.Debug("workflow unchanged", "workflow", rec.Name)
		return RecordResult{Name: rec.Name, Outcome: OutcomeSkipped, Detail: res.Summary}
	}

	merged, err := merge.Records(rec, full)
	if err != nil {
		return errored(log, rec.Name, "merging", err)
	}

	detail := res.Summary
	if !res.HasChanges {
		detail = "forced update"
	}
	if s.opts.DryRun {
		log.Info("would update workflow", "workflow", rec.Name, "changes", detail)
		return RecordResult{Name: rec.Name, Outcome: OutcomeUpdated, Detail: "dry-run: " + detail}
	}

	if err := s.client.UpdateWorkflow(ctx, existing.ID, merged); err != nil {
		return errored(log, rec.Name, "updating", err)
	}
	log.Info("updated workflow", "workflow", rec.Name, "id", existing.ID, "changes", detail)
	return RecordResult{Name: rec.Name, Outcome: OutcomeUpdated, Detail: detail}
}

func errored(log *slog.Logger, name, stage string, err error) RecordResult {
	log.Error("workflow sync failed", "workflow", name, "stage", stage, "error", err)
	return RecordResult{
		Name:    name,
		Outcome: OutcomeErrored,
		Detail:  fmt.Sprintf("%s: %v", stage, err),
		Err:     err,
	}
}
