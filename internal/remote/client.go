// Package remote is a thin, versioned CRUD abstraction over the automation
// service's workflow API.
//
// The service exposes two historically coexisting surfaces: the versioned
// public API under /api/v1 and the legacy internal API under /rest. The
// client probes the primary surface on the initial list call and falls back
// to the legacy surface transparently, remembering which one answered so
// every later call in the run uses it consistently.
package remote

import (
	"context"
	"fmt"

	"github.com/roach88/flowsync/internal/workflow"
)

// Summary is the per-workflow shape returned by the list endpoint. List
// responses are summaries only; node and connection bodies require a
// fetch by id.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client is the CRUD surface the sync engine consumes. Implementations must
// treat a non-2xx response as a hard error carrying enough context to
// diagnose the single failed record.
type Client interface {
	// ListWorkflows returns summaries for every workflow on the service.
	ListWorkflows(ctx context.Context) ([]Summary, error)

	// GetWorkflow fetches the full record, including nodes, connections
	// and settings, by server identifier.
	GetWorkflow(ctx context.Context, id string) (*workflow.Record, error)

	// CreateWorkflow creates a workflow from the sanitized record and
	// returns the server's copy, including the assigned identifier.
	CreateWorkflow(ctx context.Context, rec *workflow.Record) (*workflow.Record, error)

	// UpdateWorkflow replaces the workflow body under the identifier.
	UpdateWorkflow(ctx context.Context, id string, rec *workflow.Record) error
}

// APIError is a non-2xx response from the service. It aborts the single
// record being processed, never the whole run.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}
