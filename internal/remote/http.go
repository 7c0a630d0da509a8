package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roach88/flowsync/internal/workflow"
)

// APIKeyHeader is the authentication header sent on every request.
const APIKeyHeader = "X-N8N-API-KEY"

// listPageSize is the limit query parameter for the paginated primary
// surface. The legacy surface is unpaginated.
const listPageSize = 250

// surface abstracts the differences between the two API variants: path
// prefixes and envelope shapes. Exactly one is selected per run.
type surface interface {
	name() string
	listPath(cursor string) string
	workflowPath(id string) string
	createPath() string
	decodeList(body []byte) (items []Summary, nextCursor string, err error)
	decodeWorkflow(body []byte) (*workflow.Record, error)
}

// HTTPClient talks to the automation service over HTTP. It implements
// Client. Safe for sequential use only, matching the engine's strictly
// serial apply loop.
type HTTPClient struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	log     *slog.Logger

	// active is the surface that answered the initial list call. Nil until
	// the first ListWorkflows; later calls default to the primary surface
	// if list was never invoked.
	active surface
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) { c.httpc = h }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// NewHTTPClient builds a client for the service at baseURL, authenticating
// every request with the static API key.
func NewHTTPClient(baseURL, apiKey string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListWorkflows fetches summaries for every workflow. On the first call it
// probes the primary surface and falls back to the legacy surface on any
// failure; the surviving surface is pinned for the rest of the run.
func (c *HTTPClient) ListWorkflows(ctx context.Context) ([]Summary, error) {
	if c.active != nil {
		return c.listAll(ctx, c.active)
	}

	primary := v1Surface{}
	items, primaryErr := c.listAll(ctx, primary)
	if primaryErr == nil {
		c.active = primary
		return items, nil
	}

	legacy := legacySurface{}
	c.log.Warn("primary API surface unavailable, trying legacy", "error", primaryErr)
	items, legacyErr := c.listAll(ctx, legacy)
	if legacyErr != nil {
		return nil, fmt.Errorf("both API surfaces failed: primary: %w; legacy: %v", primaryErr, legacyErr)
	}
	c.active = legacy
	c.log.Info("using legacy API surface")
	return items, nil
}

func (c *HTTPClient) listAll(ctx context.Context, s surface) ([]Summary, error) {
	var all []Summary
	cursor := ""
	for {
		body, err := c.do(ctx, http.MethodGet, s.listPath(cursor), nil)
		if err != nil {
			return nil, err
		}
		items, next, err := s.decodeList(body)
		if err != nil {
			return nil, fmt.Errorf("decoding list response: %w", err)
		}
		all = append(all, items...)
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

// GetWorkflow fetches the full record by server identifier.
func (c *HTTPClient) GetWorkflow(ctx context.Context, id string) (*workflow.Record, error) {
	s := c.surfaceOrDefault()
	body, err := c.do(ctx, http.MethodGet, s.workflowPath(id), nil)
	if err != nil {
		return nil, err
	}
	return s.decodeWorkflow(body)
}

// CreateWorkflow creates a workflow from the record's repository-owned
// fields only (name, nodes, connections, settings) and returns the server's
// copy with its assigned identifier.
func (c *HTTPClient) CreateWorkflow(ctx context.Context, rec *workflow.Record) (*workflow.Record, error) {
	s := c.surfaceOrDefault()
	body, err := c.do(ctx, http.MethodPost, s.createPath(), writeBody(rec))
	if err != nil {
		return nil, err
	}
	return s.decodeWorkflow(body)
}

// UpdateWorkflow replaces the workflow body under id with the merged record.
// The response is ignored beyond success or failure.
func (c *HTTPClient) UpdateWorkflow(ctx context.Context, id string, rec *workflow.Record) error {
	s := c.surfaceOrDefault()
	_, err := c.do(ctx, http.MethodPut, s.workflowPath(id), writeBody(rec))
	return err
}

func (c *HTTPClient) surfaceOrDefault() surface {
	if c.active != nil {
		return c.active
	}
	return v1Surface{}
}

// writeBody is the wire payload for create and update calls: the
// repository-owned fields the service accepts as input.
func writeBody(rec *workflow.Record) any {
	return map[string]any{
		"name":        rec.Name,
		"nodes":       rec.Nodes,
		"connections": emptyIfNil(rec.Connections),
		"settings":    emptyIfNil(rec.Settings),
	}
}

func emptyIfNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set(APIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("remote call", "method", method, "path", path)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}

// v1Surface is the versioned public API under /api/v1. Lists are paginated
// by cursor; workflow bodies come back unwrapped.
type v1Surface struct{}

func (v1Surface) name() string { return "v1" }

func (v1Surface) listPath(cursor string) string {
	p := fmt.Sprintf("/api/v1/workflows?limit=%d", listPageSize)
	if cursor != "" {
		p += "&cursor=" + url.QueryEscape(cursor)
	}
	return p
}

func (v1Surface) workflowPath(id string) string {
	return "/api/v1/workflows/" + url.PathEscape(id)
}

func (v1Surface) createPath() string { return "/api/v1/workflows" }

func (v1Surface) decodeList(body []byte) ([]Summary, string, error) {
	var envelope struct {
		Data       []rawSummary `json:"data"`
		NextCursor string       `json:"nextCursor"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, "", err
	}
	return convertSummaries(envelope.Data), envelope.NextCursor, nil
}

func (v1Surface) decodeWorkflow(body []byte) (*workflow.Record, error) {
	return decodeRecord(body)
}

// legacySurface is the unversioned internal API under /rest. Lists are
// unpaginated and every response is wrapped in a data envelope. Identifiers
// may be numeric.
type legacySurface struct{}

func (legacySurface) name() string { return "legacy" }

func (legacySurface) listPath(string) string { return "/rest/workflows" }

func (legacySurface) workflowPath(id string) string {
	return "/rest/workflows/" + url.PathEscape(id)
}

func (legacySurface) createPath() string { return "/rest/workflows" }

func (legacySurface) decodeList(body []byte) ([]Summary, string, error) {
	var envelope struct {
		Data []rawSummary `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, "", err
	}
	return convertSummaries(envelope.Data), "", nil
}

func (legacySurface) decodeWorkflow(body []byte) (*workflow.Record, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("legacy response missing data envelope")
	}
	return decodeRecord(envelope.Data)
}

// flexID accepts both the v1 surface's string identifiers and the legacy
// surface's numeric ones.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("unsupported id value %s", b)
	}
	*f = flexID(n.String())
	return nil
}

type rawSummary struct {
	ID   flexID `json:"id"`
	Name string `json:"name"`
}

func convertSummaries(raw []rawSummary) []Summary {
	out := make([]Summary, len(raw))
	for i, r := range raw {
		out[i] = Summary{ID: string(r.ID), Name: r.Name}
	}
	return out
}

// decodeRecord parses a full workflow body, normalizing a numeric top-level
// id to its string form.
func decodeRecord(body []byte) (*workflow.Record, error) {
	var idProbe struct {
		ID flexID `json:"id"`
	}
	if err := json.Unmarshal(body, &idProbe); err != nil {
		return nil, fmt.Errorf("decoding workflow: %w", err)
	}

	var rec workflow.Record
	if err := json.Unmarshal(normalizeID(body), &rec); err != nil {
		return nil, fmt.Errorf("decoding workflow: %w", err)
	}
	rec.ID = string(idProbe.ID)
	return &rec, nil
}

// normalizeID blanks a numeric id field so struct decoding does not fail on
// the type mismatch; the caller restores the string form afterwards.
func normalizeID(body []byte) []byte {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(body, &generic); err != nil {
		return body
	}
	delete(generic, "id")
	out, err := json.Marshal(generic)
	if err != nil {
		return body
	}
	return out
}
