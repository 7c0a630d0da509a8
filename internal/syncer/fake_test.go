package syncer

import (
	"context"
	"fmt"

	"github.com/roach88/flowsync/internal/remote"
	"github.com/roach88/flowsync/internal/workflow"
)

// fakeClient is an in-memory remote.Client. It stores whatever create and
// update send, so tests can assert on the exact wire payloads.
type fakeClient struct {
	byID   map[string]*workflow.Record
	nextID int

	listErr      error
	createErr    map[string]error // keyed by workflow name
	updateErr    map[string]error
	emptyIDNames map[string]bool // create succeeds but returns no identifier

	calls []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		byID:         map[string]*workflow.Record{},
		createErr:    map[string]error{},
		updateErr:    map[string]error{},
		emptyIDNames: map[string]bool{},
	}
}

func (f *fakeClient) seed(rec *workflow.Record) *workflow.Record {
	if rec.ID == "" {
		f.nextID++
		rec.ID = fmt.Sprintf("wf-%d", f.nextID)
	}
	f.byID[rec.ID] = rec
	return rec
}

func (f *fakeClient) ListWorkflows(ctx context.Context) ([]remote.Summary, error) {
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []remote.Summary
	for id, rec := range f.byID {
		out = append(out, remote.Summary{ID: id, Name: rec.Name})
	}
	return out, nil
}

func (f *fakeClient) GetWorkflow(ctx context.Context, id string) (*workflow.Record, error) {
	f.calls = append(f.calls, "get:"+id)
	rec, ok := f.byID[id]
	if !ok {
		return nil, &remote.APIError{Method: "GET", Path: "/api/v1/workflows/" + id, StatusCode: 404, Body: "not found"}
	}
	return mustClone(rec), nil
}

func (f *fakeClient) CreateWorkflow(ctx context.Context, rec *workflow.Record) (*workflow.Record, error) {
	f.calls = append(f.calls, "create:"+rec.Name)
	if err := f.createErr[rec.Name]; err != nil {
		return nil, err
	}
	if f.emptyIDNames[rec.Name] {
		return mustClone(rec), nil
	}
	stored := mustClone(rec)
	f.nextID++
	stored.ID = fmt.Sprintf("wf-%d", f.nextID)
	f.byID[stored.ID] = stored
	return mustClone(stored), nil
}

func (f *fakeClient) UpdateWorkflow(ctx context.Context, id string, rec *workflow.Record) error {
	f.calls = append(f.calls, "update:"+rec.Name)
	if err := f.updateErr[rec.Name]; err != nil {
		return err
	}
	stored := mustClone(rec)
	stored.ID = id
	f.byID[id] = stored
	return nil
}

func (f *fakeClient) callCount(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if c == prefix || len(c) > len(prefix) && c[:len(prefix)+1] == prefix+":" {
			n++
		}
	}
	return n
}

func (f *fakeClient) findByName(name string) *workflow.Record {
	for _, rec := range f.byID {
		if workflow.IdentityKey(rec.Name) == workflow.IdentityKey(name) {
			return rec
		}
	}
	return nil
}

func mustClone(rec *workflow.Record) *workflow.Record {
	clone, err := workflow.CloneRecord(rec)
	if err != nil {
		panic(err)
	}
	return clone
}
