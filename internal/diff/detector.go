// Package diff decides whether a repository workflow differs semantically
// from its remote counterpart.
//
// Detection covers four independent categories: name, node set/content,
// connections, and settings. Instance-bound noise is stripped before node
// parameters are compared, so a credential being freshly (re)assigned on the
// server does not register as a content change.
package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/flowsync/internal/workflow"
)

// NodeChanges buckets node-level differences by logical identity.
type NodeChanges struct {
	Added    []string `json:"added,omitempty"`    // in repository, absent remotely
	Removed  []string `json:"removed,omitempty"`  // remote-only
	Modified []string `json:"modified,omitempty"` // both sides, normalized parameters differ
}

func (c NodeChanges) empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// Result is the structured outcome of change detection.
type Result struct {
	HasChanges  bool        `json:"hasChanges"`
	Summary     string      `json:"summary"`
	Name        string      `json:"name,omitempty"` // rename detail, empty when unchanged
	Nodes       NodeChanges `json:"nodes,omitempty"`
	Connections string      `json:"connections,omitempty"` // structural diff, empty when equal
	Settings    string      `json:"settings,omitempty"`
}

// Detect compares a repository record against its fetched remote counterpart
// and reports whether an update is semantically necessary. It is pure: both
// inputs are left untouched.
//
// Known gap, kept deliberately: sanitized credential placeholders are
// compared only through node parameters, so renaming a credential binding of
// an unchanged type may not register as a change.
func Detect(repo, remote *workflow.Record) Result {
	var res Result

	if repo.Name != remote.Name {
		res.Name = fmt.Sprintf("%q -> %q", remote.Name, repo.Name)
	}
	res.Nodes = compareNodes(repo, remote)
	repoConns, remoteConns := orEmpty(repo.Connections), orEmpty(remote.Connections)
	if !workflow.CanonicalEqual(repoConns, remoteConns) {
		res.Connections = structuralDiff(remoteConns, repoConns)
	}
	repoSettings, remoteSettings := orEmpty(repo.Settings), orEmpty(remote.Settings)
	if !workflow.CanonicalEqual(repoSettings, remoteSettings) {
		res.Settings = structuralDiff(remoteSettings, repoSettings)
	}

	res.HasChanges = res.Name != "" || !res.Nodes.empty() || res.Connections != "" || res.Settings != ""
	res.Summary = summarize(res)
	return res
}

func compareNodes(repo, remote *workflow.Record) NodeChanges {
	var changes NodeChanges
	remoteIdx := remote.NodeIndex()
	repoIdx := repo.NodeIndex()

	for key, repoNode := range repoIdx {
		remoteNode, ok := remoteIdx[key]
		if !ok {
			changes.Added = append(changes.Added, nodeLabel(key))
			continue
		}
		if !workflow.CanonicalEqual(normalizeParameters(repoNode.Parameters), normalizeParameters(remoteNode.Parameters)) {
			changes.Modified = append(changes.Modified, nodeLabel(key))
		}
	}
	for key := range remoteIdx {
		if _, ok := repoIdx[key]; !ok {
			changes.Removed = append(changes.Removed, nodeLabel(key))
		}
	}

	sort.Strings(changes.Added)
	sort.Strings(changes.Removed)
	sort.Strings(changes.Modified)
	return changes
}

// normalizeParameters deep-copies a parameter object and strips the
// identifier from every embedded credential reference: any object carrying
// an id alongside a human-readable name. The inputs are never mutated.
func normalizeParameters(params map[string]any) any {
	if params == nil {
		return map[string]any{}
	}
	cloned, err := workflow.CloneValue(params)
	if err != nil {
		// Unmarshalable parameters cannot be normalized; compare raw.
		return params
	}
	stripCredentialIDs(cloned)
	return cloned
}

func stripCredentialIDs(v any) {
	switch val := v.(type) {
	case map[string]any:
		_, hasID := val["id"]
		_, hasName := val["name"]
		if hasID && hasName {
			delete(val, "id")
		}
		for _, child := range val {
			stripCredentialIDs(child)
		}
	case []any:
		for _, child := range val {
			stripCredentialIDs(child)
		}
	}
}

// orEmpty treats an absent collection like an empty one. The wire format
// sends nil collections as {} and the server echoes them back, so nil vs {}
// is serialization noise, not a change.
func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func nodeLabel(key workflow.NodeKey) string {
	return fmt.Sprintf("%s (%s)", key.Name, key.Type)
}

// structuralDiff renders a field-order-insensitive diff between two JSON
// shaped values for diagnostics. Equality has already been decided via
// canonical comparison; this only produces the detail string.
func structuralDiff(before, after any) string {
	nb, err1 := workflow.CloneValue(before)
	na, err2 := workflow.CloneValue(after)
	if err1 != nil || err2 != nil {
		return "structures differ"
	}
	if d := cmp.Diff(nb, na); d != "" {
		return d
	}
	return "structures differ"
}

func summarize(res Result) string {
	if !res.HasChanges {
		return "no changes"
	}
	var parts []string
	if res.Name != "" {
		parts = append(parts, fmt.Sprintf("name %s", res.Name))
	}
	if !res.Nodes.empty() {
		parts = append(parts, fmt.Sprintf("nodes: %d added, %d removed, %d modified",
			len(res.Nodes.Added), len(res.Nodes.Removed), len(res.Nodes.Modified)))
	}
	if res.Connections != "" {
		parts = append(parts, "connections changed")
	}
	if res.Settings != "" {
		parts = append(parts, "settings changed")
	}
	return strings.Join(parts, "; ")
}
