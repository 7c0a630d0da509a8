// Package workflow defines the canonical in-memory representation of a
// workflow definition and the loader that builds it from a repository tree.
//
// A Record is the unit of reconciliation: the repository owns its logic
// (name, nodes, connections, settings) while the remote service owns its
// instance data (ids, timestamps, webhook ids, canvas positions, bound
// credential ids). The merge and diff packages enforce that split; this
// package only models it.
package workflow

import "strings"

// ExecuteWorkflowType is the node type that invokes another workflow by
// reference. Nodes of this type are the only source of dependency edges.
const ExecuteWorkflowType = "n8n-nodes-base.executeWorkflow"

// Repository-side credential placeholder markers. The sanitizer (out of
// scope here) writes these when stripping instance data before commit.
const (
	// PreserveInstanceKey marks a credential placeholder as "keep whatever
	// the server currently has bound for this type".
	PreserveInstanceKey = "__preserveInstance"

	// PlaceholderTypeKey carries the marker value identifying a sanitized
	// placeholder that should be reduced to its display name on write.
	PlaceholderTypeKey = "__type"

	// PlaceholderTypeValue is the expected value of PlaceholderTypeKey.
	PlaceholderTypeValue = "placeholder"
)

// Record is a single workflow definition, either loaded from the repository
// or fetched from the remote service.
type Record struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Active      bool           `json:"active,omitempty"`
	Nodes       []Node         `json:"nodes"`
	Connections map[string]any `json:"connections"`
	Settings    map[string]any `json:"settings,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
	CreatedAt   string         `json:"createdAt,omitempty"`
	UpdatedAt   string         `json:"updatedAt,omitempty"`

	// Dependencies is the set of other workflow identity keys this record
	// references via executeWorkflow nodes. Derived at load time, never
	// authored directly, and never serialized.
	Dependencies []string `json:"-"`

	// SourcePath is the repository file this record was loaded from.
	// Empty for remote records.
	SourcePath string `json:"-"`
}

// Node is a single step within a workflow. Logical identity across the
// repository/remote boundary is the (name, type) pair; the server-assigned
// id is instance data.
type Node struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	TypeVersion float64        `json:"typeVersion,omitempty"`
	Position    []float64      `json:"position,omitempty"`
	WebhookID   string         `json:"webhookId,omitempty"`
	Disabled    bool           `json:"disabled,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Credentials map[string]any `json:"credentials,omitempty"`
}

// NodeKey is the logical identity of a node.
type NodeKey struct {
	Name string
	Type string
}

// Key returns the node's logical identity.
func (n *Node) Key() NodeKey {
	return NodeKey{Name: n.Name, Type: n.Type}
}

// IdentityKey returns the case-normalized name used to match this record
// against its remote counterpart.
func (r *Record) IdentityKey() string {
	return IdentityKey(r.Name)
}

// IdentityKey normalizes a workflow name for cross-boundary matching.
func IdentityKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NodeIndex builds a lookup from logical node identity to node for the
// record's node set. Later duplicates win, matching server behavior where
// node names are unique per workflow.
func (r *Record) NodeIndex() map[NodeKey]*Node {
	idx := make(map[NodeKey]*Node, len(r.Nodes))
	for i := range r.Nodes {
		idx[r.Nodes[i].Key()] = &r.Nodes[i]
	}
	return idx
}
