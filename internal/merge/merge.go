// Package merge combines a repository workflow with its remote counterpart
// into a record suitable for writing back.
//
// Ownership is fixed and non-interactive: the repository wins on logic
// (name, nodes, connections, settings), the server wins on instance data
// (workflow id, timestamps, instance id, node ids, webhook ids, canvas
// positions, bound credential ids). Merging is idempotent: merging an
// already-merged record against the same remote snapshot changes nothing.
package merge

import (
	"fmt"

	"github.com/roach88/flowsync/internal/workflow"
)

// Records merges repo and remote per the field-ownership rules. Neither
// input is mutated; the result is a fresh deep copy.
func Records(repo, remote *workflow.Record) (*workflow.Record, error) {
	merged, err := workflow.CloneRecord(repo)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	// Server-owned record fields. The repository never authors these.
	if remote.ID != "" {
		merged.ID = remote.ID
	}
	if remote.CreatedAt != "" {
		merged.CreatedAt = remote.CreatedAt
	}
	if remote.UpdatedAt != "" {
		merged.UpdatedAt = remote.UpdatedAt
	}
	if instanceID, ok := instanceID(remote); ok {
		if merged.Meta == nil {
			merged.Meta = map[string]any{}
		}
		merged.Meta["instanceId"] = instanceID
	}

	remoteIdx := remote.NodeIndex()
	for i := range merged.Nodes {
		node := &merged.Nodes[i]
		remoteNode, ok := remoteIdx[node.Key()]
		if !ok {
			// Brand-new node: nothing remote to preserve, but any leftover
			// placeholder markers still have to go before the write.
			node.Credentials = workflow.CleanNodeCredentials(node.Credentials)
			continue
		}

		// Instance data the repository cannot meaningfully express.
		node.ID = remoteNode.ID
		if remoteNode.WebhookID != "" {
			node.WebhookID = remoteNode.WebhookID
		}
		node.Position = clonePositions(remoteNode.Position)

		node.Credentials = mergeCredentials(node.Credentials, remoteNode.Credentials)
	}

	return merged, nil
}

// mergeCredentials applies the per-node credential policy for each
// repository-side credential type:
//
//   - preserve-instance marker and a remote binding of that type exist:
//     the remote credential is taken verbatim, server-assigned id intact
//   - sanitized placeholder: reduced to its display name so the server can
//     (re)bind it
//   - anything else passes through unchanged
func mergeCredentials(repoCreds, remoteCreds map[string]any) map[string]any {
	if repoCreds == nil {
		return nil
	}
	out := make(map[string]any, len(repoCreds))
	for credType, entry := range repoCreds {
		if workflow.IsPreserveInstance(entry) {
			if remoteEntry, ok := remoteCreds[credType]; ok {
				// Copied, not aliased: remote snapshots are read-only.
				if cloned, err := workflow.CloneValue(remoteEntry); err == nil {
					out[credType] = cloned
				} else {
					out[credType] = remoteEntry
				}
				continue
			}
		}
		out[credType] = workflow.CleanCredentialEntry(entry)
	}
	return out
}

func instanceID(remote *workflow.Record) (any, bool) {
	if remote.Meta == nil {
		return nil, false
	}
	v, ok := remote.Meta["instanceId"]
	return v, ok
}

func clonePositions(pos []float64) []float64 {
	if pos == nil {
		return nil
	}
	return append([]float64(nil), pos...)
}
