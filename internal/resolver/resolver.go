// Package resolver orders workflow records so that every record is applied
// after the workflows it references.
package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/flowsync/internal/workflow"
)

// CycleWarning reports a dependency cycle found during ordering.
//
// Cycles are warnings, not errors: the offending edge is treated as absent
// and ordering proceeds best-effort, so one tangled pair of workflows cannot
// block reconciliation of the rest of the repository.
type CycleWarning struct {
	Path    []string `json:"path"`    // Identity keys along the cycle, first == last
	Message string   `json:"message"` // Human-readable description
}

// Order returns the records in a safe apply order: for every record, all of
// its in-repository dependencies appear earlier. Dependencies on names not
// present in the loaded set are ignored here; they resolve later through the
// remote-seeded identifier map.
//
// The traversal is a depth-first topological sort with tri-color marking.
// Output is deterministic for a given identity set: roots and edges are
// visited in sorted identity order.
func Order(records []*workflow.Record) ([]*workflow.Record, []CycleWarning) {
	byKey := make(map[string]*workflow.Record, len(records))
	keys := make([]string, 0, len(records))
	for _, rec := range records {
		key := rec.IdentityKey()
		if _, dup := byKey[key]; !dup {
			keys = append(keys, key)
		}
		byKey[key] = rec
	}
	sort.Strings(keys)

	const (
		white = iota // unvisited
		gray         // in progress, on the current DFS path
		black        // done, already emitted
	)
	color := make(map[string]int, len(keys))
	ordered := make([]*workflow.Record, 0, len(keys))
	var warnings []CycleWarning
	var path []string

	var visit func(key string)
	visit = func(key string) {
		color[key] = gray
		path = append(path, key)
		for _, dep := range byKey[key].Dependencies {
			if _, present := byKey[dep]; !present {
				continue
			}
			switch color[dep] {
			case white:
				visit(dep)
			case gray:
				warnings = append(warnings, cycleWarning(path, dep))
			}
			// black: already emitted, nothing to do.
		}
		path = path[:len(path)-1]
		color[key] = black
		ordered = append(ordered, byKey[key])
	}

	for _, key := range keys {
		if color[key] == white {
			visit(key)
		}
	}
	return ordered, warnings
}

// cycleWarning builds a warning for the back edge from the current DFS path
// tail to dep, which is still in progress.
func cycleWarning(path []string, dep string) CycleWarning {
	start := 0
	for i, key := range path {
		if key == dep {
			start = i
			break
		}
	}
	cycle := append(append([]string{}, path[start:]...), dep)
	return CycleWarning{
		Path:    cycle,
		Message: fmt.Sprintf("dependency cycle detected: %s; edge to %q ignored", strings.Join(cycle, " -> "), dep),
	}
}
