package workflow

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FileExtension is the workflow definition file extension.
const FileExtension = ".json"

// LoadError records a definition file that could not be loaded. Load errors
// are recoverable: the file is skipped and the run continues.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadResult holds the outcome of scanning a repository tree.
type LoadResult struct {
	Records []*Record
	Skipped []*LoadError
}

var titleCaser = cases.Title(language.Und)

// Load recursively enumerates workflow files under root and parses each into
// a Record. A file that fails to parse, or that lacks the required nodes
// collection, is reported in Skipped rather than aborting the run. A missing
// or unreadable root is a run-level error.
//
// Workflow names must be unique under case-insensitive matching: a file whose
// identity key collides with an earlier file is skipped with a load error
// naming the file it collides with, so a shadowed definition never vanishes
// without a trace.
//
// Records are returned in lexical path order, so repeated loads of the same
// tree produce the same sequence.
func Load(root string) (*LoadResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("workflow root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workflow root %s: not a directory", root)
	}

	result := &LoadResult{}
	seen := map[string]string{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), FileExtension) {
			return nil
		}
		rec, loadErr := loadFile(path)
		if loadErr != nil {
			result.Skipped = append(result.Skipped, loadErr)
			return nil
		}
		key := rec.IdentityKey()
		if prev, dup := seen[key]; dup {
			result.Skipped = append(result.Skipped, &LoadError{
				Path: path,
				Err:  fmt.Errorf("duplicate workflow name %q, already defined by %s", rec.Name, prev),
			})
			return nil
		}
		seen[key] = path
		result.Records = append(result.Records, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return result, nil
}

func loadFile(path string) (*Record, *LoadError) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	// Decode to a generic map first: a record whose nodes collection is
	// absent (as opposed to empty) is invalid, and struct decoding cannot
	// tell the two apart.
	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("parsing: %w", err)}
	}
	if _, ok := probe["nodes"]; !ok {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("missing required nodes collection")}
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("parsing: %w", err)}
	}
	rec.SourcePath = path

	if strings.TrimSpace(rec.Name) == "" {
		rec.Name = NameFromFilename(path)
	}
	if strings.TrimSpace(rec.Name) == "" {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("empty workflow name")}
	}

	rec.Dependencies = Dependencies(&rec)
	return &rec, nil
}

// NameFromFilename derives a display name from a definition filename:
// the extension is dropped, underscores become spaces, and each word is
// title-cased ("user_login_flow.json" -> "User Login Flow").
func NameFromFilename(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base = strings.ReplaceAll(base, "_", " ")
	return titleCaser.String(strings.TrimSpace(base))
}

// Dependencies extracts the set of workflow identity keys the record
// references through executeWorkflow nodes, sorted and deduplicated.
//
// Known limitation: only the cachedResultName on the node's workflow
// reference is recognized. A reference carrying a bare server id with no
// cached display name produces no dependency edge and will not be ordered
// against the workflow it targets.
func Dependencies(r *Record) []string {
	seen := map[string]bool{}
	var deps []string
	for i := range r.Nodes {
		name, ok := subworkflowName(&r.Nodes[i])
		if !ok {
			continue
		}
		key := IdentityKey(name)
		if key == "" || key == r.IdentityKey() || seen[key] {
			continue
		}
		seen[key] = true
		deps = append(deps, key)
	}
	sort.Strings(deps)
	return deps
}

// subworkflowName returns the cached display name of the workflow an
// executeWorkflow node references.
func subworkflowName(n *Node) (string, bool) {
	if n.Type != ExecuteWorkflowType {
		return "", false
	}
	ref, ok := n.Parameters["workflowId"].(map[string]any)
	if !ok {
		return "", false
	}
	name, ok := ref["cachedResultName"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return "", false
	}
	return name, true
}

// RewriteSubworkflowRefs updates every executeWorkflow reference in the
// record whose cached display name resolves through nameToID, replacing the
// reference value with the now-known server identifier. References to names
// absent from the map are left untouched.
func RewriteSubworkflowRefs(r *Record, nameToID map[string]string) int {
	rewritten := 0
	for i := range r.Nodes {
		name, ok := subworkflowName(&r.Nodes[i])
		if !ok {
			continue
		}
		id, ok := nameToID[IdentityKey(name)]
		if !ok || id == "" {
			continue
		}
		ref := r.Nodes[i].Parameters["workflowId"].(map[string]any)
		if ref["value"] != id {
			ref["value"] = id
			rewritten++
		}
	}
	return rewritten
}
