// Package schema provides strict validation of workflow definition files
// against an embedded CUE schema.
//
// Validation is a separate, stricter pass than loading: the loader stays
// lenient so one malformed file cannot block reconciliation, while the
// validate command surfaces every schema violation with its path for
// pre-commit feedback.
package schema

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/flowsync/internal/workflow"
)

// definitionSchema constrains the repository-owned shape of a workflow
// file. Server-owned fields (id, timestamps, webhook ids) are permitted but
// optional, since sanitized exports may still carry them.
const definitionSchema = `
#Node: {
	name:         string & !=""
	type:         string & !=""
	id?:          string
	typeVersion?: number
	position?:    [number, number]
	webhookId?:   string
	disabled?:    bool
	parameters?:  {...}
	credentials?: {[string]: {...}}
	...
}

#Workflow: {
	name?:       string
	id?:         string | number
	active?:     bool
	nodes:       [...#Node]
	connections: {[string]: _}
	settings?:   {...}
	meta?:       {...}
	createdAt?:  string
	updatedAt?:  string
	tags?:       [..._]
	...
}
`

// Issue is a single schema violation within a definition file.
type Issue struct {
	Path    string `json:"path,omitempty"` // field path within the document
	Message string `json:"message"`
}

// FileResult holds the validation outcome for one definition file.
type FileResult struct {
	Path   string  `json:"path"`
	Issues []Issue `json:"issues,omitempty"`
}

// Valid reports whether the file passed validation.
func (r FileResult) Valid() bool { return len(r.Issues) == 0 }

// Validator validates workflow definition files.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(definitionSchema)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compiling workflow schema: %w", err)
	}
	schema := v.LookupPath(cue.ParsePath("#Workflow"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("resolving workflow schema: %w", err)
	}
	return &Validator{ctx: ctx, schema: schema}, nil
}

// ValidateFile checks one definition file against the schema. JSON that does
// not parse is reported as an issue, not an error: only filesystem failures
// surface as errors.
func (v *Validator) ValidateFile(path string) (FileResult, error) {
	result := FileResult{Path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		return result, err
	}

	expr, err := cuejson.Extract(path, raw)
	if err != nil {
		result.Issues = append(result.Issues, Issue{Message: fmt.Sprintf("invalid JSON: %v", err)})
		return result, nil
	}

	value := v.ctx.BuildExpr(expr)
	if err := value.Err(); err != nil {
		result.Issues = append(result.Issues, Issue{Message: err.Error()})
		return result, nil
	}

	unified := v.schema.Unify(value)
	if err := unified.Validate(cue.Final(), cue.Concrete(false)); err != nil {
		for _, e := range cueerrors.Errors(err) {
			result.Issues = append(result.Issues, Issue{
				Path:    strings.Join(e.Path(), "."),
				Message: e.Error(),
			})
		}
	}
	return result, nil
}

// ValidateDir validates every workflow file under root, in lexical order.
func (v *Validator) ValidateDir(root string) ([]FileResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("workflow root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workflow root %s: not a directory", root)
	}

	var results []FileResult
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), workflow.FileExtension) {
			return nil
		}
		res, err := v.ValidateFile(path)
		if err != nil {
			return err
		}
		results = append(results, res)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return results, nil
}
