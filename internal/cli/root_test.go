package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalWorkflow = `{
	"name": "Login",
	"nodes": [{"name": "Start", "type": "n8n-nodes-base.start", "parameters": {}}],
	"connections": {}
}`

func workflowDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootRejectsUnknownFormat(t *testing.T) {
	dir := workflowDir(t, map[string]string{"login.json": minimalWorkflow})
	_, err := execute(t, NewRootCommand(), "--format", "xml", "order", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootAcceptsBothFormats(t *testing.T) {
	for _, format := range ValidFormats {
		dir := workflowDir(t, map[string]string{"login.json": minimalWorkflow})
		_, err := execute(t, NewRootCommand(), "--format", format, "order", dir)
		assert.NoError(t, err, "format %s", format)
	}
}

func TestRootListsSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "sync")
	assert.Contains(t, names, "order")
	assert.Contains(t, names, "validate")
}
