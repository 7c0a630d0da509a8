package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "failed")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad usage")))

	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestExitErrorMessage(t *testing.T) {
	err := WrapExitError(ExitCommandError, "loading workflows", errors.New("no such directory"))
	assert.Equal(t, "loading workflows: no such directory", err.Error())
	assert.Equal(t, "no such directory", errors.Unwrap(err).Error())

	bare := NewExitError(ExitFailure, "validation failed")
	assert.Equal(t, "validation failed", bare.Error())
}

func TestFormatterTextln(t *testing.T) {
	var out bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out}
	f.Textln("%d created", 3)
	assert.Equal(t, "3 created\n", out.String())
}

func TestFormatterTextlnSuppressedInJSONMode(t *testing.T) {
	var out bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out}
	f.Textln("human text")
	assert.Empty(t, out.String())
}

func TestFormatterJSONEnvelope(t *testing.T) {
	var out bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out}
	require.NoError(t, f.JSON(map[string]int{"created": 2}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestFormatterErrorText(t *testing.T) {
	var out bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out}
	require.NoError(t, f.Error(ErrCodeConfig, "N8N_BASE_URL is required", nil))
	assert.Contains(t, out.String(), "Error [E002]: N8N_BASE_URL is required")
}

func TestFormatterErrorJSON(t *testing.T) {
	var out bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out}
	require.NoError(t, f.Error(ErrCodeRemote, "snapshot failed", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeRemote, resp.Error.Code)
	assert.Equal(t, "snapshot failed", resp.Error.Message)
}

func TestVerboseLogRouting(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out, ErrWriter: &errOut, Verbose: true}
	f.VerboseLog("checked %s", "a.json")
	assert.Empty(t, out.String())
	assert.Equal(t, "checked a.json\n", errOut.String())

	quiet := &OutputFormatter{Format: "text", Writer: &out, Verbose: false}
	quiet.VerboseLog("hidden")
	assert.Empty(t, out.String())
}
