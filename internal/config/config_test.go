package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvBaseURL, EnvAPIKey, EnvWorkflowDir, EnvDryRun, EnvForce, EnvHTTPTimeout} {
		t.Setenv(name, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkflowDir, cfg.WorkflowDir)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.False(t, cfg.DryRun)
	assert.False(t, cfg.Force)
}

func TestFromEnvReadsValues(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBaseURL, "https://n8n.internal.example.com")
	t.Setenv(EnvAPIKey, "secret")
	t.Setenv(EnvWorkflowDir, "flows")
	t.Setenv(EnvDryRun, "true")
	t.Setenv(EnvForce, "1")
	t.Setenv(EnvHTTPTimeout, "90s")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://n8n.internal.example.com", cfg.BaseURL)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "flows", cfg.WorkflowDir)
	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.Force)
	assert.Equal(t, 90*time.Second, cfg.HTTPTimeout)
}

func TestFromEnvRejectsMalformedBool(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDryRun, "maybe")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvDryRun)
}

func TestFromEnvRejectsMalformedDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvHTTPTimeout, "fast")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvHTTPTimeout)
}

func TestValidateForSync(t *testing.T) {
	cfg := &Config{BaseURL: "https://n8n.example.com", APIKey: "k"}
	assert.NoError(t, cfg.ValidateForSync())

	assert.Error(t, (&Config{APIKey: "k"}).ValidateForSync())
	assert.Error(t, (&Config{BaseURL: "https://n8n.example.com"}).ValidateForSync())
}
