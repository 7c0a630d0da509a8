// Package config resolves the environment-level configuration the sync
// engine consumes. Values come from the process environment, optionally
// seeded from a .env file in the working directory; command-line flags
// override both at the CLI layer.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvBaseURL     = "N8N_BASE_URL"
	EnvAPIKey      = "N8N_API_KEY"
	EnvWorkflowDir = "WORKFLOWS_DIR"
	EnvDryRun      = "DRY_RUN"
	EnvForce       = "FORCE_UPDATE"
	EnvHTTPTimeout = "HTTP_TIMEOUT"
)

// DefaultWorkflowDir is used when WORKFLOWS_DIR is unset.
const DefaultWorkflowDir = "workflows"

// DefaultHTTPTimeout bounds each individual remote call.
const DefaultHTTPTimeout = 30 * time.Second

// Config holds the values the engine needs for one run.
type Config struct {
	BaseURL     string
	APIKey      string
	WorkflowDir string
	DryRun      bool
	Force       bool
	HTTPTimeout time.Duration
}

// FromEnv builds a Config from the environment. A .env file is loaded first
// if present; its absence is not an error. Malformed boolean or duration
// values are rejected rather than silently defaulted.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BaseURL:     os.Getenv(EnvBaseURL),
		APIKey:      os.Getenv(EnvAPIKey),
		WorkflowDir: os.Getenv(EnvWorkflowDir),
		HTTPTimeout: DefaultHTTPTimeout,
	}
	if cfg.WorkflowDir == "" {
		cfg.WorkflowDir = DefaultWorkflowDir
	}

	var err error
	if cfg.DryRun, err = boolEnv(EnvDryRun); err != nil {
		return nil, err
	}
	if cfg.Force, err = boolEnv(EnvForce); err != nil {
		return nil, err
	}
	if raw := os.Getenv(EnvHTTPTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvHTTPTimeout, err)
		}
		cfg.HTTPTimeout = d
	}
	return cfg, nil
}

// ValidateForSync checks the fields a write-capable run requires. The run
// must abort before any write when the remote address or credential is
// absent.
func (c *Config) ValidateForSync() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%s is required", EnvBaseURL)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%s is required", EnvAPIKey)
	}
	return nil
}

func boolEnv(name string) (bool, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}
