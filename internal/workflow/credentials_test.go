package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPreserveInstance(t *testing.T) {
	assert.True(t, IsPreserveInstance(map[string]any{"name": "Prod", PreserveInstanceKey: true}))
	assert.False(t, IsPreserveInstance(map[string]any{"name": "Prod", PreserveInstanceKey: false}))
	assert.False(t, IsPreserveInstance(map[string]any{"id": "1", "name": "Prod"}))
	assert.False(t, IsPreserveInstance("not a map"))
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder(map[string]any{"name": "Prod", PlaceholderTypeKey: PlaceholderTypeValue}))
	assert.True(t, IsPlaceholder(map[string]any{"name": "Prod", PreserveInstanceKey: true}))
	assert.False(t, IsPlaceholder(map[string]any{"id": "1", "name": "Prod"}))
	assert.False(t, IsPlaceholder(map[string]any{"name": "Prod", PlaceholderTypeKey: "other"}))
}

func TestCleanCredentialEntryReducesPlaceholderToName(t *testing.T) {
	cleaned := CleanCredentialEntry(map[string]any{
		"name":             "Prod API",
		"id":               "stale",
		PlaceholderTypeKey: PlaceholderTypeValue,
	})
	assert.Equal(t, map[string]any{"name": "Prod API"}, cleaned)
}

func TestCleanCredentialEntryPassesResolvedThrough(t *testing.T) {
	resolved := map[string]any{"id": "42", "name": "Prod API"}
	assert.Equal(t, resolved, CleanCredentialEntry(resolved))
}

func TestCleanNodeCredentials(t *testing.T) {
	creds := map[string]any{
		"httpBasicAuth": map[string]any{"name": "Basic", PlaceholderTypeKey: PlaceholderTypeValue},
		"apiKey":        map[string]any{"id": "7", "name": "Key"},
	}
	cleaned := CleanNodeCredentials(creds)
	assert.Equal(t, map[string]any{"name": "Basic"}, cleaned["httpBasicAuth"])
	assert.Equal(t, map[string]any{"id": "7", "name": "Key"}, cleaned["apiKey"])

	assert.Nil(t, CleanNodeCredentials(nil))
}

func TestCleanRecordCredentials(t *testing.T) {
	rec := &Record{
		Nodes: []Node{{
			Name: "n",
			Type: "t",
			Credentials: map[string]any{
				"apiKey": map[string]any{"name": "Key", PreserveInstanceKey: true},
			},
		}},
	}
	CleanRecordCredentials(rec)
	assert.Equal(t, map[string]any{"name": "Key"}, rec.Nodes[0].Credentials["apiKey"])
}
