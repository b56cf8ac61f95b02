package billing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforcementResultWireShape(t *testing.T) {
	data, err := json.Marshal(EnforcementResult{Plan: "basic", MaxProfiles: 2})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))

	assert.Contains(t, body, "maxProfiles")
	assert.Contains(t, body, "removedProfiles")
	assert.Contains(t, body, "profiles")
	assert.NotContains(t, body, "max_profiles")
	assert.NotContains(t, body, "removed_profiles")
}
