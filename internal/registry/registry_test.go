package registry_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/confsync/internal/registry"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		realm      string
		expectOK   bool
		contains   string
	}{
		{
			name:       "realm substitution",
			collection: "scripts",
			realm:      "bravo",
			expectOK:   true,
			contains:   "/realms/bravo/scripts",
		},
		{
			name:       "default realm applied",
			collection: "oauth",
			realm:      "",
			expectOK:   true,
			contains:   "/realms/" + registry.DefaultRealm + "/",
		},
		{
			name:       "root level endpoint",
			collection: "managed",
			realm:      "bravo",
			expectOK:   true,
			contains:   "/openidm/config/managed",
		},
		{
			name:       "case insensitive lookup",
			collection: "Scripts",
			realm:      "alpha",
			expectOK:   true,
			contains:   "/scripts",
		},
		{
			name:       "unknown collection",
			collection: "does-not-exist",
			expectOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint, _, ok := registry.Resolve(tt.collection, tt.realm)
			assert.Equal(t, tt.expectOK, ok)
			if tt.expectOK {
				assert.Contains(t, endpoint, tt.contains)
			} else {
				assert.Empty(t, endpoint)
			}
		})
	}
}

func TestResolve_ScriptsHasFilter(t *testing.T) {
	_, filter, ok := registry.Resolve("scripts", "alpha")
	require.True(t, ok)
	assert.NotNil(t, filter)

	_, filter, ok = registry.Resolve("oauth", "alpha")
	require.True(t, ok)
	assert.Nil(t, filter)
}

func TestDecodeScriptResponse(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("var a = 1;\nlogger.message(a);"))

	response := map[string]interface{}{
		"result": []interface{}{
			map[string]interface{}{"_id": "s1", "name": "my-script", "script": encoded},
			map[string]interface{}{"_id": "s2", "name": "broken", "script": "%%% not base64 %%%"},
			map[string]interface{}{"_id": "s3", "name": "no-script"},
		},
	}

	out := registry.DecodeScriptResponse(response).(map[string]interface{})
	items := out["result"].([]interface{})

	decoded := items[0].(map[string]interface{})["script"]
	assert.Equal(t, []interface{}{"var a = 1;", "logger.message(a);"}, decoded)

	// undecodable field keeps its original value
	assert.Equal(t, "%%% not base64 %%%", items[1].(map[string]interface{})["script"])

	// absent field stays absent
	_, present := items[2].(map[string]interface{})["script"]
	assert.False(t, present)
}
