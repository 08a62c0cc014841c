package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyJson_PartialFileOverridesOnlyNamedFields(t *testing.T) {
	raw := `{
		"endpoint_addr_http": ":9090",
		"database_dsn": "postgres://localhost/clipcards",
		"transcribe_timeout": "2m",
		"generate_timeout": 30000000000,
		"gate_strict_relevance": true,
		"allowed_mime_types": ["video/mp4"]
	}`

	var dto JsonConfig
	require.NoError(t, json.Unmarshal([]byte(raw), &dto))

	var c Config
	c.LoadDefaults()
	applyJson(&c, &dto)

	assert.Equal(t, c.EndpointAddrHTTP, ":9090")
	assert.Equal(t, c.DatabaseDSN, "postgres://localhost/clipcards")
	assert.Equal(t, c.TranscribeTimeout, 2*time.Minute, "duration strings parse")
	assert.Equal(t, c.GenerateTimeout, 30*time.Second, "nanosecond numbers parse")
	assert.True(t, c.GateStrictRelevance)
	assert.Equal(t, c.AllowedMimeTypes, []string{"video/mp4"})

	// untouched fields keep their defaults
	assert.Equal(t, c.UploadDir, "./uploads")
	assert.Equal(t, c.AcquireTimeout, 15*time.Minute)
	assert.Equal(t, c.GateMinLength, 100)
}

func TestApplyJson_EmptyFileChangesNothing(t *testing.T) {
	var dto JsonConfig
	require.NoError(t, json.Unmarshal([]byte(`{}`), &dto))

	var c Config
	c.LoadDefaults()
	before := c

	applyJson(&c, &dto)

	assert.Equal(t, before.EndpointAddrHTTP, c.EndpointAddrHTTP)
	assert.Equal(t, before.MaxUploadBytes, c.MaxUploadBytes)
	assert.Equal(t, before.AllowedMimeTypes, c.AllowedMimeTypes)
}
