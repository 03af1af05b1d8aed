package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeInput struct {
	Key   string `json:"key" jsonschema:"required,description=Descriptive key name"`
	Value string `json:"value" jsonschema:"required,description=Value to remember"`
}

type listInput struct {
	Pattern string `json:"pattern,omitempty" jsonschema:"description=Optional glob filter"`
}

type timeoutInput struct {
	Command string   `json:"command" jsonschema:"required"`
	Timeout *int     `json:"timeout,omitempty" jsonschema:"description=Timeout in seconds"`
	Tags    []string `json:"tags,omitempty"`
}

func TestGenerate_Required(t *testing.T) {
	s := Generate[storeInput]()

	key, ok := s.Properties["key"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", key["type"])
	assert.Equal(t, "Descriptive key name", key["description"])

	assert.ElementsMatch(t, []string{"key", "value"}, s.Required)
}

func TestGenerate_Optional(t *testing.T) {
	s := Generate[listInput]()
	assert.Contains(t, s.Properties, "pattern")
	assert.NotContains(t, s.Required, "pattern")
}

func TestGenerate_PointerAndSlice(t *testing.T) {
	s := Generate[timeoutInput]()

	timeout, ok := s.Properties["timeout"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "integer", timeout["type"])

	tags, ok := s.Properties["tags"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", tags["type"])
	items, ok := tags["items"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", items["type"])
}

func TestObject_Map(t *testing.T) {
	m := Object{}.Map()
	assert.Equal(t, "object", m["type"])
	assert.Equal(t, map[string]any{}, m["properties"])
	assert.NotContains(t, m, "required")
}

func TestObject_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Generate[storeInput]())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "object", decoded["type"])
	assert.Len(t, decoded["properties"], 2)
}
