package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_FixedOrder(t *testing.T) {
	var names []string
	for _, c := range All() {
		names = append(names, c.ToolName())
	}
	assert.Equal(t, []string{
		"create_agent", "execute_command", "execute_code", "query_postgres_database",
		"t_keys", "t_store", "t_retrieve", "t_remove",
		"p_keys", "p_store", "p_retrieve", "p_remove",
	}, names)
}

func TestParseCapability(t *testing.T) {
	c, err := ParseCapability(" p_store ")
	require.NoError(t, err)
	assert.Equal(t, StorePersistent, c)

	_, err = ParseCapability("Bash")
	assert.Error(t, err)
	assert.Equal(t, "capability(99)", Capability(99).String())
}

func TestWithout(t *testing.T) {
	caps, err := Without(All(), "execute_command", "execute_code")
	require.NoError(t, err)
	assert.Len(t, caps, 10)
	assert.NotContains(t, caps, ExecuteCommand)
	assert.NotContains(t, caps, ExecuteCode)

	_, err = Without(All(), "nope")
	assert.Error(t, err)
}
