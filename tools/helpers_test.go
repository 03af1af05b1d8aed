package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/intelcave/thinkmachine/subagent"
	"github.com/intelcave/thinkmachine/tool"
)

// call executes a registered tool with args marshalled to JSON.
func call(t *testing.T, reg *tool.Registry, name string, args any) *tool.Result {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	res, err := reg.Execute(context.Background(), name, raw)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

type fakeFactory struct {
	created []string
	err     error
}

func (f *fakeFactory) Create(name, instructions string) (subagent.Definition, error) {
	if f.err != nil {
		return subagent.Definition{}, f.err
	}
	f.created = append(f.created, name)
	return subagent.Definition{Name: name, Instructions: instructions}, nil
}
