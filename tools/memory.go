package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/intelcave/thinkmachine/memory"
	"github.com/intelcave/thinkmachine/tool"
)

// KeysInput defines the input for the key listing tools.
type KeysInput struct {
	Pattern string `json:"pattern,omitempty" jsonschema:"description=Optional glob pattern the keys must match"`
}

// StoreInput defines the input for the store tools.
type StoreInput struct {
	Key   string `json:"key" jsonschema:"required,description=The key to store the value under"`
	Value string `json:"value" jsonschema:"required,description=The value to store"`
}

// KeyInput defines the input for the retrieve and remove tools.
type KeyInput struct {
	Key string `json:"key" jsonschema:"required,description=The key to look up"`
}

func scopePrefix(s memory.Scope) string {
	if s == memory.Persistent {
		return "p_"
	}
	return "t_"
}

// KeysTool lists the keys of a memory store.
type KeysTool struct{ Store memory.Store }

var _ tool.Tool[KeysInput] = (*KeysTool)(nil)

func (t *KeysTool) Name() string { return scopePrefix(t.Store.Scope()) + "keys" }
func (t *KeysTool) Description() string {
	return fmt.Sprintf("List the keys held in %s memory.", t.Store.Scope())
}

func (t *KeysTool) Execute(ctx context.Context, input KeysInput) (*tool.Result, error) {
	keys, err := t.Store.Keys(ctx)
	if err != nil {
		return storeError(t.Store.Scope(), "list keys", err), nil
	}
	keys, err = memory.FilterKeys(keys, input.Pattern)
	if err != nil {
		return tool.ErrorResult(err.Error()), nil
	}
	data, err := json.Marshal(keys)
	if err != nil {
		return tool.ErrorResult(err.Error()), nil
	}
	return tool.TextResult(string(data)).WithMetadata("count", len(keys)), nil
}

// StoreTool writes a value into a memory store.
type StoreTool struct{ Store memory.Store }

var _ tool.Tool[StoreInput] = (*StoreTool)(nil)

func (t *StoreTool) Name() string { return scopePrefix(t.Store.Scope()) + "store" }
func (t *StoreTool) Description() string {
	if t.Store.Scope() == memory.Persistent {
		return "Store a value under a key in persistent memory. It survives restarts."
	}
	return "Store a value under a key in temporary memory for this session."
}

func (t *StoreTool) Execute(ctx context.Context, input StoreInput) (*tool.Result, error) {
	if err := t.Store.Put(ctx, input.Key, input.Value); err != nil {
		return storeError(t.Store.Scope(), "store "+quote(input.Key), err), nil
	}
	return tool.TextResult(memory.StoredMessage(t.Store.Scope(), input.Key)), nil
}

// RetrieveTool reads a value from a memory store.
type RetrieveTool struct{ Store memory.Store }

var _ tool.Tool[KeyInput] = (*RetrieveTool)(nil)

func (t *RetrieveTool) Name() string { return scopePrefix(t.Store.Scope()) + "retrieve" }
func (t *RetrieveTool) Description() string {
	return fmt.Sprintf("Retrieve the value stored under a key in %s memory.", t.Store.Scope())
}

func (t *RetrieveTool) Execute(ctx context.Context, input KeyInput) (*tool.Result, error) {
	lookup, err := t.Store.Get(ctx, input.Key)
	if err != nil {
		return storeError(t.Store.Scope(), "retrieve "+quote(input.Key), err), nil
	}
	return tool.TextResult(lookup.Text()).WithMetadata("found", lookup.Found), nil
}

// RemoveTool deletes a key from a memory store.
type RemoveTool struct{ Store memory.Store }

var _ tool.Tool[KeyInput] = (*RemoveTool)(nil)

func (t *RemoveTool) Name() string { return scopePrefix(t.Store.Scope()) + "remove" }
func (t *RemoveTool) Description() string {
	return fmt.Sprintf("Remove a key from %s memory.", t.Store.Scope())
}

func (t *RemoveTool) Execute(ctx context.Context, input KeyInput) (*tool.Result, error) {
	if err := t.Store.Delete(ctx, input.Key); err != nil {
		return storeError(t.Store.Scope(), "remove "+quote(input.Key), err), nil
	}
	return tool.TextResult(memory.RemovedMessage(t.Store.Scope(), input.Key)), nil
}

func storeError(scope memory.Scope, op string, err error) *tool.Result {
	return tool.ErrorResult(fmt.Sprintf("Failed to %s in %s memory: %s", op, scope, err.Error()))
}

func quote(key string) string { return "'" + key + "'" }
