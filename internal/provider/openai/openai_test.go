package openai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelcave/thinkmachine/conversation"
	"github.com/intelcave/thinkmachine/internal/engine"
	"github.com/intelcave/thinkmachine/internal/schema"
	"github.com/intelcave/thinkmachine/tool"
)

type fakeCompleter struct {
	body   string
	err    error
	params []openai.ChatCompletionNewParams
}

func (f *fakeCompleter) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.params = append(f.params, body)
	if f.err != nil {
		return nil, f.err
	}
	var out openai.ChatCompletion
	if err := json.Unmarshal([]byte(f.body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

const textCompletion = `{
	"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-2024-08-06",
	"choices": [{"index": 0, "finish_reason": "stop", "logprobs": null,
		"message": {"role": "assistant", "content": "Hi there", "refusal": null}}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15,
		"prompt_tokens_details": {"cached_tokens": 2}}
}`

const toolCompletion = `{
	"id": "chatcmpl-2", "object": "chat.completion", "created": 1, "model": "gpt-4o",
	"choices": [{"index": 0, "finish_reason": "tool_calls", "logprobs": null,
		"message": {"role": "assistant", "content": null, "refusal": null, "tool_calls": [
			{"id": "call_1", "type": "function", "function": {"name": "execute_command", "arguments": "{\"command\":\"ls\"}"}}
		]}}],
	"usage": {"prompt_tokens": 20, "completion_tokens": 7, "total_tokens": 27}
}`

func TestGenerate_Text(t *testing.T) {
	f := &fakeCompleter{body: textCompletion}
	var deltas []string

	reply, err := New(f).Generate(context.Background(), engine.Request{
		System:    "root prompt",
		Turns:     []conversation.Turn{conversation.User("hello")},
		MaxTokens: 256,
		OnDelta:   func(d string) { deltas = append(deltas, d) },
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", reply.Content)
	assert.Equal(t, "stop", reply.StopReason)
	assert.Equal(t, "gpt-4o-2024-08-06", reply.Model)
	assert.Equal(t, 10, reply.Usage.InputTokens)
	assert.Equal(t, 2, reply.Usage.CacheReadInputTokens)
	assert.Equal(t, 3, reply.Usage.OutputTokens)
	assert.Equal(t, []string{"Hi there"}, deltas)

	require.Len(t, f.params, 1)
	p := f.params[0]
	assert.Equal(t, DefaultModel, p.Model)
	require.Len(t, p.Messages, 2)
	require.NotNil(t, p.Messages[0].OfSystem)
	require.NotNil(t, p.Messages[1].OfUser)
	assert.Equal(t, int64(256), p.MaxCompletionTokens.Value)
}

func TestGenerate_ToolCalls(t *testing.T) {
	reply, err := New(&fakeCompleter{body: toolCompletion}).Generate(context.Background(), engine.Request{Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Empty(t, reply.Content)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "call_1", reply.ToolCalls[0].ID)
	assert.Equal(t, "execute_command", reply.ToolCalls[0].Name)
	assert.JSONEq(t, `{"command":"ls"}`, string(reply.ToolCalls[0].Arguments))
}

func TestGenerate_Errors(t *testing.T) {
	_, err := New(&fakeCompleter{err: errors.New("rate limited")}).Generate(context.Background(), engine.Request{})
	assert.ErrorContains(t, err, "rate limited")

	_, err = New(&fakeCompleter{body: `{"choices": []}`}).Generate(context.Background(), engine.Request{})
	assert.ErrorContains(t, err, "no choices")
}

func TestBuildMessages(t *testing.T) {
	turns := []conversation.Turn{
		conversation.User("list"),
		conversation.Assistant("Root", "checking", conversation.ToolCall{ID: "c1", Name: "p_keys"}),
		conversation.ToolResult(conversation.ToolCall{ID: "c1", Name: "p_keys"}, `[]`),
		conversation.Assistant("Root", "nothing stored"),
	}

	msgs := buildMessages("", turns)
	require.Len(t, msgs, 4)
	require.NotNil(t, msgs[1].OfAssistant)
	require.Len(t, msgs[1].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "{}", msgs[1].OfAssistant.ToolCalls[0].Function.Arguments)
	assert.Equal(t, "checking", msgs[1].OfAssistant.Content.OfString.Value)
	require.NotNil(t, msgs[2].OfTool)
	assert.Equal(t, "c1", msgs[2].OfTool.ToolCallID)
	require.NotNil(t, msgs[3].OfAssistant)
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]tool.Spec{{
		Name:        "execute_code",
		Description: "run python",
		Schema:      schema.Object{Properties: map[string]any{"code": map[string]any{"type": "string"}}, Required: []string{"code"}},
	}})
	require.Len(t, tools, 1)
	fn := tools[0].Function
	assert.Equal(t, "execute_code", fn.Name)
	assert.Equal(t, "run python", fn.Description.Value)
	assert.Equal(t, "object", fn.Parameters["type"])
	assert.Equal(t, []string{"code"}, fn.Parameters["required"])
}
