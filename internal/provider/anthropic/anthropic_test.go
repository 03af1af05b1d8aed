package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelcave/thinkmachine/conversation"
	"github.com/intelcave/thinkmachine/internal/engine"
	"github.com/intelcave/thinkmachine/internal/schema"
	"github.com/intelcave/thinkmachine/tool"
)

// mockStreamer returns pre-built SSE bodies for successive calls and keeps
// the params it was called with.
type mockStreamer struct {
	mu        sync.Mutex
	responses []string
	params    []anthropic.MessageNewParams
}

func (m *mockStreamer) NewStreaming(_ context.Context, params anthropic.MessageNewParams) *ssestream.Stream[anthropic.MessageStreamEventUnion] {
	m.mu.Lock()
	idx := len(m.params)
	m.params = append(m.params, params)
	m.mu.Unlock()

	if idx >= len(m.responses) {
		return ssestream.NewStream[anthropic.MessageStreamEventUnion](nil, fmt.Errorf("no more mock responses"))
	}
	resp := &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(strings.NewReader(m.responses[idx])),
		Header:     http.Header{},
	}
	return ssestream.NewStream[anthropic.MessageStreamEventUnion](ssestream.NewDecoder(resp), nil)
}

type sseEvent struct{ Type, Data string }

func buildSSE(events ...sseEvent) string {
	var sb strings.Builder
	for _, e := range events {
		fmt.Fprintf(&sb, "event: %s\ndata: %s\n\n", e.Type, e.Data)
	}
	return sb.String()
}

func messageStart(model string, inputTokens int64) sseEvent {
	return sseEvent{"message_start", fmt.Sprintf(`{"type":"message_start","message":{"id":"msg_test","type":"message","role":"assistant","content":[],"model":"%s","stop_reason":null,"usage":{"input_tokens":%d,"output_tokens":0}}}`, model, inputTokens)}
}

func textBlockStart(index int) sseEvent {
	return sseEvent{"content_block_start", fmt.Sprintf(`{"type":"content_block_start","index":%d,"content_block":{"type":"text","text":""}}`, index)}
}

func textDelta(index int, text string) sseEvent {
	return sseEvent{"content_block_delta", fmt.Sprintf(`{"type":"content_block_delta","index":%d,"delta":{"type":"text_delta","text":"%s"}}`, index, text)}
}

func toolUseStart(index int, id, name string) sseEvent {
	return sseEvent{"content_block_start", fmt.Sprintf(`{"type":"content_block_start","index":%d,"content_block":{"type":"tool_use","id":"%s","name":"%s","input":{}}}`, index, id, name)}
}

func inputJSONDelta(index int, partial string) sseEvent {
	return sseEvent{"content_block_delta", fmt.Sprintf(`{"type":"content_block_delta","index":%d,"delta":{"type":"input_json_delta","partial_json":"%s"}}`, index, partial)}
}

func blockStop(index int) sseEvent {
	return sseEvent{"content_block_stop", fmt.Sprintf(`{"type":"content_block_stop","index":%d}`, index)}
}

func messageDelta(stopReason string, outputTokens int64) sseEvent {
	return sseEvent{"message_delta", fmt.Sprintf(`{"type":"message_delta","delta":{"stop_reason":"%s","stop_sequence":null},"usage":{"output_tokens":%d}}`, stopReason, outputTokens)}
}

func messageStop() sseEvent { return sseEvent{"message_stop", `{"type":"message_stop"}`} }

func TestGenerate_Text(t *testing.T) {
	s := &mockStreamer{responses: []string{buildSSE(
		messageStart("claude-sonnet-4-5", 10),
		textBlockStart(0),
		textDelta(0, "Hello"),
		textDelta(0, " world"),
		blockStop(0),
		messageDelta("end_turn", 5),
		messageStop(),
	)}}

	var deltas []string
	reply, err := New(s).Generate(context.Background(), engine.Request{
		System:  "be brief",
		Turns:   []conversation.Turn{conversation.User("Hi")},
		OnDelta: func(d string) { deltas = append(deltas, d) },
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", reply.Content)
	assert.Equal(t, "end_turn", reply.StopReason)
	assert.Equal(t, "claude-sonnet-4-5", reply.Model)
	assert.Equal(t, 10, reply.Usage.InputTokens)
	assert.Equal(t, 5, reply.Usage.OutputTokens)
	assert.Equal(t, []string{"Hello", " world"}, deltas)

	require.Len(t, s.params, 1)
	p := s.params[0]
	assert.Equal(t, DefaultModel, p.Model)
	assert.Equal(t, int64(DefaultMaxTokens), p.MaxTokens)
	require.Len(t, p.System, 1)
	assert.Equal(t, "be brief", p.System[0].Text)
}

func TestGenerate_ToolUse(t *testing.T) {
	s := &mockStreamer{responses: []string{buildSSE(
		messageStart("claude-sonnet-4-5", 10),
		toolUseStart(0, "toolu_1", "t_store"),
		inputJSONDelta(0, `{\"key\": \"a\", \"value\": \"b\"}`),
		blockStop(0),
		messageDelta("tool_use", 20),
		messageStop(),
	)}}

	reply, err := New(s).Generate(context.Background(), engine.Request{Model: "claude-haiku-4-5"})
	require.NoError(t, err)
	require.Len(t, reply.ToolCalls, 1)
	call := reply.ToolCalls[0]
	assert.Equal(t, "toolu_1", call.ID)
	assert.Equal(t, "t_store", call.Name)
	assert.JSONEq(t, `{"key":"a","value":"b"}`, string(call.Arguments))
	assert.Equal(t, anthropic.Model("claude-haiku-4-5"), s.params[0].Model)
}

func TestGenerate_StreamError(t *testing.T) {
	_, err := New(&mockStreamer{}).Generate(context.Background(), engine.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no more mock responses")
}

func TestBuildMessages_GroupsToolResults(t *testing.T) {
	turns := []conversation.Turn{
		conversation.User("store it"),
		conversation.Assistant("Root", "",
			conversation.ToolCall{ID: "a", Name: "t_store", Arguments: json.RawMessage(`{"key":"k","value":"v"}`)},
			conversation.ToolCall{ID: "b", Name: "t_keys"},
		),
		conversation.ToolResult(conversation.ToolCall{ID: "a", Name: "t_store"}, "Stored 'k' in temporary memory."),
		conversation.ToolResult(conversation.ToolCall{ID: "b", Name: "t_keys"}, `["k"]`),
		conversation.Assistant("Root", "done"),
		conversation.User("thanks"),
	}

	msgs := buildMessages(turns)
	require.Len(t, msgs, 5)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	assert.Len(t, msgs[1].Content, 2)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
	assert.Len(t, msgs[2].Content, 2)

	data, err := json.Marshal(msgs[2])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tool_use_id":"a"`)
	assert.Contains(t, string(data), `"type":"tool_result"`)
}

func TestBuildTools(t *testing.T) {
	specs := []tool.Spec{{
		Name:        "t_retrieve",
		Description: "read a key",
		Schema:      schema.Object{Properties: map[string]any{"key": map[string]any{"type": "string"}}, Required: []string{"key"}},
	}}

	tools := buildTools(specs)
	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)

	data, err := json.Marshal(tools[0])
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "t_retrieve", got["name"])
	assert.Equal(t, "read a key", got["description"])
	inputSchema, ok := got["input_schema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", inputSchema["type"])
	assert.Equal(t, []any{"key"}, inputSchema["required"])
}
