// Package anthropic drives the agent loop with the Anthropic Messages API.
// Replies are streamed so text can be shown while it is generated.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/intelcave/thinkmachine/conversation"
	"github.com/intelcave/thinkmachine/internal/budget"
	"github.com/intelcave/thinkmachine/internal/engine"
	"github.com/intelcave/thinkmachine/tool"
)

// DefaultModel is used when a request names no model.
const DefaultModel = anthropic.ModelClaudeSonnet4_5

// DefaultMaxTokens is used when a request sets no output limit.
const DefaultMaxTokens = 4096

// MessageStreamer abstracts the Messages API so the driver can be tested
// with a mock. Production code wraps client.Messages.
type MessageStreamer interface {
	NewStreaming(ctx context.Context, params anthropic.MessageNewParams) *ssestream.Stream[anthropic.MessageStreamEventUnion]
}

type messageServiceAdapter struct {
	svc *anthropic.MessageService
}

func (a *messageServiceAdapter) NewStreaming(ctx context.Context, params anthropic.MessageNewParams) *ssestream.Stream[anthropic.MessageStreamEventUnion] {
	return a.svc.NewStreaming(ctx, params)
}

// NewMessageStreamer wraps a real MessageService.
func NewMessageStreamer(svc *anthropic.MessageService) MessageStreamer {
	return &messageServiceAdapter{svc: svc}
}

// Model implements engine.Model.
type Model struct {
	streamer MessageStreamer
}

var _ engine.Model = (*Model)(nil)

// New returns a driver that streams through s.
func New(s MessageStreamer) *Model {
	return &Model{streamer: s}
}

// NewFromClient returns a driver backed by client.
func NewFromClient(client *anthropic.Client) *Model {
	return New(NewMessageStreamer(&client.Messages))
}

// Generate streams one assistant message and converts it into a Reply.
func (m *Model) Generate(ctx context.Context, req engine.Request) (*engine.Reply, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  buildMessages(req.Turns),
	}
	if params.Model == "" {
		params.Model = DefaultModel
	}
	if params.MaxTokens <= 0 {
		params.MaxTokens = DefaultMaxTokens
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	stream := m.streamer.NewStreaming(ctx, params)
	defer stream.Close()

	msg := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return nil, fmt.Errorf("anthropic: accumulate: %w", err)
		}
		if req.OnDelta != nil && event.Type == "content_block_delta" && event.Delta.Type == "text_delta" && event.Delta.Text != "" {
			req.OnDelta(event.Delta.Text)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("anthropic: stream: %w", err)
	}
	return toReply(msg, params.Model), nil
}

func toReply(msg anthropic.Message, requested anthropic.Model) *engine.Reply {
	reply := &engine.Reply{
		StopReason: string(msg.StopReason),
		Model:      string(msg.Model),
		Usage: budget.Usage{
			InputTokens:              int(msg.Usage.InputTokens),
			OutputTokens:             int(msg.Usage.OutputTokens),
			CacheReadInputTokens:     int(msg.Usage.CacheReadInputTokens),
			CacheCreationInputTokens: int(msg.Usage.CacheCreationInputTokens),
		},
	}
	if reply.Model == "" {
		reply.Model = string(requested)
	}

	var text []string
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if t := block.AsText().Text; t != "" {
				text = append(text, t)
			}
		case "tool_use":
			tu := block.AsToolUse()
			args := json.RawMessage(tu.Input)
			if len(args) == 0 {
				args = json.RawMessage(`{}`)
			}
			reply.ToolCalls = append(reply.ToolCalls, conversation.ToolCall{ID: tu.ID, Name: tu.Name, Arguments: args})
		}
	}
	reply.Content = strings.Join(text, "\n")
	return reply
}

// buildMessages converts turns into alternating user and assistant
// messages. Tool turns become tool_result blocks in a user message, and
// adjacent turns of the same side are merged.
func buildMessages(turns []conversation.Turn) []anthropic.MessageParam {
	var msgs []anthropic.MessageParam
	push := func(role anthropic.MessageParamRole, blocks []anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content = append(msgs[n-1].Content, blocks...)
			return
		}
		if role == anthropic.MessageParamRoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(blocks...))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(blocks...))
		}
	}

	for _, t := range turns {
		switch t.Role {
		case conversation.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if t.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(t.Content))
			}
			for _, c := range t.ToolCalls {
				var input any = json.RawMessage(`{}`)
				if len(c.Arguments) > 0 && json.Valid(c.Arguments) {
					input = c.Arguments
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(c.ID, input, c.Name))
			}
			push(anthropic.MessageParamRoleAssistant, blocks)
		case conversation.RoleTool:
			push(anthropic.MessageParamRoleUser, []anthropic.ContentBlockParamUnion{
				anthropic.NewToolResultBlock(t.ToolCallID, t.Content, false),
			})
		default:
			if t.Content != "" {
				push(anthropic.MessageParamRoleUser, []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(t.Content)})
			}
		}
	}
	return msgs
}

func buildTools(specs []tool.Spec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, s := range specs {
		props := s.Schema.Properties
		if props == nil {
			props = map[string]any{}
		}
		schema := anthropic.ToolInputSchemaParam{
			Type:       constant.Object("object"),
			Properties: props,
			Required:   s.Schema.Required,
		}
		u := anthropic.ToolUnionParamOfTool(schema, s.Name)
		if s.Description != "" {
			u.OfTool.Description = anthropic.String(s.Description)
		}
		out = append(out, u)
	}
	return out
}
