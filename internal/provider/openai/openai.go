// Package openai drives the agent loop with the OpenAI Chat Completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/intelcave/thinkmachine/conversation"
	"github.com/intelcave/thinkmachine/internal/budget"
	"github.com/intelcave/thinkmachine/internal/engine"
	"github.com/intelcave/thinkmachine/tool"
)

// DefaultModel is used when a request names no model.
const DefaultModel = openai.ChatModelGPT4o

// ChatCompleter abstracts the Chat Completions endpoint so the driver can be
// tested with a fake. *openai.ChatCompletionService satisfies it.
type ChatCompleter interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Model implements engine.Model.
type Model struct {
	completer ChatCompleter
}

var _ engine.Model = (*Model)(nil)

// New returns a driver that completes through c.
func New(c ChatCompleter) *Model {
	return &Model{completer: c}
}

// NewFromClient returns a driver backed by client.
func NewFromClient(client *openai.Client) *Model {
	return New(&client.Chat.Completions)
}

// Generate requests one completion and converts its first choice into a Reply.
func (m *Model) Generate(ctx context.Context, req engine.Request) (*engine.Reply, error) {
	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: buildMessages(req.System, req.Turns),
	}
	if params.Model == "" {
		params.Model = DefaultModel
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := m.completer.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: no choices returned")
	}

	choice := resp.Choices[0]
	reply := &engine.Reply{
		Content:    choice.Message.Content,
		StopReason: choice.FinishReason,
		Model:      resp.Model,
		Usage: budget.Usage{
			InputTokens:          int(resp.Usage.PromptTokens - resp.Usage.PromptTokensDetails.CachedTokens),
			OutputTokens:         int(resp.Usage.CompletionTokens),
			CacheReadInputTokens: int(resp.Usage.PromptTokensDetails.CachedTokens),
		},
	}
	if reply.Model == "" {
		reply.Model = params.Model
	}
	for _, tc := range choice.Message.ToolCalls {
		args := json.RawMessage(tc.Function.Arguments)
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}
		reply.ToolCalls = append(reply.ToolCalls, conversation.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	if req.OnDelta != nil && reply.Content != "" {
		req.OnDelta(reply.Content)
	}
	return reply, nil
}

// buildMessages converts the system prompt and turns into chat messages.
func buildMessages(system string, turns []conversation.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, t := range turns {
		switch t.Role {
		case conversation.RoleAssistant:
			if len(t.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(t.Content))
				continue
			}
			msg := &openai.ChatCompletionAssistantMessageParam{Role: "assistant"}
			if t.Content != "" {
				msg.Content.OfString = openai.String(t.Content)
			}
			for _, c := range t.ToolCalls {
				args := string(c.Arguments)
				if args == "" {
					args = "{}"
				}
				msg.ToolCalls = append(msg.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID:   c.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      c.Name,
						Arguments: args,
					},
				})
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: msg})
		case conversation.RoleTool:
			messages = append(messages, openai.ToolMessage(t.Content, t.ToolCallID))
		default:
			messages = append(messages, openai.UserMessage(t.Content))
		}
	}
	return messages
}

func buildTools(specs []tool.Spec) []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, len(specs))
	for i, s := range specs {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        s.Name,
				Description: openai.String(s.Description),
				Parameters:  openai.FunctionParameters(s.Schema.Map()),
			},
		}
	}
	return tools
}
