// Package conversation defines the provider-neutral turns exchanged between
// the orchestrator and an agent runtime.
package conversation

import (
	"encoding/json"
	"slices"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a capability invocation requested by an assistant turn.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Turn is one entry in the running conversation.
//
// Assistant turns carry the producing agent in Sender and may request
// ToolCalls. Tool turns answer exactly one call, identified by ToolCallID.
type Turn struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Sender     string     `json:"sender,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
}

// User returns a user turn.
func User(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// Assistant returns an assistant turn produced by sender.
func Assistant(sender, content string, calls ...ToolCall) Turn {
	return Turn{Role: RoleAssistant, Sender: sender, Content: content, ToolCalls: calls}
}

// ToolResult returns the tool turn answering call.
func ToolResult(call ToolCall, content string) Turn {
	return Turn{Role: RoleTool, Content: content, ToolCallID: call.ID, ToolName: call.Name}
}

// LastContent returns the content of the final turn, or "" when turns is empty.
func LastContent(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	return turns[len(turns)-1].Content
}

// Clone deep-copies turns.
func Clone(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	out := make([]Turn, len(turns))
	for i, t := range turns {
		out[i] = t
		if t.ToolCalls != nil {
			calls := make([]ToolCall, len(t.ToolCalls))
			for j, c := range t.ToolCalls {
				calls[j] = c
				calls[j].Arguments = slices.Clone(c.Arguments)
			}
			out[i].ToolCalls = calls
		}
	}
	return out
}
