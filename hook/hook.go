// Package hook defines callbacks that intercept capability calls and user
// input.
//
// A [Matcher] binds a set of [Func] callbacks to an [Event] and an optional
// regex over the capability name, e.g. `^execute_` to guard the shell and
// code capabilities.
package hook

import (
	"context"
	"encoding/json"
	"time"
)

// Event identifies when a hook fires.
type Event string

const (
	// PreToolUse fires before a capability runs. Hooks may block the call or
	// replace its input.
	PreToolUse Event = "PreToolUse"
	// PostToolUse fires after a capability returned a result.
	PostToolUse Event = "PostToolUse"
	// UserPromptSubmit fires before user input is relayed. Hooks may block it.
	UserPromptSubmit Event = "UserPromptSubmit"
	// Stop fires after a relay finished, successfully or not.
	Stop Event = "Stop"
)

// Input is passed to hook functions.
type Input struct {
	SessionID string
	Event     Event

	// Agent is the agent that requested the call.
	Agent      string
	ToolName   string
	ToolInput  json.RawMessage
	ToolOutput string // PostToolUse.
	ToolError  bool   // PostToolUse: the result was an error result.

	Prompt string // UserPromptSubmit.
}

// Result is returned by hook functions. A zero value means "no action".
type Result struct {
	Block        bool            // Stops the call or the prompt.
	Reason       string          // Human-readable reason for blocking.
	UpdatedInput json.RawMessage // Replaces the capability input (PreToolUse only).
}

// Func is the signature for hook callbacks.
type Func func(ctx context.Context, input *Input) (*Result, error)

// Matcher defines which events a set of hooks should fire for.
type Matcher struct {
	Event   Event         // Which event to match.
	Pattern string        // Regex over the capability name (empty = match all).
	Hooks   []Func        // Functions to call, in order.
	Timeout time.Duration // Max time for all hooks in this matcher (0 = 30s default).
}

// Deny returns a hook that blocks with reason.
func Deny(reason string) Func {
	return func(context.Context, *Input) (*Result, error) {
		return &Result{Block: true, Reason: reason}, nil
	}
}
