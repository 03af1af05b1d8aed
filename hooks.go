package thinkmachine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/intelcave/thinkmachine/internal/engine"
	"github.com/intelcave/thinkmachine/internal/hookrunner"
	"github.com/intelcave/thinkmachine/logging"
	"github.com/intelcave/thinkmachine/tool"
)

// ToolSet executes capabilities by name. *tool.Registry satisfies it.
type ToolSet interface {
	Execute(ctx context.Context, name string, input json.RawMessage) (*tool.Result, error)
	Specs() []tool.Spec
}

// hookedTools runs PreToolUse and PostToolUse hooks around every call.
// A blocked call never reaches the capability and answers with an error
// result naming the reason.
type hookedTools struct {
	inner     ToolSet
	hooks     *hookrunner.Runner
	sessionID func() string
	log       logging.Logger
}

func (h *hookedTools) Specs() []tool.Spec { return h.inner.Specs() }

func (h *hookedTools) Execute(ctx context.Context, name string, input json.RawMessage) (*tool.Result, error) {
	agent := engine.AgentFromContext(ctx)
	sid := h.sessionID()

	pre, err := h.hooks.RunPreToolUse(ctx, sid, agent, name, input)
	if err != nil {
		h.log.Warn("pre-tool hook failed", "tool", name, "error", err)
		return tool.ErrorResult(fmt.Sprintf("Tool %s blocked: hook failed: %v", name, err)), nil
	}
	if pre != nil {
		if pre.Block {
			h.log.Info("tool call blocked", "tool", name, "agent", agent, "reason", pre.Reason)
			return tool.ErrorResult(fmt.Sprintf("Tool %s blocked: %s", name, pre.Reason)), nil
		}
		if pre.UpdatedInput != nil {
			input = pre.UpdatedInput
		}
	}

	res, err := h.inner.Execute(ctx, name, input)
	if err != nil {
		return res, err
	}
	if res != nil {
		if err := h.hooks.RunPostToolUse(ctx, sid, agent, name, input, res.Content, res.IsError); err != nil {
			h.log.Warn("post-tool hook failed", "tool", name, "error", err)
		}
	}
	return res, nil
}
