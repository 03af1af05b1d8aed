// Package hookrunner executes hook matchers.
package hookrunner

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	pubhook "github.com/intelcave/thinkmachine/hook"
)

const defaultTimeout = 30 * time.Second

// Runner executes hooks matched by event and capability name. A nil Runner
// runs nothing.
type Runner struct {
	matchers []matcherEntry
}

type matcherEntry struct {
	event   pubhook.Event
	pattern *regexp.Regexp // nil = match all capabilities
	hooks   []pubhook.Func
	timeout time.Duration
}

// New creates a Runner from public Matcher definitions.
// Returns an error if any regex pattern is invalid.
func New(matchers []pubhook.Matcher) (*Runner, error) {
	entries := make([]matcherEntry, 0, len(matchers))
	for i, m := range matchers {
		entry := matcherEntry{
			event:   m.Event,
			hooks:   m.Hooks,
			timeout: m.Timeout,
		}
		if entry.timeout == 0 {
			entry.timeout = defaultTimeout
		}
		if m.Pattern != "" {
			re, err := regexp.Compile(m.Pattern)
			if err != nil {
				return nil, fmt.Errorf("matcher[%d]: invalid pattern %q: %w", i, m.Pattern, err)
			}
			entry.pattern = re
		}
		entries = append(entries, entry)
	}
	return &Runner{matchers: entries}, nil
}

// Len reports the number of matchers.
func (r *Runner) Len() int {
	if r == nil {
		return 0
	}
	return len(r.matchers)
}

// RunPreToolUse runs all matching PreToolUse hooks. First block wins;
// UpdatedInput from the last non-nil update wins.
func (r *Runner) RunPreToolUse(ctx context.Context, sessionID, agent, toolName string, input json.RawMessage) (*pubhook.Result, error) {
	return r.run(ctx, toolName, &pubhook.Input{
		SessionID: sessionID,
		Event:     pubhook.PreToolUse,
		Agent:     agent,
		ToolName:  toolName,
		ToolInput: input,
	})
}

// RunPostToolUse runs all matching PostToolUse hooks.
func (r *Runner) RunPostToolUse(ctx context.Context, sessionID, agent, toolName string, input json.RawMessage, output string, isError bool) error {
	_, err := r.run(ctx, toolName, &pubhook.Input{
		SessionID:  sessionID,
		Event:      pubhook.PostToolUse,
		Agent:      agent,
		ToolName:   toolName,
		ToolInput:  input,
		ToolOutput: output,
		ToolError:  isError,
	})
	return err
}

// RunUserPromptSubmit runs all UserPromptSubmit hooks.
func (r *Runner) RunUserPromptSubmit(ctx context.Context, sessionID, prompt string) (*pubhook.Result, error) {
	return r.run(ctx, "", &pubhook.Input{
		SessionID: sessionID,
		Event:     pubhook.UserPromptSubmit,
		Prompt:    prompt,
	})
}

// RunStop runs all Stop hooks.
func (r *Runner) RunStop(ctx context.Context, sessionID string) error {
	_, err := r.run(ctx, "", &pubhook.Input{
		SessionID: sessionID,
		Event:     pubhook.Stop,
	})
	return err
}

// run is the internal dispatcher.
func (r *Runner) run(ctx context.Context, toolName string, input *pubhook.Input) (*pubhook.Result, error) {
	if r == nil {
		return nil, nil
	}
	var combined *pubhook.Result

	for _, entry := range r.matchers {
		if entry.event != input.Event {
			continue
		}
		if entry.pattern != nil && !entry.pattern.MatchString(toolName) {
			continue
		}

		tctx, cancel := context.WithTimeout(ctx, entry.timeout)
		res, err := runHooks(tctx, entry.hooks, input)
		cancel()

		if err != nil {
			return combined, err
		}
		if res == nil {
			continue
		}
		if combined == nil {
			combined = &pubhook.Result{}
		}
		merge(combined, res)
		if combined.Block {
			break
		}
	}

	return combined, nil
}

// runHooks executes a slice of hook functions in order.
// It stops early if a hook blocks or the context is cancelled.
func runHooks(ctx context.Context, hooks []pubhook.Func, input *pubhook.Input) (*pubhook.Result, error) {
	var combined *pubhook.Result

	for _, fn := range hooks {
		if err := ctx.Err(); err != nil {
			return combined, err
		}

		res, err := fn(ctx, input)
		if err != nil {
			return combined, err
		}
		if res == nil {
			continue
		}
		if combined == nil {
			combined = &pubhook.Result{}
		}
		merge(combined, res)
		if combined.Block {
			return combined, nil
		}
	}

	return combined, nil
}

func merge(dst, src *pubhook.Result) {
	if src.Block && !dst.Block {
		dst.Block = true
		dst.Reason = src.Reason
	}
	if src.UpdatedInput != nil {
		dst.UpdatedInput = src.UpdatedInput
	}
}
