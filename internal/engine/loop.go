// Package engine runs the agent loop: it asks a model for the next assistant
// turn, executes the tool calls that turn requests, and repeats until the
// model answers without calling a tool.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/intelcave/thinkmachine/conversation"
	"github.com/intelcave/thinkmachine/internal/budget"
	"github.com/intelcave/thinkmachine/logging"
	"github.com/intelcave/thinkmachine/subagent"
	"github.com/intelcave/thinkmachine/tool"
)

// Sentinel errors returned by RunLoop together with the partial Outcome.
var (
	ErrMaxTurns        = errors.New("engine: max turns reached")
	ErrBudgetExhausted = errors.New("engine: budget exhausted")
)

// Request is one model call.
type Request struct {
	Model     string
	System    string
	Turns     []conversation.Turn
	Tools     []tool.Spec
	MaxTokens int

	// OnDelta receives streamed text as it arrives. May be nil.
	OnDelta func(string)
}

// Reply is the assistant turn a model produced.
type Reply struct {
	Content    string
	ToolCalls  []conversation.ToolCall
	Usage      budget.Usage
	StopReason string
	Model      string
}

// Model abstracts a provider API so the loop can be tested with a fake.
type Model interface {
	Generate(ctx context.Context, req Request) (*Reply, error)
}

// ToolExecutor executes a tool by name with raw JSON input. *tool.Registry
// satisfies it.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, input json.RawMessage) (*tool.Result, error)
	Specs() []tool.Spec
}

// BudgetChecker tracks and enforces spend. Nil means no enforcement.
type BudgetChecker interface {
	RecordUsage(model string, usage budget.Usage)
	Exhausted() bool
}

// EventSink receives loop events. The loop calls these instead of importing
// root package event types.
type EventSink interface {
	OnTurn(turn conversation.Turn)
	OnDelta(agent, delta string)
	OnToolCall(agent string, call conversation.ToolCall)
	OnToolResult(agent string, call conversation.ToolCall, result *tool.Result)
	OnHandoff(from, to string)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) OnTurn(conversation.Turn)                                 {}
func (NopSink) OnDelta(string, string)                                   {}
func (NopSink) OnToolCall(string, conversation.ToolCall)                 {}
func (NopSink) OnToolResult(string, conversation.ToolCall, *tool.Result) {}
func (NopSink) OnHandoff(string, string)                                 {}

// LoopConfig holds everything the loop needs.
type LoopConfig struct {
	Model Model
	Tools ToolExecutor

	// Agent is the agent the run starts with.
	Agent subagent.Definition

	// Resolve looks up a handoff target's full definition. When nil, or when
	// it misses, the target inherits the default model and turn limit.
	Resolve func(name string) (subagent.Definition, bool)

	// Turns is the conversation so far. The loop does not modify it.
	Turns []conversation.Turn

	DefaultModel string
	MaxTokens    int

	// MaxTurns bounds model calls for the whole run. 0 means unlimited.
	MaxTurns int

	Budget BudgetChecker
	Sink   EventSink
	Logger logging.Logger
}

// Outcome is what a run produced. It is returned with errors too, holding
// whatever turns were completed.
type Outcome struct {
	Turns      []conversation.Turn
	Agent      subagent.Definition
	Usage      budget.Usage
	NumTurns   int
	StopReason string
	Duration   time.Duration
}

// RunLoop runs the agent loop in the calling goroutine.
func RunLoop(ctx context.Context, cfg LoopConfig) (Outcome, error) {
	start := time.Now()
	sink := cfg.Sink
	if sink == nil {
		sink = NopSink{}
	}
	log := logging.OrNoOp(cfg.Logger)

	history := conversation.Clone(cfg.Turns)
	out := Outcome{Agent: cfg.Agent}
	finish := func(err error) (Outcome, error) {
		out.Duration = time.Since(start)
		return out, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		active := out.Agent
		if limit := turnLimit(cfg, active); limit > 0 && out.NumTurns >= limit {
			log.Warn("max turns reached", "agent", active.Name, "turns", out.NumTurns)
			return finish(ErrMaxTurns)
		}

		model := active.Model
		if model == "" {
			model = cfg.DefaultModel
		}
		reply, err := cfg.Model.Generate(ctx, Request{
			Model:     model,
			System:    active.Instructions,
			Turns:     history,
			Tools:     cfg.Tools.Specs(),
			MaxTokens: cfg.MaxTokens,
			OnDelta:   func(d string) { sink.OnDelta(active.Name, d) },
		})
		if err != nil {
			return finish(fmt.Errorf("engine: generate: %w", err))
		}
		out.NumTurns++
		out.StopReason = reply.StopReason
		out.Usage = out.Usage.Add(reply.Usage)
		if reply.Model != "" {
			model = reply.Model
		}

		assistant := conversation.Assistant(active.Name, reply.Content, reply.ToolCalls...)
		history = append(history, assistant)
		out.Turns = append(out.Turns, assistant)
		sink.OnTurn(assistant)
		log.Debug("assistant turn", "agent", active.Name, "tool_calls", len(reply.ToolCalls),
			"input_tokens", reply.Usage.InputTokens, "output_tokens", reply.Usage.OutputTokens)

		if cfg.Budget != nil {
			cfg.Budget.RecordUsage(model, reply.Usage)
			if cfg.Budget.Exhausted() {
				return finish(ErrBudgetExhausted)
			}
		}

		if len(reply.ToolCalls) == 0 {
			return finish(nil)
		}

		next := active
		for _, call := range reply.ToolCalls {
			turn, handoff := executeCall(ctx, cfg, sink, active.Name, call)
			history = append(history, turn)
			out.Turns = append(out.Turns, turn)
			sink.OnTurn(turn)
			if handoff != nil {
				next = resolveHandoff(cfg, handoff)
			}
		}
		if next.Name != active.Name || next.Instructions != active.Instructions {
			sink.OnHandoff(active.Name, next.Name)
			log.Info("handoff", "from", active.Name, "to", next.Name)
		}
		out.Agent = next
	}
}

func turnLimit(cfg LoopConfig, active subagent.Definition) int {
	if active.MaxTurns > 0 && (cfg.MaxTurns == 0 || active.MaxTurns < cfg.MaxTurns) {
		return active.MaxTurns
	}
	return cfg.MaxTurns
}

// executeCall runs one tool call and builds the tool turn that answers it.
func executeCall(ctx context.Context, cfg LoopConfig, sink EventSink, agent string, call conversation.ToolCall) (conversation.Turn, *tool.Handoff) {
	sink.OnToolCall(agent, call)

	res, err := cfg.Tools.Execute(WithAgent(ctx, agent), call.Name, call.Arguments)
	switch {
	case errors.Is(err, tool.ErrNotFound):
		res = tool.ErrorResult(fmt.Sprintf("Error: Tool %s not found.", call.Name))
	case err != nil:
		res = tool.ErrorResult("Error: " + err.Error())
	case res == nil:
		res = tool.TextResult("")
	}
	sink.OnToolResult(agent, call, res)
	return conversation.ToolResult(call, res.Content), res.Handoff
}

func resolveHandoff(cfg LoopConfig, h *tool.Handoff) subagent.Definition {
	if cfg.Resolve != nil {
		if def, ok := cfg.Resolve(h.Name); ok {
			return def
		}
	}
	return subagent.Definition{Name: h.Name, Instructions: h.Instructions}
}
