package thinkmachine

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"github.com/shopspring/decimal"

	"github.com/intelcave/thinkmachine/conversation"
	"github.com/intelcave/thinkmachine/internal/budget"
	"github.com/intelcave/thinkmachine/internal/engine"
	anthropicprovider "github.com/intelcave/thinkmachine/internal/provider/anthropic"
	openaiprovider "github.com/intelcave/thinkmachine/internal/provider/openai"
	"github.com/intelcave/thinkmachine/logging"
	"github.com/intelcave/thinkmachine/subagent"
)

// Usage tracks token consumption.
type Usage = budget.Usage

// RunRequest is one relay of the conversation to a Runtime.
type RunRequest struct {
	// Agent is the agent the run starts with.
	Agent subagent.Definition
	// Turns is the full conversation, ending with the new user turn.
	Turns []conversation.Turn
	// Tools is the capability set bound into every agent.
	Tools ToolSet
	// Events receives progress events. May be nil.
	Events EventHandler
}

// RunResponse is what a Runtime produced for one request.
type RunResponse struct {
	// Turns holds only the turns added by this run.
	Turns []conversation.Turn
	// Agent is the agent active when the run ended.
	Agent string
	Usage Usage
	Cost  decimal.Decimal
}

// Runtime decides which capabilities to invoke for a conversation and
// produces the new turns. Implementations may return a partial response
// together with an error.
type Runtime interface {
	Run(ctx context.Context, req RunRequest) (*RunResponse, error)
}

// RuntimeFunc adapts a function to Runtime.
type RuntimeFunc func(ctx context.Context, req RunRequest) (*RunResponse, error)

// Run calls f.
func (f RuntimeFunc) Run(ctx context.Context, req RunRequest) (*RunResponse, error) {
	return f(ctx, req)
}

// LoopRuntime is the default Runtime: a model-driven tool loop that follows
// create_agent handoffs.
type LoopRuntime struct {
	model        engine.Model
	defaultModel string
	maxTokens    int
	maxTurns     int
	budget       *budget.Tracker
	agents       *subagent.Registry
	log          logging.Logger
}

var _ Runtime = (*LoopRuntime)(nil)

// NewLoopRuntime returns a LoopRuntime driving model. agents resolves
// handoff targets to their recorded definitions and may be nil.
func NewLoopRuntime(model engine.Model, cfg Config, agents *subagent.Registry, log logging.Logger) *LoopRuntime {
	cfg = cfg.withDefaults()
	defaultModel := cfg.Model
	if defaultModel == "" {
		defaultModel = providerDefaultModel(cfg.Provider)
	}
	return &LoopRuntime{
		model:        model,
		defaultModel: defaultModel,
		maxTokens:    cfg.MaxTokens,
		maxTurns:     cfg.MaxTurns,
		budget:       budget.NewTracker(decimal.NewFromFloat(cfg.MaxBudgetUSD), nil),
		agents:       agents,
		log:          logging.OrNoOp(log),
	}
}

// Run runs the loop once. Reaching the turn limit ends the run normally with
// whatever turns were produced.
func (r *LoopRuntime) Run(ctx context.Context, req RunRequest) (*RunResponse, error) {
	before := r.budget.TotalCost()
	out, err := engine.RunLoop(ctx, engine.LoopConfig{
		Model:        r.model,
		Tools:        req.Tools,
		Agent:        req.Agent,
		Resolve:      r.resolve,
		Turns:        req.Turns,
		DefaultModel: r.defaultModel,
		MaxTokens:    r.maxTokens,
		MaxTurns:     r.maxTurns,
		Budget:       r.budget,
		Sink:         newEventSink(req.Events),
		Logger:       r.log,
	})
	resp := &RunResponse{
		Turns: out.Turns,
		Agent: out.Agent.Name,
		Usage: out.Usage,
		Cost:  r.budget.TotalCost().Sub(before),
	}
	if errors.Is(err, engine.ErrMaxTurns) {
		r.log.Warn("run stopped at turn limit", "turns", out.NumTurns, "agent", out.Agent.Name)
		return resp, nil
	}
	if err == nil {
		r.log.Debug("run finished", "turns", out.NumTurns, "agent", out.Agent.Name, "duration", out.Duration)
	}
	return resp, err
}

// Spent returns the cost of every run so far.
func (r *LoopRuntime) Spent() decimal.Decimal {
	return r.budget.TotalCost()
}

func (r *LoopRuntime) resolve(name string) (subagent.Definition, bool) {
	if r.agents == nil {
		return subagent.Definition{}, false
	}
	def, err := r.agents.Get(name)
	return def, err == nil
}

func providerDefaultModel(provider string) string {
	if provider == ProviderOpenAI {
		return string(openaiprovider.DefaultModel)
	}
	return string(anthropicprovider.DefaultModel)
}

// newModel builds the provider driver named in cfg. API keys come from the
// SDKs' own environment variables.
func newModel(cfg Config, httpClient *http.Client) (engine.Model, error) {
	switch cfg.Provider {
	case "", ProviderAnthropic:
		var opts []anthropicoption.RequestOption
		if httpClient != nil {
			opts = append(opts, anthropicoption.WithHTTPClient(httpClient))
		}
		client := anthropic.NewClient(opts...)
		return anthropicprovider.NewFromClient(&client), nil
	case ProviderOpenAI:
		var opts []openaioption.RequestOption
		if httpClient != nil {
			opts = append(opts, openaioption.WithHTTPClient(httpClient))
		}
		client := openai.NewClient(opts...)
		return openaiprovider.NewFromClient(&client), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
