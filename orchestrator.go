package thinkmachine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/intelcave/thinkmachine/conversation"
	"github.com/intelcave/thinkmachine/internal/builtin"
	"github.com/intelcave/thinkmachine/internal/hookrunner"
	"github.com/intelcave/thinkmachine/logging"
	"github.com/intelcave/thinkmachine/memory"
	"github.com/intelcave/thinkmachine/session"
	"github.com/intelcave/thinkmachine/subagent"
	"github.com/intelcave/thinkmachine/tool"
	"github.com/intelcave/thinkmachine/tools"
)

// Orchestrator owns the running conversation and both memories, and relays
// each user input through a Runtime. Runs are serialised.
type Orchestrator struct {
	cfg         Config
	runtime     Runtime
	tools       *tool.Registry
	toolset     ToolSet
	hooks       *hookrunner.Runner
	temporary   memory.Store
	persistent  memory.Store
	agents      *subagent.Registry
	root        subagent.Definition
	transcripts session.Store
	events      EventHandler
	log         logging.Logger
	closers     []func() error

	id atomic.Value // string

	// runMu serialises runs and restores; mu guards the fields below and is
	// never held while the runtime or an event handler is called.
	runMu     sync.Mutex
	mu        sync.Mutex
	turns     []conversation.Turn
	active    string
	usage     Usage
	spent     decimal.Decimal
	createdAt time.Time
}

// New builds an Orchestrator. Opening persistent memory fails when the
// durable file is missing or invalid; it is never created here.
func New(cfg Config, opts ...Option) (*Orchestrator, error) {
	o := resolveOptions(opts)
	if err := cfg.validate(o.durable != nil); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	orch := &Orchestrator{
		cfg:         cfg,
		temporary:   o.temporary,
		persistent:  o.durable,
		transcripts: o.transcripts,
		events:      o.events,
		log:         o.logger,
		spent:       decimal.Zero,
		createdAt:   time.Now().UTC(),
	}
	if o.sessionID == "" {
		o.sessionID = session.NewID()
	}
	orch.id.Store(o.sessionID)
	if orch.temporary == nil {
		orch.temporary = memory.NewSessionStore()
	}
	if orch.persistent == nil {
		store, closer, err := openPersistent(cfg.Memory, orch.log)
		if err != nil {
			return nil, err
		}
		orch.persistent = store
		if closer != nil {
			orch.closers = append(orch.closers, closer)
		}
	}

	orch.agents = subagent.NewRegistry(cfg.Prompts.Common,
		subagent.WithLogger(orch.log),
	)
	orch.root = subagent.Definition{
		Name:         subagent.RootName,
		Instructions: cfg.Prompts.RootInstructions(),
		CreatedAt:    orch.createdAt,
	}
	orch.active = orch.root.Name

	caps, err := cfg.capabilities()
	if err != nil {
		orch.closeAll()
		return nil, err
	}
	orch.tools = tool.NewRegistry()
	tools.Register(orch.tools, tools.Deps{
		Temporary:  orch.temporary,
		Persistent: orch.persistent,
		Shell: tools.ShellConfig{
			Timeout: cfg.Tools.ShellTimeout,
			Dir:     cfg.Tools.WorkDir,
			PTY:     cfg.Tools.PTY,
		},
		Code: tools.CodeConfig{
			Interpreter: cfg.Tools.Interpreter,
			Timeout:     cfg.Tools.CodeTimeout,
			Dir:         cfg.Tools.WorkDir,
		},
		Query:  builtin.NewQueryClient(cfg.Tools.ProxyURL, cfg.Tools.QueryTimeout, o.httpClient),
		Agents: orch.agents,
		Logger: orch.log,
	}, caps...)

	orch.toolset = orch.tools
	if len(o.hooks) > 0 {
		runner, err := hookrunner.New(o.hooks)
		if err != nil {
			orch.closeAll()
			return nil, fmt.Errorf("hooks: %w", err)
		}
		orch.hooks = runner
		orch.toolset = &hookedTools{inner: orch.tools, hooks: runner, sessionID: orch.SessionID, log: orch.log}
	}

	orch.runtime = o.runtime
	if orch.runtime == nil {
		model, err := newModel(cfg, o.httpClient)
		if err != nil {
			orch.closeAll()
			return nil, err
		}
		orch.runtime = NewLoopRuntime(model, cfg, orch.agents, orch.log)
	}

	orch.log.Info("orchestrator ready",
		"session", o.sessionID,
		"provider", cfg.Provider,
		"memory", cfg.Memory.Backend,
		"tools", len(orch.tools.Names()),
	)
	return orch, nil
}

func openPersistent(cfg MemoryConfig, log logging.Logger) (memory.Store, func() error, error) {
	switch cfg.Backend {
	case MemoryRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		return memory.NewRedisStore(client, memory.Persistent, cfg.RedisKey), client.Close, nil
	default:
		store, err := memory.OpenDurableStore(cfg.Path, memory.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}

// Run appends input as a user turn, relays the whole conversation to the
// runtime starting from the root agent, appends every turn it returns and
// yields the content of the last turn. When the runtime fails, the turns it
// did produce are kept and the error is returned. Input blocked by a
// UserPromptSubmit hook is not recorded.
func (o *Orchestrator) Run(ctx context.Context, input string) (string, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	if res, err := o.hooks.RunUserPromptSubmit(ctx, o.SessionID(), input); err != nil {
		return "", fmt.Errorf("prompt hook: %w", err)
	} else if res != nil && res.Block {
		return "", fmt.Errorf("%w: %s", ErrPromptBlocked, res.Reason)
	}
	defer func() {
		if err := o.hooks.RunStop(ctx, o.SessionID()); err != nil {
			o.log.Warn("stop hook failed", "error", err)
		}
	}()

	o.mu.Lock()
	o.turns = append(o.turns, conversation.User(input))
	history := conversation.Clone(o.turns)
	o.mu.Unlock()
	o.emit(conversation.User(input))

	resp, err := o.runtime.Run(ctx, RunRequest{
		Agent:  o.root,
		Turns:  history,
		Tools:  o.toolset,
		Events: o.events,
	})

	o.mu.Lock()
	if resp != nil {
		o.turns = append(o.turns, resp.Turns...)
		o.usage = o.usage.Add(resp.Usage)
		o.spent = o.spent.Add(resp.Cost)
		if resp.Agent != "" {
			o.active = resp.Agent
		}
	}
	last := conversation.LastContent(o.turns)
	o.mu.Unlock()

	if err != nil {
		o.log.Error("run failed", "session", o.SessionID(), "error", err)
		return last, fmt.Errorf("run: %w", err)
	}
	return last, nil
}

func (o *Orchestrator) emit(turn conversation.Turn) {
	if o.events != nil {
		o.events(&TurnEvent{Turn: turn})
	}
}

// State is a snapshot of the conversation and the memory key sets.
type State struct {
	Messages []conversation.Turn `json:"messages"`
	Memory   MemoryKeys          `json:"memory"`
}

// MemoryKeys lists the keys currently held by each memory.
type MemoryKeys struct {
	Temporary  []string `json:"temporary_memory_keys"`
	Persistent []string `json:"persistent_memory_keys"`
}

// State returns the conversation and both memories' keys.
func (o *Orchestrator) State(ctx context.Context) (State, error) {
	temp, err := o.temporary.Keys(ctx)
	if err != nil {
		return State{}, fmt.Errorf("list temporary memory: %w", err)
	}
	persistent, err := o.persistent.Keys(ctx)
	if err != nil {
		return State{}, fmt.Errorf("list persistent memory: %w", err)
	}
	if temp == nil {
		temp = []string{}
	}
	if persistent == nil {
		persistent = []string{}
	}
	return State{
		Messages: o.Conversation(),
		Memory:   MemoryKeys{Temporary: temp, Persistent: persistent},
	}, nil
}

// Conversation returns a copy of every turn so far.
func (o *Orchestrator) Conversation() []conversation.Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	turns := conversation.Clone(o.turns)
	if turns == nil {
		turns = []conversation.Turn{}
	}
	return turns
}

// Agents returns the names of sub-agents created so far, in creation order.
func (o *Orchestrator) Agents() []string {
	return o.agents.Names()
}

// RootAgent returns the root agent's definition.
func (o *Orchestrator) RootAgent() subagent.Definition {
	return o.root
}

// Tools returns the names of the bound capabilities in their fixed order.
func (o *Orchestrator) Tools() []string {
	return o.tools.Names()
}

// SessionID returns the ID the conversation is saved under.
func (o *Orchestrator) SessionID() string {
	id, _ := o.id.Load().(string)
	return id
}

// Spent returns the cost reported by the runtime so far.
func (o *Orchestrator) Spent() decimal.Decimal {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.spent
}

// Usage returns token usage reported by the runtime so far.
func (o *Orchestrator) Usage() Usage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.usage
}

// Save writes the conversation to the transcript store.
func (o *Orchestrator) Save(ctx context.Context) error {
	if o.transcripts == nil {
		return ErrNoTranscriptStore
	}
	o.mu.Lock()
	t := &session.Transcript{
		ID:        o.SessionID(),
		Turns:     conversation.Clone(o.turns),
		Agent:     o.active,
		Agents:    o.agents.List(),
		Usage:     o.usage,
		TotalCost: o.spent.String(),
		CreatedAt: o.createdAt,
		UpdatedAt: time.Now().UTC(),
	}
	o.mu.Unlock()

	if err := o.transcripts.Save(ctx, t); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	o.log.Debug("transcript saved", "session", t.ID, "turns", len(t.Turns))
	return nil
}

// Resume replaces the conversation with a saved transcript and continues
// under its ID. Sub-agents recorded in the transcript become available as
// handoff targets again.
func (o *Orchestrator) Resume(ctx context.Context, id string) error {
	if o.transcripts == nil {
		return ErrNoTranscriptStore
	}
	t, err := o.transcripts.Load(ctx, id)
	if err != nil {
		return err
	}
	o.restore(t)
	return nil
}

// ResumeLatest resumes the most recently updated transcript.
func (o *Orchestrator) ResumeLatest(ctx context.Context) error {
	if o.transcripts == nil {
		return ErrNoTranscriptStore
	}
	list, err := o.transcripts.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return ErrNoTranscripts
	}
	latest := list[0]
	for _, t := range list[1:] {
		if t.UpdatedAt.After(latest.UpdatedAt) {
			latest = t
		}
	}
	o.restore(latest)
	return nil
}

func (o *Orchestrator) restore(t *session.Transcript) {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	o.mu.Lock()
	defer o.mu.Unlock()
	o.id.Store(t.ID)
	o.turns = conversation.Clone(t.Turns)
	o.usage = t.Usage
	o.createdAt = t.CreatedAt
	if t.Agent != "" {
		o.active = t.Agent
	}
	if cost, err := decimal.NewFromString(t.TotalCost); err == nil {
		o.spent = cost
	}
	o.agents.Restore(t.Agents...)
	o.log.Info("session resumed", "session", t.ID, "turns", len(t.Turns))
}

// Close saves the conversation when a transcript store is configured and
// releases backend connections.
func (o *Orchestrator) Close(ctx context.Context) error {
	var errs []error
	if o.transcripts != nil {
		errs = append(errs, o.Save(ctx))
	}
	errs = append(errs, o.closeAll())
	return errors.Join(errs...)
}

func (o *Orchestrator) closeAll() error {
	var errs []error
	for _, c := range o.closers {
		errs = append(errs, c())
	}
	o.closers = nil
	return errors.Join(errs...)
}
