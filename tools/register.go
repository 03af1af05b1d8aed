package tools

import (
	"context"
	"time"

	"github.com/intelcave/thinkmachine/internal/builtin"
	"github.com/intelcave/thinkmachine/logging"
	"github.com/intelcave/thinkmachine/memory"
	"github.com/intelcave/thinkmachine/tool"
)

// Deps holds what the capabilities operate on. A nil store leaves the
// matching memory tools unregistered. Memory tool names follow the scope the
// store reports, so Persistent must report memory.Persistent.
type Deps struct {
	Temporary  memory.Store
	Persistent memory.Store
	Shell      ShellConfig
	Code       CodeConfig
	Query      *builtin.QueryClient
	Agents     AgentFactory
	Logger     logging.Logger
}

// Register adds the given capabilities to registry in their fixed order. Only
// the listed capabilities are registered; pass All() for the full set.
func Register(registry *tool.Registry, deps Deps, caps ...Capability) {
	want := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		want[c] = true
	}
	log := logging.OrNoOp(deps.Logger)

	for _, c := range All() {
		if !want[c] {
			continue
		}
		switch c {
		case CreateAgent:
			register(registry, log, &CreateAgentTool{Factory: deps.Agents})
		case ExecuteCommand:
			register(registry, log, &CommandTool{Config: deps.Shell})
		case ExecuteCode:
			register(registry, log, &CodeTool{Config: deps.Code})
		case QueryDatabase:
			register(registry, log, &QueryTool{Client: deps.Query})
		case ListTemporary, ListPersistent:
			if s := storeFor(deps, c); s != nil {
				register(registry, log, &KeysTool{Store: s})
			}
		case StoreTemporary, StorePersistent:
			if s := storeFor(deps, c); s != nil {
				register(registry, log, &StoreTool{Store: s})
			}
		case RetrieveTemporary, RetrievePersistent:
			if s := storeFor(deps, c); s != nil {
				register(registry, log, &RetrieveTool{Store: s})
			}
		case RemoveTemporary, RemovePersistent:
			if s := storeFor(deps, c); s != nil {
				register(registry, log, &RemoveTool{Store: s})
			}
		}
	}
}

func storeFor(deps Deps, c Capability) memory.Store {
	if c >= ListPersistent {
		return deps.Persistent
	}
	return deps.Temporary
}

func register[T any](registry *tool.Registry, log logging.Logger, t tool.Tool[T]) {
	tool.Register[T](registry, &logged[T]{inner: t, log: log})
}

// logged records every execution of the wrapped tool at debug level.
type logged[T any] struct {
	inner tool.Tool[T]
	log   logging.Logger
}

func (l *logged[T]) Name() string        { return l.inner.Name() }
func (l *logged[T]) Description() string { return l.inner.Description() }

func (l *logged[T]) Execute(ctx context.Context, input T) (*tool.Result, error) {
	start := time.Now()
	res, err := l.inner.Execute(ctx, input)
	switch {
	case err != nil:
		l.log.Error("tool failed", "tool", l.inner.Name(), "error", err)
	case res != nil:
		l.log.Debug("tool executed", "tool", l.inner.Name(), "is_error", res.IsError, "duration", time.Since(start))
	}
	return res, err
}
