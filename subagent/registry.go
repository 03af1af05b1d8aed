package subagent

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/intelcave/thinkmachine/logging"
)

// Sentinel errors for the subagent package.
var (
	ErrNameRequired       = errors.New("subagent: name is required")
	ErrDefinitionNotFound = errors.New("subagent: definition not found")
)

// Registry records the agents created during a process. Creating a name that
// already exists replaces the earlier definition.
type Registry struct {
	mu     sync.RWMutex
	common string
	defs   map[string]Definition
	order  []string
	opts   registryOptions
}

// NewRegistry creates a Registry whose agents get common appended to their
// instructions.
func NewRegistry(common string, opts ...Option) *Registry {
	o := registryOptions{logger: logging.NoOp{}, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		common: common,
		defs:   make(map[string]Definition),
		opts:   o,
	}
}

// Create builds and records a definition for name.
func (r *Registry) Create(name, instructions string) (Definition, error) {
	if name == "" {
		return Definition{}, ErrNameRequired
	}
	def := Definition{
		Name:         name,
		Instructions: Compose(name, instructions, r.common),
		Model:        r.opts.model,
		MaxTurns:     r.opts.maxTurns,
		CreatedAt:    r.opts.now(),
	}

	r.mu.Lock()
	if _, exists := r.defs[name]; !exists {
		r.order = append(r.order, name)
	}
	r.defs[name] = def
	r.mu.Unlock()

	r.opts.logger.Debug("sub-agent created", "name", name)
	return def, nil
}

// Get returns the definition recorded for name.
func (r *Registry) Get(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrDefinitionNotFound, name)
	}
	return def, nil
}

// Restore records previously created definitions as they are, without
// recomposing their instructions.
func (r *Registry) Restore(defs ...Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, def := range defs {
		if def.Name == "" {
			continue
		}
		if _, exists := r.defs[def.Name]; !exists {
			r.order = append(r.order, def.Name)
		}
		r.defs[def.Name] = def
	}
}

// List returns the recorded definitions in creation order.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.defs[name])
	}
	return defs
}

// Names returns agent names in creation order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len reports the number of recorded agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
