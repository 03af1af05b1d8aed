// Package tool defines the typed tool contract and the registry through which
// an agent runtime discovers and invokes capabilities.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/intelcave/thinkmachine/internal/schema"
)

// ErrNotFound is returned by Execute for a name no tool is registered under.
var ErrNotFound = errors.New("tool not found")

// Tool is implemented by every capability. T is the input struct decoded from
// the model's JSON arguments; its tags drive the advertised schema.
type Tool[T any] interface {
	Name() string
	Description() string
	Execute(ctx context.Context, input T) (*Result, error)
}

// Handoff asks the runtime to continue the run as another agent.
type Handoff struct {
	Name         string
	Instructions string
}

// Result is the output of a tool execution. Content is what the model sees;
// IsError and Metadata give Go callers a structured signal.
type Result struct {
	Content  string
	IsError  bool
	Metadata map[string]any
	Handoff  *Handoff
}

// TextResult is a successful result carrying text.
func TextResult(text string) *Result {
	return &Result{Content: text}
}

// ErrorResult is a failed result carrying text.
func ErrorResult(text string) *Result {
	return &Result{Content: text, IsError: true}
}

// WithMetadata sets a metadata entry and returns r.
func (r *Result) WithMetadata(key string, value any) *Result {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
	return r
}

// Spec describes a registered tool to a model provider.
type Spec struct {
	Name        string
	Description string
	Schema      schema.Object
}

// ExecuteFunc runs a tool against raw JSON input.
type ExecuteFunc func(ctx context.Context, raw json.RawMessage) (*Result, error)

type entry struct {
	spec    Spec
	execute ExecuteFunc
}

// Registry holds tools in registration order. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*entry
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*entry)}
}

// Register adds a typed tool, deriving its schema from T. Registering a name
// twice replaces the earlier tool but keeps its position.
func Register[T any](r *Registry, t Tool[T]) {
	r.RegisterRaw(Spec{
		Name:        t.Name(),
		Description: t.Description(),
		Schema:      schema.Generate[T](),
	}, func(ctx context.Context, raw json.RawMessage) (*Result, error) {
		var input T
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &input); err != nil {
				return ErrorResult(fmt.Sprintf("invalid input: %s", err.Error())), nil
			}
		}
		return t.Execute(ctx, input)
	})
}

// RegisterRaw adds a tool with a prebuilt spec.
func (r *Registry) RegisterRaw(spec Spec, execute ExecuteFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[spec.Name]; !exists {
		r.order = append(r.order, spec.Name)
	}
	r.tools[spec.Name] = &entry{spec: spec, execute: execute}
}

// Execute runs the named tool. An unknown name is an error; failures inside a
// tool are reported through the Result.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (*Result, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e.execute(ctx, input)
}

// Specs returns the registered tools in registration order.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].spec)
	}
	return specs
}

// Get returns the spec of the named tool.
func (r *Registry) Get(name string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[name]
	if !ok {
		return Spec{}, false
	}
	return e.spec, true
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
