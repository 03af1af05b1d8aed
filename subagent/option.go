package subagent

import (
	"time"

	"github.com/intelcave/thinkmachine/logging"
)

type registryOptions struct {
	model    string
	maxTurns int
	logger   logging.Logger
	now      func() time.Time
}

// Option configures a Registry.
type Option func(*registryOptions)

// WithModel sets the model of every created agent.
func WithModel(model string) Option {
	return func(o *registryOptions) { o.model = model }
}

// WithMaxTurns sets the turn limit of every created agent.
func WithMaxTurns(n int) Option {
	return func(o *registryOptions) { o.maxTurns = n }
}

// WithLogger sets the registry logger.
func WithLogger(l logging.Logger) Option {
	return func(o *registryOptions) { o.logger = logging.OrNoOp(l) }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *registryOptions) {
		if now != nil {
			o.now = now
		}
	}
}
