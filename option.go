package thinkmachine

import (
	"net/http"

	"github.com/intelcave/thinkmachine/hook"
	"github.com/intelcave/thinkmachine/logging"
	"github.com/intelcave/thinkmachine/memory"
	"github.com/intelcave/thinkmachine/session"
)

// Option configures an Orchestrator via the functional options pattern.
type Option func(*options)

type options struct {
	runtime     Runtime
	logger      logging.Logger
	durable     memory.Store
	temporary   memory.Store
	transcripts session.Store
	httpClient  *http.Client
	events      EventHandler
	sessionID   string
	hooks       []hook.Matcher
}

func resolveOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	o.logger = logging.OrNoOp(o.logger)
	return o
}

// WithRuntime replaces the default model-driven runtime.
func WithRuntime(r Runtime) Option {
	return func(o *options) { o.runtime = r }
}

// WithLogger sets the logger used by the orchestrator and its components.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDurableStore supplies persistent memory directly instead of opening
// Config.Memory. The store must report memory.Persistent.
func WithDurableStore(s memory.Store) Option {
	return func(o *options) { o.durable = s }
}

// WithSessionStore supplies temporary memory. The store must report
// memory.Temporary.
func WithSessionStore(s memory.Store) Option {
	return func(o *options) { o.temporary = s }
}

// WithTranscriptStore enables Resume and saving the conversation on Close.
func WithTranscriptStore(s session.Store) Option {
	return func(o *options) { o.transcripts = s }
}

// WithHTTPClient sets the HTTP client used for model APIs and the query proxy.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithEventHandler receives run events. Handlers run on the goroutine calling
// Run and may read the Orchestrator's state, but must not call Run or Resume.
func WithEventHandler(h EventHandler) Option {
	return func(o *options) { o.events = h }
}

// WithSessionID fixes the ID the conversation is saved under.
func WithSessionID(id string) Option {
	return func(o *options) { o.sessionID = id }
}

// WithHooks intercepts capability calls and user input.
func WithHooks(matchers ...hook.Matcher) Option {
	return func(o *options) { o.hooks = append(o.hooks, matchers...) }
}
