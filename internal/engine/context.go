package engine

import "context"

type contextKey int

const ctxKeyAgent contextKey = iota

// WithAgent returns a context naming the agent whose tool call is executing.
func WithAgent(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxKeyAgent, name)
}

// AgentFromContext returns the agent set by WithAgent, or empty string.
func AgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyAgent).(string); ok {
		return v
	}
	return ""
}
