// Package subagent describes the agents a run can hand control to. The root
// agent is built by the orchestrator at startup; further agents are created on
// demand through the create_agent capability and recorded in a Registry.
package subagent

import (
	"strings"
	"time"
)

// RootName is the name of the agent every run starts with.
const RootName = "Root"

// Definition describes a named agent.
type Definition struct {
	// Name identifies the agent in handoffs and as the Sender of its turns.
	Name string `json:"name"`

	// Instructions is the agent's complete system prompt.
	Instructions string `json:"instructions"`

	// Model overrides the runtime's default model. Empty means inherit.
	Model string `json:"model,omitempty"`

	// MaxTurns limits model calls while this agent is active. 0 means inherit.
	MaxTurns int `json:"max_turns,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsRoot reports whether d is the root agent.
func (d Definition) IsRoot() bool {
	return d.Name == RootName
}

// Compose builds the instructions for an agent named name. Every agent other
// than the root gets the common operating prompt appended after a blank line.
func Compose(name, instructions, common string) string {
	if name == RootName || strings.TrimSpace(common) == "" {
		return instructions
	}
	return instructions + "\n\n" + common
}
