package tools

import (
	"context"
	"encoding/json"

	"github.com/intelcave/thinkmachine/subagent"
	"github.com/intelcave/thinkmachine/tool"
)

// AgentFactory builds sub-agent definitions. *subagent.Registry satisfies it.
type AgentFactory interface {
	Create(name, instructions string) (subagent.Definition, error)
}

// CreateAgentInput defines the input for create_agent.
type CreateAgentInput struct {
	Name         string `json:"name" jsonschema:"required,description=Name of the new agent, e.g. MathAgent"`
	Instructions string `json:"instructions" jsonschema:"required,description=System instructions describing the agent's task"`
}

// CreateAgentTool creates a sub-agent and hands the conversation to it.
type CreateAgentTool struct{ Factory AgentFactory }

var _ tool.Tool[CreateAgentInput] = (*CreateAgentTool)(nil)

func (t *CreateAgentTool) Name() string { return CreateAgent.ToolName() }
func (t *CreateAgentTool) Description() string {
	return "Create a specialised agent with the given name and instructions and transfer the conversation to it."
}

func (t *CreateAgentTool) Execute(_ context.Context, input CreateAgentInput) (*tool.Result, error) {
	if t.Factory == nil {
		return tool.ErrorResult("agent creation is not available"), nil
	}
	def, err := t.Factory.Create(input.Name, input.Instructions)
	if err != nil {
		return tool.ErrorResult("Failed to create agent: " + err.Error()), nil
	}

	name, err := json.Marshal(def.Name)
	if err != nil {
		return tool.ErrorResult(err.Error()), nil
	}
	res := tool.TextResult(`{"assistant": ` + string(name) + `}`).WithMetadata("agent", def.Name)
	res.Handoff = &tool.Handoff{Name: def.Name, Instructions: def.Instructions}
	return res, nil
}
