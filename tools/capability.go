package tools

import (
	"fmt"
	"strings"
)

// Capability is a named operation an agent may be granted.
type Capability int

const (
	CreateAgent Capability = iota
	ExecuteCommand
	ExecuteCode
	QueryDatabase
	ListTemporary
	StoreTemporary
	RetrieveTemporary
	RemoveTemporary
	ListPersistent
	StorePersistent
	RetrievePersistent
	RemovePersistent
)

var toolNames = [...]string{
	CreateAgent:        "create_agent",
	ExecuteCommand:     "execute_command",
	ExecuteCode:        "execute_code",
	QueryDatabase:      "query_postgres_database",
	ListTemporary:      "t_keys",
	StoreTemporary:     "t_store",
	RetrieveTemporary:  "t_retrieve",
	RemoveTemporary:    "t_remove",
	ListPersistent:     "p_keys",
	StorePersistent:    "p_store",
	RetrievePersistent: "p_retrieve",
	RemovePersistent:   "p_remove",
}

// All returns every capability in its fixed order.
func All() []Capability {
	caps := make([]Capability, len(toolNames))
	for i := range toolNames {
		caps[i] = Capability(i)
	}
	return caps
}

// ToolName returns the name the model calls the capability by.
func (c Capability) ToolName() string {
	if c < 0 || int(c) >= len(toolNames) {
		return fmt.Sprintf("capability(%d)", int(c))
	}
	return toolNames[c]
}

func (c Capability) String() string { return c.ToolName() }

// ParseCapability resolves a tool name to its capability.
func ParseCapability(name string) (Capability, error) {
	name = strings.TrimSpace(name)
	for i, n := range toolNames {
		if n == name {
			return Capability(i), nil
		}
	}
	return 0, fmt.Errorf("tools: unknown capability %q", name)
}

// Without returns caps minus the named tools. Unknown names are reported.
func Without(caps []Capability, disabled ...string) ([]Capability, error) {
	skip := make(map[Capability]bool, len(disabled))
	for _, name := range disabled {
		c, err := ParseCapability(name)
		if err != nil {
			return nil, err
		}
		skip[c] = true
	}
	out := make([]Capability, 0, len(caps))
	for _, c := range caps {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out, nil
}
