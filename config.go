package thinkmachine

import (
	"fmt"
	"strings"
	"time"

	"github.com/intelcave/thinkmachine/tools"
)

// Prompts holds the prompt text agents are built from.
type Prompts struct {
	// Root is the root agent's own prompt.
	Root string
	// Common is appended to every agent's instructions.
	Common string
	// ExamplePlans shows the root agent worked plans.
	ExamplePlans string
}

// RootInstructions joins the three parts into the root agent's system prompt.
func (p Prompts) RootInstructions() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Root, p.Common, p.ExamplePlans} {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// MemoryConfig selects where persistent memory lives.
type MemoryConfig struct {
	// Backend is MemoryFile (default) or MemoryRedis.
	Backend string
	// Path is the durable JSON file. It must already exist.
	Path string
	// RedisAddr and RedisKey locate the hash used by the Redis backend.
	RedisAddr string
	RedisKey  string
}

// ToolsConfig configures the capability set.
type ToolsConfig struct {
	// ShellTimeout and CodeTimeout bound execute_command and execute_code.
	// Zero selects the five minute default; negative disables the bound.
	ShellTimeout time.Duration
	CodeTimeout  time.Duration

	// QueryTimeout bounds a proxy round trip. Zero selects 60s.
	QueryTimeout time.Duration

	Interpreter string
	ProxyURL    string
	WorkDir     string
	PTY         bool

	// Disabled lists capability names to leave out.
	Disabled []string
}

// Config is everything an Orchestrator is built from.
type Config struct {
	Prompts Prompts

	// Provider is ProviderAnthropic (default) or ProviderOpenAI.
	Provider string
	// Model overrides the provider's default model.
	Model string

	MaxTokens int
	// MaxTurns bounds model calls per user input. 0 means unlimited.
	MaxTurns int
	// MaxBudgetUSD stops runs once the process has spent this much. 0 means unlimited.
	MaxBudgetUSD float64

	Memory MemoryConfig
	Tools  ToolsConfig
}

// DefaultConfig returns a Config with every default filled in and no prompts.
func DefaultConfig() Config {
	return Config{
		Provider:  ProviderAnthropic,
		MaxTokens: DefaultMaxTokens,
		MaxTurns:  DefaultMaxTurns,
		Memory: MemoryConfig{
			Backend:  MemoryFile,
			Path:     DefaultMemoryPath,
			RedisKey: DefaultRedisKey,
		},
		Tools: ToolsConfig{Interpreter: DefaultInterpreter},
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	return c.validate(false)
}

// validate skips the memory location checks when the persistent store is
// supplied by the caller.
func (c Config) validate(storeInjected bool) error {
	switch c.Provider {
	case "", ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	switch c.Memory.Backend {
	case "", MemoryFile:
		if c.Memory.Path == "" && !storeInjected {
			return ErrNoMemoryPath
		}
	case MemoryRedis:
		if c.Memory.RedisAddr == "" && !storeInjected {
			return fmt.Errorf("%w: redis backend needs an address", ErrUnknownMemory)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMemory, c.Memory.Backend)
	}
	if c.MaxTurns < 0 {
		return ErrInvalidMaxTurns
	}
	if c.MaxBudgetUSD < 0 {
		return ErrInvalidBudget
	}
	if _, err := c.capabilities(); err != nil {
		return err
	}
	return nil
}

func (c Config) capabilities() ([]tools.Capability, error) {
	return tools.Without(tools.All(), c.Tools.Disabled...)
}

func (c Config) withDefaults() Config {
	if c.Provider == "" {
		c.Provider = ProviderAnthropic
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Memory.Backend == "" {
		c.Memory.Backend = MemoryFile
	}
	if c.Memory.RedisKey == "" {
		c.Memory.RedisKey = DefaultRedisKey
	}
	if c.Tools.Interpreter == "" {
		c.Tools.Interpreter = DefaultInterpreter
	}
	return c
}
