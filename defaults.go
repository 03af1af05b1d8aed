package thinkmachine

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Memory backends accepted in Config.Memory.Backend.
const (
	MemoryFile  = "file"
	MemoryRedis = "redis"
)

const (
	// DefaultMemoryPath is the durable memory file used when none is configured.
	DefaultMemoryPath = "memory.json"

	// DefaultMaxTokens bounds each model response.
	DefaultMaxTokens = 4096

	// DefaultMaxTurns bounds model calls per user input (0 = unlimited).
	DefaultMaxTurns = 0

	// DefaultInterpreter runs execute_code.
	DefaultInterpreter = "python3"

	// DefaultRedisKey is the hash persistent memory lives in on Redis.
	DefaultRedisKey = "thinkmachine:memory"
)
