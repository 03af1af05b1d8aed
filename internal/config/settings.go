// Package config loads layered settings: built-in defaults, JSON settings
// files in order, then THINKMACHINE_* environment variables. Later layers
// override earlier ones field by field.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Duration is a time.Duration that reads from JSON as a Go duration string
// ("90s") or a number of seconds.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("config: duration must be a string or number of seconds")
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// MemorySettings selects and locates the persistent memory backend.
type MemorySettings struct {
	Backend   string `json:"backend,omitempty"` // "file" or "redis"
	Path      string `json:"path,omitempty"`
	RedisAddr string `json:"redisAddr,omitempty"`
	RedisKey  string `json:"redisKey,omitempty"`
}

// ToolSettings configures the tool boundary. A zero timeout keeps the
// built-in default; a negative one removes the bound.
type ToolSettings struct {
	ShellTimeout Duration `json:"shellTimeout,omitempty"`
	CodeTimeout  Duration `json:"codeTimeout,omitempty"`
	QueryTimeout Duration `json:"queryTimeout,omitempty"`
	Interpreter  string   `json:"interpreter,omitempty"`
	ProxyURL     string   `json:"proxyURL,omitempty"`
	WorkDir      string   `json:"workDir,omitempty"`
	PTY          *bool    `json:"pty,omitempty"`
	Disabled     []string `json:"disabled,omitempty"`
}

// PromptSettings overrides the agent prompts. Dir names a directory of
// markdown prompt files; inline values win over files.
type PromptSettings struct {
	Dir          string `json:"dir,omitempty"`
	Root         string `json:"root,omitempty"`
	Common       string `json:"common,omitempty"`
	ExamplePlans string `json:"examplePlans,omitempty"`
}

// Settings holds merged configuration from multiple sources.
type Settings struct {
	Provider     string         `json:"provider,omitempty"`
	Model        string         `json:"model,omitempty"`
	MaxTokens    int            `json:"maxTokens,omitempty"`
	MaxTurns     int            `json:"maxTurns,omitempty"`
	MaxBudgetUSD float64        `json:"maxBudgetUSD,omitempty"`
	Memory       MemorySettings `json:"memory,omitempty"`
	Tools        ToolSettings   `json:"tools,omitempty"`
	Prompts      PromptSettings `json:"prompts,omitempty"`
	Transcripts  string         `json:"transcripts,omitempty"`
	LogLevel     string         `json:"logLevel,omitempty"`
	LogFormat    string         `json:"logFormat,omitempty"`
}

// LoadSettings merges settings from JSON files. Later paths override earlier
// ones. Missing files are skipped; a file that exists but cannot be parsed is
// an error.
func LoadSettings(paths ...string) (*Settings, error) {
	merged := &Settings{}
	for _, path := range paths {
		s, err := loadSettingsFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
		Merge(merged, s)
	}
	return merged, nil
}

// DefaultSettingsPaths returns the user and project settings files.
func DefaultSettingsPaths(projectDir string) []string {
	var paths []string
	if home, _ := os.UserHomeDir(); home != "" {
		paths = append(paths, filepath.Join(home, ".thinkmachine", "settings.json"))
	}
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".thinkmachine.json"))
	}
	return paths
}

func loadSettingsFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Merge copies every field set in src onto dst.
func Merge(dst, src *Settings) {
	setString(&dst.Provider, src.Provider)
	setString(&dst.Model, src.Model)
	if src.MaxTokens > 0 {
		dst.MaxTokens = src.MaxTokens
	}
	if src.MaxTurns > 0 {
		dst.MaxTurns = src.MaxTurns
	}
	if src.MaxBudgetUSD > 0 {
		dst.MaxBudgetUSD = src.MaxBudgetUSD
	}

	setString(&dst.Memory.Backend, src.Memory.Backend)
	setString(&dst.Memory.Path, src.Memory.Path)
	setString(&dst.Memory.RedisAddr, src.Memory.RedisAddr)
	setString(&dst.Memory.RedisKey, src.Memory.RedisKey)

	setDuration(&dst.Tools.ShellTimeout, src.Tools.ShellTimeout)
	setDuration(&dst.Tools.CodeTimeout, src.Tools.CodeTimeout)
	setDuration(&dst.Tools.QueryTimeout, src.Tools.QueryTimeout)
	setString(&dst.Tools.Interpreter, src.Tools.Interpreter)
	setString(&dst.Tools.ProxyURL, src.Tools.ProxyURL)
	setString(&dst.Tools.WorkDir, src.Tools.WorkDir)
	if src.Tools.PTY != nil {
		v := *src.Tools.PTY
		dst.Tools.PTY = &v
	}
	if len(src.Tools.Disabled) > 0 {
		dst.Tools.Disabled = append([]string(nil), src.Tools.Disabled...)
	}

	setString(&dst.Prompts.Dir, src.Prompts.Dir)
	setString(&dst.Prompts.Root, src.Prompts.Root)
	setString(&dst.Prompts.Common, src.Prompts.Common)
	setString(&dst.Prompts.ExamplePlans, src.Prompts.ExamplePlans)

	setString(&dst.Transcripts, src.Transcripts)
	setString(&dst.LogLevel, src.LogLevel)
	setString(&dst.LogFormat, src.LogFormat)
}

// Env var names read by ApplyEnv.
const (
	EnvProvider     = "THINKMACHINE_PROVIDER"
	EnvModel        = "THINKMACHINE_MODEL"
	EnvMaxTurns     = "THINKMACHINE_MAX_TURNS"
	EnvMaxBudgetUSD = "THINKMACHINE_MAX_BUDGET_USD"
	EnvMemoryPath   = "THINKMACHINE_MEMORY"
	EnvRedisAddr    = "THINKMACHINE_REDIS_ADDR"
	EnvProxyURL     = "THINKMACHINE_PROXY_URL"
	EnvShellTimeout = "THINKMACHINE_SHELL_TIMEOUT"
	EnvCodeTimeout  = "THINKMACHINE_CODE_TIMEOUT"
	EnvInterpreter  = "THINKMACHINE_INTERPRETER"
	EnvLogLevel     = "THINKMACHINE_LOG_LEVEL"
)

// ApplyEnv overrides s from environment variables read through lookup
// (os.LookupEnv in production).
func ApplyEnv(s *Settings, lookup func(string) (string, bool)) error {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	env := &Settings{
		Provider: get(EnvProvider),
		Model:    get(EnvModel),
		LogLevel: get(EnvLogLevel),
		Memory:   MemorySettings{Path: get(EnvMemoryPath), RedisAddr: get(EnvRedisAddr)},
		Tools:    ToolSettings{ProxyURL: get(EnvProxyURL), Interpreter: get(EnvInterpreter)},
	}
	if env.Memory.RedisAddr != "" {
		env.Memory.Backend = "redis"
	}
	if v := get(EnvMaxTurns); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvMaxTurns, err)
		}
		env.MaxTurns = n
	}
	if v := get(EnvMaxBudgetUSD); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvMaxBudgetUSD, err)
		}
		env.MaxBudgetUSD = f
	}
	for key, dst := range map[string]*Duration{
		EnvShellTimeout: &env.Tools.ShellTimeout,
		EnvCodeTimeout:  &env.Tools.CodeTimeout,
	} {
		if v := get(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", key, err)
			}
			*dst = Duration(d)
		}
	}
	Merge(s, env)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *Duration, v Duration) {
	if v != 0 {
		*dst = v
	}
}
