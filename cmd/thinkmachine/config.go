package main

import (
	"time"

	thinkmachine "github.com/intelcave/thinkmachine"
	"github.com/intelcave/thinkmachine/internal/config"
	"github.com/intelcave/thinkmachine/logging"
)

// buildConfig converts merged settings and prompts into an orchestrator Config.
func buildConfig(s *config.Settings, prompts config.Prompts) thinkmachine.Config {
	cfg := thinkmachine.DefaultConfig()
	cfg.Prompts = thinkmachine.Prompts{
		Root:         prompts.Root,
		Common:       prompts.Common,
		ExamplePlans: prompts.ExamplePlans,
	}
	if s.Provider != "" {
		cfg.Provider = s.Provider
	}
	cfg.Model = s.Model
	if s.MaxTokens > 0 {
		cfg.MaxTokens = s.MaxTokens
	}
	cfg.MaxTurns = s.MaxTurns
	cfg.MaxBudgetUSD = s.MaxBudgetUSD

	if s.Memory.Backend != "" {
		cfg.Memory.Backend = s.Memory.Backend
	}
	if s.Memory.Path != "" {
		cfg.Memory.Path = s.Memory.Path
	}
	cfg.Memory.RedisAddr = s.Memory.RedisAddr
	if s.Memory.RedisKey != "" {
		cfg.Memory.RedisKey = s.Memory.RedisKey
	}

	cfg.Tools = thinkmachine.ToolsConfig{
		ShellTimeout: time.Duration(s.Tools.ShellTimeout),
		CodeTimeout:  time.Duration(s.Tools.CodeTimeout),
		QueryTimeout: time.Duration(s.Tools.QueryTimeout),
		Interpreter:  cfg.Tools.Interpreter,
		ProxyURL:     s.Tools.ProxyURL,
		WorkDir:      s.Tools.WorkDir,
		Disabled:     s.Tools.Disabled,
	}
	if s.Tools.Interpreter != "" {
		cfg.Tools.Interpreter = s.Tools.Interpreter
	}
	if s.Tools.PTY != nil {
		cfg.Tools.PTY = *s.Tools.PTY
	}
	return cfg
}

func newLogger(s *config.Settings, verbose bool) (logging.Logger, error) {
	lc := logging.DefaultConfig()
	lc.Level = logging.LevelWarn
	if s.LogLevel != "" {
		level, err := logging.ParseLevel(s.LogLevel)
		if err != nil {
			return nil, err
		}
		lc.Level = level
	}
	if verbose {
		lc.Level = logging.LevelDebug
	}
	if s.LogFormat != "" {
		lc.Format = s.LogFormat
	}
	lc.Component = "thinkmachine"
	return logging.New(lc), nil
}
