// Command thinkmachine runs the ThinkMachine orchestrator as an interactive
// console session.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	thinkmachine "github.com/intelcave/thinkmachine"
	"github.com/intelcave/thinkmachine/internal/config"
	"github.com/intelcave/thinkmachine/memory"
	"github.com/intelcave/thinkmachine/session"
)

type flags struct {
	configPath  string
	memoryPath  string
	provider    string
	model       string
	maxTurns    int
	transcripts string
	resume      string
	prompts     string
	initMemory  bool
	verbose     bool
}

func parseFlags(args []string) (flags, map[string]bool, error) {
	var f flags
	flagSet := flag.NewFlagSet("thinkmachine", flag.ContinueOnError)
	flagSet.StringVar(&f.configPath, "config", "", "settings file applied after the user and project settings")
	flagSet.StringVar(&f.memoryPath, "memory", "", "durable memory JSON file (must exist unless -init-memory)")
	flagSet.StringVar(&f.provider, "provider", "", "model provider: anthropic or openai")
	flagSet.StringVar(&f.model, "model", "", "model name")
	flagSet.IntVar(&f.maxTurns, "max-turns", 0, "model calls allowed per input (0 = unlimited)")
	flagSet.StringVar(&f.transcripts, "transcripts", "", "directory conversations are saved to on exit")
	flagSet.StringVar(&f.resume, "resume", "", `transcript ID to resume, or "latest"`)
	flagSet.StringVar(&f.prompts, "prompts", "", "directory with root.md, common.md and example_plans.md")
	flagSet.BoolVar(&f.initMemory, "init-memory", false, "create an empty durable memory file if none exists")
	flagSet.BoolVar(&f.verbose, "verbose", false, "log debug output to stderr")
	if err := flagSet.Parse(args); err != nil {
		return f, nil, err
	}
	set := make(map[string]bool)
	flagSet.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "thinkmachine: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	f, set, err := parseFlags(args)
	if err != nil {
		return err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	settings, err := loadSettings(f)
	if err != nil {
		return err
	}
	applyFlags(settings, f, set)

	log, err := newLogger(settings, f.verbose)
	if err != nil {
		return err
	}

	prompts, err := config.LoadPrompts(settings.Prompts)
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}
	cfg := buildConfig(settings, prompts)

	if f.initMemory && cfg.Memory.Backend == thinkmachine.MemoryFile {
		if err := memory.InitDurableFile(cfg.Memory.Path); err != nil {
			return fmt.Errorf("init memory: %w", err)
		}
	}

	opts := []thinkmachine.Option{thinkmachine.WithLogger(log)}
	if settings.Transcripts != "" {
		store, err := session.NewFileStore(settings.Transcripts)
		if err != nil {
			return err
		}
		opts = append(opts, thinkmachine.WithTranscriptStore(store))
	}

	orch, err := thinkmachine.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := orch.Close(context.Background()); err != nil {
			log.Error("close failed", "error", err)
		}
	}()

	ctx := context.Background()
	switch f.resume {
	case "":
	case "latest":
		err = orch.ResumeLatest(ctx)
	default:
		err = orch.Resume(ctx, f.resume)
	}
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	r := newREPL(orch, os.Stdin, os.Stdout)
	watchInterrupts(r, func() {
		if err := orch.Close(context.Background()); err != nil {
			log.Error("close failed", "error", err)
		}
		fmt.Fprintln(os.Stdout, "\nThinkMachine: Goodbye!")
		os.Exit(130)
	})
	return r.run(ctx)
}

// watchInterrupts makes Ctrl-C cancel the in-flight run, or call quit when
// the REPL is idle.
func watchInterrupts(r *repl, quit func()) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		for range sig {
			if !r.interrupt() {
				quit()
			}
		}
	}()
}

func loadSettings(f flags) (*config.Settings, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	paths := config.DefaultSettingsPaths(cwd)
	if f.configPath != "" {
		if _, err := os.Stat(f.configPath); err != nil {
			return nil, fmt.Errorf("settings file: %w", err)
		}
		paths = append(paths, f.configPath)
	}
	settings, err := config.LoadSettings(paths...)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(settings, os.LookupEnv); err != nil {
		return nil, err
	}
	return settings, nil
}

// applyFlags lets explicitly set flags win over files and environment.
func applyFlags(s *config.Settings, f flags, set map[string]bool) {
	if set["memory"] {
		s.Memory.Path = f.memoryPath
		s.Memory.Backend = thinkmachine.MemoryFile
	}
	if set["provider"] {
		s.Provider = strings.ToLower(f.provider)
	}
	if set["model"] {
		s.Model = f.model
	}
	if set["max-turns"] {
		s.MaxTurns = f.maxTurns
	}
	if set["transcripts"] {
		s.Transcripts = f.transcripts
	}
	if set["prompts"] {
		s.Prompts.Dir = f.prompts
	}
}
