package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Prompt file names looked up by LoadPrompts.
const (
	RootPromptFile         = "root.md"
	CommonPromptFile       = "common.md"
	ExamplePlansPromptFile = "example_plans.md"
)

// Prompts holds the three prompt parts.
type Prompts struct {
	Root         string
	Common       string
	ExamplePlans string
}

// DefaultPrompts returns the built-in prompts.
func DefaultPrompts() Prompts {
	return Prompts{Root: RootPrompt, Common: CommonPrompt, ExamplePlans: ExamplePlansPrompt}
}

// LoadPrompts starts from the built-in prompts, replaces each part found as a
// markdown file in the given directories (later directories win), then
// applies the inline overrides in s.
func LoadPrompts(s PromptSettings, dirs ...string) (Prompts, error) {
	p := DefaultPrompts()
	if s.Dir != "" {
		dirs = append(dirs, s.Dir)
	}
	for _, dir := range dirs {
		if err := loadPromptDir(dir, &p); err != nil {
			return Prompts{}, err
		}
	}
	setString(&p.Root, s.Root)
	setString(&p.Common, s.Common)
	setString(&p.ExamplePlans, s.ExamplePlans)
	return p, nil
}

func loadPromptDir(dir string, p *Prompts) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	targets := map[string]*string{
		RootPromptFile:         &p.Root,
		CommonPromptFile:       &p.Common,
		ExamplePlansPromptFile: &p.ExamplePlans,
	}
	for _, entry := range entries {
		dst, ok := targets[entry.Name()]
		if entry.IsDir() || !ok {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		if text := strings.TrimSpace(string(content)); text != "" {
			*dst = text
		}
	}
	return nil
}
