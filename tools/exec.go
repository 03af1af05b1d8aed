package tools

import (
	"context"
	"time"

	"github.com/intelcave/thinkmachine/internal/builtin"
	"github.com/intelcave/thinkmachine/tool"
)

// ShellConfig configures execute_command. A zero Timeout selects the default
// bound; a negative Timeout lets commands run until they exit.
type ShellConfig struct {
	Timeout        time.Duration
	Dir            string
	Env            map[string]string
	PTY            bool
	MaxOutputBytes int
}

// CodeConfig configures execute_code. Interpreter defaults to python3.
type CodeConfig struct {
	Interpreter    string
	Timeout        time.Duration
	Dir            string
	Env            map[string]string
	MaxOutputBytes int
}

func effectiveTimeout(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return builtin.DefaultTimeout
	case d < 0:
		return 0
	}
	return d
}

// CommandInput defines the input for execute_command.
type CommandInput struct {
	Command string `json:"command" jsonschema:"required,description=The shell command to run"`
}

// CommandTool runs a shell command on the host.
type CommandTool struct{ Config ShellConfig }

var _ tool.Tool[CommandInput] = (*CommandTool)(nil)

func (t *CommandTool) Name() string { return ExecuteCommand.ToolName() }
func (t *CommandTool) Description() string {
	return "Execute a shell command on the host and return its standard output."
}

func (t *CommandTool) Execute(ctx context.Context, input CommandInput) (*tool.Result, error) {
	out := builtin.RunCommand(ctx, input.Command, builtin.ExecOptions{
		Timeout:        effectiveTimeout(t.Config.Timeout),
		Dir:            t.Config.Dir,
		Env:            t.Config.Env,
		PTY:            t.Config.PTY,
		MaxOutputBytes: t.Config.MaxOutputBytes,
	})
	return renderExec("Command", out), nil
}

// CodeInput defines the input for execute_code.
type CodeInput struct {
	Code string `json:"code" jsonschema:"required,description=Python source to run"`
}

// CodeTool runs a Python snippet in a fresh interpreter.
type CodeTool struct{ Config CodeConfig }

var _ tool.Tool[CodeInput] = (*CodeTool)(nil)

func (t *CodeTool) Name() string { return ExecuteCode.ToolName() }
func (t *CodeTool) Description() string {
	return "Execute Python code in a new interpreter process and return what it prints."
}

func (t *CodeTool) Execute(ctx context.Context, input CodeInput) (*tool.Result, error) {
	out := builtin.RunCode(ctx, t.Config.Interpreter, input.Code, builtin.ExecOptions{
		Timeout:        effectiveTimeout(t.Config.Timeout),
		Dir:            t.Config.Dir,
		Env:            t.Config.Env,
		MaxOutputBytes: t.Config.MaxOutputBytes,
	})
	return renderExec("Code", out), nil
}

// renderExec turns a process outcome into the text the model sees. kind is
// "Command" or "Code".
func renderExec(kind string, out builtin.ExecOutcome) *tool.Result {
	var res *tool.Result
	switch {
	case out.TimedOut:
		res = tool.ErrorResult(kind + " execution timed out")
	case out.Err != nil:
		res = tool.ErrorResult(kind + " execution failed: " + out.Err.Error())
	default:
		res = tool.TextResult(out.Stdout)
	}
	return res.
		WithMetadata("exit_code", out.ExitCode).
		WithMetadata("timed_out", out.TimedOut).
		WithMetadata("duration_ms", out.Duration.Milliseconds())
}
