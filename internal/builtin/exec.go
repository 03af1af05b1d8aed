// Package builtin runs the external effects behind the tool boundary: host
// shell commands, interpreter snippets and read-only queries through the
// database proxy. Results are reported as outcome values; rendering them for a
// model is left to the caller.
package builtin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/creack/pty"
)

// DefaultTimeout bounds shell and code runs unless configured otherwise.
const DefaultTimeout = 5 * time.Minute

// waitDelay caps how long Wait blocks on pipes held open by orphaned children
// after the process has been killed.
const waitDelay = 2 * time.Second

// ExecOptions configures a process run. A zero Timeout means unbounded.
type ExecOptions struct {
	Timeout        time.Duration
	Dir            string
	Env            map[string]string
	PTY            bool
	MaxOutputBytes int
}

// ExecOutcome describes a finished process run. A non-zero exit code alone is
// not a failure; only a start/IO error or an expired timeout is.
type ExecOutcome struct {
	Stdout   string
	ExitCode int
	TimedOut bool
	Err      error
	Duration time.Duration
}

// Failed reports whether the run could not produce output.
func (o ExecOutcome) Failed() bool {
	return o.TimedOut || o.Err != nil
}

// RunCommand executes command through the host shell and captures stdout.
func RunCommand(ctx context.Context, command string, opts ExecOptions) ExecOutcome {
	if command == "" {
		return ExecOutcome{Err: errors.New("command is required"), ExitCode: -1}
	}
	name, args := shellArgs(command)
	return run(ctx, name, args, opts)
}

// RunCode executes code with `interpreter -c code` in a fresh process.
func RunCode(ctx context.Context, interpreter, code string, opts ExecOptions) ExecOutcome {
	if interpreter == "" {
		interpreter = "python3"
	}
	return run(ctx, interpreter, []string{"-c", code}, ExecOptions{
		Timeout:        opts.Timeout,
		Dir:            opts.Dir,
		Env:            opts.Env,
		MaxOutputBytes: opts.MaxOutputBytes,
	})
}

func shellArgs(command string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "sh", []string{"-c", command}
}

func run(ctx context.Context, name string, args []string, opts ExecOptions) ExecOutcome {
	start := time.Now()

	runCtx := ctx
	cancel := func() {}
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	defer cancel()

	newCmd := func(tty bool) *exec.Cmd {
		cmd := exec.CommandContext(runCtx, name, args...)
		cmd.WaitDelay = waitDelay
		applyOptions(cmd, opts)
		killGroupOnCancel(cmd, tty)
		return cmd
	}

	var (
		stdout  string
		waitErr error
	)
	if opts.PTY {
		var ok bool
		stdout, ok, waitErr = runPTY(runCtx, newCmd(true))
		if !ok {
			stdout, waitErr = runPipes(newCmd(false))
		}
	} else {
		stdout, waitErr = runPipes(newCmd(false))
	}

	out := ExecOutcome{
		Stdout:   truncate(stdout, opts.MaxOutputBytes),
		Duration: time.Since(start),
	}

	if waitErr == nil {
		return out
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		out.Err = ctx.Err()
		out.ExitCode = -1
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		out.TimedOut = true
		out.ExitCode = -1
	case errors.As(waitErr, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	case errors.Is(waitErr, exec.ErrWaitDelay):
		// Output was collected; a leftover child kept the pipe open.
	default:
		out.Err = waitErr
		out.ExitCode = -1
	}
	return out
}

// runPipes captures stdout only; stderr is discarded.
func runPipes(cmd *exec.Cmd) (string, error) {
	var buf bytes.Buffer
	cmd.Stdout = &buf
	err := cmd.Run()
	return buf.String(), err
}

// runPTY runs cmd attached to a pseudo-terminal, which merges stderr into the
// output. ok is false when no pty could be allocated. The master is closed
// once ctx ends so a descendant holding the terminal cannot block the read.
func runPTY(ctx context.Context, cmd *exec.Cmd) (output string, ok bool, err error) {
	ptmx, startErr := pty.Start(cmd)
	if startErr != nil {
		var execErr *exec.Error
		if errors.As(startErr, &execErr) {
			return "", true, startErr
		}
		return "", false, nil
	}
	defer ptmx.Close()
	stop := context.AfterFunc(ctx, func() { _ = ptmx.Close() })
	defer stop()

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, ptmx) // EIO on process exit
	return buf.String(), true, cmd.Wait()
}

func applyOptions(cmd *exec.Cmd, opts ExecOptions) {
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range opts.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + "\n... [output truncated]"
}
