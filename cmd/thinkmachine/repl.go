package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	thinkmachine "github.com/intelcave/thinkmachine"
)

// orchestrator is the part of *thinkmachine.Orchestrator the REPL drives.
type orchestrator interface {
	Run(ctx context.Context, input string) (string, error)
	State(ctx context.Context) (thinkmachine.State, error)
}

type repl struct {
	orch orchestrator
	in   *bufio.Scanner
	out  io.Writer

	mu     sync.Mutex
	cancel context.CancelFunc
}

func newREPL(orch orchestrator, in io.Reader, out io.Writer) *repl {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &repl{orch: orch, in: scanner, out: out}
}

// run reads inputs until exit, EOF or ctx is done.
func (r *repl) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(r.out, "User: ")
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return r.in.Err()
		}
		input := r.in.Text()

		switch strings.ToLower(strings.TrimSpace(input)) {
		case "exit", "quit", "bye":
			fmt.Fprintln(r.out, "ThinkMachine: Goodbye!")
			return nil
		case "print_state":
			r.printState(ctx)
			continue
		}

		output, err := r.ask(ctx, input)
		if err != nil {
			fmt.Fprintf(r.out, "ThinkMachine: error: %v\n", err)
			continue
		}
		fmt.Fprintf(r.out, "ThinkMachine: %s\n", output)
	}
}

func (r *repl) ask(ctx context.Context, input string) (string, error) {
	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.cancel = nil
		r.mu.Unlock()
		cancel()
	}()
	return r.orch.Run(runCtx, input)
}

// interrupt cancels the in-flight run and reports whether there was one.
func (r *repl) interrupt() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return false
	}
	r.cancel()
	r.cancel = nil
	return true
}

func (r *repl) printState(ctx context.Context) {
	state, err := r.orch.State(ctx)
	if err != nil {
		fmt.Fprintf(r.out, "ThinkMachine: error: %v\n", err)
		return
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		fmt.Fprintf(r.out, "ThinkMachine: error: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, string(data))
}
