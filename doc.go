// Package thinkmachine is a conversational agent orchestrator.
//
// An [Orchestrator] owns the running conversation, a session-scoped memory,
// a durable JSON-file memory and a fixed capability set (memory access,
// shell commands, Python code, read-only database queries and sub-agent
// creation). Each call to [Orchestrator.Run] appends the user's input to the
// conversation, hands it to a [Runtime] and returns the content of the last
// turn the runtime produced.
//
// # Quick Start
//
//	cfg := thinkmachine.DefaultConfig()
//	cfg.Memory.Path = "memory.json"
//	o, err := thinkmachine.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer o.Close(context.Background())
//	reply, err := o.Run(ctx, "What is my name?")
//
// # Sub-packages
//
//   - [memory] provides the session, durable and Redis key/value stores.
//   - [tools] provides the capability set bound into every agent.
//   - [session] persists conversation transcripts for resuming.
//   - [subagent] records agents created during a run.
package thinkmachine
