// Package tools implements the capabilities an agent may call: sub-agent
// creation, host command and code execution, read-only database queries, and
// the temporary and persistent memory accessors.
//
// Use [Register] to add capabilities to a registry:
//
//	reg := tool.NewRegistry()
//	tools.Register(reg, tools.Deps{
//	    Temporary:  memory.NewSessionStore(),
//	    Persistent: durable,
//	    Agents:     agents,
//	}, tools.All()...)
//
// Every failure is reported to the model as result content; the Metadata of
// a result carries the structured signal for Go callers.
package tools
