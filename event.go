package thinkmachine

import (
	"github.com/intelcave/thinkmachine/conversation"
	"github.com/intelcave/thinkmachine/internal/engine"
	"github.com/intelcave/thinkmachine/tool"
)

// EventType identifies the kind of event emitted during a run.
type EventType string

const (
	EventTurn       EventType = "turn"
	EventDelta      EventType = "delta"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventHandoff    EventType = "handoff"
)

// Event is the interface implemented by all run events.
type Event interface {
	Type() EventType
}

// TurnEvent is emitted for every turn appended during a run.
type TurnEvent struct {
	Turn conversation.Turn
}

func (e *TurnEvent) Type() EventType { return EventTurn }

// DeltaEvent carries streamed assistant text as it arrives.
type DeltaEvent struct {
	Agent string
	Delta string
}

func (e *DeltaEvent) Type() EventType { return EventDelta }

// ToolCallEvent is emitted before a capability executes.
type ToolCallEvent struct {
	Agent string
	Call  conversation.ToolCall
}

func (e *ToolCallEvent) Type() EventType { return EventToolCall }

// ToolResultEvent is emitted after a capability executes.
type ToolResultEvent struct {
	Agent   string
	Call    conversation.ToolCall
	Content string
	IsError bool
}

func (e *ToolResultEvent) Type() EventType { return EventToolResult }

// HandoffEvent is emitted when control passes to another agent.
type HandoffEvent struct {
	From string
	To   string
}

func (e *HandoffEvent) Type() EventType { return EventHandoff }

// EventHandler receives run events synchronously, in order. It must not
// call back into the Orchestrator.
type EventHandler func(Event)

// eventSink adapts an EventHandler to the loop's sink interface.
type eventSink struct {
	handle EventHandler
}

var _ engine.EventSink = eventSink{}

func newEventSink(h EventHandler) engine.EventSink {
	if h == nil {
		return engine.NopSink{}
	}
	return eventSink{handle: h}
}

func (s eventSink) OnTurn(turn conversation.Turn) {
	s.handle(&TurnEvent{Turn: turn})
}

func (s eventSink) OnDelta(agent, delta string) {
	s.handle(&DeltaEvent{Agent: agent, Delta: delta})
}

func (s eventSink) OnToolCall(agent string, call conversation.ToolCall) {
	s.handle(&ToolCallEvent{Agent: agent, Call: call})
}

func (s eventSink) OnToolResult(agent string, call conversation.ToolCall, res *tool.Result) {
	ev := &ToolResultEvent{Agent: agent, Call: call}
	if res != nil {
		ev.Content = res.Content
		ev.IsError = res.IsError
	}
	s.handle(ev)
}

func (s eventSink) OnHandoff(from, to string) {
	s.handle(&HandoffEvent{From: from, To: to})
}
