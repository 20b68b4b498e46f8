package agent

import (
	"sync"
	"time"
)

type EventType string

const (
	EventIteration   EventType = "iteration"
	EventToolCall    EventType = "tool_call"
	EventToolResult  EventType = "tool_result"
	EventStateChange EventType = "state_change"
	EventRetry       EventType = "retry"
	EventSummary     EventType = "summary"
	EventError       EventType = "error"
)

// Event is a progress notification from a running analysis.
type Event struct {
	Type      EventType
	Message   string
	Iteration int
	Time      time.Time
}

// EventEmitter fans analysis progress out to one consumer channel. Emit
// never blocks: when the consumer falls behind, events are dropped rather
// than stalling the agent loop.
type EventEmitter struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func NewEventEmitter(buffer int) *EventEmitter {
	if buffer <= 0 {
		buffer = 64
	}
	return &EventEmitter{ch: make(chan Event, buffer)}
}

func (e *EventEmitter) Emit(typ EventType, iteration int, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	ev := Event{Type: typ, Message: message, Iteration: iteration, Time: time.Now().UTC()}
	select {
	case e.ch <- ev:
	default:
	}
}

// Events returns the consumer channel. It is closed when the emitter is.
func (e *EventEmitter) Events() <-chan Event { return e.ch }

func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}
