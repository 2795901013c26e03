// Package trace defines the contract between the analysis engine and the
// external library that decodes the raw trace container. The engine only
// ever sees a sequence of typed events carrying a provider, an event name,
// a traced thread id, a relative timestamp in milliseconds, an optional
// resolved call stack and a named payload.
package trace

import (
	"fmt"
	"io"
	"strconv"
)

// Providers and event names of the runtime signals the analyses consume.
const (
	SampleProviderName  = "Microsoft-DotNETCore-SampleProfiler"
	RuntimeProviderName = "Microsoft-Windows-DotNETRuntime"

	ThreadSampleEventName    = "Thread/Sample"
	AllocationTickEventName  = "GC/AllocationTick"
	ExceptionStartEventName  = "Exception/Start"
	ExceptionCatchEventName  = "ExceptionCatch/Start"
	ContentionStartEventName = "Contention/Start"
	ContentionStopEventName  = "Contention/Stop"
)

type (
	// Frame is one resolved stack frame. Caller links toward the root of
	// the stack and is nil at the top.
	Frame struct {
		Name   string
		Caller *Frame
	}

	// Event is one decoded trace event.
	Event struct {
		Provider string
		Name     string
		ThreadID int64
		TimeMs   float64
		// Stack is the innermost frame of the call stack active when the
		// event fired, or nil when the event carries no stack.
		Stack *Frame
		// Dynamic marks events delivered through the generic fallback
		// parser rather than a typed one. Analyses use it to avoid
		// double-counting signals observable through both.
		Dynamic bool

		Payload map[string]interface{}
	}

	// Source yields decoded events in capture order. Next returns io.EOF
	// once the source is exhausted; any other error means the underlying
	// container could not be decoded further.
	Source interface {
		Next() (*Event, error)
	}
)

// Int64 looks up a payload field and coerces it to an integer.
func (e *Event) Int64(key string) (int64, bool) {
	v, ok := e.Payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// String looks up a payload field and coerces it to a string.
func (e *Event) String(key string) (string, bool) {
	v, ok := e.Payload[key]
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	case int64, int, uint64, float64:
		return fmt.Sprint(s), true
	default:
		return "", false
	}
}

// RootFirst walks a caller-linked stack and returns the frame names
// ordered from the root of the stack to the leaf.
func RootFirst(leaf *Frame) []string {
	var names []string
	for f := leaf; f != nil; f = f.Caller {
		names = append(names, f.Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names
}

// NewEvents returns a Source over an in-memory event slice.
func NewEvents(events []Event) *EventsSource {
	return &EventsSource{events: events}
}

// EventsSource iterates over a materialized event slice.
type EventsSource struct {
	events []Event
	next   int
}

func (s *EventsSource) Next() (*Event, error) {
	if s.next >= len(s.events) {
		return nil, io.EOF
	}
	e := &s.events[s.next]
	s.next++
	return e, nil
}
