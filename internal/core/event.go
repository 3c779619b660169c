package core

import "github.com/huddlehq/huddle-server/internal/proto"

// Event is a server-to-client notification. Name is the wire event name
// from the proto package and Data its JSON-serializable payload.
// An Event with a non-nil Err is delivered as an error envelope instead.
type Event struct {
	Name string
	Data any
	Err  *CoreError
}

func event(name string, data any) *Event {
	return &Event{Name: name, Data: data}
}

// errorEvent builds a scoped "error" envelope for the requester only.
func errorEvent(code, msg string) *Event {
	return &Event{
		Name: proto.EventError,
		Data: proto.ErrorEvent{Message: msg},
		Err:  &CoreError{Code: code, Message: msg},
	}
}

// callErrorEvent builds a "call:error" envelope for the requester only.
func callErrorEvent(code, msg string) *Event {
	return &Event{
		Name: proto.EventCallError,
		Data: proto.ErrorEvent{Message: msg},
		Err:  &CoreError{Code: code, Message: msg},
	}
}
