package l3

import (
	"fmt"

	"diag-parser/internal/session"
)

// EventKind classifies the outcome of handling one message.
type EventKind uint8

const (
	EventOK EventKind = iota
	// EventSanity means a length or structure check failed; the message was
	// labeled and its remaining fields ignored.
	EventSanity
	// EventUnknown means the message type is not modeled within its family.
	EventUnknown
)

func (k EventKind) String() string {
	switch k {
	case EventSanity:
		return "sanity"
	case EventUnknown:
		return "unknown"
	default:
		return "ok"
	}
}

// Event describes what a handler made of a message.
type Event struct {
	Label string
	// Class groups labels that carry message-specific values; it is empty
	// when Label is already fixed text.
	Class string
	Kind  EventKind
	// PS is set when a GPRS handler claimed the message for the PS domain.
	PS bool
}

// Key returns the name the event is counted under.
func (e Event) Key() string {
	if e.Class != "" {
		return e.Class
	}
	return e.Label
}

func labelf(format string, args ...any) Event {
	if len(args) == 0 {
		return Event{Label: format}
	}
	return Event{Label: fmt.Sprintf(format, args...)}
}

// classf labels an event whose text varies per message with a stable class.
func classf(class, format string, args ...any) Event {
	ev := labelf(format, args...)
	ev.Class = class
	return ev
}

func sanity(reason string) Event {
	return Event{
		Label: "FAILED SANITY CHECKS (" + reason + ")",
		Kind:  EventSanity,
	}
}

func unknown(s *session.Info, family string, msgType uint8) Event {
	s.Unknown = true
	return Event{
		Label: fmt.Sprintf("UNKNOWN %s (%02x)", family, msgType),
		Kind:  EventUnknown,
	}
}
