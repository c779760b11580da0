package sim

import (
	"log"
	"reflect"
)

// Named is a handler that can tell its name.
type Named interface {
	Name() string
}

// EventLogger is a hook that prints every event that an engine handles.
type EventLogger struct {
	*log.Logger
}

// NewEventLogger returns a new EventLogger which will write in to the logger
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{Logger: logger}
}

// Func writes the event information into the logger
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosAfterEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	target := reflect.TypeOf(evt.Handler()).String()
	if named, ok := evt.Handler().(Named); ok {
		target = named.Name()
	}

	if err, ok := ctx.Detail.(error); ok && err != nil {
		h.Printf("%.10f, %s -> %s, error: %v",
			evt.Time(), reflect.TypeOf(evt), target, err)
		return
	}

	h.Printf("%.10f, %s -> %s", evt.Time(), reflect.TypeOf(evt), target)
}
