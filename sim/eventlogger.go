package sim

import (
	"log"
	"reflect"
)

// EventLogger is a hook that writes one line per handled event.
type EventLogger struct {
	logger *log.Logger
}

// NewEventLogger creates an EventLogger that writes into logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Func logs events that are about to be handled.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	target := "-"
	if named, ok := evt.Handler().(Named); ok {
		target = named.Name()
	}

	h.logger.Printf("%.10f,%s,%s", evt.Time(), reflect.TypeOf(evt), target)
}

// PortMsgLogger is a hook that writes one line per message a port sends,
// receives or hands out.
type PortMsgLogger struct {
	logger     *log.Logger
	timeTeller TimeTeller
}

// NewPortMsgLogger creates a PortMsgLogger that writes into logger.
func NewPortMsgLogger(logger *log.Logger, timeTeller TimeTeller) *PortMsgLogger {
	return &PortMsgLogger{logger: logger, timeTeller: timeTeller}
}

// Func logs the message of the hook context.
func (h *PortMsgLogger) Func(ctx HookCtx) {
	msg, ok := ctx.Item.(Msg)
	if !ok {
		return
	}

	port, ok := ctx.Domain.(Port)
	if !ok {
		return
	}

	meta := msg.Meta()
	h.logger.Printf("%.10f,%s,%s,%s,%s,%s,%s",
		h.timeTeller.CurrentTime(), port.Name(), ctx.Pos.Name,
		meta.Src, meta.Dst, reflect.TypeOf(msg), meta.ID)
}
