package event

import "math"

// OrderLast is the default listener order: after every listener that was
// given an explicit order.
var OrderLast = math.Inf(1)

// HandlerFunc handles an event dispatched on owner.
// Returning false prevents the default action; later handlers still run.
type HandlerFunc func(owner Owner, e *Event) bool

// DefaultAction runs after all handlers unless the default was prevented.
type DefaultAction func(owner Owner, e *Event)

// Handler wraps a HandlerFunc with a stable identity.
//
// Go func values cannot be compared, so registrations are identified by the
// *Handler pointer. Registering the same *Handler twice creates two entries;
// Unregister removes both.
type Handler struct {
	fn HandlerFunc
}

// NewHandler creates a handler from fn.
func NewHandler(fn HandlerFunc) *Handler {
	return &Handler{fn: fn}
}

// NewObserver creates a handler that never prevents the default action.
func NewObserver(fn func(owner Owner, e *Event)) *Handler {
	return &Handler{fn: func(owner Owner, e *Event) bool {
		fn(owner, e)
		return true
	}}
}

// Call invokes the handler. A nil handler or func returns true.
func (h *Handler) Call(owner Owner, e *Event) bool {
	if h == nil || h.fn == nil {
		return true
	}
	return h.fn(owner, e)
}

// Event is the payload passed to handlers.
//
// An Event whose Target is nil when dispatched is treated as a custom event:
// Target and Type are filled in by the bus. A non-nil Target marks an event
// that already came from somewhere else (for example a native substrate), and
// its Target and Type are left alone.
type Event struct {
	// Type is the event type, e.g. "click" or "afterSetOptions".
	Type string

	// Target is the owner the event was dispatched on.
	Target Owner

	// DefaultPrevented is set by PreventDefault.
	DefaultPrevented bool

	// Bubbles and Cancelable are set on events synthesized for a native
	// substrate.
	Bubbles    bool
	Cancelable bool

	// Data carries the caller's payload fields.
	Data map[string]any
}

// NewEvent creates an event carrying data.
func NewEvent(data map[string]any) *Event {
	return &Event{Data: data}
}

// PreventDefault marks the default action as cancelled.
func (e *Event) PreventDefault() {
	e.DefaultPrevented = true
}

// Get returns a payload field.
func (e *Event) Get(key string) (any, bool) {
	if e.Data == nil {
		return nil, false
	}
	v, ok := e.Data[key]
	return v, ok
}

// Set stores a payload field.
func (e *Event) Set(key string, value any) {
	if e.Data == nil {
		e.Data = make(map[string]any)
	}
	e.Data[key] = value
}
