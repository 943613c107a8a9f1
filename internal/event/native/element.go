// Package native backs event owners with a DOM-style EventTarget from
// go-eventloop, acting as the native event substrate for the bus.
package native

import (
	"sync"

	eventloop "github.com/joeycumines/go-eventloop"

	"github.com/dshills/chartkit/internal/event"
)

// Element is an owner backed by an eventloop.EventTarget. It implements
// event.NativeTarget, so the bus forwards registrations to the target and
// dispatches through it.
type Element struct {
	*event.Object

	tag    string
	target *eventloop.EventTarget

	mu  sync.Mutex
	ids map[string]map[*event.Handler][]eventloop.ListenerID
}

// NewElement creates an element. parent is its delegation-chain parent and
// may be nil.
func NewElement(tag string, parent *event.Object) *Element {
	return &Element{
		Object: event.NewObject(parent),
		tag:    tag,
		target: eventloop.NewEventTarget(),
		ids:    make(map[string]map[*event.Handler][]eventloop.ListenerID),
	}
}

// Tag returns the element's tag name.
func (el *Element) Tag() string { return el.tag }

// Target returns the underlying EventTarget.
func (el *Element) Target() *eventloop.EventTarget { return el.target }

// AddNativeListener implements event.NativeTarget.
func (el *Element) AddNativeListener(typ string, h *event.Handler, opts event.NativeOptions) {
	id := el.target.AddEventListener(typ, func(ne *eventloop.Event) {
		el.invoke(ne, h, opts.Passive)
	})
	if id == 0 {
		return
	}

	el.mu.Lock()
	defer el.mu.Unlock()
	byHandler := el.ids[typ]
	if byHandler == nil {
		byHandler = make(map[*event.Handler][]eventloop.ListenerID)
		el.ids[typ] = byHandler
	}
	byHandler[h] = append(byHandler[h], id)
}

// RemoveNativeListener implements event.NativeTarget.
func (el *Element) RemoveNativeListener(typ string, h *event.Handler) {
	el.mu.Lock()
	ids := el.ids[typ][h]
	delete(el.ids[typ], h)
	if len(el.ids[typ]) == 0 {
		delete(el.ids, typ)
	}
	el.mu.Unlock()

	for _, id := range ids {
		el.target.RemoveEventListenerByID(typ, id)
	}
}

// DispatchNative implements event.NativeTarget. e travels as the native
// event's detail so handlers see the same *event.Event.
func (el *Element) DispatchNative(e *event.Event) {
	if e.Target == nil {
		e.Target = el
	}
	ce := eventloop.NewCustomEventWithOptions(e.Type, e, e.Bubbles, e.Cancelable)
	el.target.DispatchEvent(ce.EventPtr())
	if ce.DefaultPrevented {
		e.DefaultPrevented = true
	}
}

// Emit dispatches a platform-originated event straight on the target,
// bypassing the bus. It returns false when a listener prevented the default.
func (el *Element) Emit(typ string, data map[string]any) bool {
	ne := eventloop.NewCustomEventWithOptions(typ, data, true, true)
	return el.target.DispatchEvent(ne.EventPtr())
}

// ListenerCount returns the number of substrate listeners for typ.
func (el *Element) ListenerCount(typ string) int {
	return el.target.ListenerCount(typ)
}

// invoke adapts a native event to the handler's signature.
func (el *Element) invoke(ne *eventloop.Event, h *event.Handler, passive bool) {
	e, ok := ne.Detail().(*event.Event)
	if !ok {
		e = &event.Event{
			Type:       ne.Type,
			Target:     el,
			Bubbles:    ne.Bubbles,
			Cancelable: ne.Cancelable,
		}
		if data, ok := ne.Detail().(map[string]any); ok {
			e.Data = data
		}
	}

	wasPrevented := e.DefaultPrevented
	proceed := h.Call(el, e)

	if passive {
		// Passive listeners cannot cancel.
		e.DefaultPrevented = wasPrevented
		return
	}
	if !proceed {
		e.PreventDefault()
	}
	if e.DefaultPrevented {
		ne.PreventDefault()
	}
}
