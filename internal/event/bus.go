package event

import (
	"fmt"
	"maps"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"
)

// Bus registers, removes and dispatches listeners on owners.
//
// The listener registries live on the owners themselves; the bus only carries
// configuration and its own root object, which lets callers use the bus as a
// global owner ("bus.Register(bus, ...)").
type Bus struct {
	root   *Object
	config busConfig
}

// NewBus creates a bus with the given options.
func NewBus(opts ...BusOption) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Bus{
		root:   NewObject(nil),
		config: config,
	}
}

// EventObject implements Owner. Dispatch on the root never takes the native
// path.
func (b *Bus) EventObject() *Object { return b.root }

// Root returns the bus's own object.
func (b *Bus) Root() *Object { return b.root }

// Register adds h as a listener for typ on owner and returns a function that
// removes exactly this registration. The returned function is safe to call
// more than once.
//
// A *Class owner stores the listener on its prototype. Owners implementing
// NativeTarget get the registration forwarded to the substrate as well.
func (b *Bus) Register(owner Owner, typ string, h *Handler, opts ...ListenerOption) func() {
	obj := objectOf(owner)
	if obj == nil || h == nil {
		return func() {}
	}

	config := defaultListenerConfig()
	for _, opt := range opts {
		opt(&config)
	}

	if nt, ok := owner.(NativeTarget); ok {
		passive := strings.Contains(typ, "touch")
		if config.passive != nil {
			passive = *config.passive
		}
		nt.AddNativeListener(typ, h, NativeOptions{Passive: passive})
	}

	obj.add(typ, listener{handler: h, order: config.order})

	b.config.logger.Debug("listener added",
		zap.String("object", obj.ID()),
		zap.String("type", typ),
		zap.Float64("order", config.order))

	return func() {
		b.Unregister(owner, typ, h)
	}
}

// On is a shorthand for registering fn through NewHandler.
func (b *Bus) On(owner Owner, typ string, fn HandlerFunc, opts ...ListenerOption) func() {
	return b.Register(owner, typ, NewHandler(fn), opts...)
}

// Unregister removes every registration of h for typ from owner's own
// registry and forwards one native removal.
func (b *Bus) Unregister(owner Owner, typ string, h *Handler) {
	obj := objectOf(owner)
	if obj == nil {
		return
	}
	if !obj.remove(typ, h) {
		return
	}
	if nt, ok := owner.(NativeTarget); ok {
		nt.RemoveNativeListener(typ, h)
	}

	b.config.logger.Debug("listener removed",
		zap.String("object", obj.ID()),
		zap.String("type", typ))
}

// UnregisterType removes all listeners for typ from owner's own registry. The
// type's entry stays in the registry, empty.
func (b *Bus) UnregisterType(owner Owner, typ string) {
	obj := objectOf(owner)
	if obj == nil {
		return
	}
	removed, ok := obj.clearType(typ)
	if !ok {
		return
	}
	if nt, ok := owner.(NativeTarget); ok {
		for i := len(removed) - 1; i >= 0; i-- {
			nt.RemoveNativeListener(typ, removed[i])
		}
	}

	b.config.logger.Debug("listeners cleared",
		zap.String("object", obj.ID()),
		zap.String("type", typ),
		zap.Int("count", len(removed)))
}

// UnregisterAll removes owner's own registry entirely.
func (b *Bus) UnregisterAll(owner Owner) {
	obj := objectOf(owner)
	if obj == nil {
		return
	}
	removed, ok := obj.clearAll()
	if !ok {
		return
	}
	if nt, ok := owner.(NativeTarget); ok {
		for typ, handlers := range removed {
			for i := len(handlers) - 1; i >= 0; i-- {
				nt.RemoveNativeListener(typ, handlers[i])
			}
		}
	}

	b.config.logger.Debug("registry dropped",
		zap.String("object", obj.ID()),
		zap.Int("types", len(removed)))
}

// Dispatch fires typ on owner and returns the event handlers received.
//
// Owners implementing NativeTarget (other than the bus root) receive a
// synthesized bubbling, cancelable event through DispatchNative when native
// events are enabled. Every other owner gets the handlers collected from its
// delegation chain: ancestors first, then by ascending order. A handler that
// returns false prevents the default action without stopping the remaining
// handlers. defaultAction, when not nil, runs last unless the default was
// prevented.
func (b *Bus) Dispatch(owner Owner, typ string, payload *Event, defaultAction DefaultAction) *Event {
	obj := objectOf(owner)
	if obj == nil {
		if payload == nil {
			payload = &Event{Type: typ}
		}
		return payload
	}

	var e *Event
	if nt, ok := owner.(NativeTarget); ok && b.config.nativeEvents && obj != b.root {
		e = b.dispatchNative(nt, typ, payload)
	} else {
		e = b.dispatchInternal(owner, obj, typ, payload)
	}

	if defaultAction != nil && !e.DefaultPrevented {
		b.protect(typ, func() { defaultAction(owner, e) })
	}
	return e
}

// Fire is Dispatch with a payload built from data and no default action.
func (b *Bus) Fire(owner Owner, typ string, data map[string]any) *Event {
	return b.Dispatch(owner, typ, NewEvent(data), nil)
}

func (b *Bus) dispatchNative(nt NativeTarget, typ string, payload *Event) *Event {
	e := &Event{
		Type:       typ,
		Bubbles:    true,
		Cancelable: true,
	}
	if payload != nil {
		if payload.Type != "" {
			e.Type = payload.Type
		}
		e.Target = payload.Target
		e.DefaultPrevented = payload.DefaultPrevented
		e.Data = maps.Clone(payload.Data)
	}

	b.config.logger.Debug("native dispatch",
		zap.String("object", nt.EventObject().ID()),
		zap.String("type", e.Type))

	b.protect(typ, func() { nt.DispatchNative(e) })
	return e
}

func (b *Bus) dispatchInternal(owner Owner, obj *Object, typ string, e *Event) *Event {
	if e == nil {
		e = &Event{}
	}
	if e.Target == nil {
		e.Target = owner
		e.Type = typ
	}

	var (
		collected []listener
		levels    int
	)
	for level := obj; level != nil; level = level.proto {
		list := level.snapshot(typ)
		if len(list) == 0 {
			continue
		}
		levels++
		collected = append(list, collected...)
	}

	// Each level is already sorted; only a mix of levels needs sorting.
	if levels > 1 {
		sortListeners(collected)
	}

	b.config.logger.Debug("dispatch",
		zap.String("object", obj.ID()),
		zap.String("type", typ),
		zap.Int("handlers", len(collected)),
		zap.Int("levels", levels))

	for _, l := range collected {
		proceed := true
		b.protect(typ, func() { proceed = l.handler.Call(owner, e) })
		if !proceed {
			e.PreventDefault()
		}
	}
	return e
}

// protect runs fn, recovering panics when a panic handler is configured.
func (b *Bus) protect(typ string, fn func()) {
	if b.config.panicHandler == nil {
		fn()
		return
	}
	defer func() {
		if r := recover(); r != nil {
			perr := &PanicError{
				Type:  typ,
				Value: r,
				Stack: string(debug.Stack()),
			}
			b.config.logger.Error("handler panic",
				zap.String("type", typ),
				zap.String("value", fmt.Sprint(r)))
			b.config.panicHandler(perr)
		}
	}()
	fn()
}

// ListenerCount returns the number of listeners for typ in owner's own
// registry. Inherited listeners are not counted.
func (b *Bus) ListenerCount(owner Owner, typ string) int {
	obj := objectOf(owner)
	if obj == nil {
		return 0
	}
	return obj.count(typ)
}

// HasOwnRegistry reports whether owner holds its own registry.
func (b *Bus) HasOwnRegistry(owner Owner) bool {
	obj := objectOf(owner)
	return obj != nil && obj.hasOwn()
}

// Types returns the event types in owner's own registry, sorted.
func (b *Bus) Types(owner Owner) []string {
	obj := objectOf(owner)
	if obj == nil {
		return nil
	}
	return obj.types()
}

func objectOf(owner Owner) *Object {
	if owner == nil {
		return nil
	}
	return owner.EventObject()
}
