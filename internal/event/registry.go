package event

import (
	"slices"
	"sync"

	"github.com/dshills/chartkit/internal/uid"
)

// Owner is anything listeners can be attached to.
//
// EventObject returns the object holding the owner's listener registry.
// Structs embedding *Object satisfy Owner through the promoted method; a
// *Class resolves to its shared prototype.
type Owner interface {
	EventObject() *Object
}

// listener is a single registration.
type listener struct {
	handler *Handler
	order   float64
}

// Object is a node in a delegation chain. It may own a listener registry and
// points at its parent (its prototype) explicitly.
type Object struct {
	id    string
	proto *Object

	mu sync.RWMutex
	// own registry, nil until the first registration
	events map[string][]listener
}

// NewObject creates an object whose parent in the delegation chain is proto.
// proto may be nil.
func NewObject(proto *Object) *Object {
	return &Object{id: uid.Key(), proto: proto}
}

// EventObject implements Owner.
func (o *Object) EventObject() *Object { return o }

// ID returns the object's unique key.
func (o *Object) ID() string { return o.id }

// Proto returns the parent object in the delegation chain.
func (o *Object) Proto() *Object { return o.proto }

// add appends l to the own list for typ and re-sorts it by order.
// Equal orders keep registration order.
func (o *Object) add(typ string, l listener) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.events == nil {
		o.events = make(map[string][]listener)
	}

	// Always build a new slice so snapshots held by a running dispatch
	// never observe the change.
	list := make([]listener, 0, len(o.events[typ])+1)
	list = append(list, o.events[typ]...)
	list = append(list, l)
	sortListeners(list)
	o.events[typ] = list
}

// remove filters h out of the own list for typ.
// Returns false when the object has no own registry.
func (o *Object) remove(typ string, h *Handler) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.events == nil {
		return false
	}

	old, ok := o.events[typ]
	if !ok {
		return false
	}
	list := make([]listener, 0, len(old))
	for _, l := range old {
		if l.handler != h {
			list = append(list, l)
		}
	}
	o.events[typ] = list
	return true
}

// clearType empties the own list for typ, keeping the entry.
// It returns the handlers that were registered.
func (o *Object) clearType(typ string) ([]*Handler, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.events == nil {
		return nil, false
	}

	removed := handlersOf(o.events[typ])
	o.events[typ] = []listener{}
	return removed, true
}

// clearAll drops the own registry and returns everything it held.
func (o *Object) clearAll() (map[string][]*Handler, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.events == nil {
		return nil, false
	}

	removed := make(map[string][]*Handler, len(o.events))
	for typ, list := range o.events {
		removed[typ] = handlersOf(list)
	}
	o.events = nil
	return removed, true
}

// snapshot returns a copy of the own list for typ.
func (o *Object) snapshot(typ string) []listener {
	o.mu.RLock()
	defer o.mu.RUnlock()

	list := o.events[typ]
	if len(list) == 0 {
		return nil
	}
	return slices.Clone(list)
}

// hasOwn reports whether the object owns a registry.
func (o *Object) hasOwn() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.events != nil
}

// count returns the number of own listeners for typ.
func (o *Object) count(typ string) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.events[typ])
}

// types returns the event types present in the own registry, sorted.
func (o *Object) types() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if len(o.events) == 0 {
		return nil
	}
	result := make([]string, 0, len(o.events))
	for typ := range o.events {
		result = append(result, typ)
	}
	slices.Sort(result)
	return result
}

func handlersOf(list []listener) []*Handler {
	if len(list) == 0 {
		return nil
	}
	result := make([]*Handler, len(list))
	for i, l := range list {
		result[i] = l.handler
	}
	return result
}

// sortListeners orders by ascending order. The sort is stable: ties keep
// their relative position.
func sortListeners(list []listener) {
	slices.SortStableFunc(list, func(a, b listener) int {
		switch {
		case a.order < b.order:
			return -1
		case a.order > b.order:
			return 1
		default:
			return 0
		}
	})
}

// Class is a constructible owner. Listeners registered on a Class are stored
// on its shared prototype and therefore seen by every instance.
type Class struct {
	name      string
	base      *Class
	prototype *Object
}

// NewClass creates a class. When base is not nil the new prototype delegates
// to base's prototype, so base listeners fire for instances of the new class.
func NewClass(name string, base *Class) *Class {
	var parent *Object
	if base != nil {
		parent = base.prototype
	}
	return &Class{
		name:      name,
		base:      base,
		prototype: NewObject(parent),
	}
}

// EventObject implements Owner by resolving to the shared prototype.
func (c *Class) EventObject() *Object { return c.prototype }

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// Base returns the class this one extends, or nil.
func (c *Class) Base() *Class { return c.base }

// Prototype returns the object shared by all instances.
func (c *Class) Prototype() *Object { return c.prototype }

// New creates an instance whose parent is the class prototype.
func (c *Class) New() *Object { return NewObject(c.prototype) }
