// Package event provides the ordered event bus used by chartkit objects.
//
// Listeners live on the objects they are registered on. Every object may own
// a registry and points at a parent object, forming a delegation chain:
//
//	Series.prototype  <- LineSeries.prototype  <- line instance
//	   ("render", order 1)   ("render", default)    ("render", default)
//
// Dispatching on an instance collects handlers from every level of its chain.
// Ancestor handlers come first; when more than one level contributes, the
// combined list is re-sorted by order, stably, so ties keep that ancestor
// first arrangement.
//
// # Ordering
//
// Each registration carries an order (default OrderLast). Lower orders run
// earlier. Registrations with equal orders run in the order they were made.
//
// # Classes
//
// A Class owns a prototype object. Registering on the class attaches the
// listener to the prototype so all instances created with Class.New inherit
// it:
//
//	series := event.NewClass("Series", nil)
//	line := event.NewClass("LineSeries", series)
//
//	bus := event.NewBus()
//	bus.On(series, "render", func(owner event.Owner, e *event.Event) bool {
//	    return true
//	}, event.WithOrder(1))
//
//	bus.Dispatch(line.New(), "render", nil, nil)
//
// # Default actions
//
// Dispatch takes an optional default action. It runs after every handler
// unless one of them returned false or called PreventDefault.
//
// # Native targets
//
// Owners implementing NativeTarget are backed by an external event substrate
// (see the native subpackage). Registrations are forwarded to it and Dispatch
// delivers through it instead of walking the chain.
//
// # Thread Safety
//
// Registries are guarded per object. Dispatch snapshots the lists before
// running handlers and holds no lock while they run, so handlers may register,
// unregister or dispatch again.
package event
