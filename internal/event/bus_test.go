package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder appends labels to a shared log.
type recorder struct {
	calls []string
}

func (r *recorder) handler(label string) *Handler {
	return NewObserver(func(Owner, *Event) {
		r.calls = append(r.calls, label)
	})
}

func TestBus_OrderBeatsRegistration(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)
	rec := &recorder{}

	bus.Register(obj, "render", rec.handler("h2"), WithOrder(2))
	bus.Register(obj, "render", rec.handler("h1"), WithOrder(1))

	bus.Dispatch(obj, "render", nil, nil)

	assert.Equal(t, []string{"h1", "h2"}, rec.calls)
}

func TestBus_EqualOrderKeepsRegistrationOrder(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)
	rec := &recorder{}

	for _, label := range []string{"a", "b", "c", "d"} {
		bus.Register(obj, "load", rec.handler(label))
	}
	bus.Register(obj, "load", rec.handler("x"), WithOrder(5))
	bus.Register(obj, "load", rec.handler("y"), WithOrder(5))

	bus.Dispatch(obj, "load", nil, nil)

	assert.Equal(t, []string{"x", "y", "a", "b", "c", "d"}, rec.calls)
}

func TestBus_BaseBeforeDerived(t *testing.T) {
	bus := NewBus()
	series := NewClass("Series", nil)
	line := NewClass("LineSeries", series)
	instance := line.New()
	rec := &recorder{}

	// Registration order is deliberately derived-first.
	bus.Register(instance, "render", rec.handler("instance"))
	bus.Register(line, "render", rec.handler("line"))
	bus.Register(series, "render", rec.handler("series"))

	bus.Dispatch(instance, "render", nil, nil)

	assert.Equal(t, []string{"series", "line", "instance"}, rec.calls)
}

func TestBus_MultiLevelResort(t *testing.T) {
	bus := NewBus()
	base := NewClass("Base", nil)
	instance := base.New()
	rec := &recorder{}

	bus.Register(base, "draw", rec.handler("base-last"))
	bus.Register(base, "draw", rec.handler("base-3"), WithOrder(3))
	bus.Register(instance, "draw", rec.handler("inst-1"), WithOrder(1))
	bus.Register(instance, "draw", rec.handler("inst-3"), WithOrder(3))

	bus.Dispatch(instance, "draw", nil, nil)

	assert.Equal(t, []string{"inst-1", "base-3", "inst-3", "base-last"}, rec.calls)
}

func TestBus_ClassRegistrationSharedByInstances(t *testing.T) {
	bus := NewBus()
	point := NewClass("Point", nil)
	a, b := point.New(), point.New()
	count := 0

	bus.On(point, "click", func(Owner, *Event) bool {
		count++
		return true
	})

	bus.Dispatch(a, "click", nil, nil)
	bus.Dispatch(b, "click", nil, nil)

	assert.Equal(t, 2, count)
	assert.True(t, bus.HasOwnRegistry(point.Prototype()))
	assert.False(t, bus.HasOwnRegistry(a))
}

func TestBus_InstanceRegistrationDoesNotTouchPrototype(t *testing.T) {
	bus := NewBus()
	point := NewClass("Point", nil)
	a, b := point.New(), point.New()
	rec := &recorder{}

	bus.Register(point, "click", rec.handler("proto"))
	bus.Register(a, "click", rec.handler("a"))

	assert.Equal(t, 1, bus.ListenerCount(point, "click"))
	assert.Equal(t, 1, bus.ListenerCount(a, "click"))
	assert.Equal(t, 0, bus.ListenerCount(b, "click"))

	bus.Dispatch(b, "click", nil, nil)
	assert.Equal(t, []string{"proto"}, rec.calls)
}

func TestBus_PayloadDefaults(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)

	var got *Event
	var receiver Owner
	bus.On(obj, "select", func(owner Owner, e *Event) bool {
		got = e
		receiver = owner
		return true
	})

	payload := NewEvent(map[string]any{"x": 1})
	e := bus.Dispatch(obj, "select", payload, nil)

	require.Same(t, payload, e)
	require.Same(t, payload, got)
	assert.Same(t, obj, receiver)
	assert.Equal(t, Owner(obj), e.Target)
	assert.Equal(t, "select", e.Type)
	assert.Equal(t, 1, e.Data["x"])
}

func TestBus_ForeignEventKeepsTarget(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)
	other := NewObject(nil)
	bus.On(obj, "mouseOver", func(Owner, *Event) bool { return true })

	payload := &Event{Type: "mouseover", Target: other}
	e := bus.Dispatch(obj, "mouseOver", payload, nil)

	assert.Equal(t, Owner(other), e.Target)
	assert.Equal(t, "mouseover", e.Type)
}

func TestBus_FalsePreventsDefaultButContinues(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)
	rec := &recorder{}

	bus.On(obj, "hide", func(Owner, *Event) bool {
		rec.calls = append(rec.calls, "veto")
		return false
	})
	bus.Register(obj, "hide", rec.handler("after"))

	defaultRan := false
	e := bus.Dispatch(obj, "hide", nil, func(Owner, *Event) {
		defaultRan = true
	})

	assert.True(t, e.DefaultPrevented)
	assert.False(t, defaultRan)
	assert.Equal(t, []string{"veto", "after"}, rec.calls)
}

func TestBus_DefaultActionRuns(t *testing.T) {
	tests := []struct {
		name     string
		register bool
	}{
		{"no handlers", false},
		{"allowing handler", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewBus()
			obj := NewObject(nil)
			if tt.register {
				bus.On(obj, "show", func(Owner, *Event) bool { return true })
			}

			var receiver Owner
			var received *Event
			e := bus.Dispatch(obj, "show", nil, func(owner Owner, e *Event) {
				receiver = owner
				received = e
			})

			assert.Same(t, obj, receiver)
			assert.Same(t, e, received)
		})
	}
}

func TestBus_PreventDefaultCall(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)
	bus.On(obj, "zoom", func(_ Owner, e *Event) bool {
		e.PreventDefault()
		return true
	})

	ran := false
	bus.Dispatch(obj, "zoom", nil, func(Owner, *Event) { ran = true })
	assert.False(t, ran)
}

func TestBus_UnregisterIdempotent(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)
	rec := &recorder{}
	h := rec.handler("h")
	keep := rec.handler("keep")

	remove := bus.Register(obj, "update", h)
	bus.Register(obj, "update", keep)

	remove()
	remove()
	bus.Unregister(obj, "update", h)

	bus.Dispatch(obj, "update", nil, nil)
	assert.Equal(t, []string{"keep"}, rec.calls)
	assert.Equal(t, 1, bus.ListenerCount(obj, "update"))
}

func TestBus_UnregisterRemovesAllCopies(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)
	rec := &recorder{}
	h := rec.handler("h")

	bus.Register(obj, "update", h)
	bus.Register(obj, "update", h, WithOrder(1))
	require.Equal(t, 2, bus.ListenerCount(obj, "update"))

	bus.Unregister(obj, "update", h)
	assert.Equal(t, 0, bus.ListenerCount(obj, "update"))
}

func TestBus_UnregisterType(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)
	rec := &recorder{}

	bus.Register(obj, "a", rec.handler("a1"))
	bus.Register(obj, "a", rec.handler("a2"))
	bus.Register(obj, "b", rec.handler("b1"))

	bus.UnregisterType(obj, "a")

	assert.Equal(t, 0, bus.ListenerCount(obj, "a"))
	assert.Equal(t, 1, bus.ListenerCount(obj, "b"))
	assert.Equal(t, []string{"a", "b"}, bus.Types(obj))

	bus.Dispatch(obj, "a", nil, nil)
	bus.Dispatch(obj, "b", nil, nil)
	assert.Equal(t, []string{"b1"}, rec.calls)
}

func TestBus_UnregisterUnknownTypeAddsNoEntry(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)
	bus.Register(obj, "a", NewHandler(func(Owner, *Event) bool { return true }))

	bus.Unregister(obj, "never", NewHandler(nil))

	assert.Equal(t, []string{"a"}, bus.Types(obj))
}

func TestBus_UnregisterAll(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)
	rec := &recorder{}

	bus.Register(obj, "a", rec.handler("a"))
	bus.Register(obj, "b", rec.handler("b"))

	bus.UnregisterAll(obj)

	assert.False(t, bus.HasOwnRegistry(obj))
	assert.Nil(t, bus.Types(obj))
	bus.Dispatch(obj, "a", nil, nil)
	assert.Empty(t, rec.calls)

	// Registering again creates a fresh registry.
	bus.Register(obj, "a", rec.handler("again"))
	bus.Dispatch(obj, "a", nil, nil)
	assert.Equal(t, []string{"again"}, rec.calls)
}

func TestBus_UnregisterWithoutRegistry(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)

	assert.NotPanics(t, func() {
		bus.Unregister(obj, "a", NewHandler(nil))
		bus.UnregisterType(obj, "a")
		bus.UnregisterAll(obj)
	})
	assert.False(t, bus.HasOwnRegistry(obj))
}

func TestBus_UnregisterOnInstanceKeepsInherited(t *testing.T) {
	bus := NewBus()
	cls := NewClass("Chart", nil)
	instance := cls.New()
	rec := &recorder{}
	h := rec.handler("proto")

	bus.Register(cls, "redraw", h)
	bus.Unregister(instance, "redraw", h)
	bus.UnregisterAll(instance)

	bus.Dispatch(instance, "redraw", nil, nil)
	assert.Equal(t, []string{"proto"}, rec.calls)
}

func TestBus_NilHandlerRegistersNothing(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)

	remove := bus.Register(obj, "a", nil)
	remove()

	assert.False(t, bus.HasOwnRegistry(obj))
}

func TestBus_RemovalDuringDispatch(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)
	rec := &recorder{}
	second := rec.handler("second")

	bus.On(obj, "tick", func(o Owner, e *Event) bool {
		rec.calls = append(rec.calls, "first")
		bus.Unregister(obj, "tick", second)
		return true
	})
	bus.Register(obj, "tick", second)

	bus.Dispatch(obj, "tick", nil, nil)
	assert.Equal(t, []string{"first", "second"}, rec.calls)

	rec.calls = nil
	bus.Dispatch(obj, "tick", nil, nil)
	assert.Equal(t, []string{"first"}, rec.calls)
}

func TestBus_ReentrantDispatch(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)
	rec := &recorder{}

	bus.On(obj, "outer", func(o Owner, e *Event) bool {
		rec.calls = append(rec.calls, "outer")
		bus.Register(obj, "outer", rec.handler("late"))
		bus.Dispatch(obj, "inner", nil, nil)
		return true
	})
	bus.Register(obj, "inner", rec.handler("inner"))

	bus.Dispatch(obj, "outer", nil, nil)
	assert.Equal(t, []string{"outer", "inner"}, rec.calls)
}

func TestBus_PanicPropagatesByDefault(t *testing.T) {
	bus := NewBus()
	obj := NewObject(nil)
	bus.On(obj, "boom", func(Owner, *Event) bool { panic("boom") })

	assert.PanicsWithValue(t, "boom", func() {
		bus.Dispatch(obj, "boom", nil, nil)
	})
}

func TestBus_PanicHandler(t *testing.T) {
	var recovered []*PanicError
	bus := NewBus(WithPanicHandler(func(err *PanicError) {
		recovered = append(recovered, err)
	}))
	obj := NewObject(nil)
	rec := &recorder{}

	bus.On(obj, "boom", func(Owner, *Event) bool { panic("first") })
	bus.Register(obj, "boom", rec.handler("survivor"))

	bus.Dispatch(obj, "boom", nil, nil)

	require.Len(t, recovered, 1)
	assert.Equal(t, "first", recovered[0].Value)
	assert.Equal(t, "boom", recovered[0].Type)
	assert.True(t, errors.Is(recovered[0], ErrHandlerPanic))
	assert.Equal(t, []string{"survivor"}, rec.calls)
}

func TestBus_BusAsOwner(t *testing.T) {
	bus := NewBus()
	called := false
	bus.On(bus, "displayError", func(owner Owner, e *Event) bool {
		called = true
		assert.Same(t, bus, owner)
		return true
	})

	bus.Fire(bus, "displayError", map[string]any{"code": 13})
	assert.True(t, called)
}

func TestBus_NilOwner(t *testing.T) {
	bus := NewBus()
	e := bus.Dispatch(nil, "x", nil, nil)
	require.NotNil(t, e)
	assert.Equal(t, "x", e.Type)
	assert.Equal(t, 0, bus.ListenerCount(nil, "x"))
}
