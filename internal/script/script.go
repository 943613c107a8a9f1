// Package script runs sandboxed Lua that listens to and fires chart events.
//
// A Script is bound to one event bus and one owner. Lua code sees these
// globals:
//
//	on(type, fn [, order])  register fn; returning false prevents the default
//	off(type)               remove the handlers this script registered for type
//	fire(type [, data])     dispatch type; returns false when prevented
//	log(level, message)     write to the script logger
//
// Handlers receive an event table with type, data and default_prevented
// fields plus prevent_default() and set(key, value) functions.
//
// gopher-lua states are not goroutine-safe. A Script, and every dispatch
// that reaches one of its handlers, must stay on a single goroutine.
package script

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/chartkit/internal/event"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// DefaultTimeout bounds each DoString or DoFile call.
const DefaultTimeout = 5 * time.Second

// Script is a Lua state wired to an event bus.
type Script struct {
	L       *lua.LState
	bus     *event.Bus
	owner   event.Owner
	logger  *zap.Logger
	timeout time.Duration
	name    string

	handlers map[string][]*event.Handler
	closed   bool
}

// Option configures a Script.
type Option func(*Script)

// WithLogger sets the logger used by log, print and handler errors.
func WithLogger(l *zap.Logger) Option {
	return func(s *Script) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout sets the execution timeout for DoString and DoFile. Zero
// disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Script) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// WithName names the script in log output.
func WithName(name string) Option {
	return func(s *Script) {
		s.name = name
	}
}

// New creates a sandboxed script whose handlers are registered on owner.
func New(bus *event.Bus, owner event.Owner, opts ...Option) *Script {
	s := &Script{
		bus:      bus,
		owner:    owner,
		logger:   zap.NewNop(),
		timeout:  DefaultTimeout,
		name:     "script",
		handlers: make(map[string][]*event.Handler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("script", s.name))

	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.L)
	installSandbox(s.L)
	s.installAPI()
	return s
}

// DoString runs a chunk of Lua code.
func (s *Script) DoString(code string) error {
	return s.run(func() error { return s.L.DoString(code) })
}

// DoFile runs a Lua file.
func (s *Script) DoFile(path string) error {
	return s.run(func() error { return s.L.DoFile(path) })
}

// HandlerCount returns how many handlers the script registered for typ.
func (s *Script) HandlerCount(typ string) int {
	return len(s.handlers[typ])
}

// Close unregisters every handler the script added and closes the state.
func (s *Script) Close() {
	if s.closed {
		return
	}
	for typ, hs := range s.handlers {
		for _, h := range hs {
			s.bus.Unregister(s.owner, typ, h)
		}
	}
	s.handlers = nil
	s.closed = true
	s.L.Close()
}

func (s *Script) run(fn func() error) (err error) {
	if s.closed {
		return ErrClosed
	}

	// Nested calls run under the outermost deadline.
	if s.timeout > 0 && s.L.Context() == nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.L.SetContext(ctx)
		defer s.L.RemoveContext()
		defer func() {
			if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("%w: %s", ErrTimeout, s.name)
			}
		}()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
