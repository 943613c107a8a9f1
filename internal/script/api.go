package script

import (
	"github.com/dshills/chartkit/internal/event"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func (s *Script) installAPI() {
	s.L.SetGlobal("on", s.L.NewFunction(s.luaOn))
	s.L.SetGlobal("off", s.L.NewFunction(s.luaOff))
	s.L.SetGlobal("fire", s.L.NewFunction(s.luaFire))
	s.L.SetGlobal("log", s.L.NewFunction(s.luaLog))
	s.L.SetGlobal("print", s.L.NewFunction(s.luaPrint))
}

// on(type, fn [, order])
func (s *Script) luaOn(L *lua.LState) int {
	typ := L.CheckString(1)
	fn := L.CheckFunction(2)

	var opts []event.ListenerOption
	if L.GetTop() >= 3 && L.Get(3) != lua.LNil {
		opts = append(opts, event.WithOrder(float64(L.CheckNumber(3))))
	}

	h := s.handler(fn)
	s.bus.Register(s.owner, typ, h, opts...)
	s.handlers[typ] = append(s.handlers[typ], h)
	return 0
}

// off(type)
func (s *Script) luaOff(L *lua.LState) int {
	typ := L.CheckString(1)
	for _, h := range s.handlers[typ] {
		s.bus.Unregister(s.owner, typ, h)
	}
	delete(s.handlers, typ)
	return 0
}

// fire(type [, data]) -> not prevented
func (s *Script) luaFire(L *lua.LState) int {
	typ := L.CheckString(1)
	var data map[string]any
	if L.GetTop() >= 2 {
		data = toMap(L.Get(2))
	}
	e := s.bus.Fire(s.owner, typ, data)
	L.Push(lua.LBool(!e.DefaultPrevented))
	return 1
}

// log(level, message)
func (s *Script) luaLog(L *lua.LState) int {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(L.CheckString(1))); err != nil {
		L.ArgError(1, "unknown log level")
		return 0
	}
	if ce := s.logger.Check(lvl, L.CheckString(2)); ce != nil {
		ce.Write()
	}
	return 0
}

func (s *Script) luaPrint(L *lua.LState) int {
	args := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		args = append(args, L.ToStringMeta(L.Get(i)).String())
	}
	s.logger.Info("print", zap.Strings("args", args))
	return 0
}

// handler wraps a Lua function as an event handler. Each call is bounded by
// the script timeout. Lua errors are logged and do not prevent the default
// action.
func (s *Script) handler(fn *lua.LFunction) *event.Handler {
	return event.NewHandler(func(owner event.Owner, e *event.Event) bool {
		if s.closed {
			return true
		}

		ret := lua.LValue(lua.LNil)
		err := s.run(func() error {
			if err := s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, s.eventTable(e)); err != nil {
				return err
			}
			ret = s.L.Get(-1)
			s.L.Pop(1)
			return nil
		})
		if err != nil {
			s.logger.Error("handler failed", zap.String("type", e.Type), zap.Error(err))
			return true
		}
		return ret != lua.LFalse
	})
}

func (s *Script) eventTable(e *event.Event) *lua.LTable {
	L := s.L
	t := L.NewTable()
	t.RawSetString("type", lua.LString(e.Type))
	t.RawSetString("data", toLua(L, e.Data))
	t.RawSetString("default_prevented", lua.LBool(e.DefaultPrevented))
	t.RawSetString("prevent_default", L.NewFunction(func(L *lua.LState) int {
		e.PreventDefault()
		t.RawSetString("default_prevented", lua.LTrue)
		return 0
	}))
	t.RawSetString("set", L.NewFunction(func(L *lua.LState) int {
		// Callable as evt.set(k, v) or evt:set(k, v).
		base := 1
		if L.Get(1) == t {
			base = 2
		}
		key := L.CheckString(base)
		e.Set(key, toGo(L.Get(base+1)))
		return 0
	}))
	return t
}
