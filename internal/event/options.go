package event

import "go.uber.org/zap"

// BusOption configures a Bus.
type BusOption func(*busConfig)

// busConfig contains configuration for the event bus.
type busConfig struct {
	// logger receives debug output for registrations and dispatches.
	logger *zap.Logger

	// nativeEvents enables the native dispatch path for NativeTarget owners.
	nativeEvents bool

	// panicHandler, when set, recovers handler panics.
	panicHandler PanicHandler
}

// defaultBusConfig returns the default configuration.
func defaultBusConfig() busConfig {
	return busConfig{
		logger:       zap.NewNop(),
		nativeEvents: true,
	}
}

// WithLogger sets the logger used by the bus.
func WithLogger(l *zap.Logger) BusOption {
	return func(c *busConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithNativeEvents enables or disables the native dispatch path.
// When disabled every dispatch uses the internal registries.
func WithNativeEvents(enabled bool) BusOption {
	return func(c *busConfig) {
		c.nativeEvents = enabled
	}
}

// WithPanicHandler recovers panics raised by handlers and default actions.
// Without one, panics propagate to the caller of Dispatch.
func WithPanicHandler(h PanicHandler) BusOption {
	return func(c *busConfig) {
		c.panicHandler = h
	}
}

// ListenerOption configures a single registration.
type ListenerOption func(*listenerConfig)

type listenerConfig struct {
	order   float64
	passive *bool
}

func defaultListenerConfig() listenerConfig {
	return listenerConfig{order: OrderLast}
}

// WithOrder sets the listener order. Lower values run earlier.
func WithOrder(order float64) ListenerOption {
	return func(c *listenerConfig) {
		c.order = order
	}
}

// WithPassive marks the native registration as passive. Without this option
// touch events are registered passive and everything else is not.
func WithPassive(passive bool) ListenerOption {
	return func(c *listenerConfig) {
		c.passive = &passive
	}
}
