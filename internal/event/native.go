package event

// NativeOptions are forwarded with native registrations.
type NativeOptions struct {
	// Passive listeners may not prevent the default action.
	Passive bool

	// Capture is always false; listeners are registered for the bubble phase.
	Capture bool
}

// NativeTarget is implemented by owners backed by a native event substrate.
//
// Registrations on such owners are forwarded so handlers also fire for
// native dispatch, and Bus.Dispatch hands events to DispatchNative instead of
// walking the internal registries.
type NativeTarget interface {
	Owner

	// AddNativeListener registers h for typ on the substrate.
	AddNativeListener(typ string, h *Handler, opts NativeOptions)

	// RemoveNativeListener removes every substrate registration of h for typ.
	RemoveNativeListener(typ string, h *Handler)

	// DispatchNative delivers e through the substrate.
	DispatchNative(e *Event)
}
