package accessory

import "context"

// Handler exposes one device's capabilities once resolved.
type Handler interface {
	// Kind names the handler implementation, e.g. "IkeaTradfriDim".
	Kind() string

	// Shell returns the shell the handler is attached to.
	Shell() *Shell

	// Services returns the capability descriptors the handler exposes.
	Services() []Service

	// Update applies a state report from the device.
	Update(state State)

	// Characteristics returns the current characteristic values, keyed
	// "<service>[/<endpoint>].<characteristic>".
	Characteristics() map[string]any

	// Identify asks the device to make itself noticeable.
	Identify(ctx context.Context) error
}

// BuildContext carries the arguments a constructor or factory receives.
type BuildContext struct {
	Platform Platform
	Shell    *Shell
	Client   Client
	Device   Device
}

// HandlerType is a directly constructible handler.
type HandlerType struct {
	Name string
	New  func(BuildContext) Handler
}

// Factory builds a handler parameterized per registration rather than per type.
type Factory func(BuildContext) (Handler, error)
