package accessory

import "errors"

// Domain errors for the accessory package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, accessory.ErrUnsupportedDevice) {
//	    // classify, do not retry
//	}
var (
	// ErrInvalidRegistration is returned when a registration call carries an
	// empty manufacturer or model set, an empty string, or a nil handler.
	ErrInvalidRegistration = errors.New("accessory: invalid registration")

	// ErrRegistryFrozen is returned when registering after Freeze.
	ErrRegistryFrozen = errors.New("accessory: registry frozen")

	// ErrUnsupportedDevice is returned by Resolver.Attach when no binding
	// matches the device identity.
	ErrUnsupportedDevice = errors.New("accessory: unsupported device")

	// ErrBuildFailed is returned when a factory binding fails to produce a handler.
	ErrBuildFailed = errors.New("accessory: handler build failed")

	// ErrNilHandler is returned when a constructor or factory returns nil.
	ErrNilHandler = errors.New("accessory: constructor returned nil handler")

	// ErrInvalidService is returned when a service descriptor has an unknown type.
	ErrInvalidService = errors.New("accessory: invalid service")
)
