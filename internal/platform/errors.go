package platform

import "errors"

var (
	ErrShellNotFound = errors.New("platform: shell not found")

	// ErrNotAttached is returned for operations on a device with no handler.
	ErrNotAttached = errors.New("platform: device not attached")

	ErrDeviceNotFound = errors.New("platform: device not paired")
)
