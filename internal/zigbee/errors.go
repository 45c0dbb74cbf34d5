package zigbee

import "errors"

var (
	// ErrDeviceNotFound is returned when an address is not in the paired device list.
	ErrDeviceNotFound = errors.New("zigbee: device not found")

	// ErrTimeout is returned when zigbee2mqtt does not answer within the request timeout.
	ErrTimeout = errors.New("zigbee: request timed out")

	// ErrRequestFailed wraps an error status returned by the bridge API.
	ErrRequestFailed = errors.New("zigbee: bridge request failed")

	ErrPublishFailed = errors.New("zigbee: publish failed")

	// ErrInvalidPayload is returned for messages that are not valid JSON objects.
	ErrInvalidPayload = errors.New("zigbee: invalid payload")

	ErrStopped = errors.New("zigbee: client stopped")
)
