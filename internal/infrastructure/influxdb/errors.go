package influxdb

import "errors"

var (
	// ErrDisabled means influxdb.enabled is false; callers run without history.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	ErrConnectionFailed = errors.New("influxdb: connection failed")
	ErrNotConnected     = errors.New("influxdb: not connected")
)
