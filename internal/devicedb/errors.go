package devicedb

import "errors"

var (
	// ErrInvalidRecord is returned when a record lacks manufacturers or
	// models, or carries an unknown service type.
	ErrInvalidRecord = errors.New("devicedb: invalid record")

	// ErrDecode is returned when a database document cannot be parsed.
	ErrDecode = errors.New("devicedb: decode failed")
)
