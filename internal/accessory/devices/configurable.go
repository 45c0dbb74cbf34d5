package devices

import (
	"fmt"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
)

// ConfigurableKind is the handler kind of database-driven accessories.
const ConfigurableKind = "Configurable"

// NewConfigurable builds a handler exposing exactly services. The slice is
// copied; later changes by the caller do not reach the handler.
func NewConfigurable(bc accessory.BuildContext, services []accessory.Service) (accessory.Handler, error) {
	for i, s := range services {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("service %d: %w", i, err)
		}
	}
	return newServiceHandler(ConfigurableKind, bc, accessory.CloneServices(services)), nil
}

// ConfigurableFactory returns a factory closing over a private copy of services.
func ConfigurableFactory(services []accessory.Service) accessory.Factory {
	own := accessory.CloneServices(services)
	return func(bc accessory.BuildContext) (accessory.Handler, error) {
		return NewConfigurable(bc, own)
	}
}
