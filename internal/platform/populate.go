package platform

import (
	"fmt"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
	"github.com/nerrad567/gray-logic-zigbee/internal/accessory/devices"
	"github.com/nerrad567/gray-logic-zigbee/internal/devicedb"
)

// Populate registers the built-in device table, then records, and freezes
// the result. A record registered for an identity the built-in table also
// covers replaces the built-in binding.
func Populate(records []devicedb.Record) (*accessory.Catalog, error) {
	reg := accessory.NewRegistry()
	if err := devices.RegisterSupportedDevices(reg); err != nil {
		return nil, fmt.Errorf("registering built-in devices: %w", err)
	}
	if err := devicedb.Register(reg, records); err != nil {
		return nil, fmt.Errorf("registering device database: %w", err)
	}
	return reg.Freeze(), nil
}
