package devicedb

import (
	"fmt"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
	"github.com/nerrad567/gray-logic-zigbee/internal/accessory/devices"
)

// Register adds one factory binding per record, in order, so a later
// record replaces an earlier one on the same (manufacturer, model) pair.
//
// Registration stops at the first invalid record and returns an error
// wrapping ErrInvalidRecord with its index. Records before it stay
// registered; callers treat the error as fatal and discard the registry.
func Register(reg *accessory.Registry, records []Record) error {
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		factory := devices.ConfigurableFactory(rec.Services)
		if err := reg.RegisterFactory(accessory.Manufacturers(rec.Manufacturer), rec.ModelList(), factory); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}
