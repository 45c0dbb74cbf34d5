package internal

import (
	"testing"

	"github.com/kcmvp/archunit"
)

func TestArchitecture(t *testing.T) {
	core := archunit.Packages("accessory", []string{".../internal/accessory/..."})
	transport := archunit.Packages("transport", []string{".../internal/zigbee/...", ".../internal/infrastructure/..."})
	hosting := archunit.Packages("hosting", []string{".../internal/platform/...", ".../internal/api/...", ".../internal/devicedb/..."})

	// The capability catalog knows nothing about MQTT, storage or HTTP.
	if err := core.ShouldNotReferLayers(transport); err != nil {
		t.Errorf("accessory depends on transport or infrastructure: %v", err)
	}
	if err := core.ShouldNotReferLayers(hosting); err != nil {
		t.Errorf("accessory depends on its hosts: %v", err)
	}

	// The device database feeds the registry only.
	devicedb := archunit.Packages("devicedb", []string{".../internal/devicedb/..."})
	if err := devicedb.ShouldNotReferLayers(transport); err != nil {
		t.Errorf("devicedb depends on transport or infrastructure: %v", err)
	}
}

func TestAccessoryPackagesPresent(t *testing.T) {
	devices := archunit.Packages("devices", []string{".../internal/accessory/devices"})
	if len(devices.Packages()) == 0 {
		t.Error("no built-in device table package found")
	}
}
