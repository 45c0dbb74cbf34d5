package zigbee

import "github.com/nerrad567/gray-logic-zigbee/internal/accessory"

// bridgeDevice is one entry of the retained bridge/devices list.
type bridgeDevice struct {
	IEEEAddress     string            `json:"ieee_address"`
	FriendlyName    string            `json:"friendly_name"`
	NetworkAddress  uint16            `json:"network_address"`
	Type            string            `json:"type"`
	Manufacturer    string            `json:"manufacturer"`
	ModelID         string            `json:"model_id"`
	PowerSource     string            `json:"power_source"`
	SoftwareBuildID string            `json:"software_build_id"`
	DateCode        string            `json:"date_code"`
	Supported       bool              `json:"supported"`
	Disabled        bool              `json:"disabled"`
	Definition      *deviceDefinition `json:"definition"`
}

type deviceDefinition struct {
	Model       string `json:"model"`
	Vendor      string `json:"vendor"`
	Description string `json:"description"`
	SupportsOTA bool   `json:"supports_ota"`
}

func (d bridgeDevice) toDevice() accessory.Device {
	return accessory.Device{
		IEEEAddress:     d.IEEEAddress,
		FriendlyName:    d.FriendlyName,
		NetworkAddress:  d.NetworkAddress,
		Type:            d.Type,
		Manufacturer:    d.Manufacturer,
		Model:           d.ModelID,
		PowerSource:     d.PowerSource,
		SoftwareBuildID: d.SoftwareBuildID,
		DateCode:        d.DateCode,
	}
}

const coordinatorType = "Coordinator"

// bridgeRequest is the body published to bridge/request/device/*.
type bridgeRequest struct {
	ID          string `json:"id"`
	Transaction string `json:"transaction"`
	Force       bool   `json:"force,omitempty"`
}

// bridgeResponse is the body received on bridge/response/*.
type bridgeResponse struct {
	Data        map[string]any `json:"data"`
	Status      string         `json:"status"`
	Error       string         `json:"error,omitempty"`
	Transaction string         `json:"transaction"`
}

// bridgeState is the retained bridge/state body.
type bridgeState struct {
	State string `json:"state"`
}

const (
	pathDeviceRemove   = "device/remove"
	pathOTAUpdateCheck = "device/ota_update/check"

	statusOK = "ok"
)
