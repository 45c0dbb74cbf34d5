package mqtt

import "strings"

// ServiceStatusTopic carries this service's retained online/offline status.
const ServiceStatusTopic = "graylogic/zigbee/status"

// DefaultBaseTopic is zigbee2mqtt's default base topic.
const DefaultBaseTopic = "zigbee2mqtt"

// Topics builds zigbee2mqtt topics under a base topic.
//
//	t := mqtt.Topics{Base: "zigbee2mqtt"}
//	t.DeviceSet("hall light") // "zigbee2mqtt/hall light/set"
type Topics struct {
	Base string
}

func (t Topics) base() string {
	if t.Base == "" {
		return DefaultBaseTopic
	}
	return t.Base
}

// All matches every topic under the base.
func (t Topics) All() string { return t.base() + "/#" }

// BridgeDevices is the retained list of paired devices.
func (t Topics) BridgeDevices() string { return t.base() + "/bridge/devices" }

// BridgeState is the retained bridge online/offline state.
func (t Topics) BridgeState() string { return t.base() + "/bridge/state" }

// BridgeRequest is the request topic for a bridge API path, e.g. "device/remove".
func (t Topics) BridgeRequest(path string) string { return t.base() + "/bridge/request/" + path }

// BridgeResponse is the response topic for a bridge API path.
func (t Topics) BridgeResponse(path string) string { return t.base() + "/bridge/response/" + path }

// Device is the state topic of a device.
func (t Topics) Device(friendlyName string) string { return t.base() + "/" + friendlyName }

// DeviceSet is the command topic of a device.
func (t Topics) DeviceSet(friendlyName string) string { return t.Device(friendlyName) + "/set" }

// DeviceGet is the read-request topic of a device.
func (t Topics) DeviceGet(friendlyName string) string { return t.Device(friendlyName) + "/get" }

// TopicKind classifies a topic received under the base.
type TopicKind int

const (
	TopicUnknown TopicKind = iota
	TopicBridgeDevices
	TopicBridgeState
	TopicBridgeResponse
	TopicBridgeOther
	TopicDeviceState
	TopicDeviceCommand // echoes of /set, /get and friends
)

// Parse classifies topic. For TopicBridgeResponse the returned name is the
// API path ("device/remove"); for device topics it is the friendly name.
//
// Friendly names may contain slashes, so a trailing /set, /get or
// /availability segment marks a command topic and anything else under the
// base is device state.
func (t Topics) Parse(topic string) (TopicKind, string) {
	rest, ok := strings.CutPrefix(topic, t.base()+"/")
	if !ok || rest == "" {
		return TopicUnknown, ""
	}

	if bridge, ok := strings.CutPrefix(rest, "bridge/"); ok {
		switch {
		case bridge == "devices":
			return TopicBridgeDevices, ""
		case bridge == "state":
			return TopicBridgeState, ""
		case strings.HasPrefix(bridge, "response/"):
			return TopicBridgeResponse, strings.TrimPrefix(bridge, "response/")
		default:
			return TopicBridgeOther, bridge
		}
	}

	for _, suffix := range []string{"/set", "/get", "/availability"} {
		if name, ok := strings.CutSuffix(rest, suffix); ok {
			return TopicDeviceCommand, name
		}
	}
	if i := strings.Index(rest, "/set/"); i >= 0 {
		return TopicDeviceCommand, rest[:i]
	}
	return TopicDeviceState, rest
}
