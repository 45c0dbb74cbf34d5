// Package zigbee is the transport client for a zigbee2mqtt coordinator.
//
// It speaks zigbee2mqtt's MQTT API and implements accessory.Client:
//
//	<base>/bridge/devices            retained device list -> paired device cache
//	<base>/<friendly_name>           state reports        -> state handler
//	<base>/<friendly_name>/set       SetState (waits for the next report)
//	<base>/<friendly_name>/get       GetState (waits for the next report)
//	<base>/bridge/request/<path>     bridge API, correlated by transaction id
//	<base>/bridge/response/<path>
//
// The coordinator itself is never reported as a paired device.
package zigbee
