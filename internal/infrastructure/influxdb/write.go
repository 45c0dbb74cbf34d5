package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const (
	measurementAccessoryState = "accessory_state"
	measurementAvailability   = "bridge_availability"
)

// WriteAccessoryState records the numeric and boolean characteristics of an
// accessory, tagged with its address and handler kind. Nothing is written
// when no such characteristic remains.
//
//	client.WriteAccessoryState("0x00158d0001a2b3c4", "XiaomiTempHumiSensor",
//	    map[string]any{"temperature-sensor.currentTemperature": 21.5})
func (c *Client) WriteAccessoryState(addr, kind string, characteristics map[string]any) {
	fields := StateFields(characteristics)
	if len(fields) == 0 {
		return
	}
	tags := map[string]string{"address": addr}
	if kind != "" {
		tags["kind"] = kind
	}
	c.write(measurementAccessoryState, tags, fields)
}

// WriteBridgeAvailability records the zigbee2mqtt bridge online state.
func (c *Client) WriteBridgeAvailability(online bool) {
	c.write(measurementAvailability, nil, map[string]any{"online": online})
}

// StateFields keeps the numeric and boolean characteristics. Integers become
// floats so a field keeps one type across reports.
func StateFields(characteristics map[string]any) map[string]any {
	fields := make(map[string]any, len(characteristics))
	for k, v := range characteristics {
		switch n := v.(type) {
		case bool:
			fields[k] = n
		case float64:
			fields[k] = n
		case float32:
			fields[k] = float64(n)
		case int:
			fields[k] = float64(n)
		case int64:
			fields[k] = float64(n)
		case uint8:
			fields[k] = float64(n)
		}
	}
	return fields
}

func (c *Client) write(measurement string, tags map[string]string, fields map[string]any) {
	if c.writeAPI == nil || c.closed.Load() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
