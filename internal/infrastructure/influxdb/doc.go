// Package influxdb records accessory state history in InfluxDB v2.
//
// Every state report of an attached accessory becomes one point in the
// accessory_state measurement, tagged with the device address and handler
// kind, with one field per numeric or boolean characteristic.
//
// Usage:
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, logWriteError)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without history
//	}
//	defer client.Close()
//
//	client.WriteAccessoryState(addr, kind, handler.Characteristics())
//
// The zigbee2mqtt bridge online state goes to bridge_availability.
// Writes are non-blocking and batched (batch_size, flush_interval).
// Asynchronous write errors are delivered to the callback given to Connect.
package influxdb
