// Package mqtt provides the MQTT connection to the broker zigbee2mqtt
// talks to.
//
//	Zigbee accessory service ↔ MQTT broker ↔ zigbee2mqtt ↔ Zigbee network
//
// The client reconnects automatically, replays subscriptions after a
// reconnect, and keeps a retained status message on
// graylogic/zigbee/status (online, graceful_shutdown, or the broker-sent
// unexpected_disconnect will).
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{Base: cfg.Zigbee.BaseTopic}
//	err = client.Subscribe(topics.All(), 1, func(topic string, payload []byte) error {
//	    kind, name := topics.Parse(topic)
//	    ...
//	})
//
// TLS should be enabled (mqtt.broker.tls) whenever the broker is not local.
package mqtt
