package main

import (
	"context"

	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-zigbee/internal/platform"
)

// mqttAdapter adapts the infrastructure MQTT client to zigbee.MQTTClient.
// The difference is the handler signature:
//   - infrastructure mqtt: func(topic string, payload []byte) error
//   - zigbee client: func(topic string, payload []byte)
type mqttAdapter struct {
	client *mqtt.Client
}

func (a *mqttAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

func (a *mqttAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

func (a *mqttAdapter) Unsubscribe(topic string) error {
	return a.client.Unsubscribe(topic)
}

// discoverRunner is the part of the platform the discoverer drives.
type discoverRunner interface {
	Discover(ctx context.Context) (platform.DiscoverResult, error)
}

// discoverer runs discovery passes off the MQTT delivery goroutine.
// Triggers arriving while a pass runs collapse into one follow-up pass.
type discoverer struct {
	platform discoverRunner
	log      *logging.Logger
	trigger  chan struct{}
}

func newDiscoverer(p discoverRunner, log *logging.Logger) *discoverer {
	return &discoverer{platform: p, log: log, trigger: make(chan struct{}, 1)}
}

// Trigger requests a discovery pass. It never blocks.
func (d *discoverer) Trigger() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

// Run performs requested passes until ctx is cancelled.
func (d *discoverer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.trigger:
			result, err := d.platform.Discover(ctx)
			if err != nil {
				d.log.Error("discovery failed", "error", err)
				continue
			}
			d.log.Info("discovery complete",
				"attached", result.Attached,
				"unsupported", result.Unsupported,
				"failed", result.Failed,
				"detached", result.Detached,
				"pruned", result.Pruned,
			)
		}
	}
}
