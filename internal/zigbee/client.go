package zigbee

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/mqtt"
)

// defaultRequestTimeout bounds waits for state reports and bridge responses.
const defaultRequestTimeout = 10 * time.Second

const qosAtLeastOnce = 1

// MQTTClient is the subset of MQTT operations the client needs.
// Satisfied by *mqtt.Client via a small adapter in main.go.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
	Unsubscribe(topic string) error
}

// StateHandler receives every state report, keyed by IEEE address.
type StateHandler func(addr string, state accessory.State)

// Options configures a Client.
type Options struct {
	MQTT MQTTClient

	// BaseTopic defaults to "zigbee2mqtt".
	BaseTopic string

	// RequestTimeout defaults to 10s.
	RequestTimeout time.Duration

	Logger accessory.Logger
}

// Client talks to zigbee2mqtt over MQTT and implements accessory.Client.
//
// Thread Safety: All methods are safe for concurrent use.
type Client struct {
	mqtt    MQTTClient
	topics  mqtt.Topics
	timeout time.Duration
	logger  accessory.Logger

	// devices is keyed by IEEE address; names maps friendly name to address.
	devices   map[string]bridgeDevice
	names     map[string]string
	bridgeUp  bool
	devicesMu sync.RWMutex

	// waiters receive the next state report of a friendly name.
	waiters   map[string][]chan accessory.State
	pending   map[string]chan bridgeResponse
	waitersMu sync.Mutex

	onState   StateHandler
	onDevices func([]accessory.Device)
	onBridge  func(online bool)
	handlerMu sync.RWMutex

	stopped  chan struct{}
	stopOnce sync.Once
}

var _ accessory.Client = (*Client)(nil)

// NewClient creates a client. Call Start to subscribe.
func NewClient(opts Options) (*Client, error) {
	if opts.MQTT == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = accessory.NoopLogger{}
	}

	return &Client{
		mqtt:    opts.MQTT,
		topics:  mqtt.Topics{Base: opts.BaseTopic},
		timeout: timeout,
		logger:  logger,
		devices: make(map[string]bridgeDevice),
		names:   make(map[string]string),
		waiters: make(map[string][]chan accessory.State),
		pending: make(map[string]chan bridgeResponse),
		stopped: make(chan struct{}),
	}, nil
}

// Start subscribes to everything under the base topic. The retained
// bridge/devices message populates the device cache shortly after.
func (c *Client) Start() error {
	topic := c.topics.All()
	if err := c.mqtt.Subscribe(topic, qosAtLeastOnce, c.handleMessage); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	c.logger.Info("subscribed to zigbee2mqtt", "topic", topic)
	return nil
}

// Stop unsubscribes and fails any in-flight requests with ErrStopped.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopped)
		if err := c.mqtt.Unsubscribe(c.topics.All()); err != nil {
			c.logger.Warn("unsubscribe failed", "error", err)
		}
	})
}

// SetStateHandler sets the callback for device state reports.
func (c *Client) SetStateHandler(h StateHandler) {
	c.handlerMu.Lock()
	c.onState = h
	c.handlerMu.Unlock()
}

// OnDevicesChanged sets the callback run after each bridge/devices update.
func (c *Client) OnDevicesChanged(fn func([]accessory.Device)) {
	c.handlerMu.Lock()
	c.onDevices = fn
	c.handlerMu.Unlock()
}

// OnBridgeState sets the callback run on each bridge/state message.
func (c *Client) OnBridgeState(fn func(online bool)) {
	c.handlerMu.Lock()
	c.onBridge = fn
	c.handlerMu.Unlock()
}

// BridgeOnline reports the last bridge/state seen.
func (c *Client) BridgeOnline() bool {
	c.devicesMu.RLock()
	defer c.devicesMu.RUnlock()
	return c.bridgeUp
}

// PairedDevices returns the paired devices sorted by address, coordinator excluded.
func (c *Client) PairedDevices() []accessory.Device {
	c.devicesMu.RLock()
	defer c.devicesMu.RUnlock()

	out := make([]accessory.Device, 0, len(c.devices))
	for _, d := range c.devices {
		out = append(out, d.toDevice())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IEEEAddress < out[j].IEEEAddress })
	return out
}

// Device looks up a paired device by IEEE address.
func (c *Client) Device(addr string) (accessory.Device, bool) {
	c.devicesMu.RLock()
	defer c.devicesMu.RUnlock()
	d, ok := c.devices[addr]
	if !ok {
		return accessory.Device{}, false
	}
	return d.toDevice(), true
}

// HasOTA reports whether the device's definition supports OTA updates.
func (c *Client) HasOTA(dev accessory.Device) bool {
	c.devicesMu.RLock()
	defer c.devicesMu.RUnlock()
	d, ok := c.devices[dev.IEEEAddress]
	return ok && d.Definition != nil && d.Definition.SupportsOTA
}

// IsUpdateAvailable asks the bridge to check for a firmware update.
func (c *Client) IsUpdateAvailable(ctx context.Context, dev accessory.Device) (bool, error) {
	resp, err := c.request(ctx, pathOTAUpdateCheck, bridgeRequest{ID: dev.IEEEAddress})
	if err != nil {
		return false, err
	}
	available, _ := resp.Data["update_available"].(bool) //nolint:errcheck // absent means no update
	return available, nil
}

// SetState publishes state to <friendly_name>/set and returns the next
// state report of the device.
func (c *Client) SetState(ctx context.Context, dev accessory.Device, state accessory.State) (accessory.State, error) {
	return c.command(ctx, dev, state, c.topics.DeviceSet)
}

// GetState publishes a read request to <friendly_name>/get and returns the
// next state report of the device.
func (c *Client) GetState(ctx context.Context, dev accessory.Device, state accessory.State) (accessory.State, error) {
	if len(state) == 0 {
		state = accessory.State{"state": ""}
	}
	return c.command(ctx, dev, state, c.topics.DeviceGet)
}

// Unpair removes a device from the network and from the device cache.
func (c *Client) Unpair(ctx context.Context, addr string) error {
	if _, ok := c.Device(addr); !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, addr)
	}
	if _, err := c.request(ctx, pathDeviceRemove, bridgeRequest{ID: addr}); err != nil {
		return err
	}

	c.devicesMu.Lock()
	if d, ok := c.devices[addr]; ok {
		delete(c.names, d.FriendlyName)
		delete(c.devices, addr)
	}
	c.devicesMu.Unlock()
	return nil
}

func (c *Client) command(ctx context.Context, dev accessory.Device, state accessory.State, topicFor func(string) string) (accessory.State, error) {
	name := c.friendlyName(dev)
	if name == "" {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, dev.IEEEAddress)
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	ch := make(chan accessory.State, 1)
	c.waitersMu.Lock()
	c.waiters[name] = append(c.waiters[name], ch)
	c.waitersMu.Unlock()
	defer c.dropWaiter(name, ch)

	if err := c.mqtt.Publish(topicFor(name), payload, qosAtLeastOnce, false); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	select {
	case reply := <-ch:
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.timeout):
		return nil, fmt.Errorf("%w: no state from %q after %v", ErrTimeout, name, c.timeout)
	case <-c.stopped:
		return nil, ErrStopped
	}
}

func (c *Client) friendlyName(dev accessory.Device) string {
	c.devicesMu.RLock()
	defer c.devicesMu.RUnlock()
	if d, ok := c.devices[dev.IEEEAddress]; ok {
		return d.FriendlyName
	}
	return ""
}

func (c *Client) dropWaiter(name string, ch chan accessory.State) {
	c.waitersMu.Lock()
	defer c.waitersMu.Unlock()
	list := c.waiters[name]
	for i, w := range list {
		if w == ch {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(c.waiters, name)
	} else {
		c.waiters[name] = list
	}
}

// request performs a bridge API call and waits for the correlated response.
func (c *Client) request(ctx context.Context, path string, req bridgeRequest) (bridgeResponse, error) {
	req.Transaction = uuid.NewString()
	payload, err := json.Marshal(req)
	if err != nil {
		return bridgeResponse{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	ch := make(chan bridgeResponse, 1)
	c.waitersMu.Lock()
	c.pending[req.Transaction] = ch
	c.waitersMu.Unlock()
	defer func() {
		c.waitersMu.Lock()
		delete(c.pending, req.Transaction)
		c.waitersMu.Unlock()
	}()

	if err := c.mqtt.Publish(c.topics.BridgeRequest(path), payload, qosAtLeastOnce, false); err != nil {
		return bridgeResponse{}, fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	select {
	case resp := <-ch:
		if resp.Status != statusOK {
			return resp, fmt.Errorf("%w: %s: %s", ErrRequestFailed, path, resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		return bridgeResponse{}, ctx.Err()
	case <-time.After(c.timeout):
		return bridgeResponse{}, fmt.Errorf("%w: %s after %v", ErrTimeout, path, c.timeout)
	case <-c.stopped:
		return bridgeResponse{}, ErrStopped
	}
}

// handleMessage routes every message received under the base topic.
func (c *Client) handleMessage(topic string, payload []byte) {
	kind, name := c.topics.Parse(topic)

	var err error
	switch kind {
	case mqtt.TopicBridgeDevices:
		err = c.handleDevices(payload)
	case mqtt.TopicBridgeState:
		c.handleBridgeState(payload)
	case mqtt.TopicBridgeResponse:
		err = c.handleResponse(name, payload)
	case mqtt.TopicDeviceState:
		err = c.handleState(name, payload)
	}
	if err != nil {
		c.logger.Warn("dropping zigbee2mqtt message", "topic", topic, "error", err)
	}
}

func (c *Client) handleDevices(payload []byte) error {
	var list []bridgeDevice
	if err := json.Unmarshal(payload, &list); err != nil {
		return fmt.Errorf("%w: bridge/devices: %w", ErrInvalidPayload, err)
	}

	devices := make(map[string]bridgeDevice, len(list))
	names := make(map[string]string, len(list))
	for _, d := range list {
		if d.Type == coordinatorType || d.IEEEAddress == "" {
			continue
		}
		devices[d.IEEEAddress] = d
		names[d.FriendlyName] = d.IEEEAddress
	}

	c.devicesMu.Lock()
	c.devices = devices
	c.names = names
	c.devicesMu.Unlock()

	c.logger.Debug("paired devices updated", "count", len(devices))

	c.handlerMu.RLock()
	fn := c.onDevices
	c.handlerMu.RUnlock()
	if fn != nil {
		fn(c.PairedDevices())
	}
	return nil
}

func (c *Client) handleBridgeState(payload []byte) {
	state := strings.TrimSpace(string(payload))
	var msg bridgeState
	if err := json.Unmarshal(payload, &msg); err == nil && msg.State != "" {
		state = msg.State
	}

	online := state == "online"
	c.devicesMu.Lock()
	c.bridgeUp = online
	c.devicesMu.Unlock()
	c.logger.Info("zigbee2mqtt bridge state", "state", state)

	c.handlerMu.RLock()
	fn := c.onBridge
	c.handlerMu.RUnlock()
	if fn != nil {
		fn(online)
	}
}

func (c *Client) handleResponse(path string, payload []byte) error {
	var resp bridgeResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("%w: response/%s: %w", ErrInvalidPayload, path, err)
	}
	if resp.Transaction == "" {
		return nil
	}

	c.waitersMu.Lock()
	ch, ok := c.pending[resp.Transaction]
	delete(c.pending, resp.Transaction)
	c.waitersMu.Unlock()

	if ok {
		ch <- resp
	}
	return nil
}

func (c *Client) handleState(name string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	var state accessory.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidPayload, name, err)
	}
	if state == nil {
		return fmt.Errorf("%w: %s: not an object", ErrInvalidPayload, name)
	}

	c.waitersMu.Lock()
	waiting := c.waiters[name]
	delete(c.waiters, name)
	c.waitersMu.Unlock()
	for _, ch := range waiting {
		ch <- copyState(state)
	}

	c.devicesMu.RLock()
	addr, known := c.names[name]
	c.devicesMu.RUnlock()
	if !known {
		c.logger.Debug("state for unknown device", "name", name)
		return nil
	}

	c.handlerMu.RLock()
	h := c.onState
	c.handlerMu.RUnlock()
	if h != nil {
		h(addr, state)
	}
	return nil
}

func copyState(s accessory.State) accessory.State {
	out := make(accessory.State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
