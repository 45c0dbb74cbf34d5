package accessory

import "context"

// Device is a paired network device as reported by the transport client.
type Device struct {
	IEEEAddress     string
	FriendlyName    string
	NetworkAddress  uint16
	Type            string // Coordinator, Router or EndDevice
	Manufacturer    string
	Model           string
	PowerSource     string
	SoftwareBuildID string
	DateCode        string
}

// Identity returns the device's reported (manufacturer, model) pair.
func (d Device) Identity() Identity {
	return Identity{Manufacturer: d.Manufacturer, Model: d.Model}
}

// DisplayName returns the friendly name, falling back to the address.
func (d Device) DisplayName() string {
	if d.FriendlyName != "" {
		return d.FriendlyName
	}
	return d.IEEEAddress
}

// State is a free-form device state document, as sent and received on the wire.
type State map[string]any

// Client is the transport client consumed by handlers and adapters.
//
// IsUpdateAvailable may fail transiently; callers treat a failure as
// "no update available". SetState and GetState return the state the
// device reports in response.
type Client interface {
	PairedDevices() []Device
	Device(addr string) (Device, bool)
	HasOTA(dev Device) bool
	IsUpdateAvailable(ctx context.Context, dev Device) (bool, error)
	SetState(ctx context.Context, dev Device, state State) (State, error)
	GetState(ctx context.Context, dev Device, state State) (State, error)
	Unpair(ctx context.Context, addr string) error
}

// Logger defines the logging interface used by the accessory packages.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NoopLogger discards all log output.
type NoopLogger struct{}

func (NoopLogger) Debug(string, ...any) {}
func (NoopLogger) Info(string, ...any)  {}
func (NoopLogger) Warn(string, ...any)  {}
func (NoopLogger) Error(string, ...any) {}

// Platform is the hosting context handed to every handler at construction.
type Platform interface {
	Logger() Logger
}
