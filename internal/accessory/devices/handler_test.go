package devices

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
)

// fakeClient records SetState calls.
type fakeClient struct {
	sets   []accessory.State
	setErr error
}

func (c *fakeClient) PairedDevices() []accessory.Device                { return nil }
func (c *fakeClient) Device(string) (accessory.Device, bool)            { return accessory.Device{}, false }
func (c *fakeClient) HasOTA(accessory.Device) bool                      { return false }
func (c *fakeClient) Unpair(context.Context, string) error              { return nil }
func (c *fakeClient) IsUpdateAvailable(context.Context, accessory.Device) (bool, error) {
	return false, nil
}

func (c *fakeClient) SetState(_ context.Context, _ accessory.Device, s accessory.State) (accessory.State, error) {
	c.sets = append(c.sets, s)
	return s, c.setErr
}

func (c *fakeClient) GetState(_ context.Context, _ accessory.Device, s accessory.State) (accessory.State, error) {
	return s, nil
}

func build(t *testing.T, ht accessory.HandlerType, client accessory.Client) accessory.Handler {
	t.Helper()
	dev := accessory.Device{IEEEAddress: "0x0017880104e45517", FriendlyName: "lamp"}
	return ht.New(accessory.BuildContext{Client: client, Device: dev, Shell: accessory.NewShell(dev)})
}

func TestHandler_LightUpdate(t *testing.T) {
	h := build(t, PhilipsHueWhiteAndColor, nil)
	h.Update(accessory.State{
		"state":      "ON",
		"brightness": float64(254),
		"color_temp": float64(370),
		"color":      map[string]any{"x": 0.46, "y": 0.41, "hue": float64(34), "saturation": float64(77)},
	})

	got := h.Characteristics()
	want := map[string]any{
		"light-bulb.on":               true,
		"light-bulb.brightness":       100,
		"light-bulb.colorTemperature": 370,
		"light-bulb.colorX":           0.46,
		"light-bulb.colorY":           0.41,
		"light-bulb.hue":              float64(34),
		"light-bulb.saturation":       float64(77),
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}

func TestHandler_DimmableIgnoresColour(t *testing.T) {
	h := build(t, IkeaTradfriDim, nil)
	h.Update(accessory.State{"state": "OFF", "brightness": float64(127), "color_temp": float64(250)})

	got := h.Characteristics()
	if got["light-bulb.on"] != false {
		t.Errorf("on = %v, want false", got["light-bulb.on"])
	}
	if got["light-bulb.brightness"] != 50 {
		t.Errorf("brightness = %v, want 50", got["light-bulb.brightness"])
	}
	if _, ok := got["light-bulb.colorTemperature"]; ok {
		t.Error("dimmable light reported colorTemperature")
	}
}

func TestHandler_DoubleSwitchEndpoints(t *testing.T) {
	h := build(t, TuyaOnoffDoubleSwitch, nil)
	h.Update(accessory.State{"state_left": "ON", "state_right": "OFF"})

	got := h.Characteristics()
	if got["switch/left.on"] != true {
		t.Errorf("switch/left.on = %v, want true", got["switch/left.on"])
	}
	if got["switch/right.on"] != false {
		t.Errorf("switch/right.on = %v, want false", got["switch/right.on"])
	}
}

func TestHandler_SensorsAndBattery(t *testing.T) {
	h := build(t, XiaomiTempHumiSensor, nil)
	h.Update(accessory.State{"temperature": 21.5, "humidity": 48.2, "battery": float64(15)})

	got := h.Characteristics()
	if got["temperature-sensor.temperature"] != 21.5 {
		t.Errorf("temperature = %v, want 21.5", got["temperature-sensor.temperature"])
	}
	if got["humidity-sensor.humidity"] != 48.2 {
		t.Errorf("humidity = %v, want 48.2", got["humidity-sensor.humidity"])
	}
	if got["battery.level"] != 15 {
		t.Errorf("battery.level = %v, want 15", got["battery.level"])
	}
	if got["battery.low"] != true {
		t.Errorf("battery.low = %v, want true", got["battery.low"])
	}
}

func TestHandler_ProgrammableSwitchFiltersActions(t *testing.T) {
	h := build(t, IkeaShortcutSwitch, nil)

	h.Update(accessory.State{"action": "on"})
	if got := h.Characteristics()["programmable-switch.event"]; got != "on" {
		t.Errorf("event = %v, want on", got)
	}

	h.Update(accessory.State{"action": "arrow_left_click"})
	if got := h.Characteristics()["programmable-switch.event"]; got != "on" {
		t.Errorf("event after unknown action = %v, want on", got)
	}
}

func TestHandler_Thermostat(t *testing.T) {
	h := build(t, TuyaThermostatControl, nil)
	h.Update(accessory.State{"local_temperature": 19.5, "current_heating_setpoint": float64(21), "system_mode": "heat"})

	got := h.Characteristics()
	if got["thermostat.currentTemperature"] != 19.5 {
		t.Errorf("currentTemperature = %v, want 19.5", got["thermostat.currentTemperature"])
	}
	if got["thermostat.targetTemperature"] != float64(21) {
		t.Errorf("targetTemperature = %v, want 21", got["thermostat.targetTemperature"])
	}
	if got["thermostat.mode"] != "heat" {
		t.Errorf("mode = %v, want heat", got["thermostat.mode"])
	}
}

func TestHandler_Identify(t *testing.T) {
	client := &fakeClient{}
	if err := build(t, GledoptoDim, client).Identify(context.Background()); err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if len(client.sets) != 1 || client.sets[0]["effect"] != "blink" {
		t.Errorf("SetState calls = %v, want one blink", client.sets)
	}

	if err := build(t, XiaomiLeakSensor, client).Identify(context.Background()); err != nil {
		t.Fatalf("Identify(sensor) error = %v", err)
	}
	if len(client.sets) != 1 {
		t.Errorf("sensor Identify sent %d commands, want none", len(client.sets)-1)
	}

	client.setErr = errors.New("timeout")
	if err := build(t, GledoptoDim, client).Identify(context.Background()); err == nil {
		t.Error("Identify() error = nil, want transport error")
	}
}

func TestHandler_ServicesAreCopies(t *testing.T) {
	h := build(t, AqaraOppleSwitch2Buttons, nil)
	s := h.Services()
	if len(s[0].Meta.Buttons) != 10 {
		t.Fatalf("len(Buttons) = %d, want 10", len(s[0].Meta.Buttons))
	}
	s[0].Meta.Buttons[0] = "changed"
	if h.Services()[0].Meta.Buttons[0] != "button_1_single" {
		t.Error("Services() exposed internal slice")
	}
}

func TestConfigurable(t *testing.T) {
	services := []accessory.Service{
		{Type: accessory.ServiceTemperatureSensor},
		{Type: accessory.ServiceHumiditySensor},
		{Type: accessory.ServiceBattery},
	}
	factory := ConfigurableFactory(services)
	services[0].Type = accessory.ServiceOutlet

	h, err := factory(accessory.BuildContext{Device: accessory.Device{IEEEAddress: "0x01"}})
	if err != nil {
		t.Fatalf("factory() error = %v", err)
	}
	if h.Kind() != ConfigurableKind {
		t.Errorf("Kind() = %q, want %q", h.Kind(), ConfigurableKind)
	}
	got := h.Services()
	if len(got) != 3 {
		t.Fatalf("len(Services()) = %d, want 3", len(got))
	}
	if got[0].Type != accessory.ServiceTemperatureSensor {
		t.Errorf("Services()[0] = %s, want temperature-sensor", got[0].Type)
	}

	_, err = NewConfigurable(accessory.BuildContext{}, []accessory.Service{{Type: "toaster"}})
	if !errors.Is(err, accessory.ErrInvalidService) {
		t.Errorf("NewConfigurable(toaster) error = %v, want %v", err, accessory.ErrInvalidService)
	}
}
