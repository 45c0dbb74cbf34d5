package devices

import (
	"encoding/json"
	"math"
	"slices"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
)

const maxBrightness = 254

// lowBatteryPercent is the level below which a battery reports low when
// the device does not send battery_low itself.
const lowBatteryPercent = 20

// mapService extracts the characteristics of one service from state.
// Keys absent from state produce no characteristic.
func mapService(svc accessory.Service, state accessory.State) map[string]any {
	out := make(map[string]any)
	field := func(name string) (any, bool) {
		if svc.Meta.Endpoint != "" {
			name += "_" + svc.Meta.Endpoint
		}
		v, ok := state[name]
		return v, ok
	}

	switch svc.Type {
	case accessory.ServiceLightBulb:
		if v, ok := field("state"); ok {
			out["on"] = isOn(v)
		}
		if svc.Meta.Brightness {
			if v, ok := number(state["brightness"]); ok {
				out["brightness"] = int(math.Round(v * 100 / maxBrightness))
			}
		}
		if svc.Meta.ColorTemp {
			if v, ok := number(state["color_temp"]); ok {
				out["colorTemperature"] = int(v)
			}
		}
		if color, ok := state["color"].(map[string]any); ok {
			if svc.Meta.ColorXY {
				if x, ok := number(color["x"]); ok {
					out["colorX"] = x
				}
				if y, ok := number(color["y"]); ok {
					out["colorY"] = y
				}
			}
			if svc.Meta.ColorHS {
				if hue, ok := number(color["hue"]); ok {
					out["hue"] = hue
				}
				if sat, ok := number(color["saturation"]); ok {
					out["saturation"] = sat
				}
			}
		}

	case accessory.ServiceSwitch, accessory.ServiceOutlet:
		if v, ok := field("state"); ok {
			out["on"] = isOn(v)
		}
		if svc.Type == accessory.ServiceOutlet {
			if v, ok := number(state["power"]); ok {
				out["power"] = v
			}
		}

	case accessory.ServiceContactSensor:
		if v, ok := field("contact"); ok {
			out["closed"] = truthy(v)
		}

	case accessory.ServiceMotionSensor:
		if v, ok := field("occupancy"); ok {
			out["motionDetected"] = truthy(v)
		}

	case accessory.ServiceLeakSensor:
		if v, ok := field("water_leak"); ok {
			out["leakDetected"] = truthy(v)
		}

	case accessory.ServiceVibrationSensor:
		if v, ok := field("vibration"); ok {
			out["vibrationDetected"] = truthy(v)
		}

	case accessory.ServiceLightSensor:
		if v, ok := number(state["illuminance_lux"]); ok {
			out["lux"] = v
		} else if v, ok := number(state["illuminance"]); ok {
			out["lux"] = v
		}

	case accessory.ServiceTemperatureSensor:
		if v, ok := number(state["temperature"]); ok {
			out["temperature"] = v
		}

	case accessory.ServiceHumiditySensor:
		if v, ok := number(state["humidity"]); ok {
			out["humidity"] = v
		}

	case accessory.ServiceBattery:
		level, hasLevel := number(state["battery"])
		if hasLevel {
			out["level"] = int(level)
		}
		if v, ok := state["battery_low"]; ok {
			out["low"] = truthy(v)
		} else if hasLevel {
			out["low"] = level < lowBatteryPercent
		}

	case accessory.ServiceProgrammableSwitch:
		if action, ok := state["action"].(string); ok && action != "" {
			if len(svc.Meta.Buttons) == 0 || slices.Contains(svc.Meta.Buttons, action) {
				out["event"] = action
			}
		}

	case accessory.ServiceThermostat:
		if v, ok := number(state["local_temperature"]); ok {
			out["currentTemperature"] = v
		}
		if v, ok := number(state["current_heating_setpoint"]); ok {
			out["targetTemperature"] = v
		}
		if v, ok := state["system_mode"].(string); ok {
			out["mode"] = v
		}
	}
	return out
}

func isOn(v any) bool {
	s, ok := v.(string)
	return ok && (s == "ON" || s == "on")
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "ON"
	default:
		n, ok := number(v)
		return ok && n != 0
	}
}

// number converts the numeric forms a decoded JSON document can carry.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
