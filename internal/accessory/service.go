package accessory

import "fmt"

// ServiceType identifies one exposed capability of an accessory.
type ServiceType string

// Service types understood by the handlers.
const (
	ServiceLightBulb          ServiceType = "light-bulb"
	ServiceSwitch             ServiceType = "switch"
	ServiceOutlet             ServiceType = "outlet"
	ServiceContactSensor      ServiceType = "contact-sensor"
	ServiceMotionSensor       ServiceType = "motion-sensor"
	ServiceLeakSensor         ServiceType = "leak-sensor"
	ServiceVibrationSensor    ServiceType = "vibration-sensor"
	ServiceLightSensor        ServiceType = "light-sensor"
	ServiceTemperatureSensor  ServiceType = "temperature-sensor"
	ServiceHumiditySensor     ServiceType = "humidity-sensor"
	ServiceBattery            ServiceType = "battery"
	ServiceProgrammableSwitch ServiceType = "programmable-switch"
	ServiceThermostat         ServiceType = "thermostat"
)

var validServiceTypes = map[ServiceType]bool{
	ServiceLightBulb:          true,
	ServiceSwitch:             true,
	ServiceOutlet:             true,
	ServiceContactSensor:      true,
	ServiceMotionSensor:       true,
	ServiceLeakSensor:         true,
	ServiceVibrationSensor:    true,
	ServiceLightSensor:        true,
	ServiceTemperatureSensor:  true,
	ServiceHumiditySensor:     true,
	ServiceBattery:            true,
	ServiceProgrammableSwitch: true,
	ServiceThermostat:         true,
}

// Valid reports whether t is a known service type.
func (t ServiceType) Valid() bool {
	return validServiceTypes[t]
}

// ServiceMeta refines a service descriptor.
type ServiceMeta struct {
	Brightness bool           `yaml:"brightness,omitempty" json:"brightness,omitempty"`
	ColorTemp  bool           `yaml:"colorTemp,omitempty" json:"colorTemp,omitempty"`
	ColorXY    bool           `yaml:"colorXY,omitempty" json:"colorXY,omitempty"`
	ColorHS    bool           `yaml:"colorHS,omitempty" json:"colorHS,omitempty"`
	Buttons    []string       `yaml:"buttons,omitempty" json:"buttons,omitempty"`
	Endpoint   string         `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Extra      map[string]any `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// Service is a capability descriptor: one exposed feature of a device.
type Service struct {
	Type ServiceType `yaml:"type" json:"type"`
	Meta ServiceMeta `yaml:"meta,omitempty" json:"meta,omitempty"`
}

// Validate checks the service type.
func (s Service) Validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidService, s.Type)
	}
	return nil
}

// CloneServices returns a deep copy of services.
func CloneServices(services []Service) []Service {
	if services == nil {
		return nil
	}
	out := make([]Service, len(services))
	for i, s := range services {
		out[i] = s
		if s.Meta.Buttons != nil {
			out[i].Meta.Buttons = append([]string(nil), s.Meta.Buttons...)
		}
		if s.Meta.Extra != nil {
			extra := make(map[string]any, len(s.Meta.Extra))
			for k, v := range s.Meta.Extra {
				extra[k] = v
			}
			out[i].Meta.Extra = extra
		}
	}
	return out
}
