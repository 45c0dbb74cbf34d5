package devices

import (
	"strconv"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
)

// handlerType builds a HandlerType whose instances expose services.
func handlerType(name string, services ...accessory.Service) accessory.HandlerType {
	return accessory.HandlerType{
		Name: name,
		New: func(bc accessory.BuildContext) accessory.Handler {
			return newServiceHandler(name, bc, accessory.CloneServices(services))
		},
	}
}

func svc(t accessory.ServiceType) accessory.Service {
	return accessory.Service{Type: t}
}

func light(meta accessory.ServiceMeta) accessory.Service {
	return accessory.Service{Type: accessory.ServiceLightBulb, Meta: meta}
}

func onEndpoint(t accessory.ServiceType, endpoint string) accessory.Service {
	return accessory.Service{Type: t, Meta: accessory.ServiceMeta{Endpoint: endpoint}}
}

func buttons(names ...string) accessory.Service {
	return accessory.Service{
		Type: accessory.ServiceProgrammableSwitch,
		Meta: accessory.ServiceMeta{Buttons: names},
	}
}

// oppleButtons lists the actions of an Aqara Opple switch with n buttons.
func oppleButtons(n int) accessory.Service {
	var names []string
	for i := 1; i <= n; i++ {
		for _, press := range []string{"single", "double", "triple", "hold", "release"} {
			names = append(names, "button_"+strconv.Itoa(i)+"_"+press)
		}
	}
	return buttons(names...)
}

var (
	dimmable   = accessory.ServiceMeta{Brightness: true}
	colorTemp  = accessory.ServiceMeta{Brightness: true, ColorTemp: true}
	colorXY    = accessory.ServiceMeta{Brightness: true, ColorXY: true}
	fullColour = accessory.ServiceMeta{Brightness: true, ColorTemp: true, ColorXY: true, ColorHS: true}
)

// Lights.
var (
	GledoptoDim                = handlerType("GledoptoDim", light(dimmable))
	PhilipsHueWhite            = handlerType("PhilipsHueWhite", light(dimmable))
	PhilipsHueWhiteTemperature = handlerType("PhilipsHueWhiteTemperature", light(colorTemp))
	PhilipsHueWhiteAndColor    = handlerType("PhilipsHueWhiteAndColor", light(fullColour))
	IkeaTradfriDimColortemp    = handlerType("IkeaTradfriDimColortemp", light(colorTemp))
	IkeaTradfriDim             = handlerType("IkeaTradfriDim", light(dimmable))
	IkeaTradfriDimColor        = handlerType("IkeaTradfriDimColor", light(colorXY))
	InnrWhiteTemperature       = handlerType("InnrWhiteTemperature", light(colorTemp))
	NamronDimmer               = handlerType("NamronDimmer", light(dimmable))
	NanoleafIvy                = handlerType("NanoleafIvy", light(dimmable))
)

// Switches and outlets.
var (
	IkeaTradfriOutlet     = handlerType("IkeaTradfriOutlet", svc(accessory.ServiceOutlet))
	XiaomiOutlet          = handlerType("XiaomiOutlet", svc(accessory.ServiceOutlet))
	NamronSwitch          = handlerType("NamronSwitch", svc(accessory.ServiceSwitch))
	TuyaOnoffDoubleSwitch = handlerType("TuyaOnoffDoubleSwitch",
		onEndpoint(accessory.ServiceSwitch, "left"),
		onEndpoint(accessory.ServiceSwitch, "right"),
	)
	LonsonhoDoubleSwitch = handlerType("LonsonhoDoubleSwitch",
		onEndpoint(accessory.ServiceSwitch, "l1"),
		onEndpoint(accessory.ServiceSwitch, "l2"),
	)
)

// Remotes.
var (
	IkeaOnoffSwitch = handlerType("IkeaOnoffSwitch",
		buttons("on", "off", "brightness_move_up", "brightness_move_down", "brightness_stop"),
		svc(accessory.ServiceBattery),
	)
	IkeaShortcutSwitch = handlerType("IkeaShortcutSwitch",
		buttons("on", "brightness_move_up", "brightness_stop"),
		svc(accessory.ServiceBattery),
	)
	IkeaRemoteSwitch = handlerType("IkeaRemoteSwitch",
		buttons("toggle", "brightness_up_click", "brightness_down_click", "arrow_left_click", "arrow_right_click",
			"brightness_up_hold", "brightness_down_hold", "arrow_left_hold", "arrow_right_hold"),
		svc(accessory.ServiceBattery),
	)
	XiaomiWirelessSwitch = handlerType("XiaomiWirelessSwitch",
		buttons("single", "double", "triple", "hold", "release", "long"),
		svc(accessory.ServiceBattery),
	)
	AqaraOppleSwitch2Buttons = handlerType("AqaraOppleSwitch2Buttons", oppleButtons(2), svc(accessory.ServiceBattery))
	AqaraOppleSwitch4Buttons = handlerType("AqaraOppleSwitch4Buttons", oppleButtons(4), svc(accessory.ServiceBattery))
	AqaraOppleSwitch6Buttons = handlerType("AqaraOppleSwitch6Buttons", oppleButtons(6), svc(accessory.ServiceBattery))
)

// Sensors.
var (
	IkeaMotionSensor = handlerType("IkeaMotionSensor",
		svc(accessory.ServiceMotionSensor), svc(accessory.ServiceBattery))
	LinkindMotionSensor = handlerType("LinkindMotionSensor",
		svc(accessory.ServiceMotionSensor), svc(accessory.ServiceBattery))
	XiaomiMotionSensor = handlerType("XiaomiMotionSensor",
		svc(accessory.ServiceMotionSensor), svc(accessory.ServiceBattery))
	XiaomiMotionIlluminanceSensor = handlerType("XiaomiMotionIlluminanceSensor",
		svc(accessory.ServiceMotionSensor), svc(accessory.ServiceLightSensor), svc(accessory.ServiceBattery))
	XiaomiContactSensor = handlerType("XiaomiContactSensor",
		svc(accessory.ServiceContactSensor), svc(accessory.ServiceBattery))
	SonoffContactSensor = handlerType("SonoffContactSensor",
		svc(accessory.ServiceContactSensor), svc(accessory.ServiceBattery))
	XiaomiLeakSensor = handlerType("XiaomiLeakSensor",
		svc(accessory.ServiceLeakSensor), svc(accessory.ServiceBattery))
	XiaomiVibrationSensor = handlerType("XiaomiVibrationSensor",
		svc(accessory.ServiceVibrationSensor), svc(accessory.ServiceBattery))
	XiaomiLightIntensitySensor = handlerType("XiaomiLightIntensitySensor",
		svc(accessory.ServiceLightSensor), svc(accessory.ServiceBattery))
	XiaomiTempHumiSensor = handlerType("XiaomiTempHumiSensor",
		svc(accessory.ServiceTemperatureSensor), svc(accessory.ServiceHumiditySensor), svc(accessory.ServiceBattery))
)

// Climate.
var (
	TuyaThermostatControl = handlerType("TuyaThermostatControl",
		svc(accessory.ServiceThermostat), svc(accessory.ServiceBattery))
)
