package devices

import (
	"fmt"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
)

var (
	philips = accessory.Manufacturers{"Philips", "Signify Netherlands B.V."}
	ikea    = accessory.Vendor("IKEA of Sweden")
	xiaomi  = accessory.Vendor("Xiaomi")
	lumi    = accessory.Vendor("LUMI")
	tuya    = accessory.Vendor("TuYa")
)

// xiaomiOutletModels covers the ZH, TW, EU, EU-Aqara and US plugs.
var xiaomiOutletModels = []string{"ZNCZ02LM", "ZNCZ03LM", "ZNCZ04LM", "SP-EUC01", "ZNCZ12LM"}

type classEntry struct {
	manufacturers accessory.Manufacturers
	models        []string
	handler       accessory.HandlerType
}

// supportedDevices is the static registration table. Order matters: a later
// entry for the same (manufacturer, model) pair replaces an earlier one.
func supportedDevices() []classEntry {
	return []classEntry{
		{accessory.Vendor("GLEDOPTO"), []string{"GL-C-009"}, GledoptoDim},
		{philips, []string{"LWA001", "LWA002", "LWB006", "LWB010", "LWB014"}, PhilipsHueWhite},
		{philips, []string{"LTA001"}, PhilipsHueWhiteTemperature},
		{philips, []string{
			"LCT001", "LCT007", "LCT010", "LCT012", "LCT014", "LCT015", "LCT016", "LCT021", "LCT002",
			"LCT011", "LCT003", "LCT024", "LCA001", "LCA002", "LCA003", "LST003", "LST004", "LST002",
		}, PhilipsHueWhiteAndColor},
		{ikea, []string{
			"LED1545G12", "LED1546G12", "LED1537R6/LED1739R5", "LED1536G5",
			"LED1903C5/LED1835C6", "LED1733G7", "LED1732G11", "LED1736G9",
		}, IkeaTradfriDimColortemp},
		{ikea, []string{
			"LED1623G12", "LED1650R5", "LED1837R5", "LED1842G3", "LED1622G12",
			"LED1649C5", "LED1836G9", "LED1934G3", "ICPSHC24-10EU-IL-1", "ICPSHC24-30EU-IL-1",
		}, IkeaTradfriDim},
		{ikea, []string{"E1603/E1702"}, IkeaTradfriOutlet},
		{ikea, []string{"LED1624G9"}, IkeaTradfriDimColor},
		{ikea, []string{"E1743", "TRADFRI on/off switch"}, IkeaOnoffSwitch},
		{ikea, []string{"E1812", "TRADFRI SHORTCUT Button"}, IkeaShortcutSwitch},
		{ikea, []string{"E1524/E1810"}, IkeaRemoteSwitch},
		{ikea, []string{"E1525/E1745", "TRADFRI motion sensor"}, IkeaMotionSensor},

		{accessory.Vendor("innr"), []string{"RB 278 T"}, InnrWhiteTemperature},

		{xiaomi, xiaomiOutletModels, XiaomiOutlet},
		{lumi, xiaomiOutletModels, XiaomiOutlet},
		{lumi, []string{"DJT11LM", "DJT12LM"}, XiaomiVibrationSensor},

		{xiaomi, []string{"WSDCGQ01LM", "WSDCGQ11LM"}, XiaomiTempHumiSensor},
		{xiaomi, []string{"lumi.sensor_magnet", "lumi.sensor_magnet.aq2"}, XiaomiContactSensor},
		{xiaomi, []string{"GZCGQ01LM"}, XiaomiLightIntensitySensor},
		{xiaomi, []string{"WXKG11LM", "WXKG03LM", "WXKG12LM"}, XiaomiWirelessSwitch},
		{xiaomi, []string{"WXCJKG11LM"}, AqaraOppleSwitch2Buttons},
		{xiaomi, []string{"WXCJKG12LM"}, AqaraOppleSwitch4Buttons},
		{xiaomi, []string{"WXCJKG13LM"}, AqaraOppleSwitch6Buttons},
		{lumi, []string{"lumi.weather", "lumi.sensor_ht.agl02", "lumi.sensor_ht"}, XiaomiTempHumiSensor},
		{lumi, []string{"lumi.sensor_magnet", "lumi.sensor_magnet.aq2"}, XiaomiContactSensor},
		{lumi, []string{"lumi.sen_ill.mgl01"}, XiaomiLightIntensitySensor},
		{lumi, []string{
			"lumi.sensor_switch.aq2", "lumi.sensor_switch", "lumi.remote.b1acn01",
			"lumi.sensor_86sw1", "lumi.remote.b186acn01",
		}, XiaomiWirelessSwitch},
		{lumi, []string{"lumi.remote.b286opcn01"}, AqaraOppleSwitch2Buttons},
		{lumi, []string{"lumi.remote.b486opcn01"}, AqaraOppleSwitch4Buttons},
		{lumi, []string{"lumi.remote.b686opcn01"}, AqaraOppleSwitch6Buttons},
		{lumi, []string{"lumi.sensor_motion"}, XiaomiMotionSensor},
		{xiaomi, []string{"lumi.sensor_motion"}, XiaomiMotionSensor},
		{lumi, []string{"lumi.sensor_motion.aq2"}, XiaomiMotionIlluminanceSensor},
		{xiaomi, []string{"lumi.sensor_motion.aq2"}, XiaomiMotionIlluminanceSensor},
		{lumi, []string{"lumi.sensor_wleak.aq1"}, XiaomiLeakSensor},

		{tuya, []string{"GDKES-02TZXD"}, TuyaOnoffDoubleSwitch},
		{tuya, []string{"TS0012"}, LonsonhoDoubleSwitch},
		{accessory.Vendor("lk"), []string{"ZB-MotionSensor-D0003"}, LinkindMotionSensor},
		{accessory.Vendor("NAMRON AS"), []string{"4512700", "1402755"}, NamronDimmer},
		{accessory.Vendor("NAMRON AS"), []string{"4512704"}, NamronSwitch},
		{tuya, []string{"TS0601_thermostat"}, TuyaThermostatControl},
		{accessory.Vendor("Moes"), []string{"HY369RT"}, TuyaThermostatControl},
		{accessory.Manufacturers{"_TZE200_ckud7u2l", "_TZE200_ywdxldoj"}, []string{"TS0601"}, TuyaThermostatControl},
		{accessory.Vendor("eWeLink"), []string{"DS01"}, SonoffContactSensor},
		{accessory.Vendor("Nanoleaf"), []string{"NL08-0800"}, NanoleafIvy},
	}
}

// RegisterSupportedDevices registers every built-in handler type, in table order.
func RegisterSupportedDevices(reg *accessory.Registry) error {
	for _, e := range supportedDevices() {
		if err := reg.RegisterClass(e.manufacturers, e.models, e.handler); err != nil {
			return fmt.Errorf("registering %s: %w", e.handler.Name, err)
		}
	}
	return nil
}
