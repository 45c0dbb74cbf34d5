// Package devicedb loads the local device database: declarative records
// describing devices without a dedicated handler, and registers each one
// as a factory binding that builds a configurable accessory.
//
// File format (YAML, or JSON when the file ends in .json):
//
//	devices:
//	  - manufacturer: [SONOFF, eWeLink]
//	    models: [SNZB-02]
//	    services:
//	      - type: temperature-sensor
//	      - type: humidity-sensor
//	      - type: battery
//
// manufacturer accepts a single string or a list; model is accepted as an
// alias for models.
package devicedb
