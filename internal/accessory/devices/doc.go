// Package devices holds the concrete accessory handlers for supported
// Zigbee devices and the static registration table that binds them.
//
// Every handler is a set of service descriptors driving one generic state
// mapper; the named handler types differ only in the services they expose.
// Database-driven records use Configurable with the record's own services.
package devices
