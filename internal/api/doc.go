// Package api provides the HTTP REST API and WebSocket event stream for the
// Zigbee accessory service.
//
// Routes (all under /api):
//
//	GET    /health                      liveness, no auth
//	GET    /devices                     paired devices with resolution outcome
//	GET    /devices/{ieeeAddr}          {"device": ...} plus OTA status
//	DELETE /devices/{ieeeAddr}          unpair, returns {"device": ...}
//	POST   /devices/{ieeeAddr}/set      send state, returns {"state": report}
//	POST   /devices/{ieeeAddr}/get      read state, returns {"state": report}
//	GET    /accessories                 attached handlers and characteristics
//	GET    /accessories/{ieeeAddr}
//	POST   /accessories/{ieeeAddr}/identify
//	POST   /discover                    attach newly paired devices
//	GET    /audit                       lifecycle audit trail
//	GET    /ws                          WebSocket event stream
//
// When security.jwt.secret is set every route except /health requires a
// bearer token (see package auth). The WebSocket endpoint also accepts the
// token as a "token" query parameter.
package api
