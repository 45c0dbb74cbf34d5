// Package auth issues and verifies the bearer tokens that guard the HTTP API.
//
// Tokens are HS256 JWTs carrying a role. Two roles exist:
//
//	viewer     device:read
//	installer  device:read, device:operate, device:commission, audit:read
//
// The service keeps no user database; operators mint tokens with
// `accessoryctl token` using the configured secret.
package auth
