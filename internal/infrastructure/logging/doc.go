// Package logging provides structured logging for the Zigbee accessory service.
//
// It wraps log/slog: JSON output for production, text for development,
// and service/version fields on every entry.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	platformLog := logger.Component("platform")
//	platformLog.Info("discovery complete", "attached", n)
//
// Never log secrets, tokens, or passwords.
package logging
