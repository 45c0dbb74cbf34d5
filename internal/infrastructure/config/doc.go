// Package config handles loading and validating the Zigbee accessory
// service configuration.
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token, JWT secret) should be
//     set via environment variables or a .env file, not the YAML file
//   - Leaving security.jwt.secret empty disables API authentication; only do
//     this when the API listens on a trusted interface
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Zigbee.BaseTopic)
package config
