// Package config loads and validates the controller configuration.
//
// Values come from, in increasing precedence: built-in defaults, the YAML
// file, and GRAYLOGIC_* environment variables. Validate reports every
// structural problem at once. Cross references between sections (an area
// naming an unknown socket, an automation with an unparsable window) are
// left to domain setup, where a bad entry fails only that phase.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Site.Name)
//
// Secrets (MQTT password, InfluxDB token, JWT secret) belong in the
// environment, and the file should be 0600.
package config
