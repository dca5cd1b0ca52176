// Package config handles loading and validating bioreactor service configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Reading a .env file and overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Database passwords and InfluxDB tokens should be set via environment
//     variables or the .env file, never committed in config.yaml
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.Driver)
package config
