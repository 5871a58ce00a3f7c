// Package config handles loading and validating SmartAura Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Loading secrets from an optional .env file
//   - Overriding with environment variables
//   - Validation of every section, reporting all problems at once
//
// Durations are expressed in whole seconds in YAML; helper methods such as
// SensorsConfig.PollEvery convert them to time.Duration.
//
// Sensitive values (MQTT password, JWT secret, Azure OpenAI key) should be
// supplied through the environment rather than the config file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Site.Name)
package config
