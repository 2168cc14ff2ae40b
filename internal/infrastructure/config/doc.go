// Package config handles loading and validating miot-agent configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Resolving Mijia account credentials from the file or MIJIA_* variables
//   - Overriding with MIOT_* environment variables
//   - Validation of required fields
//
// Security Considerations:
//   - The config file holds the account password; Save writes it 0600
//   - Prefer MIJIA_USERNAME / MIJIA_PASSWORD for shared hosts
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Mijia.Source)
package config
