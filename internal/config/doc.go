// Package config loads the service and CLI configuration.
//
// # Configuration Sources
//
// Values are applied in increasing precedence:
//
//	1. Default()
//	2. YAML file (--config, BORSA_CONFIG_FILE, ./config.yaml or ./configs/config.yaml)
//	3. .env file in the working directory
//	4. BORSA_* environment variables
//
// # Environment Variables
//
// Nested sections map to underscore-joined names:
//
//	BORSA_SERVER_PORT=8080
//	BORSA_LOGGING_LEVEL=debug
//	BORSA_RECONCILE_ALIGNMENT=period-key
//	BORSA_RECONCILE_COLUMNS_INSTITUTION=Kurum
//	BORSA_CACHE_TTL=1h
//
// The merged result is checked with go-playground/validator tags.
package config
