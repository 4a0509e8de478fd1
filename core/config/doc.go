// Package config provides configuration management for the reconciliation service.
//
// It utilizes Viper for loading configuration from environment variables,
// a .env file, and struct tag defaults.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: MySQL connection details
//   - Storage: S3/MinIO credentials and the report bucket
//   - Log: Logging level and format
//   - Recovery: retry budget, call timeout, circuit breaker thresholds
//   - Stock: marketplace API endpoint and report file locations
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
