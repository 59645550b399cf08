// Package config provides configuration management for the inventory agent.
//
// It utilizes Viper for loading configuration from environment variables,
// an optional config file (config.yaml) and a .env file. Command-line flags
// override individual values after loading.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Remote: inventory API base URL, bearer token, request timeout, lookup cache TTL
//   - Agent: removal authority, run interval, worker limit, lookup retries, report sinks
//   - Tools: per-tool enablement, executable path and timeout, ignored interfaces
//   - Server: HTTP status server port and API key
//   - Database: MySQL connection for the report archive
//   - Storage: S3/MinIO credentials and bucket for report uploads
//   - Log: Logging level and format
//
// Environment variables map to nested keys by replacing dots with
// underscores, e.g. REMOTE_URL or TOOLS_STORCLI_PATH.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Remote.URL)
package config
