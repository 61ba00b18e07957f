// Package config provides centralized configuration management for the KPI
// analyzer. It handles loading configuration from multiple sources, validation,
// and path resolution.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority), including a local .env file
//  2. YAML configuration file (KPI_CONFIG_FILE or config.yaml)
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern KPI_<SECTION>_<FIELD>:
//
//	KPI_SERVER_PORT=8080
//	KPI_LOGGING_LEVEL=debug
//	KPI_INGEST_WORKERS=8
//	KPI_REMOTE_SHEETS_API_KEY=...
//	KPI_REMOTE_EXPECTED_SHEETS="KIA Iztapalapa,MG Interlomas"
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	paths, err := config.ResolvePaths(cfg.Paths)
package config
