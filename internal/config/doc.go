// Package config provides 12-factor configuration for the docking tooling.
//
// Configuration is loaded from environment variables with sensible defaults,
// and an optional TOML file can be layered on top for per-project overrides.
//
// Configuration Sections:
//   - Inspect: inspection server settings (port, host, rate limits)
//   - Logging: log level and output format
//   - Layout: layout persistence path and main area size
//
// Example Usage:
//
//	cfg := config.LoadOrDefault("panekit.toml")
//	fmt.Printf("Inspect server on %s:%s\n", cfg.Inspect.Host, cfg.Inspect.Port)
//
// Environment Variables:
//   - INSPECT_PORT, INSPECT_HOST, INSPECT_RPS, INSPECT_BURST
//   - LOG_LEVEL, LOG_DEV
//   - LAYOUT_PATH, MAIN_WIDTH, MAIN_HEIGHT
package config
