// Package config loads runtime configuration for the Leirisonda CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-s string   base URL of the sync backend
//	-d string   path of the local database file
//	-g int      guard window after a work write (seconds)
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "sync_endpoint_url": "https://backend.example",
//	  "database_path": "/var/lib/leirisonda/leirisonda.db",
//	  "startup_delay": "500ms",
//	  "guard_window": "10s",
//	  "recency_window": "5m",
//	  "online_check_interval": "3s",
//	  "login_rate_per_sec": 1
//	}
//
// Primary API
//
//   - type Config                     — runtime settings for the CLI
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
