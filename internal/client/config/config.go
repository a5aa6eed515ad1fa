package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the Leirisonda CLI.
//
// Fields:
//   - SyncEndpointURL: base URL of the optional sync backend; empty disables sync.
//   - DatabasePath: path of the device-durable sqlite file.
//   - StartupDelay: pause before the session recovery cascade runs.
//   - GuardWindow: grace window after a work record write.
//   - RecencyWindow: how old a record may be and still be announced as new.
//   - OnlineCheckInterval: how often the client probes backend reachability.
//   - LoginRatePerSec: login attempts allowed per second; 0 disables throttling.
type Config struct {
	SyncEndpointURL     string
	DatabasePath        string
	StartupDelay        time.Duration
	GuardWindow         time.Duration
	RecencyWindow       time.Duration
	OnlineCheckInterval time.Duration
	LoginRatePerSec     float64
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.SyncEndpointURL = ""
	c.DatabasePath = defaultDatabasePath()
	c.StartupDelay = 500 * time.Millisecond
	c.GuardWindow = 10 * time.Second
	c.RecencyWindow = 5 * time.Minute
	c.OnlineCheckInterval = 3 * time.Second
	c.LoginRatePerSec = 1
}

func defaultDatabasePath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, ".leirisonda", "leirisonda.db")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
