package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/Goncalofonseca86/leirisonda/internal/flagx"
	"github.com/Goncalofonseca86/leirisonda/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "10s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	SyncEndpointURL     *string         `json:"sync_endpoint_url"`
	DatabasePath        *string         `json:"database_path"`
	StartupDelay        *timex.Duration `json:"startup_delay"`
	GuardWindow         *timex.Duration `json:"guard_window"`
	RecencyWindow       *timex.Duration `json:"recency_window"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	LoginRatePerSec     *float64        `json:"login_rate_per_sec"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Fields absent from the file keep their current values. Panics on read
// or unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.SyncEndpointURL != nil {
		cfg.SyncEndpointURL = *jc.SyncEndpointURL
	}
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.StartupDelay != nil {
		cfg.StartupDelay = time.Duration(jc.StartupDelay.Duration)
	}
	if jc.GuardWindow != nil {
		cfg.GuardWindow = time.Duration(jc.GuardWindow.Duration)
	}
	if jc.RecencyWindow != nil {
		cfg.RecencyWindow = time.Duration(jc.RecencyWindow.Duration)
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.LoginRatePerSec != nil {
		cfg.LoginRatePerSec = *jc.LoginRatePerSec
	}
}
