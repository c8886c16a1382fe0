package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/tbellec/flashdeck/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals are
// duration strings like "90s" or "2m".
type JsonConfig struct {
	ServerEndpointAddr   string `json:"server_endpoint_addr"`
	RealtimeEndpointAddr string `json:"realtime_endpoint_addr"`
	APIKey               string `json:"api_key"`
	DatabasePath         string `json:"database_path"`
	SyncInterval         string `json:"sync_interval"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags; without them no JSON is loaded.
// Read, unmarshal, and duration parse errors panic, matching parseFlags.
// Only fields present in the file override the current values.
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

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.RealtimeEndpointAddr != "" {
		cfg.RealtimeEndpointAddr = jc.RealtimeEndpointAddr
	}
	if jc.APIKey != "" {
		cfg.APIKey = jc.APIKey
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.SyncInterval != "" {
		d, err := time.ParseDuration(jc.SyncInterval)
		if err != nil {
			panic(err)
		}
		cfg.SyncInterval = d
	}
}
