package config

import "time"

// Config holds runtime settings for the flashdeck CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the hosted data API.
//   - RealtimeEndpointAddr: websocket URL of the change feed. Empty disables
//     realtime updates; sync still runs on its interval.
//   - APIKey: project API key sent with every request.
//   - DatabasePath: location of the local SQLite file. Empty picks a file in
//     the per-user data directory.
//   - SyncInterval: how often a periodic sync cycle runs.
type Config struct {
	ServerEndpointAddr   string
	RealtimeEndpointAddr string
	APIKey               string
	DatabasePath         string
	SyncInterval         time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:54321"
	c.RealtimeEndpointAddr = ""
	c.APIKey = ""
	c.DatabasePath = ""
	c.SyncInterval = 60 * time.Second
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
