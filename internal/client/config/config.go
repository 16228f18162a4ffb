// Package config handles configuration for the client, including defaults,
// JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the vault CLI.
//
// Fields:
//   - ServerURL: base URL of the sync server.
//   - DatabaseFile: path of the local SQLite database.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - SyncInterval: how often queued changes are pushed in the background.
//   - RequestTimeout: per-request HTTP timeout.
type Config struct {
	ServerURL           string
	DatabaseFile        string
	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration
	RequestTimeout      time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabaseFile = "vault.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = 15 * time.Second
	c.RequestTimeout = 10 * time.Second
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
