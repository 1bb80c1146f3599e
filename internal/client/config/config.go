package config

import "time"

// Config holds runtime settings for the qcollab terminal client.
//
// Fields:
//   - APIBaseURL: base URL of the REST API, e.g. http://127.0.0.1:8080.
//   - RealtimeURL: WebSocket endpoint of the push channel.
//   - HealthAddr: host:port of the server's gRPC health endpoint.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - DatabasePath: local SQLite file that keeps the session between runs.
type Config struct {
	APIBaseURL          string
	RealtimeURL         string
	HealthAddr          string
	OnlineCheckInterval time.Duration
	DatabasePath        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.RealtimeURL = "ws://127.0.0.1:8080/ws"
	c.HealthAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "qcollab.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
