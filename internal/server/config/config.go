// Package config handles configuration for the board server, including
// defaults, a JSON overlay, environment variables and command-line flags.
package config

import "time"

// Config holds runtime settings for the boardd server.
//
// Fields:
//   - HTTPAddr: bind address of the REST API and the /ws endpoint.
//   - GRPCAddr: bind address of the gRPC health endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty keeps all data in memory.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenValidityDuration: lifetime of an access token.
//   - RefreshGrace: how long after expiry a token may still be refreshed.
//   - RedisAddr: Redis used to fan realtime events out between instances.
//     Empty keeps the hub local.
//   - LogFormat: text, json or logrus.
//   - AllowOrigins: CORS origins of the browser client.
type Config struct {
	HTTPAddr                    string
	GRPCAddr                    string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	RefreshGrace                time.Duration
	RedisAddr                   string
	LogFormat                   string
	AllowOrigins                []string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.GRPCAddr = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshGrace = 24 * time.Hour
	c.RedisAddr = ""
	c.LogFormat = "json"
	c.AllowOrigins = []string{"*"}
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
