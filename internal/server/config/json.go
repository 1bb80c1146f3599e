package config

import (
	"os"

	"github.com/bytedance/sonic"
	"github.com/dmitrijs2005/quickcollab/internal/flagx"
	"github.com/dmitrijs2005/quickcollab/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Durations use timex.Duration so the file may hold "15m" or nanoseconds.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	GRPCAddr                    string         `json:"grpc_addr"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	RefreshGrace                timex.Duration `json:"refresh_grace"`
	RedisAddr                   string         `json:"redis_addr"`
	LogFormat                   string         `json:"log_format"`
	AllowOrigins                []string       `json:"allow_origins"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Empty fields keep the current value. Read and decode
// errors panic.
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
	if err := sonic.ConfigStd.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.HTTPAddr, jc.HTTPAddr)
	setString(&cfg.GRPCAddr, jc.GRPCAddr)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.SecretKey, jc.SecretKey)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.LogFormat, jc.LogFormat)
	if jc.AccessTokenValidityDuration.Duration > 0 {
		cfg.AccessTokenValidityDuration = jc.AccessTokenValidityDuration.Duration
	}
	if jc.RefreshGrace.Duration > 0 {
		cfg.RefreshGrace = jc.RefreshGrace.Duration
	}
	if len(jc.AllowOrigins) > 0 {
		cfg.AllowOrigins = jc.AllowOrigins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
