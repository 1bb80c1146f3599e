package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvHTTPAddr     = "QC_HTTP_ADDR"
	EnvGRPCAddr     = "QC_GRPC_ADDR"
	EnvDatabaseDSN  = "QC_DATABASE_DSN"
	EnvSecretKey    = "QC_SECRET_KEY"
	EnvTokenTTL     = "QC_TOKEN_TTL"
	EnvRefreshGrace = "QC_REFRESH_GRACE"
	EnvRedisAddr    = "QC_REDIS_ADDR"
	EnvLogFormat    = "QC_LOG_FORMAT"
	EnvAllowOrigins = "QC_ALLOW_ORIGINS"
)

// parseEnv loads a dotenv file (-e/-env, or ./.env when present) without
// overriding variables already set, then overlays the QC_* variables.
// Durations use time.ParseDuration syntax; a bad one panics.
func parseEnv(cfg *Config) {
	loadDotenv()

	setString(&cfg.HTTPAddr, os.Getenv(EnvHTTPAddr))
	setString(&cfg.GRPCAddr, os.Getenv(EnvGRPCAddr))
	setString(&cfg.DatabaseDSN, os.Getenv(EnvDatabaseDSN))
	setString(&cfg.SecretKey, os.Getenv(EnvSecretKey))
	setString(&cfg.RedisAddr, os.Getenv(EnvRedisAddr))
	setString(&cfg.LogFormat, os.Getenv(EnvLogFormat))
	setDuration(&cfg.AccessTokenValidityDuration, os.Getenv(EnvTokenTTL))
	setDuration(&cfg.RefreshGrace, os.Getenv(EnvRefreshGrace))
	if v := os.Getenv(EnvAllowOrigins); v != "" {
		cfg.AllowOrigins = splitList(v)
	}
}

func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}

func loadDotenv() {
	if path := flagx.EnvFileFlags(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
		return
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
}
