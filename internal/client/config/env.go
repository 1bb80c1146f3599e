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
	EnvAPIBaseURL    = "QC_API_URL"
	EnvRealtimeURL   = "QC_WS_URL"
	EnvHealthAddr    = "QC_HEALTH_ADDR"
	EnvCheckInterval = "QC_CHECK_INTERVAL"
	EnvDatabasePath  = "QC_DB_PATH"
)

// parseEnv loads a dotenv file (-e/-env, or ./.env when present) without
// overriding variables already set, then overlays the QC_* variables.
// A missing default .env is not an error; a bad interval panics like the
// other loaders.
func parseEnv(cfg *Config) {
	loadDotenv()

	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv(EnvRealtimeURL); v != "" {
		cfg.RealtimeURL = v
	}
	if v := os.Getenv(EnvHealthAddr); v != "" {
		cfg.HealthAddr = v
	}
	if v := os.Getenv(EnvCheckInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		cfg.OnlineCheckInterval = d
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		cfg.DatabasePath = v
	}
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
