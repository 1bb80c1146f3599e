package config

import (
	"os"

	"github.com/bytedance/sonic"
	"github.com/dmitrijs2005/quickcollab/internal/flagx"
	"github.com/dmitrijs2005/quickcollab/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Intervals use timex.Duration so the file may hold "3s" or nanoseconds.
// Empty fields leave the current value alone.
type JsonConfig struct {
	APIBaseURL          string         `json:"api_base_url"`
	RealtimeURL         string         `json:"realtime_url"`
	HealthAddr          string         `json:"health_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	DatabasePath        string         `json:"database_path"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag it does nothing. Read and decode errors
// panic.
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

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.RealtimeURL, jc.RealtimeURL)
	setString(&cfg.HealthAddr, jc.HealthAddr)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
