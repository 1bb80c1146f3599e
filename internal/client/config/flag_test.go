package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd", "-a", "http://h:9090", "-w", "ws://h:9090/ws", "-g", "h:50051", "-i", "10", "-d", "/tmp/q.db"},
			expected: &Config{APIBaseURL: "http://h:9090", RealtimeURL: "ws://h:9090/ws", HealthAddr: "h:50051", OnlineCheckInterval: 10 * time.Second, DatabasePath: "/tmp/q.db"}},
		{name: "foreign flags ignored", args: []string{"cmd", "-c", "cfg.json", "-a", "http://h:1"},
			expected: &Config{APIBaseURL: "http://h:1"}},
		{name: "incorrect check interval", args: []string{"cmd", "-i", "abc"}, expectPanic: true, expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
