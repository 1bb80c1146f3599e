package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP listen address
//	-g string   gRPC health listen address
//	-d string   PostgreSQL DSN, empty for in-memory storage
//	-k string   JWT secret key
//	-t int      access token validity (in minutes)
//	-w int      refresh grace window (in minutes)
//	-r string   Redis address for cross-instance fan-out
//	-l string   log format (text, json, logrus)
//	-o string   comma separated CORS origins
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-k", "-t", "-w", "-r", "-l", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "address and port of the HTTP endpoint")
	fs.StringVar(&cfg.GRPCAddr, "g", cfg.GRPCAddr, "address and port of the gRPC health endpoint")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "k", cfg.SecretKey, "secret key")
	accessTokenValidity := fs.Int("t", int(cfg.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshGrace := fs.Int("w", int(cfg.RefreshGrace.Minutes()), "refresh grace window (in minutes)")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address")
	fs.StringVar(&cfg.LogFormat, "l", cfg.LogFormat, "log format")
	origins := fs.String("o", strings.Join(cfg.AllowOrigins, ","), "allowed CORS origins")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	cfg.RefreshGrace = time.Duration(*refreshGrace) * time.Minute
	cfg.AllowOrigins = splitList(*origins)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
