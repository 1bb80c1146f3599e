// Package config loads runtime configuration for the qcollab client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment: a dotenv file (-e/-env or ./.env) and QC_* variables.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   base URL of the REST API
//	-w string   realtime WebSocket URL
//	-g string   address:port of the gRPC health endpoint
//	-i int      online status check interval (seconds)
//	-d string   local database file
//
// # JSON schema
//
//	{
//	  "api_base_url": "http://127.0.0.1:8080",
//	  "realtime_url": "ws://127.0.0.1:8080/ws",
//	  "health_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "database_path": "qcollab.db"
//	}
package config
