// Package config loads runtime configuration for the alumnictl CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file passed with --config / -c.
//  3. Environment: ALUMNIKEEPER_SERVER, ALUMNIKEEPER_SESSION_FILE,
//     ALUMNIKEEPER_TIMEOUT.
//  4. Command-line flags handled by the cli package, which override the rest.
//
// # JSON schema
//
// Durations use timex.Duration, so "10s" and integer nanoseconds both work:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "session_file": "/home/me/.alumnikeeper/session",
//	  "request_timeout": "10s"
//	}
package config
