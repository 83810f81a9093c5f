package config

import (
	"fmt"
	"os"
	"time"
)

func parseEnv(cfg *Config) error {
	if v := os.Getenv("ALUMNIKEEPER_SERVER"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("ALUMNIKEEPER_SESSION_FILE"); v != "" {
		cfg.SessionFile = v
	}
	if v := os.Getenv("ALUMNIKEEPER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ALUMNIKEEPER_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}
