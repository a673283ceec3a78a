package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/steveyegge/docsync/internal/tracker"
)

// ApplyEnv overrides settings from environment variables.
//
// Environment variables:
//   - DOCSYNC_SOURCE: auto, live or snapshot
//   - DOCSYNC_BD_PATH: bd executable (default: bd)
//   - DOCSYNC_BD_TIMEOUT: per-invocation timeout, e.g. "10s"; "0" waits forever
//   - DOCSYNC_SNAPSHOT: snapshot path (default: .beads/issues.jsonl)
//   - DOCSYNC_STAMP_DATE: add the run date to generated headers (default: false)
//
// Returns an error if any environment variable has an invalid value.
func (c *Config) ApplyEnv() error {
	var source string
	if err := parseEnvString("DOCSYNC_SOURCE", &source); err != nil {
		return err
	}
	if source != "" {
		c.Source = tracker.Mode(source)
	}
	if err := parseEnvString("DOCSYNC_BD_PATH", &c.BdPath); err != nil {
		return err
	}
	if err := parseEnvDuration("DOCSYNC_BD_TIMEOUT", &c.BdTimeout); err != nil {
		return err
	}
	if err := parseEnvString("DOCSYNC_SNAPSHOT", &c.SnapshotPath); err != nil {
		return err
	}
	if err := parseEnvBool("DOCSYNC_STAMP_DATE", &c.StampDate); err != nil {
		return err
	}
	return nil
}

// parseEnvDuration parses a duration from an environment variable. A bare
// integer is taken as seconds.
func parseEnvDuration(key string, dest *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	if secs, err := strconv.Atoi(value); err == nil {
		*dest = time.Duration(secs) * time.Second
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	*dest = value
	return nil
}
