package config

import (
	"os"
	"strconv"
	"strings"
)

// envFlag reads a yes/no switch, falling back to def when unset or unrecognised.
func envFlag(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	}
	return def
}

// EnvInt returns a positive integer setting or def.
func EnvInt(key string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && n > 0 {
		return n
	}
	return def
}

// SkipMigrations is set where AutoMigrate runs as a separate job.
//
// Set via env:
// - SKIP_MIGRATIONS=true
func SkipMigrations() bool {
	return envFlag("SKIP_MIGRATIONS", false)
}

// RateLimitEnabled turns on the redis backed per-IP limiter.
//
// Set via env:
// - RATE_LIMIT_ENABLED=true, RATE_LIMIT_WINDOW_SECONDS=60, RATE_LIMIT_MAX_REQUESTS=600
func RateLimitEnabled() bool {
	return envFlag("RATE_LIMIT_ENABLED", false)
}

// OverdueSweepEnabled runs the overdue invoice sweeper inside the API process.
// On by default; disable with OVERDUE_SWEEP_ENABLED=false when it runs as a job.
func OverdueSweepEnabled() bool {
	return envFlag("OVERDUE_SWEEP_ENABLED", true)
}

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}
