// Package config loads command defaults from the environment.
package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Config holds the settings shared by the commands.
type Config struct {
	// Workers is the number of concurrent analyses.
	Workers int
	// DBPath is the SQLite timeline cache; empty disables caching.
	DBPath string
	// LogLevel is a logrus level name.
	LogLevel string
	// TargetSampleRate is the chord analysis rate.
	TargetSampleRate float64
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	return Config{
		Workers:          envInt("STEMFX_WORKERS", runtime.NumCPU()),
		DBPath:           envStr("STEMFX_DB", ""),
		LogLevel:         envStr("STEMFX_LOG_LEVEL", "info"),
		TargetSampleRate: envFloat("STEMFX_TARGET_RATE", 11025),
	}
}

// Logger returns a stderr logger at the configured level. Unknown level
// names fall back to info.
func (c Config) Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}

	log.SetLevel(level)

	return log
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
