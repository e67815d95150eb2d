// SPDX-License-Identifier: MIT

// Package config loads strmorg's runtime configuration: environment
// variables take precedence over an optional YAML file, which in turn
// overrides the built-in defaults below.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/castlib/strmorg/internal/log"
)

// ParseString reads a string from the environment or returns defaultValue.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().Str("key", key).Str("source", "default").Msg("using default value")
		return defaultValue
	}
	lowerKey := strings.ToLower(key)
	if strings.Contains(lowerKey, "token") || strings.Contains(lowerKey, "password") {
		logger.Debug().Str("key", key).Str("source", "environment").Bool("sensitive", true).Msg("using environment variable")
	} else {
		logger.Debug().Str("key", key).Str("value", v).Str("source", "environment").Msg("using environment variable")
	}
	return v
}

// ParseInt reads an integer from the environment, coercing via cast, or
// returns defaultValue on absence or parse failure.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Int("default", defaultValue).Msg("invalid integer, using default")
		return defaultValue
	}
	return i
}

// ParseFloat reads a float64 from the environment via cast.
func ParseFloat(key string, defaultValue float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return defaultValue
	}
	return f
}

// ParseBool reads a boolean from the environment via cast.
func ParseBool(key string, defaultValue bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return defaultValue
	}
	return b
}

// ParseDuration reads a time.Duration from the environment (e.g. "30s").
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	d, err := cast.ToDurationE(v)
	if err != nil {
		return defaultValue
	}
	return d
}
