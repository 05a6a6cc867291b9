// Package config loads configuration values from the environment with a
// fail-open policy: a missing value uses its default silently, an invalid
// value uses its default with a warning. Loading never fails; callers decide
// whether warnings are fatal.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadResult is a loaded value plus what happened while loading it.
type LoadResult[T any] struct {
	Value T
	// Warnings holds one message per rejected value.
	Warnings        []string
	FallbackApplied bool
}

// Report logs the warnings, records a fallback for field on m (m may be
// nil) and returns the value.
func (r LoadResult[T]) Report(logger *slog.Logger, m *ConfigMetrics, field string) T {
	if logger == nil {
		logger = slog.Default()
	}
	for _, w := range r.Warnings {
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", w))
	}
	if m != nil && r.FallbackApplied {
		m.RecordValidationError(field)
		m.RecordFallback(field, "default")
		m.SetFallbackActive(field, true)
	}
	return r.Value
}

// load reads key, parses it and validates it. A nil validate accepts every
// parsed value.
func load[T any](key string, def T, parse func(string) (T, error), validate func(T) error) LoadResult[T] {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return LoadResult[T]{Value: def}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return LoadResult[T]{
			Value: def,
			Warnings: []string{
				fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", key, raw, err, def),
			},
			FallbackApplied: true,
		}
	}
	return LoadResult[T]{Value: v}
}

// LoadEnvString returns key's value, or def when unset. No validation.
func LoadEnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// LoadEnvWithFallback loads a string and validates it.
func LoadEnvWithFallback(key, def string, validate func(string) error) LoadResult[string] {
	return load(key, def, func(s string) (string, error) { return s, nil }, validate)
}

// LoadEnvDuration loads a time.ParseDuration value, e.g. "30m".
func LoadEnvDuration(key string, def time.Duration, validate func(time.Duration) error) LoadResult[time.Duration] {
	return load(key, def, time.ParseDuration, validate)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(key string, def int, validate func(int) error) LoadResult[int] {
	return load(key, def, strconv.Atoi, validate)
}

// LoadEnvFloat loads a float64.
func LoadEnvFloat(key string, def float64, validate func(float64) error) LoadResult[float64] {
	return load(key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }, validate)
}

// LoadEnvBool loads a strconv.ParseBool value ("1", "true", "F", ...).
func LoadEnvBool(key string, def bool) LoadResult[bool] {
	return load(key, def, strconv.ParseBool, nil)
}

// LoadEnvList loads a comma-separated list. Blank items are dropped; an
// empty result keeps def.
func LoadEnvList(key string, def []string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
