// Package config implements fail-open environment loading. A malformed or
// out-of-range value never aborts startup: the default is used and a warning
// describing the fallback is returned to the caller, who logs it and records
// it in ConfigMetrics.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ConfigLoadResult is the outcome of loading one environment variable.
// Value always holds a usable value of the requested type.
//
//	result := LoadEnvDuration("ITEM_DELAY", time.Second, ValidatePositiveDuration)
//	delay := result.Value.(time.Duration)
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString returns the variable or defaultValue when it is unset or empty.
func LoadEnvString(envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return defaultValue
}

// loadParsed is the shared parse, validate, fall back sequence.
// parseMsg replaces the parser error in the warning when non-empty.
func loadParsed[T any](
	envKey string,
	defaultValue T,
	parse func(string) (T, error),
	parseMsg string,
	validator func(T) error,
) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	fallback := func(reason interface{}) ConfigLoadResult {
		warning := fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'",
			envKey, raw, reason, defaultValue)
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        []string{warning},
			FallbackApplied: true,
		}
	}

	parsed, err := parse(raw)
	if err != nil {
		if parseMsg != "" {
			return fallback(parseMsg)
		}
		return fallback(err)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(err)
		}
	}
	return ConfigLoadResult{Value: parsed}
}

// LoadEnvWithFallback loads a string and validates it.
//
//	result := LoadEnvWithFallback("ENRICH_SCHEDULE", "*/5 * * * *", ValidateCronSchedule)
//	schedule := result.Value.(string)
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	identity := func(s string) (string, error) { return s, nil }
	return loadParsed(envKey, defaultValue, identity, "", validator)
}

// LoadEnvDuration loads a time.ParseDuration string such as "30s" or "1h30m".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	return loadParsed(envKey, defaultValue, time.ParseDuration, "", validator)
}

// LoadEnvInt loads an integer. Parsing uses fmt.Sscanf, so surrounding
// whitespace is tolerated and trailing non-digits are ignored ("10.5" is 10).
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	parse := func(s string) (int, error) {
		var v int
		_, err := fmt.Sscanf(s, "%d", &v)
		return v, err
	}
	return loadParsed(envKey, defaultValue, parse, "invalid integer format", validator)
}

// LoadEnvFloat loads a float64, used for similarity thresholds.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) ConfigLoadResult {
	parse := func(s string) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
	return loadParsed(envKey, defaultValue, parse, "invalid float format", validator)
}

// LoadEnvBool loads a strconv.ParseBool value ("1", "t", "true", "0", "f", "false" and case variants).
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	return loadParsed(envKey, defaultValue, strconv.ParseBool,
		"invalid boolean format, expected 'true' or 'false'", nil)
}
