package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// LoadEnvString / LoadEnvWithFallback
// ============================================================================

func TestLoadEnvString(t *testing.T) {
	t.Setenv("TEST_SOURCES_FILE", "/etc/sources.yaml")
	assert.Equal(t, "/etc/sources.yaml", LoadEnvString("TEST_SOURCES_FILE", "sources.yaml"))

	t.Setenv("TEST_SOURCES_FILE", "")
	assert.Equal(t, "sources.yaml", LoadEnvString("TEST_SOURCES_FILE", "sources.yaml"))
}

func TestLoadEnvWithFallback(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		validator    func(string) error
		want         string
		wantFallback bool
	}{
		{"valid cron", "*/10 * * * *", ValidateCronSchedule, "*/10 * * * *", false},
		{"unset", "", ValidateCronSchedule, "*/5 * * * *", false},
		{"no validator", "anything", nil, "anything", false},
		{"invalid cron", "every minute", ValidateCronSchedule, "*/5 * * * *", true},
		{"six fields", "0 0 * * * *", ValidateCronSchedule, "*/5 * * * *", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_SCHEDULE", tt.value)

			result := LoadEnvWithFallback("TEST_SCHEDULE", "*/5 * * * *", tt.validator)

			assert.Equal(t, tt.want, result.Value.(string))
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
			if tt.wantFallback {
				assert.Len(t, result.Warnings, 1)
				assert.Contains(t, result.Warnings[0], "Invalid TEST_SCHEDULE='"+tt.value+"'")
				assert.Contains(t, result.Warnings[0], "falling back to default '*/5 * * * *'")
			} else {
				assert.Empty(t, result.Warnings)
			}
		})
	}
}

func TestLoadEnvWithFallback_Timezone(t *testing.T) {
	t.Setenv("TEST_TZ", "Mars/Olympus")

	result := LoadEnvWithFallback("TEST_TZ", "Europe/Paris", ValidateTimezone)

	assert.Equal(t, "Europe/Paris", result.Value)
	assert.True(t, result.FallbackApplied)
}

// ============================================================================
// LoadEnvDuration
// ============================================================================

func TestLoadEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		validator    func(time.Duration) error
		want         time.Duration
		wantFallback bool
		wantWarning  string
	}{
		{"valid", "2s", ValidatePositiveDuration, 2 * time.Second, false, ""},
		{"compound", "1h30m", nil, 90 * time.Minute, false, ""},
		{"unset", "", ValidatePositiveDuration, time.Second, false, ""},
		{"bad format", "soon", ValidatePositiveDuration, time.Second, true, "falling back to default '1s'"},
		{"negative", "-5s", ValidatePositiveDuration, time.Second, true, "must be positive"},
		{"zero", "0s", ValidatePositiveDuration, time.Second, true, "must be positive"},
		{
			"above range", "10h",
			func(d time.Duration) error { return ValidateDuration(d, time.Minute, 2*time.Hour) },
			time.Second, true, "exceeds maximum",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DELAY", tt.value)

			result := LoadEnvDuration("TEST_DELAY", time.Second, tt.validator)

			assert.Equal(t, tt.want, result.Value.(time.Duration))
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
			if tt.wantWarning != "" {
				assert.Contains(t, result.Warnings[0], tt.wantWarning)
			}
		})
	}
}

// ============================================================================
// LoadEnvInt
// ============================================================================

func TestLoadEnvInt(t *testing.T) {
	ceiling := func(v int) error { return ValidateIntRange(v, 1, 100000) }
	tests := []struct {
		name         string
		value        string
		validator    func(int) error
		want         int
		wantFallback bool
		wantWarning  string
	}{
		{"valid", "500", ceiling, 500, false, ""},
		{"unset", "", ceiling, 1000, false, ""},
		{"spaces", " 42 ", nil, 42, false, ""},
		{"decimal truncated", "10.5", nil, 10, false, ""},
		{"not a number", "lots", ceiling, 1000, true, "invalid integer format"},
		{"below minimum", "0", ceiling, 1000, true, "below minimum"},
		{"above maximum", "200000", ceiling, 1000, true, "exceeds maximum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_CEILING", tt.value)

			result := LoadEnvInt("TEST_CEILING", 1000, tt.validator)

			assert.Equal(t, tt.want, result.Value.(int))
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
			if tt.wantWarning != "" {
				assert.Contains(t, result.Warnings[0], tt.wantWarning)
				assert.Contains(t, result.Warnings[0], "falling back to default '1000'")
			}
		})
	}
}

// ============================================================================
// LoadEnvFloat
// ============================================================================

func TestLoadEnvFloat(t *testing.T) {
	threshold := func(v float64) error { return ValidateFloatRange(v, 0, 2) }
	tests := []struct {
		name         string
		value        string
		want         float64
		wantFallback bool
		wantWarning  string
	}{
		{"valid", "1.5", 1.5, false, ""},
		{"integer form", "1", 1, false, ""},
		{"unset", "", 0.9, false, ""},
		{"spaces", " 0.75 ", 0.75, false, ""},
		{"not a number", "high", 0.9, true, "invalid float format"},
		{"out of range", "2.5", 0.9, true, "exceeds maximum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_THRESHOLD", tt.value)

			result := LoadEnvFloat("TEST_THRESHOLD", 0.9, threshold)

			assert.InDelta(t, tt.want, result.Value.(float64), 1e-9)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
			if tt.wantWarning != "" {
				assert.Contains(t, result.Warnings[0], tt.wantWarning)
			}
		})
	}
}

// ============================================================================
// LoadEnvBool
// ============================================================================

func TestLoadEnvBool(t *testing.T) {
	for _, v := range []string{"1", "t", "T", "true", "TRUE", "True"} {
		t.Run("true/"+v, func(t *testing.T) {
			t.Setenv("TEST_BOOL", v)
			result := LoadEnvBool("TEST_BOOL", false)
			assert.Equal(t, true, result.Value)
			assert.False(t, result.FallbackApplied)
		})
	}
	for _, v := range []string{"0", "f", "F", "false", "FALSE", "False"} {
		t.Run("false/"+v, func(t *testing.T) {
			t.Setenv("TEST_BOOL", v)
			result := LoadEnvBool("TEST_BOOL", true)
			assert.Equal(t, false, result.Value)
			assert.False(t, result.FallbackApplied)
		})
	}
	for _, v := range []string{"yes", "off", "2"} {
		t.Run("invalid/"+v, func(t *testing.T) {
			t.Setenv("TEST_BOOL", v)
			result := LoadEnvBool("TEST_BOOL", true)
			assert.Equal(t, true, result.Value)
			assert.True(t, result.FallbackApplied)
			assert.Contains(t, result.Warnings[0], "invalid boolean format")
			assert.Contains(t, result.Warnings[0], "falling back to default 'true'")
		})
	}
}
