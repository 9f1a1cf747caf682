package logsink

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"trace", LevelTrace, false},
		{"DEBUG", LevelDebug, false},
		{" info ", LevelInfo, false},
		{"Information", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"critical", LevelCritical, false},
		{"fatal", LevelCritical, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, level)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "TRACE", LevelTrace.String())
	assert.Equal(t, "INFORMATION", LevelInfo.String())
	assert.Equal(t, "WARNING", LevelWarn.String())
	assert.Equal(t, "CRITICAL", LevelCritical.String())
	assert.Equal(t, "LEVEL(42)", Level(42).String())

	assert.True(t, LevelTrace < LevelDebug && LevelDebug < LevelInfo && LevelInfo < LevelWarn &&
		LevelWarn < LevelError && LevelError < LevelCritical)
}

func TestParseKeyValue(t *testing.T) {
	tests := []struct {
		input     string
		wantKey   string
		wantValue string
		wantErr   bool
	}{
		{"key=value", "key", "value", false},
		{" key = value ", "key", "value", false},
		{"key=value=with=equals", "key", "value=with=equals", false},
		{"noequals", "", "", true},
		{"=value", "", "", true},
		{"key=", "key", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			key, value, err := parseKeyValue(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantKey, key)
				assert.Equal(t, tt.wantValue, value)
			}
		})
	}
}

func TestFmtErrorf(t *testing.T) {
	err := fmtErrorf("test error: %s", "details")
	assert.Error(t, err)
	assert.Equal(t, "logsink: test error: details", err.Error())

	// Already prefixed
	err = fmtErrorf("logsink: already prefixed")
	assert.Equal(t, "logsink: already prefixed", err.Error())

	// Wrapping keeps the chain
	err = fmtErrorf("outer: %w", ErrLocked)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestCombineErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	assert.Nil(t, combineErrors(nil, nil))
	assert.Equal(t, first, combineErrors(first, nil))
	assert.Equal(t, second, combineErrors(nil, second))

	combined := combineErrors(first, second)
	assert.Equal(t, "first; second", combined.Error())
	assert.ErrorIs(t, combined, second)
}

func TestDurations(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, durationMs(1500))
	assert.Equal(t, 3*time.Second, durationS(3))
}
