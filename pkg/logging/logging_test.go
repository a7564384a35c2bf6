package logging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	lines []string
}

func (c *capture) funcs() LogFuncs {
	record := func(level string) LogFunc {
		return func(format string, args ...interface{}) {
			c.lines = append(c.lines, level+" "+fmt.Sprintf(format, args...))
		}
	}
	return LogFuncs{
		Debugf: record("D"),
		Infof:  record("I"),
		Warnf:  record("W"),
		Errorf: record("E"),
	}
}

func TestLoggerPrefixAndLevels(t *testing.T) {
	c := &capture{}
	logger := NewLogger("module: launch , ", c.funcs())

	logger.Debugf("debug %d", 1)
	logger.Infof("info %s", "x")
	logger.Warnf("warn")
	logger.Errorf("error")
	logger.LogLevelf(LogLevelInfo, "level %s", "info")

	assert.Equal(t, []string{
		"D module: launch , debug 1",
		"I module: launch , info x",
		"W module: launch , warn",
		"E module: launch , error",
		"I module: launch , level info",
	}, c.lines)
}

func TestFilteredLogger(t *testing.T) {
	c := &capture{}
	logger := NewFilteredLogger("", LogLevelWarn, c.funcs())

	logger.Debugf("dropped")
	logger.Infof("dropped")
	logger.Warnf("kept")
	logger.Errorf("kept too")

	assert.Equal(t, []string{"W kept", "E kept too"}, c.lines)
}

func TestLogLevelfFuncTakesPrecedence(t *testing.T) {
	var got []int
	logger := NewLogger("", LogFuncs{
		LogLevelf: func(level int, format string, args ...interface{}) {
			got = append(got, level)
		},
		Infof: func(format string, args ...interface{}) {
			t.Fatal("Infof must not be called when LogLevelf is set")
		},
	})

	logger.Infof("a")
	logger.Errorf("b")
	assert.Equal(t, []int{LogLevelInfo, LogLevelError}, got)
}

func TestNopLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		logger := NewNopLogger()
		logger.Debugf("x")
		logger.Errorf("y")
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input     string
		expected  int
		shouldErr bool
	}{
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{"", LogLevelInfo, false},
		{"warning", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"verbose", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "debug", LevelName(LogLevelDebug))
	assert.Equal(t, "warn", LevelName(LogLevelWarn))
	assert.Equal(t, "level(9)", LevelName(9))
}

func TestNewZapLogFuncs(t *testing.T) {
	funcs, sync, err := NewZapLogFuncs(ZapConfig{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	require.NotNil(t, sync)
	assert.NotNil(t, funcs.Infof)
	assert.NotNil(t, funcs.Errorf)

	_, _, err = NewZapLogFuncs(ZapConfig{Level: "loud"})
	assert.Error(t, err)
}
