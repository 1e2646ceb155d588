package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewIsNop(t *testing.T) {
	l := New()
	require.NotNil(t, l.Log)
	assert.False(t, l.Log.Core().Enabled(zapcore.ErrorLevel))
}

func TestInitLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"WARN", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New()
			require.NoError(t, l.Init(tt.level))
			assert.True(t, l.Log.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Log.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestInitOff(t *testing.T) {
	l := New()
	require.NoError(t, l.Init("debug"))
	require.NoError(t, l.Init(Off))
	assert.False(t, l.Log.Core().Enabled(zapcore.ErrorLevel))

	require.NoError(t, l.Init(""))
	assert.False(t, l.Log.Core().Enabled(zapcore.ErrorLevel))
}

func TestInitInvalid(t *testing.T) {
	l := New()
	assert.Error(t, l.Init("loud"))
	assert.NotNil(t, l.Log)
}
