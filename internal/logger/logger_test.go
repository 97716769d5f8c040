package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		development bool
		level       string
		wantLevel   zapcore.Level
	}{
		{"production default", false, "", zapcore.InfoLevel},
		{"development default", true, "", zapcore.DebugLevel},
		{"explicit warn", false, "warn", zapcore.WarnLevel},
		{"explicit debug in production", false, "debug", zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.development, tt.level)
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.wantLevel))
			assert.False(t, log.Core().Enabled(tt.wantLevel-1))
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(false, "verbose")
	assert.Error(t, err)
}
