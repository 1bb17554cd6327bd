package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rezonia/facturae-processor/internal/logging"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"nonsense", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := logging.NewLogger(logging.Config{Level: tt.level, OutputPath: "stderr"})
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, err := logging.NewLogger(logging.Config{Level: "info", Format: "json", OutputPath: path})
	require.NoError(t, err)

	logger.Info("invoice extracted", zap.String("invoice", "2024-A0042"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"invoice extracted"`)
	assert.Contains(t, string(data), `"invoice":"2024-A0042"`)
	assert.Contains(t, string(data), `"timestamp"`)
}

func TestNop(t *testing.T) {
	assert.NotNil(t, logging.Nop(nil))

	l := zap.NewExample()
	assert.Same(t, l, logging.Nop(l))
}
