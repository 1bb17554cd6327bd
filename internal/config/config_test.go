package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/facturae-processor/internal/codes"
	"github.com/rezonia/facturae-processor/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(20<<20), cfg.Server.MaxUploadSize)
	assert.Equal(t, "Europe/Madrid", cfg.Server.TimeZone)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "A4", cfg.Render.PageSize)
	assert.True(t, cfg.Render.Compress)

	assert.Equal(t, cfg, config.Default())
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
  read_timeout: 5s
  time_zone: Atlantic/Canary
logger:
  level: debug
  format: console
render:
  page_size: Letter
  compress: false
`)

	cfg, err := config.Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "Atlantic/Canary", cfg.Server.TimeZone)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "Letter", cfg.Render.PageSize)
	assert.False(t, cfg.Render.Compress)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "server:\n  port: 9090\n")
	t.Setenv("FACTURAE_SERVER_PORT", "7070")

	cfg, err := config.Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_DotEnv(t *testing.T) {
	// godotenv never overrides variables that are already set, so register
	// the key with t.Setenv first to get it cleaned up, then unset it.
	t.Setenv("FACTURAE_LOGGER_LEVEL", "")
	require.NoError(t, os.Unsetenv("FACTURAE_LOGGER_LEVEL"))

	env := writeFile(t, ".env", "FACTURAE_LOGGER_LEVEL=warn\n")

	cfg, err := config.Load("", env)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	_, err := config.Load("", filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"port out of range", "server:\n  port: 70000\n"},
		{"unknown time zone", "server:\n  time_zone: Mars/Olympus\n"},
		{"unknown log format", "logger:\n  format: xml\n"},
		{"no upload size", "server:\n  max_upload_size: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, "config.yaml", tt.content), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}

func TestLoad_CodeOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", `
codes:
  payment-means:
    "04": Transferencia bancaria
    "99": Bizum
  invoice-class:
    OC: Original corregida
`)

	cfg, err := config.Load(path, "")
	require.NoError(t, err)

	r := cfg.Resolver()
	tests := []struct {
		name  string
		table codes.TableID
		code  string
		want  string
	}{
		{"replaced", codes.PaymentMeans, "04", "Transferencia bancaria"},
		{"added", codes.PaymentMeans, "99", "Bizum"},
		{"letter code keeps its case", codes.InvoiceClass, "OC", "Original corregida"},
		{"untouched", codes.PaymentMeans, "01", "Al contado"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := r.Resolve(tt.table, tt.code)
			assert.True(t, c.Known)
			assert.Equal(t, tt.want, c.Text)
		})
	}

	assert.Equal(t, "Transferencia", config.Default().Resolver().Resolve(codes.PaymentMeans, "04").Text)
}

func TestLoad_UnknownCodeTable(t *testing.T) {
	path := writeFile(t, "config.yaml", `
codes:
  currencies:
    EUR: Euro
`)

	_, err := config.Load(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown table "currencies"`)
}
