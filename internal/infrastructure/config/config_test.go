package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory with XDG dirs pointing into it.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data", "mhouse", "model.json"), cfg.Model.Path)
	assert.Equal(t, filepath.Join(dir, "data", "mhouse", "train.csv"), cfg.Dataset.Path)
	assert.Equal(t, "SalePrice", cfg.Dataset.Target)
	assert.Equal(t, "Id", cfg.Dataset.ID)
	assert.Equal(t, ',', cfg.Dataset.DelimiterRune())
	assert.Equal(t, DefaultDashboardURL, cfg.Dashboard.URL)
	assert.Equal(t, 1400, cfg.Dashboard.Width)
	assert.Equal(t, 900, cfg.Dashboard.Height)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Server.Lazy)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "none", cfg.Metrics.Exporter)
	assert.False(t, cfg.Tracing.OTel().Enabled())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("MHOUSE_MODEL_PATH", "/srv/model.json.gz")
	t.Setenv("MHOUSE_DATASET_DELIMITER", ";")
	t.Setenv("MHOUSE_SERVER_PORT", "9090")
	t.Setenv("MHOUSE_METRICS_EXPORTER", "prometheus")
	t.Setenv("MHOUSE_TRACING_ENDPOINT", "collector:4318")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "/srv/model.json.gz", cfg.Model.Path)
	assert.Equal(t, ';', cfg.Dataset.DelimiterRune())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "prometheus", cfg.Metrics.Exporter)
	assert.Equal(t, "collector:4318", cfg.Tracing.Endpoint)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	yaml := "dashboard:\n  url: https://example.com/viz\n  height: 600\nlogging:\n  level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mhouse.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/viz", cfg.Dashboard.URL)
	assert.Equal(t, 600, cfg.Dashboard.Height)
	assert.Equal(t, 1400, cfg.Dashboard.Width)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MHOUSE_DATASET_TARGET=Price\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("MHOUSE_DATASET_TARGET") })

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "Price", cfg.Dataset.Target)
}

func TestLoad_FlagsWin(t *testing.T) {
	isolate(t)
	t.Setenv("MHOUSE_SERVER_PORT", "9090")

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.Int("port", 8080, "")
	flags.Bool("lazy", false, "")
	require.NoError(t, flags.Parse([]string{"--port", "3000", "--lazy"}))

	cfg, err := Load(flags)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.True(t, cfg.Server.Lazy)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"MHOUSE_SERVER_PORT": "0"}},
		{"bad level", map[string]string{"MHOUSE_LOGGING_LEVEL": "loud"}},
		{"bad exporter", map[string]string{"MHOUSE_METRICS_EXPORTER": "statsd"}},
		{"otlp without endpoint", map[string]string{"MHOUSE_METRICS_EXPORTER": "otlp"}},
		{"long delimiter", map[string]string{"MHOUSE_DATASET_DELIMITER": "::"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(nil)
			assert.Error(t, err)
		})
	}
}
