package config

import (
	"fmt"
	"time"

	"github.com/emiliopalmerini/mhouse/internal/adapters/otel"
	"github.com/emiliopalmerini/mhouse/internal/logger"
)

// DefaultDashboardURL is the public Tableau view embedded on the dashboard page.
const DefaultDashboardURL = "https://public.tableau.com/views/House_Price_17630990066190/HousePriceGraphs?:embed=yes&:showVizHome=no"

// Config is the full mhouse configuration.
type Config struct {
	Model     ModelConfig     `mapstructure:"model"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ModelConfig struct {
	Path string `mapstructure:"path"`
}

type DatasetConfig struct {
	Path      string `mapstructure:"path"`
	Target    string `mapstructure:"target"`
	ID        string `mapstructure:"id"`
	Delimiter string `mapstructure:"delimiter"`
}

// DelimiterRune returns the single-character field separator.
func (d DatasetConfig) DelimiterRune() rune {
	r := []rune(d.Delimiter)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}

type DashboardConfig struct {
	URL    string `mapstructure:"url"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Lazy            bool          `mapstructure:"lazy"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MetricsConfig struct {
	Exporter string `mapstructure:"exporter"`
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// OTel converts the metrics section into the exporter configuration.
func (m MetricsConfig) OTel() otel.Config {
	return otel.Config{Exporter: m.Exporter, Endpoint: m.Endpoint, Insecure: m.Insecure}
}

type TracingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// OTel converts the tracing section into the exporter configuration.
func (t TracingConfig) OTel() otel.TracingConfig {
	return otel.TracingConfig{Endpoint: t.Endpoint, Insecure: t.Insecure}
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if c.Model.Path == "" {
		return fmt.Errorf("model.path is required")
	}
	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset.path is required")
	}
	if c.Dataset.Target == "" {
		return fmt.Errorf("dataset.target is required")
	}
	if len([]rune(c.Dataset.Delimiter)) > 1 {
		return fmt.Errorf("dataset.delimiter must be a single character, got %q", c.Dataset.Delimiter)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Dashboard.Width <= 0 || c.Dashboard.Height <= 0 {
		return fmt.Errorf("dashboard size must be positive, got %dx%d", c.Dashboard.Width, c.Dashboard.Height)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if err := c.Metrics.OTel().Validate(); err != nil {
		return err
	}
	return nil
}
