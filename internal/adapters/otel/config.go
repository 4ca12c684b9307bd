package otel

import "fmt"

// Exporter names.
const (
	ExporterNone       = "none"
	ExporterOTLP       = "otlp"
	ExporterPrometheus = "prometheus"
)

// Config holds metrics exporter configuration.
type Config struct {
	Exporter string
	Endpoint string
	Insecure bool
}

// Validate checks the exporter name and its required settings.
func (c Config) Validate() error {
	switch c.Exporter {
	case ExporterNone, ExporterPrometheus:
		return nil
	case ExporterOTLP:
		if c.Endpoint == "" {
			return fmt.Errorf("metrics exporter %q requires an endpoint", c.Exporter)
		}
		return nil
	default:
		return fmt.Errorf("unknown metrics exporter %q", c.Exporter)
	}
}
