package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/emiliopalmerini/mhouse/internal/adapters/otel"
	"github.com/emiliopalmerini/mhouse/internal/adapters/storage"
	"github.com/emiliopalmerini/mhouse/internal/util"
)

// EnvPrefix prefixes every environment override, e.g. MHOUSE_MODEL_PATH.
const EnvPrefix = "MHOUSE"

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"port":      "server.port",
	"lazy":      "server.lazy",
	"model":     "model.path",
	"dataset":   "dataset.path",
	"log-level": "logging.level",
}

// Load resolves configuration from defaults, an optional mhouse.yaml, a .env
// file, MHOUSE_* environment variables and the given flags, in increasing
// order of precedence. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	if err := setDefaults(v); err != nil {
		return nil, err
	}

	v.SetConfigName("mhouse")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := util.GetXDGConfigDir(); err == nil {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) error {
	modelPath, err := storage.DefaultPath(storage.DefaultModelFile)
	if err != nil {
		return fmt.Errorf("failed to resolve default model path: %w", err)
	}
	datasetPath, err := storage.DefaultPath(storage.DefaultDatasetFile)
	if err != nil {
		return fmt.Errorf("failed to resolve default dataset path: %w", err)
	}

	v.SetDefault("model.path", modelPath)
	v.SetDefault("dataset.path", datasetPath)
	v.SetDefault("dataset.target", "SalePrice")
	v.SetDefault("dataset.id", "Id")
	v.SetDefault("dataset.delimiter", ",")
	v.SetDefault("dashboard.url", DefaultDashboardURL)
	v.SetDefault("dashboard.width", 1400)
	v.SetDefault("dashboard.height", 900)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.lazy", false)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("metrics.exporter", otel.ExporterNone)
	v.SetDefault("metrics.endpoint", "")
	v.SetDefault("metrics.insecure", true)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	return nil
}

// loadEnvFile loads .env from the working directory when present. Variables
// already set in the environment win.
func loadEnvFile() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	_ = godotenv.Load(".env")
}
