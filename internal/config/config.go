package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration, loaded from YAML with environment
// overrides for deployment-specific values.
type Config struct {
	ListenAddr string          `yaml:"listen_addr"`
	DBPath     string          `yaml:"db_path"`
	BaseURL    string          `yaml:"base_url"`
	ChromePath string          `yaml:"chrome_path"`
	HTTP       HTTPConfig      `yaml:"http"`
	Share      ShareConfig     `yaml:"share"`
	Log        LogConfig       `yaml:"log"`
	Telemetry  TelemetryConfig `yaml:"telemetry"`
}

// HTTPConfig tunes the request-handling layer.
type HTTPConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// ShareConfig caps share-link creation per user. Zero disables a ceiling.
type ShareConfig struct {
	PerHour int `yaml:"per_hour"`
	PerDay  int `yaml:"per_day"`
}

// LogConfig controls log level and optional file output.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// TelemetryConfig controls trace export. An empty endpoint disables it.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

func defaults() Config {
	return Config{
		ListenAddr: ":8080",
		DBPath:     "reportd.db",
		BaseURL:    "http://localhost:8080",
		HTTP:       HTTPConfig{RequestsPerSecond: 50},
		Share:      ShareConfig{PerHour: 20, PerDay: 100},
		Log:        LogConfig{Level: "info"},
		Telemetry:  TelemetryConfig{ServiceName: "reportd"},
	}
}

// Load reads the YAML file at path, falling back to defaults when path is
// empty, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("REPORTD_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("REPORTD_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("REPORTD_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		c.ChromePath = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	}
}
