// Package config содержит логику чтения конфигурации приложения спортзала.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress = "localhost:8080"
	defaultDataFile   = "apolo-gym-data.json"
)

// Config содержит параметры конфигурации приложения спортзала.
type Config struct {
	RunAddress        string        `env:"RUN_ADDRESS"`
	DataFile          string        `env:"DATA_FILE"`
	DatabaseURI       string        `env:"DATABASE_URI"`
	AllowedOrigins    []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	SaveRetryInterval time.Duration `env:"SAVE_RETRY_INTERVAL" envDefault:"30s"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDataFile := cfg.DataFile
	envDatabaseURI := cfg.DatabaseURI

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DataFile, "f", defaultDataFile, "path to the JSON data file")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI, replaces the data file when set")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDataFile != "" {
		cfg.DataFile = envDataFile
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.DataFile == "" {
		cfg.DataFile = defaultDataFile
	}

	return cfg, nil
}
