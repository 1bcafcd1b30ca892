// Package config defines the explicit runtime configuration for the loader.
//
// Configuration comes from the process environment, optionally seeded from a
// .env file. Every knob has a documented default so a bare environment still
// produces a usable config for local development; production runs override
// the database settings.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultHost    = "localhost"
	DefaultPort    = 5432
	DefaultUser    = "postgres"
	DefaultDBName  = "airbnb"
	DefaultSSLMode = "disable"
	DefaultDataDir = "data"
	DefaultJobName = "airbnb_load"
	DefaultGateway = "http://localhost:9091"
)

// Config holds everything the loader needs for a run.
type Config struct {
	// Database connection parameters.
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	SSLMode    string

	// DataDir is the directory holding the dataset files.
	DataDir string

	// BatchSize overrides the per-dataset chunk size when > 0.
	BatchSize int

	// Job is the name used for metrics labeling and Pushgateway grouping.
	Job string

	// MetricsBackend selects the metrics implementation: "none" or "prompush".
	MetricsBackend string

	// PushgatewayURL is the Prometheus Pushgateway base URL for "prompush".
	PushgatewayURL string
}

// Load reads configuration from the environment. When envFile is non-empty
// the file is loaded first; variables already present in the environment win.
// A missing default ".env" is not an error, but an explicitly named file that
// cannot be read is.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if envFile != ".env" || !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
			}
		}
	}

	port, err := getenvInt("DB_PORT", DefaultPort)
	if err != nil {
		return Config{}, err
	}
	batch, err := getenvInt("BATCH_SIZE", 0)
	if err != nil {
		return Config{}, err
	}

	return Config{
		DBHost:         getenv("DB_HOST", DefaultHost),
		DBPort:         port,
		DBUser:         getenv("DB_USER", DefaultUser),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         getenv("DB_NAME", DefaultDBName),
		SSLMode:        getenv("DB_SSLMODE", DefaultSSLMode),
		DataDir:        getenv("DATA_DIR", DefaultDataDir),
		BatchSize:      batch,
		Job:            getenv("JOB_NAME", DefaultJobName),
		MetricsBackend: getenv("METRICS_BACKEND", "none"),
		PushgatewayURL: getenv("PUSHGATEWAY_URL", DefaultGateway),
	}, nil
}

// DSN renders the pgx connection string for this config.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.SSLMode)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", key, v, err)
	}
	return n, nil
}
