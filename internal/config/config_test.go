package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearLoaderEnv unsets every variable Load reads so tests start from a
// known-empty environment. t.Setenv registers the restore for us.
func clearLoaderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"DATA_DIR", "BATCH_SIZE", "JOB_NAME", "METRICS_BACKEND", "PUSHGATEWAY_URL",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearLoaderEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBHost != DefaultHost {
		t.Fatalf("DBHost = %q, want %q", cfg.DBHost, DefaultHost)
	}
	if cfg.DBPort != DefaultPort {
		t.Fatalf("DBPort = %d, want %d", cfg.DBPort, DefaultPort)
	}
	if cfg.DBUser != DefaultUser {
		t.Fatalf("DBUser = %q, want %q", cfg.DBUser, DefaultUser)
	}
	if cfg.DBName != DefaultDBName {
		t.Fatalf("DBName = %q, want %q", cfg.DBName, DefaultDBName)
	}
	if cfg.SSLMode != DefaultSSLMode {
		t.Fatalf("SSLMode = %q, want %q", cfg.SSLMode, DefaultSSLMode)
	}
	if cfg.DataDir != DefaultDataDir {
		t.Fatalf("DataDir = %q, want %q", cfg.DataDir, DefaultDataDir)
	}
	if cfg.BatchSize != 0 {
		t.Fatalf("BatchSize = %d, want 0", cfg.BatchSize)
	}
	if cfg.Job != DefaultJobName {
		t.Fatalf("Job = %q, want %q", cfg.Job, DefaultJobName)
	}
	if cfg.MetricsBackend != "none" {
		t.Fatalf("MetricsBackend = %q, want none", cfg.MetricsBackend)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearLoaderEnv(t)

	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "loader")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_NAME", "marketplace")
	t.Setenv("DATA_DIR", "/srv/datasets")
	t.Setenv("BATCH_SIZE", "25000")
	t.Setenv("METRICS_BACKEND", "prompush")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBHost != "db.internal" || cfg.DBPort != 5433 {
		t.Fatalf("host/port = %q/%d, want db.internal/5433", cfg.DBHost, cfg.DBPort)
	}
	if cfg.DBUser != "loader" || cfg.DBPassword != "s3cret" || cfg.DBName != "marketplace" {
		t.Fatalf("credentials decoded wrong: %+v", cfg)
	}
	if cfg.DataDir != "/srv/datasets" {
		t.Fatalf("DataDir = %q, want /srv/datasets", cfg.DataDir)
	}
	if cfg.BatchSize != 25000 {
		t.Fatalf("BatchSize = %d, want 25000", cfg.BatchSize)
	}
	if cfg.MetricsBackend != "prompush" {
		t.Fatalf("MetricsBackend = %q, want prompush", cfg.MetricsBackend)
	}
}

func TestLoad_BadPort(t *testing.T) {
	clearLoaderEnv(t)
	t.Setenv("DB_PORT", "not-a-number")

	if _, err := Load(""); err == nil {
		t.Fatal("Load accepted a non-numeric DB_PORT")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearLoaderEnv(t)

	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "DB_NAME=from_file\nDATA_DIR=/data/from-file\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	// Real environment wins over the file.
	t.Setenv("DATA_DIR", "/data/from-env")

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBName != "from_file" {
		t.Fatalf("DBName = %q, want from_file", cfg.DBName)
	}
	if cfg.DataDir != "/data/from-env" {
		t.Fatalf("DataDir = %q, want /data/from-env (env should win)", cfg.DataDir)
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	clearLoaderEnv(t)

	// A default ".env" that does not exist is fine.
	if _, err := Load(".env"); err != nil {
		t.Fatalf("Load(.env) with no file: %v", err)
	}

	// An explicitly named file that does not exist is an error.
	if _, err := Load(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Fatal("Load accepted a missing explicit env file")
	}
}

func TestDSN(t *testing.T) {
	t.Parallel()

	cfg := Config{
		DBHost:     "localhost",
		DBPort:     5432,
		DBUser:     "postgres",
		DBPassword: "pw",
		DBName:     "airbnb",
		SSLMode:    "disable",
	}

	got := cfg.DSN()
	want := "postgres://postgres:pw@localhost:5432/airbnb?sslmode=disable"
	if got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(got, "postgres://") {
		t.Fatalf("DSN() = %q, want postgres:// scheme", got)
	}
}
