package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all engine settings, populated from environment variables.
type Config struct {
	DataDir        string
	ThresholdsFile string
	MinKnownHours  int

	// Export sinks, each disabled while its path is empty.
	ExportDir  string
	SQLitePath string
	XLSXPath   string
	PDFPath    string

	ServeEnabled bool
	WatchEnabled bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is read first when
// present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	minKnownHours, err := parseMinKnownHours()
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	serveEnabled, err := parseBool("SERVE_ENABLED")
	if err != nil {
		return nil, err
	}

	watchEnabled, err := parseBool("WATCH_ENABLED")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:         envOrDefault("DATA_DIR", "./data"),
		ThresholdsFile:  os.Getenv("THRESHOLDS_FILE"),
		MinKnownHours:   minKnownHours,
		ExportDir:       os.Getenv("EXPORT_DIR"),
		SQLitePath:      os.Getenv("SQLITE_PATH"),
		XLSXPath:        os.Getenv("XLSX_PATH"),
		PDFPath:         os.Getenv("PDF_PATH"),
		ServeEnabled:    serveEnabled,
		WatchEnabled:    watchEnabled,
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.WatchEnabled && !cfg.ServeEnabled {
		return nil, errors.New("WATCH_ENABLED requires SERVE_ENABLED")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseMinKnownHours() (int, error) {
	s := envOrDefault("MIN_KNOWN_HOURS", "4")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 24 {
		return 0, errors.New("MIN_KNOWN_HOURS must be an integer between 1 and 24")
	}
	return n, nil
}

func parseShutdownTimeout() (time.Duration, error) {
	s := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	return d, nil
}

func parseBool(key string) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, s)
	}
	return b, nil
}
