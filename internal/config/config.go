// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Server   ServerConfig
	Pipeline PipelineConfig
	Ingest   IngestConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DatabaseConfig holds catalog storage configuration.
type DatabaseConfig struct {
	// Path to the SQLite database file. Defaults to ~/Booksky/booksky.db.
	Path string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// PipelineConfig holds the classification pipeline thresholds.
// These are the tunables the extraction, resolution, and classification
// stages read; they are loaded once and injected, never read from globals.
type PipelineConfig struct {
	// ConfidenceFloor is the minimum extraction confidence for a candidate
	// span to be reported at all (default: 0.40).
	ConfidenceFloor float64
	// FuzzyThreshold is the minimum title similarity for a fuzzy catalog
	// match to reuse an existing book (default: 0.85).
	FuzzyThreshold float64
	// CreationThreshold is the minimum span confidence required to create
	// a new book when no catalog match exists (default: 0.75).
	CreationThreshold float64
	// MinGenreScore is the minimum keyword-signature score for a genre to
	// be assigned; below it the Unclassified fallback is used (default: 1.0).
	MinGenreScore float64
}

// IngestConfig holds ingestion worker configuration.
type IngestConfig struct {
	// Workers is the number of concurrent pipeline workers (default: 4).
	Workers int
	// RateLimitRPS is the per-client request rate on the ingest endpoint.
	RateLimitRPS float64
	// RateLimitBurst is the per-client burst on the ingest endpoint.
	RateLimitBurst int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dbPath := flag.String("db-path", "", "Path to the SQLite database file")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	confidenceFloor := flag.String("confidence-floor", "", "Minimum extraction confidence (default: 0.40)")
	fuzzyThreshold := flag.String("fuzzy-threshold", "", "Minimum fuzzy title similarity (default: 0.85)")
	creationThreshold := flag.String("creation-threshold", "", "Minimum confidence to create a book (default: 0.75)")
	minGenreScore := flag.String("min-genre-score", "", "Minimum genre signature score (default: 1.0)")
	ingestWorkers := flag.String("ingest-workers", "", "Concurrent pipeline workers (default: 4)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Path: getConfigValue(*dbPath, "DATABASE_PATH", ""),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Pipeline: PipelineConfig{
			ConfidenceFloor:   getFloatConfigValue(*confidenceFloor, "CONFIDENCE_FLOOR", 0.40),
			FuzzyThreshold:    getFloatConfigValue(*fuzzyThreshold, "FUZZY_THRESHOLD", 0.85),
			CreationThreshold: getFloatConfigValue(*creationThreshold, "CREATION_THRESHOLD", 0.75),
			MinGenreScore:     getFloatConfigValue(*minGenreScore, "MIN_GENRE_SCORE", 1.0),
		},
		Ingest: IngestConfig{
			Workers:        getIntConfigValue(*ingestWorkers, "INGEST_WORKERS", 4),
			RateLimitRPS:   getFloatConfigValue("", "INGEST_RATE_RPS", 5),
			RateLimitBurst: getIntConfigValue("", "INGEST_RATE_BURST", 10),
		},
	}

	// Parse server timeouts.
	var err error
	cfg.Server.ReadTimeout, err = parseDurationValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	cfg.Server.WriteTimeout, err = parseDurationValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	cfg.Server.IdleTimeout, err = parseDurationValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}

	if err := cfg.expandDatabasePath(); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Database.Path == "" {
		return errors.New("database path cannot be empty after expansion")
	}

	if err := c.Pipeline.Validate(); err != nil {
		return err
	}

	if c.Ingest.Workers < 1 {
		return fmt.Errorf("ingest workers must be at least 1, got %d", c.Ingest.Workers)
	}

	return nil
}

// Validate checks the pipeline thresholds are within range and coherent.
func (p PipelineConfig) Validate() error {
	for name, v := range map[string]float64{
		"confidence floor":   p.ConfidenceFloor,
		"fuzzy threshold":    p.FuzzyThreshold,
		"creation threshold": p.CreationThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, v)
		}
	}
	if p.CreationThreshold < p.ConfidenceFloor {
		return fmt.Errorf("creation threshold (%v) must not be below confidence floor (%v)",
			p.CreationThreshold, p.ConfidenceFloor)
	}
	if p.MinGenreScore < 0 {
		return fmt.Errorf("min genre score must be non-negative, got %v", p.MinGenreScore)
	}
	return nil
}

// expandDatabasePath expands ~ and makes the path absolute.
// Defaults to ~/Booksky/booksky.db.
func (c *Config) expandDatabasePath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Booksky", "booksky.db")

	expanded, err := expandPath(c.Database.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Database.Path = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return v
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return v
}

// parseDurationValue parses a duration from flag, env var, or default.
func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), strValue, err)
	}
	return d, nil
}

// loadEnvFile loads environment variables from a file in KEY=VALUE format.
// Existing environment variables are not overwritten.
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}

	return scanner.Err()
}
