// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Backend BackendConfig
	Wizard  WizardConfig
	Store   StoreConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8090)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string      // Allowed origins (default: *)
	RateLimit    int           // Requests per second per client IP, 0 disables (default: 20)
	RateBurst    int           // Burst per client IP (default: 40)
}

// BackendConfig holds the REST collaborator configuration.
type BackendConfig struct {
	URL     string
	Timeout time.Duration // Per-call timeout (default: 10s)
	RPS     int           // Requests per second per operation (default: 5)
	Burst   int           // Burst per operation (default: 10)
}

// WizardConfig holds onboarding session configuration.
type WizardConfig struct {
	AnalysisDelay    time.Duration // Cosmetic delay before submission (default: 2s)
	BooksPerGenre    int           // Candidates fetched per genre (default: 12)
	MaxPurposes      int           // Purpose selection cap (default: 3)
	FetchConcurrency int           // Parallel book fetches (default: 4)
	SessionTTL       time.Duration // Idle session lifetime (default: 30m)
}

// StoreConfig holds submission journal configuration.
type StoreConfig struct {
	DataPath string
}

// DatabasePath returns the journal database file.
func (s StoreConfig) DatabasePath() string {
	return filepath.Join(s.DataPath, "onboarding.db")
}

// flagValues holds raw flag strings; empty means unset.
type flagValues struct {
	env, logLevel, port                       string
	readTimeout, writeTimeout, idleTimeout    string
	corsOrigins, rateLimit, rateBurst         string
	backendURL, backendTimeout                string
	backendRPS, backendBurst                  string
	analysisDelay, booksPerGenre, maxPurposes string
	fetchConcurrency, sessionTTL              string
	dataPath, envFile                         string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("listenup-onboarding", flag.ContinueOnError)
	var f flagValues

	fs.StringVar(&f.env, "env", "", "Environment (development, staging, production)")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	// Server flags
	fs.StringVar(&f.port, "port", "", "Server port (default: 8090)")
	fs.StringVar(&f.readTimeout, "read-timeout", "", "HTTP read timeout (default: 15s)")
	fs.StringVar(&f.writeTimeout, "write-timeout", "", "HTTP write timeout (default: 15s)")
	fs.StringVar(&f.idleTimeout, "idle-timeout", "", "HTTP idle timeout (default: 60s)")
	fs.StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated allowed origins (default: *)")
	fs.StringVar(&f.rateLimit, "rate-limit", "", "Requests per second per client IP, 0 disables (default: 20)")
	fs.StringVar(&f.rateBurst, "rate-burst", "", "Request burst per client IP (default: 40)")

	// Backend flags
	fs.StringVar(&f.backendURL, "backend-url", "", "Base URL of the ListenUp REST backend")
	fs.StringVar(&f.backendTimeout, "backend-timeout", "", "Per-call backend timeout (default: 10s)")
	fs.StringVar(&f.backendRPS, "backend-rps", "", "Backend requests per second per operation (default: 5)")
	fs.StringVar(&f.backendBurst, "backend-burst", "", "Backend burst per operation (default: 10)")

	// Wizard flags
	fs.StringVar(&f.analysisDelay, "analysis-delay", "", "Delay shown before submission (default: 2s)")
	fs.StringVar(&f.booksPerGenre, "books-per-genre", "", "Candidate books fetched per genre (default: 12)")
	fs.StringVar(&f.maxPurposes, "max-purposes", "", "Maximum reading purposes (default: 3)")
	fs.StringVar(&f.fetchConcurrency, "fetch-concurrency", "", "Parallel book fetches (default: 4)")
	fs.StringVar(&f.sessionTTL, "session-ttl", "", "Idle wizard session lifetime (default: 30m)")

	fs.StringVar(&f.dataPath, "data-path", "", "Directory for the submission journal")
	fs.StringVar(&f.envFile, "env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return load(f, nil)
}

// LoadEnv loads configuration from the environment and envFile only. Callers
// with their own flag parsing set fields in override, which runs before
// validation. override may be nil.
func LoadEnv(envFile string, override func(*Config)) (*Config, error) {
	return load(flagValues{envFile: envFile}, override)
}

func load(f flagValues, override func(*Config)) (*Config, error) {
	// Load .env file if it exists (silently ignore if not found).
	if f.envFile != "" {
		_ = loadEnvFile(f.envFile)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(f.env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(f.logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:        getConfigValue(f.port, "SERVER_PORT", "8090"),
			CORSOrigins: splitList(getConfigValue(f.corsOrigins, "CORS_ORIGINS", "*")),
			RateLimit:   getIntConfigValue(f.rateLimit, "SERVER_RATE_LIMIT", 20),
			RateBurst:   getIntConfigValue(f.rateBurst, "SERVER_RATE_BURST", 40),
		},
		Backend: BackendConfig{
			URL:   strings.TrimRight(getConfigValue(f.backendURL, "BACKEND_URL", ""), "/"),
			RPS:   getIntConfigValue(f.backendRPS, "BACKEND_RPS", 5),
			Burst: getIntConfigValue(f.backendBurst, "BACKEND_BURST", 10),
		},
		Wizard: WizardConfig{
			BooksPerGenre:    getIntConfigValue(f.booksPerGenre, "WIZARD_BOOKS_PER_GENRE", 12),
			MaxPurposes:      getIntConfigValue(f.maxPurposes, "WIZARD_MAX_PURPOSES", 3),
			FetchConcurrency: getIntConfigValue(f.fetchConcurrency, "WIZARD_FETCH_CONCURRENCY", 4),
		},
		Store: StoreConfig{
			DataPath: getConfigValue(f.dataPath, "DATA_PATH", ""),
		},
	}

	durations := []struct {
		dst          *time.Duration
		flag, envKey string
		def, name    string
	}{
		{&cfg.Server.ReadTimeout, f.readTimeout, "SERVER_READ_TIMEOUT", "15s", "read timeout"},
		{&cfg.Server.WriteTimeout, f.writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", "write timeout"},
		{&cfg.Server.IdleTimeout, f.idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", "idle timeout"},
		{&cfg.Backend.Timeout, f.backendTimeout, "BACKEND_TIMEOUT", "10s", "backend timeout"},
		{&cfg.Wizard.AnalysisDelay, f.analysisDelay, "WIZARD_ANALYSIS_DELAY", "2s", "analysis delay"},
		{&cfg.Wizard.SessionTTL, f.sessionTTL, "WIZARD_SESSION_TTL", "30m", "session ttl"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.dst = parsed
	}

	if override != nil {
		override(cfg)
		cfg.Backend.URL = strings.TrimRight(cfg.Backend.URL, "/")
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
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

	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return errors.New("server rate limit cannot be negative")
	}

	if c.Backend.URL == "" {
		return errors.New("BACKEND_URL is required")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend url: %s (must be an absolute http or https URL)", c.Backend.URL)
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("backend timeout must be positive")
	}
	if c.Backend.RPS <= 0 || c.Backend.Burst <= 0 {
		return errors.New("backend rate limit must be positive")
	}

	if c.Wizard.AnalysisDelay < 0 {
		return errors.New("analysis delay cannot be negative")
	}
	if c.Wizard.BooksPerGenre <= 0 {
		return errors.New("books per genre must be positive")
	}
	if c.Wizard.MaxPurposes <= 0 {
		return errors.New("max purposes must be positive")
	}
	if c.Wizard.FetchConcurrency <= 0 {
		return errors.New("fetch concurrency must be positive")
	}
	if c.Wizard.SessionTTL <= 0 {
		return errors.New("session ttl must be positive")
	}

	if c.Store.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults to ~/ListenUp/onboarding.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "ListenUp", "onboarding")

	expanded, err := expandPath(c.Store.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Store.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

func splitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
