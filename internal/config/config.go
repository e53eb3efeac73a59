// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxUploadPhotos is the hard cap on photos per entry.
const MaxUploadPhotos = 5

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Storage   StorageConfig
	Server    ServerConfig
	Uploads   UploadsConfig
	Generator GeneratorConfig
	Import    ImportConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig holds local storage configuration.
type StorageConfig struct {
	// DataPath is the base directory for the entry store and mirror
	// (default: ~/Daybook/data).
	DataPath string
	// MaxEntryBytes caps the encoded size of a single entry in the durable
	// store. Writes over the cap fail with STORAGE_EXHAUSTED so the save
	// path can run its compression ladder (default: 8 MiB).
	MaxEntryBytes int
	// MirrorMaxBytes is the byte budget for the metadata mirror
	// (default: 4 MiB, mirroring a browser localStorage quota).
	MirrorMaxBytes int
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name          string
	Port          string        // Server port (default: 8080)
	ReadTimeout   time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout  time.Duration // HTTP write timeout (default: 2m, generation proxying is slow)
	IdleTimeout   time.Duration // HTTP idle timeout (default: 60s)
	AdvertiseMDNS bool          // Advertise via mDNS/Zeroconf (default: true)
}

// UploadsConfig holds photo attachment configuration.
type UploadsConfig struct {
	// MaxPhotos is the per-entry photo cap (default: 5).
	MaxPhotos int
	// MaxDimension is the longest side of a downscaled photo (default: 1280).
	MaxDimension int
	// Quality is the JPEG quality for downscaled photos, 1-100 (default: 80).
	Quality int
}

// GeneratorConfig holds auto-diary generation configuration.
type GeneratorConfig struct {
	// URL of the remote generation endpoint. Empty disables remote generation.
	URL string
	// Timeout for the remote call (default: 90s).
	Timeout time.Duration
	// DefaultTone used when a request does not specify one (default: "neutral").
	DefaultTone string
	// RPS and Burst rate-limit generation requests per client.
	RPS   float64
	Burst int
}

// ImportConfig holds photo import watcher configuration.
type ImportConfig struct {
	// Path to watch for dropped photo files. Empty disables the watcher.
	Path string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for local storage")
	importPath := flag.String("import-path", "", "Directory to watch for dropped photos")
	serverName := flag.String("server-name", "", "Name for the server")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 2m)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	advertiseMDNS := flag.String("advertise-mdns", "", "Advertise via mDNS/Zeroconf (default: true)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Generator flags
	generatorURL := flag.String("generator-url", "", "Remote auto-diary endpoint URL")
	generatorTimeout := flag.String("generator-timeout", "", "Remote generation timeout (default: 90s)")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath:       getConfigValue(*dataPath, "DATA_PATH", ""),
			MaxEntryBytes:  getIntConfigValue("", "MAX_ENTRY_BYTES", 8<<20),
			MirrorMaxBytes: getIntConfigValue("", "MIRROR_MAX_BYTES", 4<<20),
		},
		Server: ServerConfig{
			Name:          getConfigValue(*serverName, "SERVER_NAME", "Daybook"),
			Port:          getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AdvertiseMDNS: getBoolConfigValue(*advertiseMDNS, "ADVERTISE_MDNS", true),
		},
		Uploads: UploadsConfig{
			MaxPhotos:    getIntConfigValue("", "UPLOAD_MAX_PHOTOS", MaxUploadPhotos),
			MaxDimension: getIntConfigValue("", "UPLOAD_MAX_DIMENSION", 1280),
			Quality:      getIntConfigValue("", "UPLOAD_QUALITY", 80),
		},
		Generator: GeneratorConfig{
			URL:         getConfigValue(*generatorURL, "GENERATOR_URL", ""),
			DefaultTone: getConfigValue("", "GENERATOR_TONE", "neutral"),
			RPS:         1,
			Burst:       3,
		},
		Import: ImportConfig{
			Path: getConfigValue(*importPath, "IMPORT_PATH", ""),
		},
	}

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "2m")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	// Parse generator timeout.
	generatorTimeoutStr := getConfigValue(*generatorTimeout, "GENERATOR_TIMEOUT", "90s")
	generatorTimeoutDuration, err := time.ParseDuration(generatorTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid generator timeout %q: %w", generatorTimeoutStr, err)
	}
	cfg.Generator.Timeout = generatorTimeoutDuration

	// Expand and validate data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Expand import path if set.
	if err := cfg.expandImportPath(); err != nil {
		return nil, fmt.Errorf("invalid import path: %w", err)
	}

	// Validate configuration.
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

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}
	if c.Storage.MaxEntryBytes <= 0 {
		return errors.New("MAX_ENTRY_BYTES must be positive")
	}
	if c.Storage.MirrorMaxBytes <= 0 {
		return errors.New("MIRROR_MAX_BYTES must be positive")
	}

	if c.Uploads.MaxPhotos < 1 || c.Uploads.MaxPhotos > MaxUploadPhotos {
		return fmt.Errorf("UPLOAD_MAX_PHOTOS must be between 1 and %d", MaxUploadPhotos)
	}
	if c.Uploads.Quality < 1 || c.Uploads.Quality > 100 {
		return errors.New("UPLOAD_QUALITY must be between 1 and 100")
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

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Daybook", "data")

	expanded, err := expandPath(c.Storage.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// expandImportPath expands ~ and makes the path absolute.
// If empty, leaves it empty and the import watcher stays disabled.
func (c *Config) expandImportPath() error {
	if c.Import.Path == "" {
		return nil
	}

	expanded, err := expandPath(c.Import.Path, "")
	if err != nil {
		return err
	}
	c.Import.Path = expanded
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

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
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

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
