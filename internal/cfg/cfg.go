package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"score-predictor/internal/common"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	HTTPPort               int
	ColumnsPath            string
	AdaBoostModelPath      string
	GradientBoostModelPath string
	ManifestPath           string
	DataPath               string
	HistoryLimit           int
	RequestTimeout         time.Duration
	ReadTimeout            time.Duration
	WriteTimeout           time.Duration
	LogLevel               string
	LogFormat              string
}

type ConfigFile struct {
	Server struct {
		Port           int    `yaml:"port"`
		RequestTimeout string `yaml:"requestTimeout"`
		ReadTimeout    string `yaml:"readTimeout"`
		WriteTimeout   string `yaml:"writeTimeout"`
	} `yaml:"server"`

	Models struct {
		ColumnsPath       string `yaml:"columnsPath"`
		AdaBoostPath      string `yaml:"adaBoostPath"`
		GradientBoostPath string `yaml:"gradientBoostPath"`
		ManifestPath      string `yaml:"manifestPath"`
	} `yaml:"models"`

	Storage struct {
		DataPath     string `yaml:"dataPath"`
		HistoryLimit int    `yaml:"historyLimit"`
	} `yaml:"storage"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

func Load() (Settings, error) {
	if err := loadDotenv(getEnvOrDefault(common.EnvDotenvFile, common.DefaultDotenvFile)); err != nil {
		return Settings{}, err
	}

	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

// loadDotenv populates the environment from a .env file without overriding
// variables that are already set. A missing file is not an error.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	settings := Settings{
		HTTPPort:               getIntFromEnvOrConfig(common.EnvHTTPPort, config.Server.Port, common.DefaultHTTPPort),
		ColumnsPath:            getEnvOrDefault(common.EnvColumnsPath, orDefault(config.Models.ColumnsPath, common.DefaultColumnsPath)),
		AdaBoostModelPath:      getEnvOrDefault(common.EnvAdaBoostModelPath, orDefault(config.Models.AdaBoostPath, common.DefaultAdaBoostModelPath)),
		GradientBoostModelPath: getEnvOrDefault(common.EnvGradientBoostModelPath, orDefault(config.Models.GradientBoostPath, common.DefaultGradientBoostModelPath)),
		ManifestPath:           getEnvOrDefault(common.EnvManifestPath, config.Models.ManifestPath),
		DataPath:               getEnvOrDefault(common.EnvDataPath, config.Storage.DataPath),
		HistoryLimit:           getIntFromEnvOrConfig(common.EnvHistoryLimit, config.Storage.HistoryLimit, common.DefaultHistoryLimit),
		RequestTimeout:         getDurationFromEnvOrConfig(common.EnvRequestTimeout, config.Server.RequestTimeout, 5*time.Second),
		ReadTimeout:            getDurationFromEnvOrConfig(common.EnvReadTimeout, config.Server.ReadTimeout, 10*time.Second),
		WriteTimeout:           getDurationFromEnvOrConfig(common.EnvWriteTimeout, config.Server.WriteTimeout, 10*time.Second),
		LogLevel:               getEnvOrDefault(common.EnvLogLevel, orDefault(config.Logging.Level, common.DefaultLogLevel)),
		LogFormat:              getEnvOrDefault(common.EnvLogFormat, orDefault(config.Logging.Format, common.DefaultLogFormat)),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		HTTPPort:               getIntOrDefault(common.EnvHTTPPort, common.DefaultHTTPPort),
		ColumnsPath:            getEnvOrDefault(common.EnvColumnsPath, common.DefaultColumnsPath),
		AdaBoostModelPath:      getEnvOrDefault(common.EnvAdaBoostModelPath, common.DefaultAdaBoostModelPath),
		GradientBoostModelPath: getEnvOrDefault(common.EnvGradientBoostModelPath, common.DefaultGradientBoostModelPath),
		ManifestPath:           os.Getenv(common.EnvManifestPath), // optional
		DataPath:               os.Getenv(common.EnvDataPath),     // optional
		HistoryLimit:           getIntOrDefault(common.EnvHistoryLimit, common.DefaultHistoryLimit),
		RequestTimeout:         getDurationOrDefault(common.EnvRequestTimeout, 5*time.Second),
		ReadTimeout:            getDurationOrDefault(common.EnvReadTimeout, 10*time.Second),
		WriteTimeout:           getDurationOrDefault(common.EnvWriteTimeout, 10*time.Second),
		LogLevel:               getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:              getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// HistoryEnabled reports whether predictions should be persisted.
func (s *Settings) HistoryEnabled() bool {
	return s.DataPath != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func orDefault(v, defaultValue string) string {
	if v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getDurationFromEnvOrConfig(key, configValue string, defaultValue time.Duration) time.Duration {
	if env := os.Getenv(key); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			return d
		}
	}
	if configValue != "" {
		if d, err := time.ParseDuration(configValue); err == nil {
			return d
		}
	}
	return defaultValue
}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	// Validate artifact paths
	if settings.ColumnsPath == "" {
		return fmt.Errorf("columns path cannot be empty")
	}
	if settings.AdaBoostModelPath == "" || settings.GradientBoostModelPath == "" {
		return fmt.Errorf("both model paths are required")
	}

	// Validate integer values
	if settings.HTTPPort < common.MinHTTPPort || settings.HTTPPort > common.MaxHTTPPort {
		return fmt.Errorf("HTTP port must be between %d and %d, got %d", common.MinHTTPPort, common.MaxHTTPPort, settings.HTTPPort)
	}
	if settings.HistoryLimit < common.MinHistoryLimit || settings.HistoryLimit > common.MaxHistoryLimit {
		return fmt.Errorf("history limit must be between %d and %d, got %d", common.MinHistoryLimit, common.MaxHistoryLimit, settings.HistoryLimit)
	}

	// Validate time durations
	if settings.RequestTimeout < time.Second || settings.RequestTimeout > time.Minute {
		return fmt.Errorf("request timeout must be between 1s and 1m, got %v", settings.RequestTimeout)
	}
	if settings.ReadTimeout < time.Second || settings.ReadTimeout > 5*time.Minute {
		return fmt.Errorf("read timeout must be between 1s and 5m, got %v", settings.ReadTimeout)
	}
	if settings.WriteTimeout < time.Second || settings.WriteTimeout > 5*time.Minute {
		return fmt.Errorf("write timeout must be between 1s and 5m, got %v", settings.WriteTimeout)
	}

	// Validate logging
	switch strings.ToLower(settings.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}
	switch settings.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log format must be console or json, got %q", settings.LogFormat)
	}

	return nil
}
