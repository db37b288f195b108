// Package cfg loads service configuration from a YAML file (selected
// via CONFIG_FILE) with environment-variable overrides, or from the
// environment alone. All paths, ports, and training knobs live here;
// no other package keeps mutable process-wide defaults.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the resolved runtime configuration.
type Settings struct {
	// Training data sources: file paths or HTTP(S) URLs.
	FistData string
	PalmData string

	// Artifact location and training knobs.
	ModelDir     string
	Seed         int64
	TestFraction float64
	Selection    string // "holdout" or "full"

	// Tracker stream.
	TrackerURL string
	Ping       time.Duration

	// Robot link, used by diagnostics only.
	RobotHost string
	RobotPort int

	// System.
	DataPath      string // optional BoltDB audit store location
	MetricsPort   int
	LoaderTimeout time.Duration
}

// ConfigFile is the YAML layout.
type ConfigFile struct {
	Data struct {
		Fist string `yaml:"fist"`
		Palm string `yaml:"palm"`
		Path string `yaml:"path"`
	} `yaml:"data"`

	Training struct {
		ModelDir     string  `yaml:"modelDir"`
		Seed         int64   `yaml:"seed"`
		TestFraction float64 `yaml:"testFraction"`
		Selection    string  `yaml:"selection"`
	} `yaml:"training"`

	Tracker struct {
		URL          string `yaml:"url"`
		PingInterval string `yaml:"pingInterval"`
	} `yaml:"tracker"`

	Robot struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"robot"`

	System struct {
		MetricsPort   int    `yaml:"metricsPort"`
		LoaderTimeout string `yaml:"loaderTimeout"`
	} `yaml:"system"`
}

// Load resolves settings from the YAML file named by CONFIG_FILE,
// falling back to environment variables alone.
func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
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

	ping, err := time.ParseDuration(config.Tracker.PingInterval)
	if err != nil {
		ping = 15 * time.Second
	}
	loaderTimeout, err := time.ParseDuration(config.System.LoaderTimeout)
	if err != nil {
		loaderTimeout = 10 * time.Second
	}

	settings := Settings{
		FistData:      getEnvOrDefault("FIST_DATA", config.Data.Fist),
		PalmData:      getEnvOrDefault("PALM_DATA", config.Data.Palm),
		ModelDir:      getEnvOrDefault("MODEL_DIR", defaultString(config.Training.ModelDir, "models/grip")),
		Seed:          getInt64FromEnvOrConfig("SEED", config.Training.Seed, 42),
		TestFraction:  getFloatFromEnvOrConfig("TEST_FRACTION", config.Training.TestFraction, 0.2),
		Selection:     getEnvOrDefault("SELECTION", defaultString(config.Training.Selection, "holdout")),
		TrackerURL:    getEnvOrDefault("TRACKER_URL", defaultString(config.Tracker.URL, "ws://127.0.0.1:9001/landmarks")),
		Ping:          ping,
		RobotHost:     getEnvOrDefault("ROBOT_HOST", defaultString(config.Robot.Host, "192.168.4.1")),
		RobotPort:     getIntFromEnvOrConfig("ROBOT_PORT", config.Robot.Port, 8000),
		DataPath:      getEnvOrDefault("DATA_PATH", config.Data.Path),
		MetricsPort:   getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort, 9090),
		LoaderTimeout: loaderTimeout,
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		FistData:      os.Getenv("FIST_DATA"),
		PalmData:      os.Getenv("PALM_DATA"),
		ModelDir:      getEnvOrDefault("MODEL_DIR", "models/grip"),
		Seed:          getInt64OrDefault("SEED", 42),
		TestFraction:  getFloatOrDefault("TEST_FRACTION", 0.2),
		Selection:     getEnvOrDefault("SELECTION", "holdout"),
		TrackerURL:    getEnvOrDefault("TRACKER_URL", "ws://127.0.0.1:9001/landmarks"),
		Ping:          getDurationOrDefault("PING_INTERVAL", 15*time.Second),
		RobotHost:     getEnvOrDefault("ROBOT_HOST", "192.168.4.1"),
		RobotPort:     getIntOrDefault("ROBOT_PORT", 8000),
		DataPath:      os.Getenv("DATA_PATH"), // optional
		MetricsPort:   getIntOrDefault("METRICS_PORT", 9090),
		LoaderTimeout: getDurationOrDefault("LOADER_TIMEOUT", 10*time.Second),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
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

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, def int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return def
}

func getInt64FromEnvOrConfig(key string, configValue, def int64) int64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseInt(env, 10, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return def
}

func getFloatFromEnvOrConfig(key string, configValue, def float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return def
}

// validateSettings rejects configurations the pipeline cannot run
// with.
func validateSettings(settings *Settings) error {
	if settings.TestFraction <= 0 || settings.TestFraction >= 1 {
		return fmt.Errorf("test fraction must be between 0 and 1 exclusive, got %f", settings.TestFraction)
	}
	if settings.Selection != "holdout" && settings.Selection != "full" {
		return fmt.Errorf("selection must be \"holdout\" or \"full\", got %q", settings.Selection)
	}
	if settings.ModelDir == "" {
		return fmt.Errorf("model directory cannot be empty")
	}
	if settings.MetricsPort < 1024 || settings.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if settings.Ping < time.Second || settings.Ping > 5*time.Minute {
		return fmt.Errorf("ping interval must be between 1s and 5m, got %v", settings.Ping)
	}
	if settings.RobotPort <= 0 || settings.RobotPort > 65535 {
		return fmt.Errorf("robot port must be between 1 and 65535, got %d", settings.RobotPort)
	}
	if settings.LoaderTimeout < time.Second || settings.LoaderTimeout > time.Minute {
		return fmt.Errorf("loader timeout must be between 1s and 1m, got %v", settings.LoaderTimeout)
	}
	return nil
}
