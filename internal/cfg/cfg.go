package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"flight-delay/internal/common"
	"flight-delay/internal/ml"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	ModelPath    string
	DataPath     string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LogLevel     string
	LogFormat    string
	Engine       string
	Booster      ml.BoosterParams
	PythonPath   string
	TrainTimeout time.Duration
}

type ConfigFile struct {
	Server struct {
		Port         int    `yaml:"port"`
		ReadTimeout  string `yaml:"readTimeout"`
		WriteTimeout string `yaml:"writeTimeout"`
	} `yaml:"server"`

	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`

	Training struct {
		DataPath       string  `yaml:"dataPath"`
		Engine         string  `yaml:"engine"`
		NEstimators    int     `yaml:"nEstimators"`
		MaxDepth       int     `yaml:"maxDepth"`
		LearningRate   float64 `yaml:"learningRate"`
		RegLambda      float64 `yaml:"regLambda"`
		MinChildWeight float64 `yaml:"minChildWeight"`
		Seed           int64   `yaml:"seed"`
		PythonPath     string  `yaml:"pythonPath"`
		Timeout        string  `yaml:"timeout"`
	} `yaml:"training"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Load reads settings from the YAML file named by CONFIG_FILE, or from the
// environment when it is unset. A .env file in the working directory is
// applied first without overriding variables that are already set.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
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

	booster := ml.DefaultBoosterParams()
	booster.NEstimators = getIntFromEnvOrConfig(common.EnvNEstimators, config.Training.NEstimators, common.DefaultNEstimators)
	booster.MaxDepth = getIntFromEnvOrConfig(common.EnvMaxDepth, config.Training.MaxDepth, common.DefaultMaxDepth)
	booster.LearningRate = getFloatFromEnvOrConfig(common.EnvLearningRate, config.Training.LearningRate, common.DefaultLearningRate)
	booster.Lambda = getFloatFromEnvOrConfig(common.EnvRegLambda, config.Training.RegLambda, common.DefaultRegLambda)
	booster.MinChildWeight = getFloatFromEnvOrConfig(common.EnvMinChildWeight, config.Training.MinChildWeight, common.DefaultMinChildWeight)
	booster.Seed = int64(getIntFromEnvOrConfig(common.EnvRandomSeed, int(config.Training.Seed), common.DefaultRandomSeed))

	settings := Settings{
		ModelPath:    getStringFromEnvOrConfig(common.EnvModelPath, config.Model.Path, common.DefaultModelPath),
		DataPath:     getStringFromEnvOrConfig(common.EnvDataPath, config.Training.DataPath, common.DefaultDataPath),
		Port:         getIntFromEnvOrConfig(common.EnvPort, config.Server.Port, common.DefaultPort),
		ReadTimeout:  getDurationFromEnvOrConfig(common.EnvReadTimeout, config.Server.ReadTimeout, common.DefaultReadTimeout),
		WriteTimeout: getDurationFromEnvOrConfig(common.EnvWriteTimeout, config.Server.WriteTimeout, common.DefaultWriteTimeout),
		LogLevel:     getStringFromEnvOrConfig(common.EnvLogLevel, config.Logging.Level, common.DefaultLogLevel),
		LogFormat:    getStringFromEnvOrConfig(common.EnvLogFormat, config.Logging.Format, common.DefaultLogFormat),
		Engine:       getStringFromEnvOrConfig(common.EnvEngine, config.Training.Engine, common.DefaultEngine),
		Booster:      booster,
		PythonPath:   getStringFromEnvOrConfig(common.EnvPythonPath, config.Training.PythonPath, ""),
		TrainTimeout: getDurationFromEnvOrConfig(common.EnvTrainTimeout, config.Training.Timeout, common.DefaultTrainTimeout),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	booster := ml.DefaultBoosterParams()
	booster.NEstimators = getIntOrDefault(common.EnvNEstimators, common.DefaultNEstimators)
	booster.MaxDepth = getIntOrDefault(common.EnvMaxDepth, common.DefaultMaxDepth)
	booster.LearningRate = getFloatOrDefault(common.EnvLearningRate, common.DefaultLearningRate)
	booster.Lambda = getFloatOrDefault(common.EnvRegLambda, common.DefaultRegLambda)
	booster.MinChildWeight = getFloatOrDefault(common.EnvMinChildWeight, common.DefaultMinChildWeight)
	booster.Seed = int64(getIntOrDefault(common.EnvRandomSeed, common.DefaultRandomSeed))

	settings := Settings{
		ModelPath:    getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		DataPath:     getEnvOrDefault(common.EnvDataPath, common.DefaultDataPath),
		Port:         getIntOrDefault(common.EnvPort, common.DefaultPort),
		ReadTimeout:  getDurationOrDefault(common.EnvReadTimeout, common.DefaultReadTimeout),
		WriteTimeout: getDurationOrDefault(common.EnvWriteTimeout, common.DefaultWriteTimeout),
		LogLevel:     getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:    getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
		Engine:       getEnvOrDefault(common.EnvEngine, common.DefaultEngine),
		Booster:      booster,
		PythonPath:   os.Getenv(common.EnvPythonPath), // optional, probed when empty
		TrainTimeout: getDurationOrDefault(common.EnvTrainTimeout, common.DefaultTrainTimeout),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// EngineConfig returns the training engine selection for these settings.
func (s *Settings) EngineConfig() ml.EngineConfig {
	return ml.EngineConfig{
		Name:       s.Engine,
		Params:     s.Booster,
		PythonPath: s.PythonPath,
		Timeout:    s.TrainTimeout,
	}
}

// Addr returns the listen address of the prediction service.
func (s *Settings) Addr() string {
	return ":" + strconv.Itoa(s.Port)
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

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getStringFromEnvOrConfig(key, configValue, defaultValue string) string {
	if env := os.Getenv(key); env != "" {
		return env
	}
	if configValue != "" {
		return configValue
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

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
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
	if d, err := time.ParseDuration(configValue); err == nil {
		return d
	}
	return defaultValue
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	// Validate paths
	if settings.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}

	// Validate server
	if settings.Port < common.MinPort || settings.Port > common.MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.Port)
	}
	if settings.ReadTimeout < common.MinHTTPTimeout || settings.ReadTimeout > common.MaxHTTPTimeout {
		return fmt.Errorf("read timeout must be between %v and %v, got %v", common.MinHTTPTimeout, common.MaxHTTPTimeout, settings.ReadTimeout)
	}
	if settings.WriteTimeout < common.MinHTTPTimeout || settings.WriteTimeout > common.MaxHTTPTimeout {
		return fmt.Errorf("write timeout must be between %v and %v, got %v", common.MinHTTPTimeout, common.MaxHTTPTimeout, settings.WriteTimeout)
	}

	// Validate logging
	if _, err := parseLevel(settings.LogLevel); err != nil {
		return err
	}
	if settings.LogFormat != LogFormatConsole && settings.LogFormat != LogFormatJSON {
		return fmt.Errorf("log format must be %q or %q, got %q", LogFormatConsole, LogFormatJSON, settings.LogFormat)
	}

	// Validate training
	if settings.Engine != common.EngineNative && settings.Engine != common.EngineXGBoost {
		return fmt.Errorf("booster engine must be %q or %q, got %q", common.EngineNative, common.EngineXGBoost, settings.Engine)
	}
	if settings.TrainTimeout <= 0 {
		return fmt.Errorf("training timeout must be positive, got %v", settings.TrainTimeout)
	}

	b := settings.Booster
	if b.NEstimators <= 0 || b.NEstimators > common.MaxNEstimators {
		return fmt.Errorf("n_estimators must be between 1 and %d, got %d", common.MaxNEstimators, b.NEstimators)
	}
	if b.MaxDepth <= 0 || b.MaxDepth > common.MaxTreeDepth {
		return fmt.Errorf("max depth must be between 1 and %d, got %d", common.MaxTreeDepth, b.MaxDepth)
	}
	if b.LearningRate <= 0 || b.LearningRate > common.MaxLearningRate {
		return fmt.Errorf("learning rate must be between 0 and %v, got %f", common.MaxLearningRate, b.LearningRate)
	}
	if b.Lambda < 0 || b.Lambda > common.MaxRegLambda {
		return fmt.Errorf("reg lambda must be between 0 and %v, got %f", common.MaxRegLambda, b.Lambda)
	}
	if b.MinChildWeight < 0 || b.MinChildWeight > common.MaxMinChildWeight {
		return fmt.Errorf("min child weight must be between 0 and %v, got %f", common.MaxMinChildWeight, b.MinChildWeight)
	}

	return nil
}
