package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"fraudpipe/internal/common"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	DataPath        string
	StorePath       string
	TestSetSize     int
	TargetMagnitude float64
	DecisionClass   string
	DecisionMin     float64
	Beta            float64
	Epochs          int
	BatchSize       int
	LearningRate    float64
	TrainerURL      string
	TrainLogPath    string
	MetricsPort     int
	DashboardPort   int
	RESTTimeout     time.Duration
}

type ConfigFile struct {
	Data struct {
		Path        string `yaml:"path"`
		TestSetSize int    `yaml:"testSetSize"`
	} `yaml:"data"`

	Augment struct {
		TargetMagnitude float64 `yaml:"targetMagnitude"`
	} `yaml:"augment"`

	Decision struct {
		Class     string  `yaml:"class"`
		Threshold float64 `yaml:"threshold"`
	} `yaml:"decision"`

	Scoring struct {
		Beta float64 `yaml:"beta"`
	} `yaml:"scoring"`

	Training struct {
		Epochs       int     `yaml:"epochs"`
		BatchSize    int     `yaml:"batchSize"`
		LearningRate float64 `yaml:"learningRate"`
		TrainerURL   string  `yaml:"trainerURL"`
		LogPath      string  `yaml:"logPath"`
	} `yaml:"training"`

	System struct {
		StorePath     string `yaml:"storePath"`
		MetricsPort   int    `yaml:"metricsPort"`
		DashboardPort int    `yaml:"dashboardPort"`
		RESTTimeout   string `yaml:"restTimeout"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
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

	settings := Settings{
		DataPath:        getEnvOrDefault(common.EnvDataPath, config.Data.Path),
		StorePath:       getEnvOrDefault(common.EnvCheckpointPath, config.System.StorePath),
		TestSetSize:     getIntFromEnvOrConfig(common.EnvTestSetSize, config.Data.TestSetSize),
		TargetMagnitude: getFloatFromEnvOrConfig(common.EnvTargetMagnitude, config.Augment.TargetMagnitude),
		DecisionClass:   getEnvOrDefault(common.EnvDecisionClass, config.Decision.Class),
		DecisionMin:     getFloatFromEnvOrConfig(common.EnvDecisionMin, config.Decision.Threshold),
		Beta:            getFloatFromEnvOrConfig(common.EnvBeta, config.Scoring.Beta),
		Epochs:          getIntFromEnvOrConfig(common.EnvEpochs, config.Training.Epochs),
		BatchSize:       getIntFromEnvOrConfig(common.EnvBatchSize, config.Training.BatchSize),
		LearningRate:    getFloatFromEnvOrConfig(common.EnvLearningRate, config.Training.LearningRate),
		TrainerURL:      getEnvOrDefault(common.EnvTrainerURL, config.Training.TrainerURL),
		TrainLogPath:    getEnvOrDefault(common.EnvTrainLogPath, config.Training.LogPath),
		MetricsPort:     getIntFromEnvOrConfig(common.EnvMetricsPort, config.System.MetricsPort),
		DashboardPort:   getIntFromEnvOrConfig(common.EnvDashboardPort, config.System.DashboardPort),
		RESTTimeout:     getDurationFromEnvOrConfig(common.EnvRESTTimeout, config.System.RESTTimeout, 30*time.Second),
	}
	applyDefaults(&settings)

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	dataPath, err := getEnvRequired(common.EnvDataPath)
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{
		DataPath:        dataPath,
		StorePath:       os.Getenv(common.EnvCheckpointPath), // optional
		TestSetSize:     getIntOrDefault(common.EnvTestSetSize, 0),
		TargetMagnitude: getFloatOrDefault(common.EnvTargetMagnitude, common.DefaultTargetMagnitude),
		DecisionClass:   os.Getenv(common.EnvDecisionClass), // optional
		DecisionMin:     getFloatOrDefault(common.EnvDecisionMin, 0),
		Beta:            getFloatOrDefault(common.EnvBeta, common.DefaultBeta),
		Epochs:          getIntOrDefault(common.EnvEpochs, common.DefaultEpochs),
		BatchSize:       getIntOrDefault(common.EnvBatchSize, common.DefaultBatchSize),
		LearningRate:    getFloatOrDefault(common.EnvLearningRate, common.DefaultLearningRate),
		TrainerURL:      getEnvOrDefault(common.EnvTrainerURL, common.DefaultTrainerURL),
		TrainLogPath:    getEnvOrDefault(common.EnvTrainLogPath, common.DefaultTrainLogPath),
		MetricsPort:     getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		DashboardPort:   getIntOrDefault(common.EnvDashboardPort, common.DefaultDashboardPort),
		RESTTimeout:     getDurationOrDefault(common.EnvRESTTimeout, 30*time.Second),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// applyDefaults fills zero-valued optional settings after a YAML load, so a
// sparse config file behaves like the env path.
func applyDefaults(s *Settings) {
	if s.TargetMagnitude == 0 {
		s.TargetMagnitude = common.DefaultTargetMagnitude
	}
	if s.Beta == 0 {
		s.Beta = common.DefaultBeta
	}
	if s.Epochs == 0 {
		s.Epochs = common.DefaultEpochs
	}
	if s.BatchSize == 0 {
		s.BatchSize = common.DefaultBatchSize
	}
	if s.LearningRate == 0 {
		s.LearningRate = common.DefaultLearningRate
	}
	if s.TrainerURL == "" {
		s.TrainerURL = common.DefaultTrainerURL
	}
	if s.TrainLogPath == "" {
		s.TrainLogPath = common.DefaultTrainLogPath
	}
	if s.MetricsPort == 0 {
		s.MetricsPort = common.DefaultMetricsPort
	}
	if s.DashboardPort == 0 {
		s.DashboardPort = common.DefaultDashboardPort
	}
}

func getEnvRequired(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("required environment variable %s is missing", key)
	}
	return v, nil
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

func getIntFromEnvOrConfig(key string, configValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	return configValue
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

func getFloatFromEnvOrConfig(key string, configValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.DataPath == "" {
		return fmt.Errorf("%w: dataset path is required", common.ErrInvalidConfiguration)
	}
	if settings.TestSetSize <= 0 {
		return fmt.Errorf("%w: test set size must be positive, got %d",
			common.ErrInvalidConfiguration, settings.TestSetSize)
	}
	if settings.TargetMagnitude < 0 {
		return fmt.Errorf("%w: augment target magnitude must be non-negative, got %f",
			common.ErrInvalidConfiguration, settings.TargetMagnitude)
	}
	if settings.Beta <= 0 || settings.Beta > common.MaxBeta {
		return fmt.Errorf("%w: beta must be in (0, %g], got %f",
			common.ErrInvalidConfiguration, common.MaxBeta, settings.Beta)
	}
	if settings.Epochs <= 0 || settings.Epochs > common.MaxEpochs {
		return fmt.Errorf("%w: epochs must be between 1 and %d, got %d",
			common.ErrInvalidConfiguration, common.MaxEpochs, settings.Epochs)
	}
	if settings.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d",
			common.ErrInvalidConfiguration, settings.BatchSize)
	}
	if settings.LearningRate <= 0 || settings.LearningRate >= 1 {
		return fmt.Errorf("%w: learning rate must be in (0, 1), got %f",
			common.ErrInvalidConfiguration, settings.LearningRate)
	}
	if settings.TrainerURL == "" {
		return fmt.Errorf("%w: trainer URL is required", common.ErrInvalidConfiguration)
	}
	if settings.DecisionClass != "" {
		if settings.DecisionMin <= 0 || settings.DecisionMin > 1 {
			return fmt.Errorf("%w: decision threshold must be in (0, 1], got %f",
				common.ErrInvalidConfiguration, settings.DecisionMin)
		}
	}
	if settings.MetricsPort < common.MinMetricsPort || settings.MetricsPort > common.MaxMetricsPort {
		return fmt.Errorf("%w: metrics port must be between %d and %d, got %d",
			common.ErrInvalidConfiguration, common.MinMetricsPort, common.MaxMetricsPort, settings.MetricsPort)
	}
	if settings.DashboardPort != 0 &&
		(settings.DashboardPort < common.MinMetricsPort || settings.DashboardPort > common.MaxMetricsPort) {
		return fmt.Errorf("%w: dashboard port must be 0 (disabled) or between %d and %d, got %d",
			common.ErrInvalidConfiguration, common.MinMetricsPort, common.MaxMetricsPort, settings.DashboardPort)
	}
	if settings.RESTTimeout < time.Second || settings.RESTTimeout > 10*time.Minute {
		return fmt.Errorf("%w: REST timeout must be between 1s and 10m, got %v",
			common.ErrInvalidConfiguration, settings.RESTTimeout)
	}

	return nil
}
