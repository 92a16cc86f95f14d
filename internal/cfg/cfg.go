package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"burnout-radar/internal/common"
)

type Settings struct {
	APIPort     int
	MetricsPort int
	RESTTimeout time.Duration
	LogLevel    string

	DataPath   string
	ModelsPath string

	DefaultModelType     string
	SyntheticFallback    bool
	SyntheticSamples     int
	SyntheticSeed        int64
	TestFraction         float64
	SplitSeed            int64
	MaxConcurrentJobs    int
	CompletionWebhookURL string

	TargetRecall        float64
	FalseNegativeCost   float64
	FalsePositiveCost   float64
	HighRiskThreshold   float64
	MediumRiskThreshold float64

	RiskLowMax    float64
	RiskMediumMax float64
	RiskHighMax   float64

	HistoryRetentionDays int
	JobRetentionDays     int
	ModelKeepVersions    int
	MaintenanceSchedule  string
}

type ConfigFile struct {
	Server struct {
		APIPort     int    `yaml:"apiPort"`
		MetricsPort int    `yaml:"metricsPort"`
		RESTTimeout string `yaml:"restTimeout"`
		LogLevel    string `yaml:"logLevel"`
	} `yaml:"server"`

	Paths struct {
		Data   string `yaml:"data"`
		Models string `yaml:"models"`
	} `yaml:"paths"`

	Training struct {
		DefaultModelType     string  `yaml:"defaultModelType"`
		SyntheticFallback    bool    `yaml:"syntheticFallback"`
		SyntheticSamples     int     `yaml:"syntheticSamples"`
		SyntheticSeed        int64   `yaml:"syntheticSeed"`
		TestFraction         float64 `yaml:"testFraction"`
		SplitSeed            int64   `yaml:"splitSeed"`
		MaxConcurrentJobs    int     `yaml:"maxConcurrentJobs"`
		CompletionWebhookURL string  `yaml:"completionWebhookURL"`
	} `yaml:"training"`

	Evaluation struct {
		TargetRecall        float64 `yaml:"targetRecall"`
		FalseNegativeCost   float64 `yaml:"falseNegativeCost"`
		FalsePositiveCost   float64 `yaml:"falsePositiveCost"`
		HighRiskThreshold   float64 `yaml:"highRiskThreshold"`
		MediumRiskThreshold float64 `yaml:"mediumRiskThreshold"`
	} `yaml:"evaluation"`

	Risk struct {
		LowMax    float64 `yaml:"lowMax"`
		MediumMax float64 `yaml:"mediumMax"`
		HighMax   float64 `yaml:"highMax"`
	} `yaml:"risk"`

	Maintenance struct {
		HistoryRetentionDays int    `yaml:"historyRetentionDays"`
		JobRetentionDays     int    `yaml:"jobRetentionDays"`
		ModelKeepVersions    int    `yaml:"modelKeepVersions"`
		Schedule             string `yaml:"schedule"`
	} `yaml:"maintenance"`
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

	restTimeout, err := time.ParseDuration(config.Server.RESTTimeout)
	if err != nil {
		restTimeout = 30 * time.Second
	}

	// Environment variables override file values where set.
	settings := Settings{
		APIPort:              getIntFromEnvOrConfig(common.EnvAPIPort, config.Server.APIPort, common.DefaultAPIPort),
		MetricsPort:          getIntFromEnvOrConfig(common.EnvMetricsPort, config.Server.MetricsPort, common.DefaultMetricsPort),
		RESTTimeout:          restTimeout,
		LogLevel:             getEnvOrDefault(common.EnvLogLevel, config.Server.LogLevel),
		DataPath:             getEnvOrDefault(common.EnvDataPath, stringOr(config.Paths.Data, common.DefaultDataPath)),
		ModelsPath:           getEnvOrDefault(common.EnvModelsPath, stringOr(config.Paths.Models, common.DefaultModelsPath)),
		DefaultModelType:     getEnvOrDefault(common.EnvDefaultModelType, stringOr(config.Training.DefaultModelType, common.DefaultModelType)),
		SyntheticFallback:    getBoolFromEnvOrConfig(common.EnvSyntheticFallback, config.Training.SyntheticFallback),
		SyntheticSamples:     getIntFromEnvOrConfig(common.EnvSyntheticSamples, config.Training.SyntheticSamples, common.DefaultSyntheticSamples),
		SyntheticSeed:        getInt64FromEnvOrConfig(common.EnvSyntheticSeed, config.Training.SyntheticSeed, common.DefaultSyntheticSeed),
		TestFraction:         getFloatFromEnvOrConfig(common.EnvTestFraction, config.Training.TestFraction, common.DefaultTestFraction),
		SplitSeed:            getInt64FromEnvOrConfig(common.EnvSplitSeed, config.Training.SplitSeed, common.DefaultSplitSeed),
		MaxConcurrentJobs:    getIntFromEnvOrConfig(common.EnvMaxConcurrentJobs, config.Training.MaxConcurrentJobs, common.DefaultMaxConcurrentJobs),
		CompletionWebhookURL: getEnvOrDefault(common.EnvCompletionWebhookURL, config.Training.CompletionWebhookURL),
		TargetRecall:         getFloatFromEnvOrConfig(common.EnvTargetRecall, config.Evaluation.TargetRecall, common.DefaultTargetRecall),
		FalseNegativeCost:    getFloatFromEnvOrConfig(common.EnvFalseNegativeCost, config.Evaluation.FalseNegativeCost, common.DefaultFalseNegativeCost),
		FalsePositiveCost:    getFloatFromEnvOrConfig(common.EnvFalsePositiveCost, config.Evaluation.FalsePositiveCost, common.DefaultFalsePositiveCost),
		HighRiskThreshold:    getFloatFromEnvOrConfig(common.EnvHighRiskThreshold, config.Evaluation.HighRiskThreshold, common.DefaultHighRiskThreshold),
		MediumRiskThreshold:  getFloatFromEnvOrConfig(common.EnvMediumRiskThreshold, config.Evaluation.MediumRiskThreshold, common.DefaultMediumRiskThreshold),
		RiskLowMax:           getFloatFromEnvOrConfig(common.EnvRiskLowMax, config.Risk.LowMax, common.DefaultRiskLowMax),
		RiskMediumMax:        getFloatFromEnvOrConfig(common.EnvRiskMediumMax, config.Risk.MediumMax, common.DefaultRiskMediumMax),
		RiskHighMax:          getFloatFromEnvOrConfig(common.EnvRiskHighMax, config.Risk.HighMax, common.DefaultRiskHighMax),
		HistoryRetentionDays: getIntFromEnvOrConfig(common.EnvHistoryRetentionDays, config.Maintenance.HistoryRetentionDays, common.DefaultHistoryRetentionDays),
		JobRetentionDays:     getIntFromEnvOrConfig(common.EnvJobRetentionDays, config.Maintenance.JobRetentionDays, common.DefaultJobRetentionDays),
		ModelKeepVersions:    getIntFromEnvOrConfig(common.EnvModelKeepVersions, config.Maintenance.ModelKeepVersions, common.DefaultModelKeepVersions),
		MaintenanceSchedule:  getEnvOrDefault(common.EnvMaintenanceSchedule, stringOr(config.Maintenance.Schedule, common.DefaultMaintenanceSchedule)),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		APIPort:              getIntOrDefault(common.EnvAPIPort, common.DefaultAPIPort),
		MetricsPort:          getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		RESTTimeout:          getDurationOrDefault("REST_TIMEOUT", 30*time.Second),
		LogLevel:             os.Getenv(common.EnvLogLevel), // optional
		DataPath:             getEnvOrDefault(common.EnvDataPath, common.DefaultDataPath),
		ModelsPath:           getEnvOrDefault(common.EnvModelsPath, common.DefaultModelsPath),
		DefaultModelType:     getEnvOrDefault(common.EnvDefaultModelType, common.DefaultModelType),
		SyntheticFallback:    getBoolOrDefault(common.EnvSyntheticFallback, false),
		SyntheticSamples:     getIntOrDefault(common.EnvSyntheticSamples, common.DefaultSyntheticSamples),
		SyntheticSeed:        getInt64OrDefault(common.EnvSyntheticSeed, common.DefaultSyntheticSeed),
		TestFraction:         getFloatOrDefault(common.EnvTestFraction, common.DefaultTestFraction),
		SplitSeed:            getInt64OrDefault(common.EnvSplitSeed, common.DefaultSplitSeed),
		MaxConcurrentJobs:    getIntOrDefault(common.EnvMaxConcurrentJobs, common.DefaultMaxConcurrentJobs),
		CompletionWebhookURL: os.Getenv(common.EnvCompletionWebhookURL), // optional
		TargetRecall:         getFloatOrDefault(common.EnvTargetRecall, common.DefaultTargetRecall),
		FalseNegativeCost:    getFloatOrDefault(common.EnvFalseNegativeCost, common.DefaultFalseNegativeCost),
		FalsePositiveCost:    getFloatOrDefault(common.EnvFalsePositiveCost, common.DefaultFalsePositiveCost),
		HighRiskThreshold:    getFloatOrDefault(common.EnvHighRiskThreshold, common.DefaultHighRiskThreshold),
		MediumRiskThreshold:  getFloatOrDefault(common.EnvMediumRiskThreshold, common.DefaultMediumRiskThreshold),
		RiskLowMax:           getFloatOrDefault(common.EnvRiskLowMax, common.DefaultRiskLowMax),
		RiskMediumMax:        getFloatOrDefault(common.EnvRiskMediumMax, common.DefaultRiskMediumMax),
		RiskHighMax:          getFloatOrDefault(common.EnvRiskHighMax, common.DefaultRiskHighMax),
		HistoryRetentionDays: getIntOrDefault(common.EnvHistoryRetentionDays, common.DefaultHistoryRetentionDays),
		JobRetentionDays:     getIntOrDefault(common.EnvJobRetentionDays, common.DefaultJobRetentionDays),
		ModelKeepVersions:    getIntOrDefault(common.EnvModelKeepVersions, common.DefaultModelKeepVersions),
		MaintenanceSchedule:  getEnvOrDefault(common.EnvMaintenanceSchedule, common.DefaultMaintenanceSchedule),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
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

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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

func getInt64FromEnvOrConfig(key string, configValue, defaultValue int64) int64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseInt(env, 10, 64); err == nil {
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

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

func stringOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func validateSettings(settings *Settings) error {
	// Validate paths
	if settings.DataPath == "" {
		return fmt.Errorf("%s", common.ErrMsgDataPathRequired)
	}
	if settings.ModelsPath == "" {
		return fmt.Errorf("%s", common.ErrMsgModelsPathRequired)
	}

	// Validate ports
	if settings.APIPort < common.MinPort || settings.APIPort > common.MaxPort {
		return fmt.Errorf("API port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.APIPort)
	}
	if settings.MetricsPort < common.MinPort || settings.MetricsPort > common.MaxPort {
		return fmt.Errorf("metrics port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.MetricsPort)
	}
	if settings.APIPort == settings.MetricsPort {
		return fmt.Errorf("API port and metrics port must differ, got %d for both", settings.APIPort)
	}

	// Validate time durations
	if settings.RESTTimeout < time.Second || settings.RESTTimeout > time.Minute {
		return fmt.Errorf("REST timeout must be between 1s and 1m, got %v", settings.RESTTimeout)
	}

	// Validate training parameters
	switch settings.DefaultModelType {
	case common.ModelTypeBaseline, common.ModelTypeAdvanced, common.ModelTypeComprehensive:
	default:
		return fmt.Errorf("default model type must be one of %s, %s or %s, got %q",
			common.ModelTypeBaseline, common.ModelTypeAdvanced, common.ModelTypeComprehensive, settings.DefaultModelType)
	}
	if settings.SyntheticSamples < common.MinSyntheticSamples || settings.SyntheticSamples > common.MaxSyntheticSamples {
		return fmt.Errorf("synthetic sample count must be between %d and %d, got %d",
			common.MinSyntheticSamples, common.MaxSyntheticSamples, settings.SyntheticSamples)
	}
	if settings.TestFraction < common.MinTestFraction || settings.TestFraction > common.MaxTestFraction {
		return fmt.Errorf("test fraction must be between %g and %g, got %f",
			common.MinTestFraction, common.MaxTestFraction, settings.TestFraction)
	}
	if settings.MaxConcurrentJobs < common.MinConcurrentJobs || settings.MaxConcurrentJobs > common.MaxConcurrentJobs {
		return fmt.Errorf("max concurrent jobs must be between %d and %d, got %d",
			common.MinConcurrentJobs, common.MaxConcurrentJobs, settings.MaxConcurrentJobs)
	}

	// Validate evaluation parameters
	if settings.TargetRecall <= common.MinTargetRecall || settings.TargetRecall > common.MaxTargetRecall {
		return fmt.Errorf("target recall must be between 0 and 1, got %f", settings.TargetRecall)
	}
	if settings.FalseNegativeCost <= 0 {
		return fmt.Errorf("false negative cost must be positive, got %f", settings.FalseNegativeCost)
	}
	if settings.FalsePositiveCost <= 0 {
		return fmt.Errorf("false positive cost must be positive, got %f", settings.FalsePositiveCost)
	}
	if settings.MediumRiskThreshold <= 0 || settings.MediumRiskThreshold >= 1 {
		return fmt.Errorf("medium risk threshold must be between 0 and 1, got %f", settings.MediumRiskThreshold)
	}
	if settings.HighRiskThreshold <= settings.MediumRiskThreshold || settings.HighRiskThreshold >= 1 {
		return fmt.Errorf("high risk threshold must be between medium threshold and 1, got %f", settings.HighRiskThreshold)
	}

	// Validate risk level boundaries
	if settings.RiskLowMax <= 0 || settings.RiskLowMax >= settings.RiskMediumMax {
		return fmt.Errorf("risk low boundary must be between 0 and the medium boundary, got %f", settings.RiskLowMax)
	}
	if settings.RiskMediumMax >= settings.RiskHighMax {
		return fmt.Errorf("risk medium boundary must be below the high boundary, got %f", settings.RiskMediumMax)
	}
	if settings.RiskHighMax >= 1 {
		return fmt.Errorf("risk high boundary must be below 1, got %f", settings.RiskHighMax)
	}

	// Validate maintenance parameters
	if settings.HistoryRetentionDays < 0 || settings.HistoryRetentionDays > common.MaxHistoryRetention {
		return fmt.Errorf("history retention must be between 0 and %d days, got %d",
			common.MaxHistoryRetention, settings.HistoryRetentionDays)
	}
	if settings.JobRetentionDays < 0 || settings.JobRetentionDays > common.MaxHistoryRetention {
		return fmt.Errorf("job retention must be between 0 and %d days, got %d",
			common.MaxHistoryRetention, settings.JobRetentionDays)
	}
	if settings.ModelKeepVersions < 1 || settings.ModelKeepVersions > common.MaxModelKeepVersions {
		return fmt.Errorf("model keep versions must be between 1 and %d, got %d",
			common.MaxModelKeepVersions, settings.ModelKeepVersions)
	}

	// Validate log level
	switch settings.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn or error, got %q", settings.LogLevel)
	}

	return nil
}
