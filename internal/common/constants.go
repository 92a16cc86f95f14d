package common

// Model type identifiers
const (
	ModelTypeBaseline      = "baseline"
	ModelTypeAdvanced      = "advanced"
	ModelTypeComprehensive = "comprehensive"
)

// Environment variable keys
const (
	EnvConfigFile           = "CONFIG_FILE"
	EnvAPIPort              = "API_PORT"
	EnvMetricsPort          = "METRICS_PORT"
	EnvDataPath             = "DATA_PATH"
	EnvModelsPath           = "MODELS_PATH"
	EnvDefaultModelType     = "DEFAULT_MODEL_TYPE"
	EnvSyntheticFallback    = "SYNTHETIC_FALLBACK"
	EnvSyntheticSamples     = "SYNTHETIC_SAMPLES"
	EnvSyntheticSeed        = "SYNTHETIC_SEED"
	EnvTestFraction         = "TEST_FRACTION"
	EnvSplitSeed            = "SPLIT_SEED"
	EnvMaxConcurrentJobs    = "MAX_CONCURRENT_JOBS"
	EnvCompletionWebhookURL = "COMPLETION_WEBHOOK_URL"
	EnvTargetRecall         = "TARGET_RECALL"
	EnvFalseNegativeCost    = "FALSE_NEGATIVE_COST"
	EnvFalsePositiveCost    = "FALSE_POSITIVE_COST"
	EnvHighRiskThreshold    = "HIGH_RISK_THRESHOLD"
	EnvMediumRiskThreshold  = "MEDIUM_RISK_THRESHOLD"
	EnvRiskLowMax           = "RISK_LOW_MAX"
	EnvRiskMediumMax        = "RISK_MEDIUM_MAX"
	EnvRiskHighMax          = "RISK_HIGH_MAX"
	EnvHistoryRetentionDays = "HISTORY_RETENTION_DAYS"
	EnvJobRetentionDays     = "JOB_RETENTION_DAYS"
	EnvModelKeepVersions    = "MODEL_KEEP_VERSIONS"
	EnvMaintenanceSchedule  = "MAINTENANCE_SCHEDULE"
	EnvLogLevel             = "LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultAPIPort              = 8090
	DefaultMetricsPort          = 9093
	DefaultDataPath             = "data"
	DefaultModelsPath           = "models"
	DefaultModelType            = ModelTypeComprehensive
	DefaultSyntheticSamples     = 1000
	DefaultSyntheticSeed        = 42
	DefaultTestFraction         = 0.2
	DefaultSplitSeed            = 42
	DefaultMaxConcurrentJobs    = 4
	DefaultTargetRecall         = 0.85
	DefaultFalseNegativeCost    = 100.0
	DefaultFalsePositiveCost    = 10.0
	DefaultHighRiskThreshold    = 0.7
	DefaultMediumRiskThreshold  = 0.4
	DefaultRiskLowMax           = 0.3
	DefaultRiskMediumMax        = 0.6
	DefaultRiskHighMax          = 0.8
	DefaultHistoryRetentionDays = 90
	DefaultJobRetentionDays     = 30
	DefaultModelKeepVersions    = 5
	DefaultMaintenanceSchedule  = "0 3 * * *"
)

// Common error messages
const (
	ErrMsgModelsPathRequired = "models path is required"
	ErrMsgDataPathRequired   = "data path is required"
)

// Validation constants
const (
	MinPort              = 1024
	MaxPort              = 65535
	MinTestFraction      = 0.05
	MaxTestFraction      = 0.5
	MinConcurrentJobs    = 1
	MaxConcurrentJobs    = 64
	MinSyntheticSamples  = 50
	MaxSyntheticSamples  = 1000000
	MinTargetRecall      = 0.0
	MaxTargetRecall      = 1.0
	MaxHistoryRetention  = 3650
	MaxModelKeepVersions = 100
)
