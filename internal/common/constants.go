package common

import "errors"

// Class names for the binary fraud classification task
const (
	ClassLegit = "legitimate"
	ClassFraud = "fraud"
)

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvDataPath        = "DATA_PATH"
	EnvTestSetSize     = "TEST_SET_SIZE"
	EnvTargetMagnitude = "AUGMENT_TARGET_MAGNITUDE"
	EnvDecisionClass   = "DECISION_CLASS"
	EnvDecisionMin     = "DECISION_THRESHOLD"
	EnvBeta            = "BETA"
	EnvEpochs          = "EPOCHS"
	EnvBatchSize       = "BATCH_SIZE"
	EnvLearningRate    = "LEARNING_RATE"
	EnvTrainerURL      = "TRAINER_URL"
	EnvCheckpointPath  = "CHECKPOINT_PATH"
	EnvTrainLogPath    = "TRAIN_LOG_PATH"
	EnvMetricsPort     = "METRICS_PORT"
	EnvDashboardPort   = "DASHBOARD_PORT"
	EnvRESTTimeout     = "REST_TIMEOUT"
)

// Configuration defaults
const (
	DefaultTargetMagnitude = 10000.0
	DefaultBeta            = 1.0
	DefaultEpochs          = 10
	DefaultBatchSize       = 100
	DefaultLearningRate    = 0.001
	DefaultTrainerURL      = "http://127.0.0.1:8901"
	DefaultMetricsPort     = 8080
	DefaultDashboardPort   = 8081
	DefaultTrainLogPath    = "train.log"
)

// Validation constants
const (
	MinMetricsPort = 1024
	MaxMetricsPort = 65535
	MaxBeta        = 10.0
	MaxEpochs      = 100000
)

// Sentinel errors shared across the pipeline. Loading and configuration
// errors abort the run before any training begins.
var (
	// ErrParse reports a malformed row or cell during dataset loading.
	ErrParse = errors.New("parse error")

	// ErrInvalidConfiguration reports a configuration that cannot produce a
	// valid run (test size too large, empty minority partition, bad beta).
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
