package common

import "time"

// Dataset column names
const (
	ColumnAirline     = "OPERA"
	ColumnFlightType  = "TIPOVUELO"
	ColumnMonth       = "MES"
	ColumnScheduledAt = "Fecha-I"
	ColumnActualAt    = "Fecha-O"
)

// TimestampLayout is the layout of Fecha-I / Fecha-O values.
const TimestampLayout = "2006-01-02 15:04:05"

// Environment variable keys
const (
	EnvConfigFile     = "CONFIG_FILE"
	EnvModelPath      = "MODEL_PATH"
	EnvDataPath       = "DATA_PATH"
	EnvPort           = "PORT"
	EnvReadTimeout    = "READ_TIMEOUT"
	EnvWriteTimeout   = "WRITE_TIMEOUT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvEngine         = "BOOSTER_ENGINE"
	EnvNEstimators    = "N_ESTIMATORS"
	EnvMaxDepth       = "MAX_DEPTH"
	EnvLearningRate   = "LEARNING_RATE"
	EnvRegLambda      = "REG_LAMBDA"
	EnvMinChildWeight = "MIN_CHILD_WEIGHT"
	EnvRandomSeed     = "RANDOM_SEED"
	EnvPythonPath     = "PYTHON_PATH"
	EnvTrainTimeout   = "TRAIN_TIMEOUT"
)

// Booster engine names
const (
	EngineNative  = "native"
	EngineXGBoost = "xgboost"
)

// Configuration defaults
const (
	DefaultModelPath      = "models/delay-model.db"
	DefaultDataPath       = "data/data.csv"
	DefaultPort           = 8080
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
	DefaultEngine         = EngineXGBoost
	DefaultNEstimators    = 100
	DefaultMaxDepth       = 6
	DefaultLearningRate   = 0.3
	DefaultRegLambda      = 1.0
	DefaultMinChildWeight = 1.0
	DefaultRandomSeed     = 42
	DefaultReadTimeout    = 10 * time.Second
	DefaultWriteTimeout   = 10 * time.Second
	DefaultTrainTimeout   = 10 * time.Minute
)

// Validation constants
const (
	MinPort           = 1024
	MaxPort           = 65535
	MaxNEstimators    = 5000
	MaxTreeDepth      = 16
	MaxLearningRate   = 1.0
	MaxRegLambda      = 1000.0
	MaxMinChildWeight = 1000.0
	MinHTTPTimeout    = time.Second
	MaxHTTPTimeout    = 5 * time.Minute
)

// Common error messages
const (
	ErrMsgNoFlights = "No flights provided for prediction."
)
