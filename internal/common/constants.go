package common

// Environment variable keys
const (
	EnvConfigFile             = "CONFIG_FILE"
	EnvDotenvFile             = "DOTENV_FILE"
	EnvHTTPPort               = "HTTP_PORT"
	EnvColumnsPath            = "COLUMNS_PATH"
	EnvAdaBoostModelPath      = "ADABOOST_MODEL_PATH"
	EnvGradientBoostModelPath = "GRADIENT_BOOST_MODEL_PATH"
	EnvManifestPath           = "MANIFEST_PATH"
	EnvDataPath               = "DATA_PATH"
	EnvHistoryLimit           = "HISTORY_LIMIT"
	EnvRequestTimeout         = "REQUEST_TIMEOUT"
	EnvReadTimeout            = "READ_TIMEOUT"
	EnvWriteTimeout           = "WRITE_TIMEOUT"
	EnvLogLevel               = "LOG_LEVEL"
	EnvLogFormat              = "LOG_FORMAT"
)

// Configuration defaults
const (
	DefaultDotenvFile             = ".env"
	DefaultHTTPPort               = 8080
	DefaultColumnsPath            = "models/model_columns.json"
	DefaultAdaBoostModelPath      = "models/ada_boost_model.json"
	DefaultGradientBoostModelPath = "models/gradient_boost_model.json"
	DefaultHistoryLimit           = 50
	DefaultHistoryRetain          = 100000
	DefaultLogLevel               = "info"
	DefaultLogFormat              = "console"
)

// Model names used for metrics labels, logs and the API
const (
	ModelAdaBoost      = "adaboost"
	ModelGradientBoost = "gradient_boosting"
)

// Validation constants
const (
	MinHTTPPort     = 1024
	MaxHTTPPort     = 65535
	MinHistoryLimit = 1
	MaxHistoryLimit = 1000
	MinScore        = 0
	MaxScore        = 100
	DefaultScore    = 75
)

// Gauge bands
const (
	GaugeMin        = 0.0
	GaugeMax        = 100.0
	BandAverageFrom = 40.0
	BandPassFrom    = 70.0
)

// Two predictions closer than this are counted as agreeing
const AgreementTolerance = 5.0

// Manifest entry name of the expected column list
const ArtifactColumns = "columns"
