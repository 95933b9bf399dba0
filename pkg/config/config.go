package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Data configuration
	Data DataConfig `mapstructure:"data"`

	// Tokenizer configuration
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`

	// Training configuration
	Training TrainingConfig `mapstructure:"training"`

	// Inference configuration
	Inference InferenceConfig `mapstructure:"inference"`

	// Quality configuration
	Quality QualityConfig `mapstructure:"quality"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// TelemetryDir enables Parquet persistence of warning and error
	// records when set.
	TelemetryDir string `mapstructure:"telemetry_dir"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// DataConfig holds corpus paths and output locations
type DataConfig struct {
	TrainPath  string `mapstructure:"train_path"`
	TestPath   string `mapstructure:"test_path"`
	OutputDir  string `mapstructure:"output_dir"`
	LabelTable string `mapstructure:"label_table"` // optional YAML/JSON label table
	Workers    int    `mapstructure:"workers"`     // 0 means GOMAXPROCS
}

// TokenizerConfig holds subword tokenizer configuration
type TokenizerConfig struct {
	// Pretrained is a Hugging Face model id resolved through the local cache.
	Pretrained string `mapstructure:"pretrained"`
	// VocabPath points at a tokenizer.json on disk and wins over Pretrained.
	VocabPath string `mapstructure:"vocab_path"`
	MaxLength int    `mapstructure:"max_length"`
	PadID     int    `mapstructure:"pad_id"`
}

// TrainingConfig holds the cross-validation loop configuration
type TrainingConfig struct {
	Folds         int     `mapstructure:"folds"`
	Seed          int64   `mapstructure:"seed"`
	Epochs        int     `mapstructure:"epochs"`
	BatchSize     int     `mapstructure:"batch_size"`
	LearningRate  float64 `mapstructure:"learning_rate"`
	EarlyStopping int     `mapstructure:"early_stopping"` // patience in epochs, 0 disables
	RunDir        string  `mapstructure:"run_dir"`         // per-fold metric parquet output
	CheckpointDir string  `mapstructure:"checkpoint_dir"`  // resumable run checkpoints, empty uses the temp dir
}

// InferenceConfig holds the remote classification server configuration
type InferenceConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
	Timeout  int    `mapstructure:"timeout"` // in seconds
}

// QualityConfig holds annotation quality checking configuration
type QualityConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Backend    string  `mapstructure:"backend"` // gline, rustbert
	ModelPath  string  `mapstructure:"model_path"`
	TokenPath  string  `mapstructure:"token_path"`
	HFModelID  string  `mapstructure:"hf_model_id"`
	Threshold  float64 `mapstructure:"threshold"`
	SampleRate float64 `mapstructure:"sample_rate"` // fraction of rows to check
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Data defaults
	viper.SetDefault("data.train_path", "./data/train.csv")
	viper.SetDefault("data.output_dir", "./data/prepared")
	viper.SetDefault("data.workers", 0)

	// Tokenizer defaults
	viper.SetDefault("tokenizer.pretrained", "klue/bert-base")
	viper.SetDefault("tokenizer.max_length", 256)
	viper.SetDefault("tokenizer.pad_id", 0)

	// Training defaults
	viper.SetDefault("training.folds", 5)
	viper.SetDefault("training.seed", 42)
	viper.SetDefault("training.epochs", 10)
	viper.SetDefault("training.batch_size", 32)
	viper.SetDefault("training.learning_rate", 5e-5)
	viper.SetDefault("training.early_stopping", 3)

	// Inference defaults
	viper.SetDefault("inference.endpoint", "http://localhost:9090")
	viper.SetDefault("inference.timeout", 30)

	// Quality defaults
	viper.SetDefault("quality.enabled", false)
	viper.SetDefault("quality.backend", "gline")
	viper.SetDefault("quality.threshold", 0.5)
	viper.SetDefault("quality.sample_rate", 1.0)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 60)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	// Training run dir defaults
	home, err := os.UserHomeDir()
	if err == nil {
		defaultPath := fmt.Sprintf("%s/.relmark/runs", home)
		viper.SetDefault("training.run_dir", defaultPath)
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	// Data paths
	if path := os.Getenv("RELMARK_TRAIN_PATH"); path != "" {
		config.Data.TrainPath = path
	}
	if path := os.Getenv("RELMARK_OUTPUT_DIR"); path != "" {
		config.Data.OutputDir = path
	}
	if path := os.Getenv("RELMARK_LABEL_TABLE"); path != "" {
		config.Data.LabelTable = path
	}

	// Tokenizer settings
	if path := os.Getenv("RELMARK_VOCAB_PATH"); path != "" {
		config.Tokenizer.VocabPath = path
	}

	// Inference settings
	if endpoint := os.Getenv("RELMARK_INFERENCE_ENDPOINT"); endpoint != "" {
		config.Inference.Endpoint = endpoint
	}
	if apiKey := os.Getenv("RELMARK_INFERENCE_API_KEY"); apiKey != "" {
		config.Inference.APIKey = apiKey
	}

	// Training settings
	if seed := os.Getenv("RELMARK_SEED"); seed != "" {
		if v, err := strconv.ParseInt(seed, 10, 64); err == nil {
			config.Training.Seed = v
		}
	}
	if runDir := os.Getenv("RELMARK_RUN_DIR"); runDir != "" {
		config.Training.RunDir = runDir
	}
	if ckDir := os.Getenv("RELMARK_CHECKPOINT_DIR"); ckDir != "" {
		config.Training.CheckpointDir = ckDir
	}
	if telemetryDir := os.Getenv("RELMARK_TELEMETRY_DIR"); telemetryDir != "" {
		config.Log.TelemetryDir = telemetryDir
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if v, err := strconv.Atoi(port); err == nil {
			config.Server.Port = v
		}
	}
}
