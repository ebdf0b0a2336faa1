// Package config loads the engine configuration from environment variables
// with an optional YAML overlay.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/cloudmend/cloudmend-backend/database"
	"github.com/cloudmend/cloudmend-backend/internal/engine"
	"github.com/cloudmend/cloudmend-backend/internal/risk"
)

// Config is the top-level application configuration. Environment variables
// provide the defaults; CONFIG_FILE names an optional YAML file whose
// non-zero fields override them.
type Config struct {
	APIPort   string `yaml:"api_port"`
	AWSRegion string `yaml:"aws_region"`

	Decision risk.DecisionConfig `yaml:"decision"`

	TaskTimeoutSeconds int     `yaml:"task_timeout_seconds"`
	MaxRetries         int     `yaml:"max_retries"`
	FailureRateLimit   float64 `yaml:"failure_rate_limit"`

	Rescore RescoreConfig `yaml:"rescore"`
	Kafka   KafkaConfig   `yaml:"kafka"`
}

// RescoreConfig controls the batch rescoring fan-out.
type RescoreConfig struct {
	BatchSize      int `yaml:"batch_size"`
	MaxConcurrency int `yaml:"max_concurrency"`
}

// KafkaConfig configures the finding-events consumer.
type KafkaConfig struct {
	Enabled bool   `yaml:"enabled"`
	Broker  string `yaml:"broker"`
	Topic   string `yaml:"topic"`
	GroupID string `yaml:"group_id"`
}

// Load builds the configuration from the environment, then applies the YAML
// overlay named by CONFIG_FILE when present.
func Load() (Config, error) {
	cfg := Config{
		APIPort:            database.GetEnvDefault("API_PORT", "8086"),
		AWSRegion:          database.GetEnvDefault("AWS_REGION", "us-east-1"),
		Decision:           risk.DefaultDecisionConfig(),
		TaskTimeoutSeconds: envInt("TASK_TIMEOUT_SECONDS", 300),
		MaxRetries:         envInt("TASK_MAX_RETRIES", 3),
		FailureRateLimit:   envFloat("FAILURE_RATE_LIMIT", 0.3),
		Rescore: RescoreConfig{
			BatchSize:      envInt("RESCORE_BATCH_SIZE", 25),
			MaxConcurrency: envInt("RESCORE_MAX_CONCURRENCY", 4),
		},
		Kafka: KafkaConfig{
			Enabled: database.GetEnvDefault("KAFKA_ENABLED", "true") == "true",
			Broker:  database.GetEnvDefault("KAFKA_BROKER", "localhost:9092"),
			Topic:   database.GetEnvDefault("KAFKA_TOPIC", "finding-events"),
			GroupID: database.GetEnvDefault("KAFKA_GROUP_ID", "cloudmend-backend"),
		},
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return cfg, err
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, err
	}
	applyOverlay(&cfg, overlay)

	return cfg, nil
}

// applyOverlay copies the overlay's non-zero fields onto cfg.
func applyOverlay(cfg *Config, o Config) {
	if o.APIPort != "" {
		cfg.APIPort = o.APIPort
	}
	if o.AWSRegion != "" {
		cfg.AWSRegion = o.AWSRegion
	}
	if o.Decision.AutomaticThreshold > 0 {
		cfg.Decision.AutomaticThreshold = o.Decision.AutomaticThreshold
	}
	if o.Decision.HumanApprovalThreshold > 0 {
		cfg.Decision.HumanApprovalThreshold = o.Decision.HumanApprovalThreshold
	}
	if o.Decision.EmergencyStopThreshold > 0 {
		cfg.Decision.EmergencyStopThreshold = o.Decision.EmergencyStopThreshold
	}
	if o.TaskTimeoutSeconds > 0 {
		cfg.TaskTimeoutSeconds = o.TaskTimeoutSeconds
	}
	if o.MaxRetries > 0 {
		cfg.MaxRetries = o.MaxRetries
	}
	if o.FailureRateLimit > 0 {
		cfg.FailureRateLimit = o.FailureRateLimit
	}
	if o.Rescore.BatchSize > 0 {
		cfg.Rescore.BatchSize = o.Rescore.BatchSize
	}
	if o.Rescore.MaxConcurrency > 0 {
		cfg.Rescore.MaxConcurrency = o.Rescore.MaxConcurrency
	}
	if o.Kafka.Broker != "" {
		cfg.Kafka.Broker = o.Kafka.Broker
	}
	if o.Kafka.Topic != "" {
		cfg.Kafka.Topic = o.Kafka.Topic
	}
	if o.Kafka.GroupID != "" {
		cfg.Kafka.GroupID = o.Kafka.GroupID
	}
}

// EngineConfig maps the loaded configuration onto the engine's tunables.
func (c Config) EngineConfig() engine.Config {
	ec := engine.DefaultConfig()
	ec.Decision = c.Decision
	ec.DefaultTaskTimeout = time.Duration(c.TaskTimeoutSeconds) * time.Second
	ec.DefaultMaxRetries = uint64(c.MaxRetries)
	ec.FailureRateLimit = c.FailureRateLimit
	return ec
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && v > 0 {
		return v
	}
	return fallback
}
