package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/gale-audit/internal/domain"
)

const maxBatchSize = 1000

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Optional YAML overrides for the classification parameters and the
	// reference station network. Empty paths use the built-in defaults.
	ThresholdsFile       string
	ReferenceNetworkFile string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := parseDurationEnv("BATCH_FLUSH_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "gale-audit-jobs"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "gale-audit-reports"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "gale-audit"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		ThresholdsFile:       os.Getenv("THRESHOLDS_FILE"),
		ReferenceNetworkFile: os.Getenv("REFERENCE_NETWORK_FILE"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

// Thresholds loads the classification parameters, from ThresholdsFile
// when set, the engine defaults otherwise. The result is validated
// either way.
func (c *Config) Thresholds() (domain.Thresholds, error) {
	th := domain.DefaultThresholds()
	if c.ThresholdsFile != "" {
		data, err := os.ReadFile(c.ThresholdsFile)
		if err != nil {
			return domain.Thresholds{}, fmt.Errorf("read thresholds file: %w", err)
		}
		if err := yaml.Unmarshal(data, &th); err != nil {
			return domain.Thresholds{}, fmt.Errorf("parse thresholds file: %w", err)
		}
	}
	if err := th.Validate(); err != nil {
		return domain.Thresholds{}, fmt.Errorf("thresholds file %s: %w", c.ThresholdsFile, err)
	}
	return th, nil
}

// ReferenceNetwork loads the station network, from ReferenceNetworkFile
// when set, the built-in eight-station network otherwise.
func (c *Config) ReferenceNetwork() ([]domain.Station, error) {
	if c.ReferenceNetworkFile == "" {
		return domain.DefaultReferenceNetwork(), nil
	}
	data, err := os.ReadFile(c.ReferenceNetworkFile)
	if err != nil {
		return nil, fmt.Errorf("read network file: %w", err)
	}
	var doc struct {
		Stations []domain.Station `yaml:"stations"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse network file: %w", err)
	}
	if len(doc.Stations) == 0 {
		return nil, fmt.Errorf("network file %s: no stations", c.ReferenceNetworkFile)
	}
	return doc.Stations, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseBatchSize() (int, error) {
	s := os.Getenv("BATCH_SIZE")
	if s == "" {
		return 50, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxBatchSize {
		return 0, fmt.Errorf("invalid BATCH_SIZE: %q (must be 1-%d)", s, maxBatchSize)
	}
	return n, nil
}
