package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-sql-driver/mysql"
)

// Data source kinds accepted by DATA_SOURCE.
const (
	SourceCSV   = "csv"
	SourceMySQL = "mysql"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Observation data.
	DataSource string
	DataDir    string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Training.
	LagDepth     int
	TestFraction float64
	RandomSeed   uint64
	MinExamples  int
	Parallelism  int

	// PushgatewayURL receives the training metrics at the end of a run when set.
	PushgatewayURL string

	// Artifacts and serving.
	ArtifactDir       string
	ArtifactCacheSize int
	PredictTimeout    time.Duration
	PreloadStations   []string

	// Model-published notifications.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaModelTopic string
	KafkaGroupID    string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataSource: sharedcfg.EnvOrDefault("DATA_SOURCE", SourceCSV),
		DataDir:    sharedcfg.EnvOrDefault("DATA_DIR", "project_data"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     sharedcfg.EnvOrDefault("DB_HOST", "localhost"),
		DBPort:     sharedcfg.EnvOrDefault("DB_PORT", "3306"),
		DBName:     sharedcfg.EnvOrDefault("DB_NAME", "cs411_farm_data"),

		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),

		ArtifactDir:     sharedcfg.EnvOrDefault("ARTIFACT_DIR", "ml/artifacts"),
		PreloadStations: splitList(os.Getenv("PRELOAD_STATIONS")),

		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaModelTopic: sharedcfg.EnvOrDefault("KAFKA_MODEL_TOPIC", "soil-models"),
		KafkaGroupID:    sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "soil-model-serve"),
	}

	if cfg.LagDepth, err = positiveInt("LAG_DEPTH", 2); err != nil {
		return nil, err
	}
	if cfg.MinExamples, err = positiveInt("MIN_EXAMPLES", 10); err != nil {
		return nil, err
	}
	if cfg.Parallelism, err = positiveInt("TRAIN_PARALLELISM", 4); err != nil {
		return nil, err
	}
	if cfg.ArtifactCacheSize, err = positiveInt("ARTIFACT_CACHE_SIZE", 32); err != nil {
		return nil, err
	}
	if cfg.PredictTimeout, err = positiveDuration("PREDICT_TIMEOUT", 2*time.Second); err != nil {
		return nil, err
	}

	frac, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("TEST_FRACTION", "0.2"), 64)
	if err != nil || frac < 0 || frac >= 1 {
		return nil, errors.New("invalid TEST_FRACTION: must be in [0, 1)")
	}
	cfg.TestFraction = frac

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("RANDOM_SEED", "42"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid RANDOM_SEED: must be a non-negative integer")
	}
	cfg.RandomSeed = seed

	enabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("KAFKA_ENABLED", "false"))
	if err != nil {
		return nil, errors.New("invalid KAFKA_ENABLED: must be a boolean")
	}
	cfg.KafkaEnabled = enabled

	switch cfg.DataSource {
	case SourceCSV:
	case SourceMySQL:
		if cfg.DBUser == "" {
			return nil, errors.New("DB_USER is required when DATA_SOURCE is mysql")
		}
	default:
		return nil, fmt.Errorf("invalid DATA_SOURCE %q: must be %s or %s", cfg.DataSource, SourceCSV, SourceMySQL)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaModelTopic == "" {
			return nil, errors.New("KAFKA_MODEL_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// MySQLDSN builds the driver DSN for the observation database.
func (c *Config) MySQLDSN() string {
	mc := mysql.NewConfig()
	mc.User = c.DBUser
	mc.Passwd = c.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.DBHost, c.DBPort)
	mc.DBName = c.DBName
	mc.ParseTime = true
	return mc.FormatDSN()
}

func positiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func positiveDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
