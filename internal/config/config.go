package config

import (
	"fmt"
	"time"

	"github.com/turtacn/dataguard/pkg/constants"
)

// Config holds the application's configuration.
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Anomaly  AnomalyConfig  `mapstructure:"anomaly"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// EngineConfig tunes feature extraction and the integrity path.
type EngineConfig struct {
	Timezone              string        `mapstructure:"timezone"`
	Departments           []string      `mapstructure:"departments"`
	RateWindow            time.Duration `mapstructure:"rate_window"`
	HistoryWindow         time.Duration `mapstructure:"history_window"`
	MaxRateRatio          float64       `mapstructure:"max_rate_ratio"`
	HighImpactChangePct   float64       `mapstructure:"high_impact_change_pct"`
	IntegrityScanInterval time.Duration `mapstructure:"integrity_scan_interval"`
	CrossDepartmentFloor  float64       `mapstructure:"cross_department_floor"`
}

// Location resolves Timezone, falling back to UTC.
func (c EngineConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AnomalyConfig controls model training and score combination.
type AnomalyConfig struct {
	MinTrainingEvents    int              `mapstructure:"min_training_events"`
	MinUserHistory       int              `mapstructure:"min_user_history"`
	TrainingWindowEvents int              `mapstructure:"training_window_events"`
	RetrainInterval      time.Duration    `mapstructure:"retrain_interval"`
	RetrainEveryEvents   int              `mapstructure:"retrain_every_events"`
	LowConfidenceScore   float64          `mapstructure:"low_confidence_score"`
	IsolationWeight      float64          `mapstructure:"isolation_weight"`
	ClusterWeight        float64          `mapstructure:"cluster_weight"`
	Isolation            IsolationConfig  `mapstructure:"isolation"`
	Clustering           ClusteringConfig `mapstructure:"clustering"`
}

// IsolationConfig parameterizes the isolation forest.
type IsolationConfig struct {
	Trees      int   `mapstructure:"trees"`
	SampleSize int   `mapstructure:"sample_size"`
	Seed       int64 `mapstructure:"seed"`
}

// ClusteringConfig parameterizes k-means.
type ClusteringConfig struct {
	K             int   `mapstructure:"k"`
	MaxIterations int   `mapstructure:"max_iterations"`
	Seed          int64 `mapstructure:"seed"`
}

// AlertsConfig controls deduplication and fan-out.
type AlertsConfig struct {
	DedupWindow  time.Duration `mapstructure:"dedup_window"`
	DedupBackend string        `mapstructure:"dedup_backend"` // memory | redis
	Publish      bool          `mapstructure:"publish"`
}

// DatabaseConfig selects and configures the ledger database.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres | sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
	MaxConnLifetime int    `mapstructure:"max_conn_lifetime"`  // in minutes
	MaxConnIdleTime int    `mapstructure:"max_conn_idle_time"` // in minutes
	ConnTimeout     int    `mapstructure:"conn_timeout"`       // in seconds
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// GetDSN returns the libpq-style connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

type KafkaConfig struct {
	Brokers          []string      `mapstructure:"brokers"`
	AlertTopic       string        `mapstructure:"alert_topic"`
	AccessEventTopic string        `mapstructure:"access_event_topic"`
	ConsumerGroup    string        `mapstructure:"consumer_group"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	RequiredAcks     int           `mapstructure:"required_acks"`
	BatchSize        int           `mapstructure:"batch_size"`
	BatchTimeout     time.Duration `mapstructure:"batch_timeout"`

	// RetryInitialInterval and RetryMaxInterval bound the backoff between attempts at an
	// access event that failed for a transient reason.
	RetryInitialInterval time.Duration `mapstructure:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `mapstructure:"retry_max_interval"`
}

// StorageConfig selects where document content and version snapshots live.
type StorageConfig struct {
	Backend  string      `mapstructure:"backend"` // memory | file
	Root     string      `mapstructure:"root"`
	Snapshot string      `mapstructure:"snapshot"` // same | redis | minio
	Minio    MinioConfig `mapstructure:"minio"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Address      string `mapstructure:"address"`
	Path         string `mapstructure:"path"`
	PprofEnabled bool   `mapstructure:"pprof_enabled"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	Environment    string  `mapstructure:"environment"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.Engine.RateWindow <= 0 {
		return fmt.Errorf("engine.rate_window must be positive")
	}
	if c.Engine.HistoryWindow < c.Engine.RateWindow {
		return fmt.Errorf("engine.history_window must be at least engine.rate_window")
	}
	if c.Engine.MaxRateRatio <= 0 {
		return fmt.Errorf("engine.max_rate_ratio must be positive")
	}
	floor := c.Engine.CrossDepartmentFloor
	if floor < constants.MediumThreshold || floor > 1 {
		return fmt.Errorf("engine.cross_department_floor must be within [%.1f, 1], got %v", constants.MediumThreshold, floor)
	}
	if c.Anomaly.IsolationWeight < 0 || c.Anomaly.ClusterWeight < 0 ||
		c.Anomaly.IsolationWeight+c.Anomaly.ClusterWeight == 0 {
		return fmt.Errorf("anomaly weights must be non-negative and not both zero")
	}
	if c.Anomaly.LowConfidenceScore < 0 || c.Anomaly.LowConfidenceScore >= constants.MediumThreshold {
		return fmt.Errorf("anomaly.low_confidence_score must be within [0, %.1f)", constants.MediumThreshold)
	}
	if c.Anomaly.MinTrainingEvents < 2 {
		return fmt.Errorf("anomaly.min_training_events must be at least 2")
	}
	if c.Anomaly.Clustering.K < 1 {
		return fmt.Errorf("anomaly.clustering.k must be at least 1")
	}
	if c.Anomaly.Isolation.Trees < 1 || c.Anomaly.Isolation.SampleSize < 2 {
		return fmt.Errorf("anomaly.isolation needs at least one tree and a sample size of 2")
	}
	if c.Alerts.DedupWindow < 0 {
		return fmt.Errorf("alerts.dedup_window must not be negative")
	}
	switch c.Alerts.DedupBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("alerts.dedup_backend must be memory or redis, got %q", c.Alerts.DedupBackend)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	switch c.Storage.Backend {
	case "memory", "file":
	default:
		return fmt.Errorf("storage.backend must be memory or file, got %q", c.Storage.Backend)
	}
	switch c.Storage.Snapshot {
	case "same", "redis":
	case "minio":
		if c.Storage.Minio.Bucket == "" {
			return fmt.Errorf("storage.minio.bucket is required for the minio snapshot store")
		}
	default:
		return fmt.Errorf("storage.snapshot must be same, redis or minio, got %q", c.Storage.Snapshot)
	}
	return nil
}

//Personal.AI order the ending
