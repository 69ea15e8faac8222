package config

import (
	"context"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
	"github.com/turtacn/dataguard/pkg/logger"
)

const envPrefix = "DATAGUARD"

// Loader reads configuration from file, environment variables and defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader. An empty configFile searches /etc/dataguard/ and the
// working directory for config.yaml.
func NewLoader(configFile string) *Loader {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/dataguard/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// Load reads the config file (a missing file is not an error) and validates the result.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.WrapError(err, constants.ErrCodeInvalidArgument, "failed to read config")
		}
	}
	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.WrapError(err, constants.ErrCodeInvalidArgument, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapError(err, constants.ErrCodeInvalidArgument, "invalid config")
	}
	return &cfg, nil
}

// Watch reloads the file on change and hands every valid result to onChange.
// Invalid edits are logged and ignored so a typo never takes the running config down.
func (l *Loader) Watch(log logger.Logger, onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		ctx := context.Background()
		cfg, err := l.decode()
		if err != nil {
			log.Error(ctx, "ignoring invalid config change", err, logger.String("file", e.Name))
			return
		}
		log.Info(ctx, "config reloaded", logger.String("file", e.Name), logger.String("op", e.Op.String()))
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// LoadConfig loads the configuration from file, environment variables, and defaults.
func LoadConfig(configFile string) (*Config, error) {
	return NewLoader(configFile).Load()
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode; a failure here is a programming error.
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.timezone", "UTC")
	v.SetDefault("engine.departments", []string{"HR", "Finance", "Legal", "IT"})
	v.SetDefault("engine.rate_window", constants.DefaultRateWindow)
	v.SetDefault("engine.history_window", constants.DefaultHistoryWindow)
	v.SetDefault("engine.max_rate_ratio", constants.DefaultMaxRateRatio)
	v.SetDefault("engine.high_impact_change_pct", constants.DefaultHighImpactChangePct)
	v.SetDefault("engine.integrity_scan_interval", constants.DefaultIntegrityScanInterval)
	v.SetDefault("engine.cross_department_floor", constants.DefaultCrossDepartmentFloor)

	v.SetDefault("anomaly.min_training_events", constants.DefaultMinTrainingEvents)
	v.SetDefault("anomaly.min_user_history", constants.DefaultMinUserHistory)
	v.SetDefault("anomaly.training_window_events", constants.DefaultTrainingWindowEvents)
	v.SetDefault("anomaly.retrain_interval", constants.DefaultRetrainInterval)
	v.SetDefault("anomaly.retrain_every_events", constants.DefaultRetrainEveryEvents)
	v.SetDefault("anomaly.low_confidence_score", 0.0)
	v.SetDefault("anomaly.isolation_weight", 0.5)
	v.SetDefault("anomaly.cluster_weight", 0.5)
	v.SetDefault("anomaly.isolation.trees", 100)
	v.SetDefault("anomaly.isolation.sample_size", 256)
	v.SetDefault("anomaly.isolation.seed", 42)
	v.SetDefault("anomaly.clustering.k", 3)
	v.SetDefault("anomaly.clustering.max_iterations", 100)
	v.SetDefault("anomaly.clustering.seed", 42)

	v.SetDefault("alerts.dedup_window", constants.DefaultDedupWindow)
	v.SetDefault("alerts.dedup_backend", "memory")
	v.SetDefault("alerts.publish", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite_path", "dataguard.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dataguard")
	v.SetDefault("database.database", "dataguard")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", 60)
	v.SetDefault("database.max_conn_idle_time", 10)
	v.SetDefault("database.conn_timeout", 5)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.key_prefix", "dataguard:")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.alert_topic", "dataguard.alerts")
	v.SetDefault("kafka.access_event_topic", "dataguard.access-events")
	v.SetDefault("kafka.consumer_group", "dataguard-engine")
	v.SetDefault("kafka.write_timeout", "10s")
	v.SetDefault("kafka.read_timeout", "10s")
	v.SetDefault("kafka.required_acks", 1)
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "1s")
	v.SetDefault("kafka.retry_initial_interval", "500ms")
	v.SetDefault("kafka.retry_max_interval", "30s")

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.root", "data")
	v.SetDefault("storage.snapshot", "same")
	v.SetDefault("storage.minio.region", "us-east-1")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.address", ":9090")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.pprof_enabled", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", constants.ServiceName)
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("tracing.sampling_rate", 1.0)
}

//Personal.AI order the ending
