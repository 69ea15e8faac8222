package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Minute, cfg.Engine.RateWindow)
	assert.Equal(t, 0.8, cfg.Engine.CrossDepartmentFloor)
	assert.Equal(t, []string{"HR", "Finance", "Legal", "IT"}, cfg.Engine.Departments)
	assert.Equal(t, 50, cfg.Anomaly.MinTrainingEvents)
	assert.Equal(t, 100, cfg.Anomaly.Isolation.Trees)
	assert.Equal(t, int64(42), cfg.Anomaly.Clustering.Seed)
	assert.Equal(t, 10*time.Minute, cfg.Alerts.DedupWindow)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, time.UTC, cfg.Engine.Location())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
engine:
  timezone: Asia/Kolkata
  cross_department_floor: 0.75
alerts:
  dedup_window: 5m
anomaly:
  isolation_weight: 0.7
  cluster_weight: 0.3
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("DATAGUARD_DATABASE_DRIVER", "postgres")
	t.Setenv("DATAGUARD_ENGINE_RATE_WINDOW", "15m")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.75, cfg.Engine.CrossDepartmentFloor)
	assert.Equal(t, 5*time.Minute, cfg.Alerts.DedupWindow)
	assert.Equal(t, 0.7, cfg.Anomaly.IsolationWeight)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Engine.RateWindow)
	assert.Equal(t, "Asia/Kolkata", cfg.Engine.Location().String())
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  cross_department_floor: 0.2\n"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero weights", func(c *Config) { c.Anomaly.IsolationWeight, c.Anomaly.ClusterWeight = 0, 0 }},
		{"bad dedup backend", func(c *Config) { c.Alerts.DedupBackend = "etcd" }},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"bad storage", func(c *Config) { c.Storage.Backend = "s3" }},
		{"minio without bucket", func(c *Config) { c.Storage.Snapshot = "minio" }},
		{"low confidence score alerts", func(c *Config) { c.Anomaly.LowConfidenceScore = 0.5 }},
		{"history shorter than rate window", func(c *Config) { c.Engine.HistoryWindow = time.Minute }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "dg", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=dg sslmode=disable", c.GetDSN())
}
