package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("R2_ACCOUNT_ID", "acct123")

	cfg, err := Get()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "https://acct123.r2.cloudflarestorage.com", cfg.Storage.Endpoint)
	assert.Equal(t, "auto", cfg.Storage.Region)
	assert.Equal(t, time.Minute, cfg.Storage.PresignExpiry)
	assert.Equal(t, 24*time.Hour, cfg.Media.Retention)
	assert.True(t, cfg.Cron.Enabled)
}

func TestGetReadsEnvironment(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("UNIV_DB_PATH", "/tmp/univ.db")
	t.Setenv("R2_ENDPOINT", "http://localhost:9000")
	t.Setenv("R2_PUBLIC_DOMAIN", "https://pub.example.dev/")
	t.Setenv("CRON_ENABLED", "false")
	t.Setenv("REDIS_FRAMES_TTL", "90s")

	cfg, err := Get()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/univ.db", cfg.Database.SQLitePath)
	assert.Equal(t, "http://localhost:9000", cfg.Storage.Endpoint)
	assert.Equal(t, "https://pub.example.dev", cfg.Storage.PublicDomain)
	assert.False(t, cfg.Cron.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Redis.FramesTTL)
}

func TestGetReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("R2_BUCKET: frame-images\nPORT: 7000\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7100")

	cfg, err := Get()
	require.NoError(t, err)

	assert.Equal(t, "frame-images", cfg.Storage.Bucket)
	assert.Equal(t, 7100, cfg.Port, "environment overrides the file")
}

func TestValidateListsMissingVariables(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: "postgres"}}

	err := cfg.Validate()
	require.Error(t, err)
	for _, name := range []string{"DB_USER_NAME", "DB_NAME", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET", "R2_PUBLIC_DOMAIN"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: "oracle"}}
	assert.ErrorContains(t, cfg.Validate(), "unsupported DB_DRIVER")
}

func TestValidateAcceptsCompleteSQLiteConfig(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "sqlite", SQLitePath: "univ.db"},
		Storage: StorageConfig{
			Endpoint:        "https://acct.r2.cloudflarestorage.com",
			AccessKeyID:     "id",
			SecretAccessKey: "secret",
			Bucket:          "frame-images",
			PublicDomain:    "https://pub.example.dev",
		},
	}
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseValidateIgnoresStorage(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: "sqlite", SQLitePath: "univ.db"}}

	assert.NoError(t, cfg.Database.Validate())
	assert.ErrorContains(t, cfg.Validate(), "R2_BUCKET")
}
