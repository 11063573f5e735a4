package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "/uploads", cfg.Storage.Local.URLPrefix)
	assert.Equal(t, 512, cfg.Media.AvatarSize)
	assert.Equal(t, "memory", cfg.PubSub.Driver)
	assert.Equal(t, "yaycha", cfg.PubSub.Kafka.TopicPrefix)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Search.Elasticsearch.Addresses)
	assert.Equal(t, 720*time.Hour, cfg.Notification.Retention)
	assert.Equal(t, "@daily", cfg.Notification.PurgeSchedule)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", t.TempDir())
	t.Setenv("PORT", "9001")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("PUBSUB_DRIVER", "redis")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "redis", cfg.PubSub.Driver)
}
