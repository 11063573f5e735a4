package config

import (
	"time"

	pkgconfig "github.com/weiawesome/yaycha/pkg/config"
	"github.com/weiawesome/yaycha/pkg/database"
	"github.com/weiawesome/yaycha/pkg/pubsub"
	"github.com/weiawesome/yaycha/pkg/storage"
)

type Config struct {
	Server       ServerConfig
	Database     database.Config
	Redis        RedisConfig
	Cache        CacheConfig
	Auth         AuthConfig
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
	Storage      storage.Config
	Media        MediaConfig
	PubSub       pubsub.Config `mapstructure:"pubsub"`
	CDC          CDCConfig
	Search       SearchConfig
	Reconciler   ReconcilerConfig
	Notification NotificationConfig
	WebSocket    WebSocketConfig
	Log          LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Prefix    string        `mapstructure:"prefix"`
	UserTTL   time.Duration `mapstructure:"user_ttl"`
	SearchTTL time.Duration `mapstructure:"search_ttl"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	AccessTTL time.Duration `mapstructure:"access_ttl"`
	Issuer    string        `mapstructure:"issuer"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	IdleTTL           time.Duration `mapstructure:"idle_ttl"`
}

type MediaConfig struct {
	AvatarSize     int   `mapstructure:"avatar_size"`
	CoverWidth     int   `mapstructure:"cover_width"`
	CoverHeight    int   `mapstructure:"cover_height"`
	JPEGQuality    int   `mapstructure:"jpeg_quality"`
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// CDCConfig configures the Debezium consumer for the follows table.
type CDCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

type SearchConfig struct {
	Backend       string `mapstructure:"backend"` // database, elasticsearch
	Elasticsearch ElasticsearchConfig
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	IndexUsers string   `mapstructure:"index_users"`
}

type ReconcilerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	TopN     int           `mapstructure:"top_n"`
}

type NotificationConfig struct {
	ListLimit     int           `mapstructure:"list_limit"`
	Retention     time.Duration `mapstructure:"retention"`
	PurgeSchedule string        `mapstructure:"purge_schedule"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load(pkgconfig.GetEnv("CONFIG_PATH", "./config"), "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "yaycha")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.file_path", "./data/yaycha.db")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.prefix", "yaycha")
	v.SetDefault("cache.user_ttl", "10m")
	v.SetDefault("cache.search_ttl", "30s")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_ttl", "168h")
	v.SetDefault("auth.issuer", "yaycha-api")
	v.SetDefault("rate_limit.requests_per_second", 1)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("rate_limit.idle_ttl", "10m")
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local.base_path", "./uploads")
	v.SetDefault("storage.local.url_prefix", "/uploads")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.use_path_style", true)
	v.SetDefault("media.avatar_size", 512)
	v.SetDefault("media.cover_width", 1500)
	v.SetDefault("media.cover_height", 500)
	v.SetDefault("media.jpeg_quality", 85)
	v.SetDefault("media.max_upload_bytes", 10<<20)
	v.SetDefault("pubsub.driver", "memory")
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.redis.pool_size", 10)
	v.SetDefault("pubsub.redis.read_timeout", "3s")
	v.SetDefault("pubsub.redis.write_timeout", "3s")
	v.SetDefault("pubsub.kafka.brokers", "localhost:9092")
	v.SetDefault("pubsub.kafka.group_id", "yaycha-api")
	v.SetDefault("pubsub.kafka.topic_prefix", "yaycha")
	v.SetDefault("pubsub.kafka.partitions", 4)
	v.SetDefault("cdc.enabled", false)
	v.SetDefault("cdc.brokers", "localhost:9092")
	v.SetDefault("cdc.topic", "dbserver1.public.follows")
	v.SetDefault("cdc.group_id", "yaycha-follow-counts")
	v.SetDefault("search.backend", "database")
	v.SetDefault("search.elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("search.elasticsearch.index_users", "yaycha-users")
	v.SetDefault("reconciler.interval", "60s")
	v.SetDefault("reconciler.top_n", 100)
	v.SetDefault("notification.list_limit", 40)
	v.SetDefault("notification.retention", "720h")
	v.SetDefault("notification.purge_schedule", "@daily")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 512)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.access_ttl", "JWT_ACCESS_TTL")
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("storage.s3.public_url", "S3_PUBLIC_URL")
	v.BindEnv("pubsub.driver", "PUBSUB_DRIVER")
	v.BindEnv("pubsub.redis.address", "REDIS_ADDRESS")
	v.BindEnv("pubsub.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("cdc.enabled", "CDC_ENABLED")
	v.BindEnv("cdc.brokers", "KAFKA_BROKERS")
	v.BindEnv("cdc.topic", "CDC_TOPIC")
	v.BindEnv("search.backend", "SEARCH_BACKEND")
	v.BindEnv("search.elasticsearch.addresses", "ELASTICSEARCH_ADDRESSES")
	v.BindEnv("reconciler.interval", "RECONCILER_INTERVAL")
	v.BindEnv("reconciler.top_n", "RECONCILER_TOP_N")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
