package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"hemicycle-api"`
	Version                       string   `env:"APP_VERSION" env-default:"dev"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`

	// PostgreSQL
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"hemicycle"`
	DatabaseSSLMode               string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseReconnectRetryCount   int           `env:"DB_RECONNECT_RETRY_COUNT" env-default:"3"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Redis (run lock, rate limiting)
	RedisHost     string        `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int           `env:"REDIS_DB" env-default:"0"`
	SyncLockTTL   time.Duration `env:"SYNC_LOCK_TTL" env-default:"30m"`

	// Kafka change events (optional)
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"mep-changes"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Upstream sources
	EuroparlBaseURL       string        `env:"EUROPARL_BASE_URL" env-default:"https://data.europarl.europa.eu/api/v2"`
	CivicDataBaseURL      string        `env:"CIVIC_DATA_BASE_URL" env-default:""`
	CivicDataAPIKey       string        `env:"CIVIC_DATA_API_KEY" env-default:""`
	CivicDataBudgetLimit  int           `env:"CIVIC_DATA_BUDGET_LIMIT" env-default:"500"`
	CivicDataBudgetWindow time.Duration `env:"CIVIC_DATA_BUDGET_WINDOW" env-default:"1h"`
	SourceRequestTimeout  time.Duration `env:"SOURCE_REQUEST_TIMEOUT" env-default:"30s"`

	// Sync
	ExpectedMaxMEPs  int           `env:"EXPECTED_MAX_MEPS" env-default:"751"`
	SyncScheduleTime string        `env:"SYNC_SCHEDULE_TIME" env-default:"03:00"`
	SyncTimezone     string        `env:"SYNC_TIMEZONE" env-default:"Europe/Brussels"`
	SyncRetryAfter   time.Duration `env:"SYNC_RETRY_AFTER" env-default:"30m"`
	EventRetention   time.Duration `env:"EVENT_RETENTION" env-default:"720h"`

	// Rate limiting (per client IP)
	RateLimitGeneral       int64         `env:"RATE_LIMIT_GENERAL" env-default:"100"`
	RateLimitGeneralWindow time.Duration `env:"RATE_LIMIT_GENERAL_WINDOW" env-default:"1m"`
	RateLimitExport        int64         `env:"RATE_LIMIT_EXPORT" env-default:"10"`
	RateLimitExportWindow  time.Duration `env:"RATE_LIMIT_EXPORT_WINDOW" env-default:"1m"`
	RateLimitAdmin         int64         `env:"RATE_LIMIT_ADMIN" env-default:"30"`
	RateLimitAdminWindow   time.Duration `env:"RATE_LIMIT_ADMIN_WINDOW" env-default:"1m"`

	// Cache
	CacheJanitorInterval time.Duration `env:"CACHE_JANITOR_INTERVAL" env-default:"1m"`

	// Tracing
	TracingEnabled bool `env:"TRACING_ENABLED" env-default:"false"`
}
