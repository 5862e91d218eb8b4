package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AuthRateLimit AuthRateLimitConfig
	Password      PasswordConfig
	FeatureFlags  FeatureFlagsConfig
	Payout        PayoutConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MERCHANTFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"MERCHANTFLOW_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MERCHANTFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MERCHANTFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MERCHANTFLOW_DB_DSN"`
	Driver string `envconfig:"MERCHANTFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MERCHANTFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"MERCHANTFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MERCHANTFLOW_DB_USER"`
	LegacyPassword string `envconfig:"MERCHANTFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"MERCHANTFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"MERCHANTFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MERCHANTFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MERCHANTFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MERCHANTFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MERCHANTFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either MERCHANTFLOW_DB_DSN or host/user/name variables are required")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.LegacyUser),
		url.QueryEscape(d.LegacyPassword),
		d.LegacyHost,
		d.LegacyPort,
		d.LegacyName,
		d.LegacySSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"MERCHANTFLOW_REDIS_URL"`
	Address      string        `envconfig:"MERCHANTFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"MERCHANTFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"MERCHANTFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MERCHANTFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MERCHANTFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MERCHANTFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MERCHANTFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MERCHANTFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MERCHANTFLOW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MERCHANTFLOW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MERCHANTFLOW_JWT_EXPIRATION_MINUTES" default:"60"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"MERCHANTFLOW_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"MERCHANTFLOW_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"MERCHANTFLOW_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MERCHANTFLOW_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MERCHANTFLOW_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MERCHANTFLOW_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MERCHANTFLOW_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MERCHANTFLOW_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MERCHANTFLOW_AUTO_MIGRATE" default:"false"`
}

// PayoutConfig carries the bonus amounts paid to the assigned representative
// when a merchant deal is won and when the merchant goes live.
type PayoutConfig struct {
	WonBonus  decimal.Decimal `envconfig:"MERCHANTFLOW_PAYOUT_WON_BONUS" default:"9.00"`
	LiveBonus decimal.Decimal `envconfig:"MERCHANTFLOW_PAYOUT_LIVE_BONUS" default:"7.00"`
	Currency  string          `envconfig:"MERCHANTFLOW_PAYOUT_CURRENCY" default:"USD"`
}

type PubSubConfig struct {
	ProjectID  string `envconfig:"MERCHANTFLOW_PUBSUB_PROJECT_ID"`
	AuditTopic string `envconfig:"MERCHANTFLOW_PUBSUB_AUDIT_TOPIC" default:"mf-audit-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MERCHANTFLOW_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MERCHANTFLOW_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MERCHANTFLOW_OUTBOX_MAX_ATTEMPTS" default:"10"`
}
