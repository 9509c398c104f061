package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
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
	Env          string `envconfig:"STORELINK_APP_ENV" required:"true"`
	Port         string `envconfig:"STORELINK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STORELINK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STORELINK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STORELINK_DB_DSN"`
	Driver string `envconfig:"STORELINK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STORELINK_DB_HOST"`
	LegacyPort     int    `envconfig:"STORELINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STORELINK_DB_USER"`
	LegacyPassword string `envconfig:"STORELINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"STORELINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"STORELINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STORELINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STORELINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STORELINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STORELINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STORELINK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STORELINK_REDIS_ADDR"`
	Password     string        `envconfig:"STORELINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"STORELINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STORELINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STORELINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STORELINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STORELINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STORELINK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STORELINK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STORELINK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STORELINK_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type RateLimitConfig struct {
	CheckoutWindow  time.Duration `envconfig:"STORELINK_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutIPLimit int64         `envconfig:"STORELINK_RATE_LIMIT_CHECKOUT_IP_LIMIT" default:"10"`

	CheckoutPhoneLimit int64 `envconfig:"STORELINK_RATE_LIMIT_CHECKOUT_PHONE_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STORELINK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STORELINK_AUTO_MIGRATE" default:"false"`
}

type CheckoutConfig struct {
	IdempotencyTTL time.Duration `envconfig:"STORELINK_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
	MaxCartLines   int           `envconfig:"STORELINK_CHECKOUT_MAX_CART_LINES" default:"50"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
