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
	SkipCash     SkipCashConfig
	VerifyPoll   VerifyPollConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"BLOX_APP_ENV" required:"true"`
	Port         string `envconfig:"BLOX_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BLOX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BLOX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BLOX_DB_DSN"`
	Driver string `envconfig:"BLOX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BLOX_DB_HOST"`
	LegacyPort     int    `envconfig:"BLOX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BLOX_DB_USER"`
	LegacyPassword string `envconfig:"BLOX_DB_PASSWORD"`
	LegacyName     string `envconfig:"BLOX_DB_NAME"`
	LegacySSLMode  string `envconfig:"BLOX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BLOX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BLOX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BLOX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BLOX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BLOX_REDIS_URL"`
	Address      string        `envconfig:"BLOX_REDIS_ADDR"`
	Password     string        `envconfig:"BLOX_REDIS_PASSWORD"`
	DB           int           `envconfig:"BLOX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BLOX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BLOX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BLOX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BLOX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BLOX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BLOX_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BLOX_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BLOX_JWT_EXPIRATION_MINUTES" default:"60"`
}

// SkipCashConfig holds the payment gateway credentials. The secret is used as
// raw UTF-8 key material for request signing, never decoded from base64 or hex.
type SkipCashConfig struct {
	BaseURL     string        `envconfig:"BLOX_SKIPCASH_BASE_URL" default:"https://api.skipcash.app"`
	KeyID       string        `envconfig:"BLOX_SKIPCASH_KEY_ID"`
	ClientID    string        `envconfig:"BLOX_SKIPCASH_CLIENT_ID"`
	Secret      string        `envconfig:"BLOX_SKIPCASH_SECRET"`
	WebhookURL  string        `envconfig:"BLOX_SKIPCASH_WEBHOOK_URL"`
	ReturnURL   string        `envconfig:"BLOX_SKIPCASH_RETURN_URL"`
	HTTPTimeout time.Duration `envconfig:"BLOX_SKIPCASH_HTTP_TIMEOUT" default:"30s"`
}

// VerifyPollConfig bounds the wait for webhook confirmation during
// client-driven verification. The webhook stays authoritative; the poll only
// smooths the customer-facing result page.
type VerifyPollConfig struct {
	MaxAttempts int           `envconfig:"BLOX_VERIFY_POLL_MAX_ATTEMPTS" default:"10"`
	Backoff     time.Duration `envconfig:"BLOX_VERIFY_POLL_BACKOFF" default:"1s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BLOX_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BLOX_AUTO_MIGRATE" default:"false"`
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
