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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Stripe       StripeConfig
	Orders       OrdersConfig
	Payout       PayoutConfig
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
	Env          string `envconfig:"ECOMMERCE_APP_ENV" required:"true"`
	Port         string `envconfig:"ECOMMERCE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ECOMMERCE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ECOMMERCE_LOG_WARN_STACK" default:"false"`
	FrontendURL  string `envconfig:"ECOMMERCE_FRONTEND_URL" required:"true"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ECOMMERCE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ECOMMERCE_DB_DSN"`
	Driver string `envconfig:"ECOMMERCE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ECOMMERCE_DB_HOST"`
	LegacyPort     int    `envconfig:"ECOMMERCE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ECOMMERCE_DB_USER"`
	LegacyPassword string `envconfig:"ECOMMERCE_DB_PASSWORD"`
	LegacyName     string `envconfig:"ECOMMERCE_DB_NAME"`
	LegacySSLMode  string `envconfig:"ECOMMERCE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ECOMMERCE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ECOMMERCE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ECOMMERCE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ECOMMERCE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ECOMMERCE_REDIS_URL"`
	Address      string        `envconfig:"ECOMMERCE_REDIS_ADDR"`
	Password     string        `envconfig:"ECOMMERCE_REDIS_PASSWORD"`
	DB           int           `envconfig:"ECOMMERCE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ECOMMERCE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ECOMMERCE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ECOMMERCE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ECOMMERCE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ECOMMERCE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	APIKey         string        `envconfig:"ECOMMERCE_STRIPE_API_KEY"`
	Secret         string        `envconfig:"ECOMMERCE_STRIPE_WEBHOOK_SECRET"`
	Env            string        `envconfig:"ECOMMERCE_STRIPE_ENV" default:"test"`
	PlatformUserID string        `envconfig:"ECOMMERCE_STRIPE_PLATFORM_USER_ID"`
	CallTimeout    time.Duration `envconfig:"ECOMMERCE_STRIPE_CALL_TIMEOUT" default:"15s"`
	EventTTL       time.Duration `envconfig:"ECOMMERCE_STRIPE_EVENT_TTL" default:"72h"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type OrdersConfig struct {
	CancellationWindowDays int `envconfig:"ECOMMERCE_ORDERS_CANCELLATION_WINDOW_DAYS" default:"10"`
}

// CancellationWindow returns the window as a duration.
func (o OrdersConfig) CancellationWindow() time.Duration {
	days := o.CancellationWindowDays
	if days <= 0 {
		days = 10
	}
	return time.Duration(days) * 24 * time.Hour
}

type PayoutConfig struct {
	Interval time.Duration `envconfig:"ECOMMERCE_PAYOUT_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"ECOMMERCE_PAYOUT_LOCK_TTL" default:"25h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ECOMMERCE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ECOMMERCE_AUTO_MIGRATE" default:"false"`
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
