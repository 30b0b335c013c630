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
	Gateway      GatewayConfig
	Sweep        SweepConfig
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
	Env          string `envconfig:"SCHOOLPAY_APP_ENV" required:"true"`
	Port         string `envconfig:"SCHOOLPAY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SCHOOLPAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SCHOOLPAY_LOG_WARN_STACK" default:"false"`
	FrontendURL  string `envconfig:"SCHOOLPAY_FRONTEND_URL" default:"http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SCHOOLPAY_DB_DSN"`
	Driver string `envconfig:"SCHOOLPAY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SCHOOLPAY_DB_HOST"`
	LegacyPort     int    `envconfig:"SCHOOLPAY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SCHOOLPAY_DB_USER"`
	LegacyPassword string `envconfig:"SCHOOLPAY_DB_PASSWORD"`
	LegacyName     string `envconfig:"SCHOOLPAY_DB_NAME"`
	LegacySSLMode  string `envconfig:"SCHOOLPAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SCHOOLPAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SCHOOLPAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SCHOOLPAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SCHOOLPAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SCHOOLPAY_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"SCHOOLPAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SCHOOLPAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SCHOOLPAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SCHOOLPAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SCHOOLPAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig backs the dashboard identity check. Tokens are minted by the
// external auth service; this process only verifies them.
type JWTConfig struct {
	Secret string `envconfig:"SCHOOLPAY_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"SCHOOLPAY_JWT_ISSUER" required:"true"`
}

// GatewayConfig carries the shared signing key and credentials for the
// payment gateway. Constructed once at startup and handed to the client.
type GatewayConfig struct {
	BaseURL     string        `envconfig:"SCHOOLPAY_PG_BASE_URL" default:"https://dev-vanilla.edviron.com/erp"`
	SigningKey  string        `envconfig:"SCHOOLPAY_PG_KEY" required:"true"`
	APIKey      string        `envconfig:"SCHOOLPAY_PG_API_KEY" required:"true"`
	Timeout     time.Duration `envconfig:"SCHOOLPAY_PG_TIMEOUT" default:"15s"`
	CallbackURL string        `envconfig:"SCHOOLPAY_PG_CALLBACK_URL"`
}

// SweepConfig tunes the status backfill job in the cron worker.
type SweepConfig struct {
	GracePeriod time.Duration `envconfig:"SCHOOLPAY_SWEEP_GRACE_PERIOD" default:"10m"`
	Interval    time.Duration `envconfig:"SCHOOLPAY_SWEEP_INTERVAL" default:"5m"`
	BatchSize   int           `envconfig:"SCHOOLPAY_SWEEP_BATCH_SIZE" default:"100"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SCHOOLPAY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SCHOOLPAY_AUTO_MIGRATE" default:"false"`
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
