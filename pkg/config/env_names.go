package config

// EnvPrefix is applied by envconfig on top of the explicit names below.
const EnvPrefix = "SCHOOLPAY"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Env var names referenced outside struct tags (tests, error messages).
const (
	EnvAppEnv    = "SCHOOLPAY_APP_ENV"
	EnvPort      = "SCHOOLPAY_APP_PORT"
	EnvDBDSN     = "SCHOOLPAY_DB_DSN"
	EnvDBHost    = "SCHOOLPAY_DB_HOST"
	EnvDBUser    = "SCHOOLPAY_DB_USER"
	EnvDBName    = "SCHOOLPAY_DB_NAME"
	EnvRedisURL  = "SCHOOLPAY_REDIS_URL"
	EnvJWTSecret = "SCHOOLPAY_JWT_SECRET"
	EnvJWTIssuer = "SCHOOLPAY_JWT_ISSUER"
	EnvPGKey     = "SCHOOLPAY_PG_KEY"
	EnvPGAPIKey  = "SCHOOLPAY_PG_API_KEY"
	EnvPGBaseURL = "SCHOOLPAY_PG_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
