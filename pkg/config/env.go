package config

// EnvPrefix is passed to envconfig; every field carries an explicit name so it is informational only.
const EnvPrefix = "MODULESWAP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:module_swap.db?_foreign_keys=1"
)

const (
	EnvAppEnv   = "MODULESWAP_APP_ENV"
	EnvPort     = "MODULESWAP_APP_PORT"
	EnvLogLevel = "MODULESWAP_LOG_LEVEL"

	EnvDBDSN    = "MODULESWAP_DB_DSN"
	EnvDBDriver = "MODULESWAP_DB_DRIVER"
	EnvDBHost   = "MODULESWAP_DB_HOST"
	EnvDBPort   = "MODULESWAP_DB_PORT"
	EnvDBUser   = "MODULESWAP_DB_USER"
	EnvDBPass   = "MODULESWAP_DB_PASSWORD"
	EnvDBName   = "MODULESWAP_DB_NAME"

	EnvRedisURL = "MODULESWAP_REDIS_URL"

	EnvJWTSecret = "MODULESWAP_JWT_SECRET"
	EnvJWTIssuer = "MODULESWAP_JWT_ISSUER"

	EnvWorkflowTTL    = "MODULESWAP_WORKFLOW_TTL"
	EnvWorkflowCookie = "MODULESWAP_WORKFLOW_COOKIE"

	EnvUseSQLite   = "MODULESWAP_USE_SQLITE"
	EnvAutoMigrate = "MODULESWAP_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
