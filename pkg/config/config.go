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
	Workflow     WorkflowConfig
	Maintenance  MaintenanceConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MODULESWAP_APP_ENV" required:"true"`
	Port         string `envconfig:"MODULESWAP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MODULESWAP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MODULESWAP_LOG_WARN_STACK" default:"false"`

	CORSOrigins     []string      `envconfig:"MODULESWAP_CORS_ORIGINS" default:"http://localhost:8000"`
	ShutdownTimeout time.Duration `envconfig:"MODULESWAP_SHUTDOWN_TIMEOUT" default:"15s"`
	IdempotencyTTL  time.Duration `envconfig:"MODULESWAP_IDEMPOTENCY_TTL" default:"24h"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MODULESWAP_DB_DSN"`
	Driver string `envconfig:"MODULESWAP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MODULESWAP_DB_HOST"`
	LegacyPort     int    `envconfig:"MODULESWAP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MODULESWAP_DB_USER"`
	LegacyPassword string `envconfig:"MODULESWAP_DB_PASSWORD"`
	LegacyName     string `envconfig:"MODULESWAP_DB_NAME"`
	LegacySSLMode  string `envconfig:"MODULESWAP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MODULESWAP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MODULESWAP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MODULESWAP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MODULESWAP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite dialector should be used.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"MODULESWAP_REDIS_URL"`
	Address      string        `envconfig:"MODULESWAP_REDIS_ADDR"`
	Password     string        `envconfig:"MODULESWAP_REDIS_PASSWORD"`
	DB           int           `envconfig:"MODULESWAP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MODULESWAP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MODULESWAP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MODULESWAP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MODULESWAP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MODULESWAP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes the access tokens minted by the host application.
type JWTConfig struct {
	Secret string `envconfig:"MODULESWAP_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"MODULESWAP_JWT_ISSUER" required:"true"`
}

type WorkflowConfig struct {
	TTL        time.Duration `envconfig:"MODULESWAP_WORKFLOW_TTL" default:"15m"`
	CookieName string        `envconfig:"MODULESWAP_WORKFLOW_COOKIE" default:"module_swap_workflow"`
}

// MaintenanceConfig drives the cron worker.
type MaintenanceConfig struct {
	Interval             time.Duration `envconfig:"MODULESWAP_MAINTENANCE_INTERVAL" default:"24h"`
	HistoryRetentionDays int           `envconfig:"MODULESWAP_HISTORY_RETENTION_DAYS" default:"90"`
}

// HistoryRetention converts the configured day count into a duration.
func (m MaintenanceConfig) HistoryRetention() time.Duration {
	return time.Duration(m.HistoryRetentionDays) * 24 * time.Hour
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MODULESWAP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MODULESWAP_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
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
