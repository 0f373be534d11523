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
	Inventory    InventoryConfig
	Idempotency  IdempotencyConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	// local runs flip the whole store to sqlite; the DSN is then a file path
	// and the legacy postgres vars do not apply
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
		if cfg.DB.DSN == "" {
			return nil, fmt.Errorf("%s is required when %s is set", EnvDBDSN, EnvUseSQLite)
		}
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SERVLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"SERVLINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SERVLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SERVLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SERVLINE_DB_DSN"`
	Driver string `envconfig:"SERVLINE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SERVLINE_DB_HOST"`
	LegacyPort     int    `envconfig:"SERVLINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SERVLINE_DB_USER"`
	LegacyPassword string `envconfig:"SERVLINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SERVLINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SERVLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SERVLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SERVLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SERVLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SERVLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SERVLINE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SERVLINE_REDIS_ADDR"`
	Password     string        `envconfig:"SERVLINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SERVLINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SERVLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SERVLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SERVLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SERVLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SERVLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// InventoryConfig tunes the snapshot provider. The cache TTL stays short on
// purpose: reconciliation reads must track live stock closely.
type InventoryConfig struct {
	SnapshotCacheTTL time.Duration `envconfig:"SERVLINE_INVENTORY_SNAPSHOT_CACHE_TTL" default:"2s"`
	LookupTimeout    time.Duration `envconfig:"SERVLINE_INVENTORY_LOOKUP_TIMEOUT" default:"3s"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"SERVLINE_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SERVLINE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SERVLINE_AUTO_MIGRATE" default:"false"`
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
		Scheme: DriverPostgres,
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
