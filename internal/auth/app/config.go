package app

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/maratshchur/django-auth-template/internal/auth/store/drivers/postgres"
	"github.com/maratshchur/django-auth-template/internal/auth/store/drivers/redis"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	RefreshStoreDatabase = "database"
	RefreshStoreRedis    = "redis"
)

type Config struct {
	SecretKey            string   `env:"AUTH_SECRET_KEY"`                                   // Optional: HS256 secret, at least 32 bytes. Generated per process if empty
	AccessTokenLifetime  Lifetime `env:"AUTH_ACCESS_TOKEN_LIFETIME"  envDefault:"30s"`      // Access token lifetime
	RefreshTokenLifetime Lifetime `env:"AUTH_REFRESH_TOKEN_LIFETIME" envDefault:"2592000s"` // Refresh token lifetime (30 days)
	StoreDriver          string   `env:"AUTH_STORE_DRIVER"           envDefault:"sqlite"`   // sqlite or postgres
	DatabaseFile         string   `env:"AUTH_DATABASE_FILE"          envDefault:"auth.db"`  // SQLite database file
	RefreshStore         string   `env:"AUTH_REFRESH_STORE"          envDefault:"database"` // database or redis
	PepperFile           string   `env:"AUTH_PEPPER_FILE"            envDefault:"pepper"`   // File holding the password pepper
	Env                  string   `env:"ENV"                         envDefault:"dev"`      // Environment (dev, staging, prod)
	LogLevel             string   `env:"LOG_LEVEL"                   envDefault:"info"`     // debug, info, warn, error
	LogFormat            string   `env:"LOG_FORMAT"                  envDefault:"json"`     // json or text
	Port                 int      `env:"PORT"                        envDefault:"8080"`     // HTTP server port
	MetricsEnabled       bool     `env:"METRICS_ENABLED"             envDefault:"true"`     // Expose /metrics

	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"` // Graceful shutdown timeout
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`  // Expired refresh token sweep interval

	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
}

type PostgresConfig struct {
	Host     string `env:"HOST"      envDefault:"localhost"`
	Port     int    `env:"PORT"      envDefault:"5432"`
	DB       string `env:"DB"        envDefault:"auth"`
	User     string `env:"USER"      envDefault:"auth"`
	Password string `env:"PASSWORD"`
	SSLMode  string `env:"SSLMODE"   envDefault:"disable"`
	MaxConns int32  `env:"MAX_CONNS" envDefault:"10"`
}

func (c PostgresConfig) driverConfig() postgres.Config {
	return postgres.Config{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		DBName:          c.DB,
		SSLMode:         c.SSLMode,
		MaxConns:        c.MaxConns,
		MaxConnLifetime: time.Hour,
	}
}

type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB"       envDefault:"0"`
}

func (c RedisConfig) driverConfig() redis.Config {
	return redis.Config{Addr: c.Addr, Password: c.Password, DB: c.DB}
}

// Lifetime is a token lifetime. It accepts Go durations ("30s", "720h") and
// bare integers, read as seconds.
type Lifetime time.Duration

func (l *Lifetime) UnmarshalText(text []byte) error {
	s := string(text)
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		*l = Lifetime(time.Duration(secs) * time.Second)
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid lifetime %q: want seconds or a duration", s)
	}
	*l = Lifetime(d)
	return nil
}

func (l Lifetime) Duration() time.Duration { return time.Duration(l) }

var ErrInvalidConfig = errors.New("invalid_config")

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("%w: AUTH_STORE_DRIVER must be %q or %q, got %q", ErrInvalidConfig, DriverSQLite, DriverPostgres, c.StoreDriver))
	}

	switch c.RefreshStore {
	case RefreshStoreDatabase, RefreshStoreRedis:
	default:
		errs = append(errs, fmt.Errorf("%w: AUTH_REFRESH_STORE must be %q or %q, got %q", ErrInvalidConfig, RefreshStoreDatabase, RefreshStoreRedis, c.RefreshStore))
	}

	if c.AccessTokenLifetime <= 0 {
		errs = append(errs, fmt.Errorf("%w: AUTH_ACCESS_TOKEN_LIFETIME must be positive", ErrInvalidConfig))
	}
	if c.RefreshTokenLifetime <= 0 {
		errs = append(errs, fmt.Errorf("%w: AUTH_REFRESH_TOKEN_LIFETIME must be positive", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}
