package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	GinMode  string `envconfig:"GIN_MODE" default:"release"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Database Database
	Redis    Redis
	RabbitMQ RabbitMQ

	RateLimitCount  int64         `envconfig:"RATE_LIMIT_COUNT" default:"30"`
	RateLimitPeriod time.Duration `envconfig:"RATE_LIMIT_PERIOD" default:"1m"`
}

type Database struct {
	// Driver is one of mysql, postgres, sqlite or memory. For sqlite, Name is
	// the database file.
	Driver          string        `envconfig:"DB_DRIVER" default:"mysql"`
	Host            string        `envconfig:"DB_HOST" default:"localhost"`
	Port            string        `envconfig:"DB_PORT" default:"3306"`
	User            string        `envconfig:"DB_USER" default:"root"`
	Password        string        `envconfig:"DB_PASSWORD"`
	Name            string        `envconfig:"DB_NAME" default:"trinkets"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"100"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"20"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"1m"`
}

type Redis struct {
	// Addr left empty disables the product cache and the rate limiter.
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL time.Duration `envconfig:"PRODUCT_CACHE_TTL" default:"5m"`
}

type RabbitMQ struct {
	// URL left empty disables event publication.
	URL      string `envconfig:"RABBITMQ_URL"`
	Exchange string `envconfig:"ORDER_EXCHANGE" default:"order.exchange"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process env config")
	}
	switch cfg.Database.Driver {
	case "mysql", "postgres", "sqlite", "memory":
	default:
		return nil, errors.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	return &cfg, nil
}
