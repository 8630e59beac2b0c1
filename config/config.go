// config/config.go - typed environment configuration
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"3000"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	LogMode string `env:"LOG_MODE" envDefault:"development"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER" envDefault:"postgres"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME" envDefault:"codemaster"`
	DBSSLMode   string `env:"DB_SSLMODE" envDefault:"disable"`

	JWTSecret   string `env:"JWT_SECRET"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000"`

	CatalogPath string `env:"ACHIEVEMENT_CATALOG_PATH"`
	Timezone    string `env:"ACHIEVEMENT_TIMEZONE" envDefault:"Local"`

	RateLimitEnabled     bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitMaxRequests int           `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"100"`
	RateLimitWindow      time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`

	SeenQueueSize int  `env:"SEEN_QUEUE_SIZE" envDefault:"256"`
	SeenMaxTries  uint `env:"SEEN_MAX_TRIES" envDefault:"5"`

	OTelEnabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"codemaster"`
}

// Load reads an optional .env file and parses the environment into a Config.
// A missing .env is not an error; a malformed one is.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate enforces the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set (generate one with: openssl rand -base64 64)")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters long")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.RateLimitMaxRequests <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_MAX_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	if c.SeenQueueSize <= 0 {
		return errors.New("SEEN_QUEUE_SIZE must be positive")
	}
	return nil
}

// Location resolves ACHIEVEMENT_TIMEZONE. Calendar days for streaks and
// daily velocity, and the hour for time-of-day rules, are taken in it.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("ACHIEVEMENT_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

// DSN returns DATABASE_URL or a key/value DSN assembled from the DB_* settings.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}
