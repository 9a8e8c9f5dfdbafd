// Package config loads application configuration. Values are layered:
// built-in defaults, then an optional YAML file named by CONFIG_FILE, then
// environment variables. A .env file in the working directory is loaded into
// the environment first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/snapgram/internal/auth"
)

// Storage drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Mail transports.
const (
	MailLog   = "log"
	MailSMTP  = "smtp"
	MailQueue = "queue"
)

// Config holds all runtime configuration values. It is built once at
// startup and handed to constructors; nothing reads the environment after
// Load returns.
type Config struct {
	Env  string `yaml:"env" env:"APP_ENV"`   // application environment (dev, test, prod)
	Port string `yaml:"port" env:"APP_PORT"` // HTTP port to listen on

	DB        DBConfig        `yaml:"db"`
	JWT       JWTConfig       `yaml:"jwt"`
	Mail      MailConfig      `yaml:"mail"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	BcryptCost   int    `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
	RabbitMQURL  string `yaml:"rabbitmq_url" env:"RABBITMQ_URL"`
	OTelEndpoint string `yaml:"otel_endpoint" env:"OTEL_ENDPOINT"` // empty disables tracing export
}

// DBConfig selects and locates the persistent store.
type DBConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER"`

	// MySQL
	User string `yaml:"user" env:"DB_USER"`
	Pass string `yaml:"pass" env:"DB_PASS"`
	Host string `yaml:"host" env:"DB_HOST"`
	Port string `yaml:"port" env:"DB_PORT"`
	Name string `yaml:"name" env:"DB_NAME"`

	// SQLite
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`

	// MongoDB. Transactions need a replica set.
	MongoURL          string `yaml:"mongodb_url" env:"MONGODB_URL"`
	MongoTransactions bool   `yaml:"mongodb_transactions" env:"MONGODB_TRANSACTIONS"`
}

// JWTConfig carries one signing secret per token kind.
type JWTConfig struct {
	Algorithm     string        `yaml:"algorithm" env:"JWT_ALGORITHM"`
	AccessSecret  string        `yaml:"access_secret" env:"JWT_SECRET"`
	RefreshSecret string        `yaml:"refresh_secret" env:"JWT_REFRESH_SECRET"`
	ResetSecret   string        `yaml:"reset_secret" env:"JWT_RESET_SECRET"`
	AccessTTL     time.Duration `yaml:"access_ttl" env:"ACCESS_TOKEN_TTL"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl" env:"REFRESH_TOKEN_TTL"`
	ResetTTL      time.Duration `yaml:"reset_ttl" env:"RESET_TOKEN_TTL"`
}

// MailConfig selects how password-reset mail leaves the process.
type MailConfig struct {
	Transport string `yaml:"transport" env:"MAIL_TRANSPORT"`
	SMTPHost  string `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort  int    `yaml:"smtp_port" env:"SMTP_PORT"`
	SMTPUser  string `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPass  string `yaml:"smtp_pass" env:"SMTP_PASS"`
	From      string `yaml:"from" env:"MAIL_FROM"`
	RootURL   string `yaml:"root_url" env:"ROOT_URL"` // base of the reset link
}

// Defaults returns the configuration used before any file or environment
// variable is applied.
func Defaults() Config {
	return Config{
		Env:  "dev",
		Port: "8080",
		DB: DBConfig{
			Driver:     DriverSQLite,
			Host:       "127.0.0.1",
			Port:       "3306",
			Name:       "snapgram",
			SQLitePath: "snapgram.db",
			MongoURL:   "mongodb://localhost:27017",
		},
		JWT: JWTConfig{
			Algorithm:  "HS256",
			AccessTTL:  30 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
			ResetTTL:   15 * time.Minute,
		},
		Mail: MailConfig{
			Transport: MailLog,
			SMTPPort:  587,
			From:      "no-reply@snapgram.local",
			RootURL:   "http://localhost:8080",
		},
		Redis:      RedisConfig{CacheTTL: 7 * 24 * time.Hour},
		RateLimit:  defaultRateLimit(),
		BcryptCost: 10,
	}
}

// Load builds the configuration and validates it.
func Load() (Config, error) {
	cfg, err := Read()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read layers defaults, file and environment without validating the
// result. Processes that need only part of the configuration use it.
func Read() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	cfg.Mail.Transport = strings.ToLower(strings.TrimSpace(cfg.Mail.Transport))
	cfg.RateLimit = cfg.RateLimit.normalize()
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate reports every problem found, joined into one error.
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("APP_PORT is required"))
	}

	switch c.DB.Driver {
	case DriverMySQL:
		if c.DB.User == "" || c.DB.Host == "" || c.DB.Name == "" {
			errs = append(errs, errors.New("mysql driver needs DB_USER, DB_HOST and DB_NAME"))
		}
	case DriverSQLite:
		if c.DB.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite driver needs SQLITE_PATH"))
		}
	case DriverMongo:
		if c.DB.MongoURL == "" || c.DB.Name == "" {
			errs = append(errs, errors.New("mongo driver needs MONGODB_URL and DB_NAME"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DB.Driver))
	}

	j := c.JWT
	if j.AccessSecret == "" || j.RefreshSecret == "" || j.ResetSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET, JWT_REFRESH_SECRET and JWT_RESET_SECRET are required"))
	} else if j.AccessSecret == j.RefreshSecret || j.AccessSecret == j.ResetSecret || j.RefreshSecret == j.ResetSecret {
		errs = append(errs, errors.New("access, refresh and reset secrets must differ"))
	}
	switch j.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("unsupported JWT_ALGORITHM %q", j.Algorithm))
	}
	if j.AccessTTL <= 0 || j.RefreshTTL <= 0 || j.ResetTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}

	switch c.Mail.Transport {
	case MailLog:
	case MailSMTP:
		if c.Mail.SMTPHost == "" {
			errs = append(errs, errors.New("smtp transport needs SMTP_HOST"))
		}
	case MailQueue:
		if c.RabbitMQURL == "" {
			errs = append(errs, errors.New("queue transport needs RABBITMQ_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_TRANSPORT %q", c.Mail.Transport))
	}
	return errors.Join(errs...)
}

// CodecConfig maps the JWT settings onto the token codec.
func (c Config) CodecConfig() auth.CodecConfig {
	return auth.CodecConfig{
		Algorithm:     c.JWT.Algorithm,
		AccessSecret:  c.JWT.AccessSecret,
		RefreshSecret: c.JWT.RefreshSecret,
		ResetSecret:   c.JWT.ResetSecret,
		AccessTTL:     c.JWT.AccessTTL,
		RefreshTTL:    c.JWT.RefreshTTL,
		ResetTTL:      c.JWT.ResetTTL,
	}
}
