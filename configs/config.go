package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	SessionBackendDatabase = "database"
	SessionBackendRedis    = "redis"
)

type Config struct {
	Port string `mapstructure:"PORT"`

	DBDriver         string `mapstructure:"DB_DRIVER"`
	DatabaseURL      string `mapstructure:"DATABASE_URL"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`
	DBPort           string `mapstructure:"DB_PORT"`
	DBTimeZone       string `mapstructure:"DB_TIMEZONE"`
	SQLitePath       string `mapstructure:"SQLITE_PATH"`

	SessionSecret        string        `mapstructure:"SESSION_SECRET"`
	SessionBackend       string        `mapstructure:"SESSION_BACKEND"`
	SessionTTL           time.Duration `mapstructure:"SESSION_TTL"`
	SessionCookieName    string        `mapstructure:"SESSION_COOKIE_NAME"`
	SessionCookieSecure  bool          `mapstructure:"SESSION_COOKIE_SECURE"`
	SessionPurgeInterval time.Duration `mapstructure:"SESSION_PURGE_INTERVAL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Comma separated. Entries ending in "/" match as prefixes, "/" alone matches the root only.
	PublicPaths    string `mapstructure:"PUBLIC_PATHS"`
	ProtectedPaths string `mapstructure:"PROTECTED_PATHS"`

	BcryptCost     int    `mapstructure:"BCRYPT_COST"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	LogFormat      string `mapstructure:"LOG_FORMAT"`
	MetricsEnabled bool   `mapstructure:"METRICS_ENABLED"`

	AfricaTalking AfricaTalkingConfig `mapstructure:",squash"`
	Email         EmailConfig         `mapstructure:",squash"`
}

type AfricaTalkingConfig struct {
	Username string `mapstructure:"AT_USERNAME"`
	APIKey   string `mapstructure:"AT_API_KEY"`
	SMSURL   string `mapstructure:"AT_SMS_URL"`
	SenderID string `mapstructure:"AT_SENDER_ID"`
}

// Enabled reports whether enough is configured to send SMS.
func (c AfricaTalkingConfig) Enabled() bool {
	return c.Username != "" && c.APIKey != ""
}

type EmailConfig struct {
	AWSAccessKeyID     string `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `mapstructure:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion          string `mapstructure:"AWS_REGION"`
	SenderEmail        string `mapstructure:"AWS_SENDER_ADDRESS"`
}

func (c EmailConfig) Enabled() bool {
	return c.SenderEmail != ""
}

// Load reads configuration from the environment and an optional "config.env"
// file in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_USER", "test")
	v.SetDefault("POSTGRES_PASSWORD", "test")
	v.SetDefault("POSTGRES_DB", "test")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("SQLITE_PATH", "bhujal.sqlite3")

	v.SetDefault("SESSION_SECRET", "change-me")
	v.SetDefault("SESSION_BACKEND", SessionBackendDatabase)
	v.SetDefault("SESSION_TTL", 24*time.Hour)
	v.SetDefault("SESSION_COOKIE_NAME", "bhujal_session")
	v.SetDefault("SESSION_COOKIE_SECURE", true)
	v.SetDefault("SESSION_PURGE_INTERVAL", time.Hour)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("PUBLIC_PATHS", "/,/home/,/login/,/signup/")
	v.SetDefault("PROTECTED_PATHS", "/main/")

	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("METRICS_ENABLED", true)

	v.SetDefault("AT_USERNAME", "")
	v.SetDefault("AT_API_KEY", "")
	v.SetDefault("AT_SMS_URL", "https://api.sandbox.africastalking.com/version1/messaging")
	v.SetDefault("AT_SENDER_ID", "AFRICASTKNG")

	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("AWS_REGION", "ap-south-1")
	v.SetDefault("AWS_SENDER_ADDRESS", "")
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.SessionBackend {
	case SessionBackendDatabase, SessionBackendRedis:
	default:
		return fmt.Errorf("config: unsupported SESSION_BACKEND %q", c.SessionBackend)
	}
	if strings.TrimSpace(c.SessionSecret) == "" {
		return errors.New("config: SESSION_SECRET must not be empty")
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	return nil
}

// PostgresDSN returns DATABASE_URL when set, otherwise a keyword DSN built from the POSTGRES_* keys.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.DBPort, c.DBTimeZone,
	)
}

func SplitPaths(raw string) []string {
	var paths []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
