// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultAccessSecret  = "murmur-access-secret-change-in-production"
	defaultRefreshSecret = "murmur-refresh-secret-change-in-production"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env  string `mapstructure:"APP_ENV"`
	Port string `mapstructure:"PORT"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	SQLitePath string `mapstructure:"SQLITE_PATH"`
	// AutoMigrate applies the schema when the server starts.
	AutoMigrate bool `mapstructure:"DB_AUTO_MIGRATE"`
	// SeedDemo loads the demo fixtures into an empty database on start.
	SeedDemo bool `mapstructure:"SEED_DEMO"`

	RedisURL        string        `mapstructure:"REDIS_URL"`
	ProfileCacheTTL time.Duration `mapstructure:"PROFILE_CACHE_TTL"`

	AccessSecret   string        `mapstructure:"AT_SECRET"`
	AccessExpires  time.Duration `mapstructure:"AT_EXPIRES"`
	RefreshSecret  string        `mapstructure:"RT_SECRET"`
	RefreshExpires time.Duration `mapstructure:"RT_EXPIRES"`

	AIServiceBaseURL string        `mapstructure:"AI_SERVICE_BASE_URL"`
	AIServiceTimeout time.Duration `mapstructure:"AI_SERVICE_TIMEOUT"`
	AIServiceRetries int           `mapstructure:"AI_SERVICE_RETRIES"`

	// BaseAppURL is the frontend origin allowed by CORS. Comma separated.
	BaseAppURL string `mapstructure:"BASE_APP_URL"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("PORT", "3333")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "murmur")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SQLITE_PATH", "murmur.db")
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("SEED_DEMO", false)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("PROFILE_CACHE_TTL", "5m")
	viper.SetDefault("AT_SECRET", defaultAccessSecret)
	viper.SetDefault("AT_EXPIRES", "15m")
	viper.SetDefault("RT_SECRET", defaultRefreshSecret)
	viper.SetDefault("RT_EXPIRES", "168h")
	viper.SetDefault("AI_SERVICE_BASE_URL", "http://localhost:8000")
	viper.SetDefault("AI_SERVICE_TIMEOUT", "3s")
	viper.SetDefault("AI_SERVICE_RETRIES", 2)
	viper.SetDefault("BASE_APP_URL", "http://localhost:3000")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.AIServiceBaseURL = strings.TrimRight(strings.TrimSpace(c.AIServiceBaseURL), "/")
}

// IsProduction reports whether the config describes a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.AccessSecret == "" || c.RefreshSecret == "" {
		return errors.New("AT_SECRET and RT_SECRET are required")
	}
	if c.AccessExpires <= 0 || c.RefreshExpires <= 0 {
		return errors.New("AT_EXPIRES and RT_EXPIRES must be positive durations")
	}
	if c.AccessExpires >= c.RefreshExpires {
		return errors.New("AT_EXPIRES must be shorter than RT_EXPIRES")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.AIServiceBaseURL == "" {
		return errors.New("AI_SERVICE_BASE_URL is required")
	}
	if c.AIServiceRetries < 0 {
		return errors.New("AI_SERVICE_RETRIES must not be negative")
	}

	if c.AccessSecret == c.RefreshSecret {
		return errors.New("AT_SECRET and RT_SECRET must differ")
	}

	if c.IsProduction() {
		if c.AccessSecret == defaultAccessSecret || c.RefreshSecret == defaultRefreshSecret {
			return errors.New("AT_SECRET and RT_SECRET must be changed from the default values in production")
		}
		if len(c.AccessSecret) < 32 || len(c.RefreshSecret) < 32 {
			return errors.New("AT_SECRET and RT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "postgres" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.BaseAppURL == "*" {
			return errors.New("BASE_APP_URL must name explicit origins in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
	} else if len(c.AccessSecret) < 32 {
		log.Println("WARNING: AT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
