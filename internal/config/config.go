package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Logging   LoggingConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL             string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// AuthConfig holds token issuance configuration
type AuthConfig struct {
	JWTSecret      string
	JWTAlgorithm   string
	AccessTokenTTL time.Duration
}

// RateLimitConfig holds the global rate limit budget
type RateLimitConfig struct {
	Calls  int
	Period int // seconds
}

var supportedAlgorithms = map[string]bool{
	"HS256": true,
	"HS384": true,
	"HS512": true,
}

// Load loads configuration from the environment. A .env file in the working
// directory is read first if present; a YAML file named by BIKERLY_CONFIG
// supplies defaults under the environment. Missing required values are an
// error — the caller is expected to treat them as fatal.
func Load() (*Config, error) {
	// Best effort: absence of a .env file is not an error.
	_ = godotenv.Load()

	file, err := loadFileDefaults(os.Getenv("BIKERLY_CONFIG"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", file.Database.URL),
			Name:            getEnv("DATABASE_NAME", file.Database.Name),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET_KEY", file.Auth.JWTSecret),
			JWTAlgorithm:   getEnv("JWT_ALGORITHM", "HS256"),
			AccessTokenTTL: time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60)) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Calls:  getEnvInt("RATE_LIMIT_CALLS", 100),
			Period: getEnvInt("RATE_LIMIT_PERIOD", 60),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Database.Name == "" {
		missing = append(missing, "DATABASE_NAME")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if !supportedAlgorithms[c.Auth.JWTAlgorithm] {
		return fmt.Errorf("unsupported JWT_ALGORITHM %q (supported: HS256, HS384, HS512)", c.Auth.JWTAlgorithm)
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.RateLimit.Calls <= 0 || c.RateLimit.Period <= 0 {
		return fmt.Errorf("RATE_LIMIT_CALLS and RATE_LIMIT_PERIOD must be positive")
	}
	return nil
}

// fileDefaults mirrors the subset of config that may be supplied via an
// optional YAML file. Environment variables always win over file values.
type fileDefaults struct {
	Database struct {
		URL  string `yaml:"url"`
		Name string `yaml:"name"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
}

func loadFileDefaults(path string) (fileDefaults, error) {
	var fd fileDefaults
	if path == "" {
		return fd, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fd, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fd); err != nil {
		return fd, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return fd, nil
}

// DSN returns the database connection string: the configured base URL joined
// with the database name.
func (c *DatabaseConfig) DSN() string {
	return strings.TrimRight(c.URL, "/") + "/" + c.Name
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
