package internal

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"http_server"`
	Database DatabaseConfig `mapstructure:"database"`
	Security SecurityConfig `mapstructure:"security"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	BaseURL        string        `mapstructure:"base_url"`
	AllowedOrigins string        `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig selects the relational provider. An empty provider switches
// the whole service to the seeded in-memory store.
type DatabaseConfig struct {
	Provider        string        `mapstructure:"provider"` // postgres, sqlite or empty
	Source          string        `mapstructure:"source"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration"`
	TwoFactorIssuer      string        `mapstructure:"two_factor_issuer"`
}

type CacheConfig struct {
	Provider   string        `mapstructure:"provider"` // redis or memory
	RedisAddr  string        `mapstructure:"redis_addr"`
	RedisPass  string        `mapstructure:"redis_password"`
	RedisDB    int           `mapstructure:"redis_db"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds the configuration entirely from environment
// variables, the path taken in container deployments. DB_* variables mirror
// the launcher CMS conventions.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
			ReadTimeout:    getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Provider:        strings.ToLower(strings.TrimSpace(os.Getenv("DB_PROVIDER"))),
			Source:          buildDSN(),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Security: SecurityConfig{
			AccessTokenSecret:    os.Getenv("ACCESS_TOKEN_SECRET"),
			RefreshTokenSecret:   os.Getenv("REFRESH_TOKEN_SECRET"),
			AccessTokenDuration:  getEnvAsDuration("ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration: getEnvAsDuration("REFRESH_TOKEN_DURATION", 7*24*time.Hour),
			TwoFactorIssuer:      getEnv("TWO_FACTOR_ISSUER", "ExiledProject"),
		},
		Cache: CacheConfig{
			Provider:   getEnv("CACHE_PROVIDER", "memory"),
			RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPass:  os.Getenv("REDIS_PASSWORD"),
			RedisDB:    getEnvAsInt("REDIS_DB", 0),
			DefaultTTL: getEnvAsDuration("CACHE_DEFAULT_TTL", 30*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// buildDSN assembles a DSN from the discrete DB_* variables when DB_SOURCE is
// not given outright.
func buildDSN() string {
	if src := os.Getenv("DB_SOURCE"); src != "" {
		return src
	}
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("DB_PROVIDER")))
	switch provider {
	case "postgres", "postgresql":
		host := getEnv("DB_HOST", "localhost")
		port := getEnv("DB_PORT", "5432")
		name := getEnv("DB_NAME", "exiledcms")
		user := getEnv("DB_USER", "postgres")
		pass := os.Getenv("DB_PASSWORD")
		ssl := getEnv("DB_SSLMODE", "disable")
		return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
			host, port, name, user, pass, ssl)
	case "sqlite":
		return getEnv("DB_NAME", "exiledcms.db")
	default:
		return ""
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}
	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}
	if err := c.Cache.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("cache config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	switch c.Provider {
	case "", "postgres", "postgresql", "sqlite":
	default:
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}
	if c.Provider != "" && c.Source == "" {
		return errors.New("source is required when a provider is configured")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *SecurityConfig) Validate() error {
	if len(c.AccessTokenSecret) < 32 {
		return errors.New("access token secret must be at least 32 characters")
	}
	if len(c.RefreshTokenSecret) < 32 {
		return errors.New("refresh token secret must be at least 32 characters")
	}
	if c.TwoFactorIssuer == "" {
		return errors.New("two_factor_issuer is required")
	}
	return nil
}

func (c *CacheConfig) Validate() error {
	switch c.Provider {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported cache provider %q", c.Provider)
	}
	if c.Provider == "redis" && c.RedisAddr == "" {
		return errors.New("redis_addr is required for the redis cache")
	}
	return nil
}

func (c *DatabaseConfig) UsesMemoryStore() bool {
	return c.Provider == ""
}
