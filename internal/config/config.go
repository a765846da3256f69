package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
	"github.com/carelink/carelink/backend/go-services/internal/tokens"
	"github.com/carelink/carelink/backend/go-services/pkg/logger"
)

// DemoSecret signs tokens outside production when JWT_SECRET is unset.
const DemoSecret = "demo-secret-key-change-in-production"

// Primary store drivers.
const (
	DriverNone     = ""
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	LogLevel  string
	// DemoMode accepts the fixed demo passwords for accounts without a
	// credential. Always false in production.
	DemoMode bool
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Production reports whether the service runs in the production environment.
func (s ServerConfig) Production() bool {
	return strings.EqualFold(s.Environment, "production")
}

type StoreConfig struct {
	Driver        string
	SupabaseURL   string
	SupabaseKey   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	Timeout       time.Duration
	RetryCooldown time.Duration
	RecordDir     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return r.Host + ":" + port
}

type JWTConfig struct {
	Secret    string
	ExpiresIn string
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DEMO_MODE", false)
	viper.SetDefault("JWT_EXPIRES_IN", "24h")
	viper.SetDefault("PRIMARY_STORE_TIMEOUT", "10s")
	viper.SetDefault("PRIMARY_RETRY_COOLDOWN", "30s")
	viper.SetDefault("RECORD_STORE_DIR", "./data")
	viper.SetDefault("MONGODB_DATABASE", "carelink")
	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_RPS", 5)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", false)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(strings.TrimSpace(viper.GetString("PRIMARY_STORE_DRIVER"))),
			SupabaseURL:   firstSet("SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"),
			SupabaseKey:   firstSet("SUPABASE_ANON_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY"),
			DatabaseURL:   viper.GetString("DATABASE_URL"),
			MongoURI:      viper.GetString("MONGODB_URI"),
			MongoDatabase: viper.GetString("MONGODB_DATABASE"),
			Timeout:       viper.GetDuration("PRIMARY_STORE_TIMEOUT"),
			RetryCooldown: viper.GetDuration("PRIMARY_RETRY_COOLDOWN"),
			RecordDir:     viper.GetString("RECORD_STORE_DIR"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       0,
		},
		JWT: JWTConfig{
			Secret:    viper.GetString("JWT_SECRET"),
			ExpiresIn: viper.GetString("JWT_EXPIRES_IN"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		LogLevel: viper.GetString("LOG_LEVEL"),
		DemoMode: viper.GetBool("DEMO_MODE"),
	}

	// A hosted project configured only through its URL and key is selected
	// implicitly.
	if cfg.Store.Driver == DriverNone && cfg.Store.SupabaseURL != "" && cfg.Store.SupabaseKey != "" {
		cfg.Store.Driver = DriverSupabase
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverNone:
	case DriverSupabase:
		if c.Store.SupabaseURL == "" || c.Store.SupabaseKey == "" {
			return fmt.Errorf("PRIMARY_STORE_DRIVER=supabase needs SUPABASE_URL and SUPABASE_ANON_KEY: %w", apperr.ErrConfiguration)
		}
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("PRIMARY_STORE_DRIVER=postgres needs DATABASE_URL: %w", apperr.ErrConfiguration)
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("PRIMARY_STORE_DRIVER=mongo needs MONGODB_URI: %w", apperr.ErrConfiguration)
		}
	default:
		return fmt.Errorf("unknown PRIMARY_STORE_DRIVER %q: %w", c.Store.Driver, apperr.ErrConfiguration)
	}

	if c.Server.Production() && c.DemoMode {
		logger.Warnf("DEMO_MODE ignored in production")
		c.DemoMode = false
	}
	if _, err := tokens.ParseTTLStrict(c.JWT.ExpiresIn); err != nil {
		logger.Warnf("JWT_EXPIRES_IN: %v; tokens will last %s", err, tokens.DefaultTTL)
	}
	if c.Store.Timeout <= 0 {
		c.Store.Timeout = 10 * time.Second
	}
	return nil
}

// SigningSecret returns the token signing secret. Outside production a
// missing JWT_SECRET falls back to DemoSecret with a warning; in production it
// is a configuration error.
func (c *Config) SigningSecret() (string, error) {
	if c.JWT.Secret != "" {
		return c.JWT.Secret, nil
	}
	if c.Server.Production() {
		return "", fmt.Errorf("JWT_SECRET is required in production: %w", apperr.ErrConfiguration)
	}
	logger.Warnf("JWT_SECRET is not set; using the demo secret. Set a secure value before deploying")
	return DemoSecret, nil
}

func firstSet(keys ...string) string {
	for _, k := range keys {
		if v := viper.GetString(k); v != "" {
			return v
		}
	}
	return ""
}
