package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Locale   LocaleConfig
	Store    StoreConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Gateway  GatewayConfig
	Kafka    KafkaConfig
	Invoice  InvoiceConfig
	S3       S3Config
	Catalog  CatalogConfig
	Logger   LoggerConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// BackendConfig holds settings for the remote storefront API.
type BackendConfig struct {
	BaseURL        string
	ImageBaseURL   string
	Timeout        time.Duration
	BreakerFailure int // consecutive failures before the breaker opens
	BreakerTimeout time.Duration
}

// LocaleConfig describes the home region and the geolocation lookup.
type LocaleConfig struct {
	HomeCountry     string
	HomeCountryName string
	HomeSymbol      string
	ForeignSymbol   string
	HomeCurrency    string
	ForeignCurrency string
	GeoURL          string
	GeoTimeout      time.Duration
}

// StoreConfig selects where session carts are kept.
type StoreConfig struct {
	Driver     string // "memory", "redis" or "postgres"
	SessionTTL time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// GatewayConfig holds the hosted payment widget settings.
type GatewayConfig struct {
	KeyID      string
	ScriptURL  string
	StoreName  string
	ThemeColor string
}

// KafkaConfig holds storefront event publishing settings.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// InvoiceConfig holds local invoice archive settings.
type InvoiceConfig struct {
	Dir        string
	FilePrefix string
}

// S3Config holds AWS S3 configuration for the invoice archive.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "invoices/")
}

// CatalogConfig holds product list caching settings.
type CatalogConfig struct {
	CacheTTL time.Duration
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Backend: BackendConfig{
			BaseURL:        getEnv("BACKEND_BASE_URL", "http://localhost:5000"),
			ImageBaseURL:   getEnv("BACKEND_IMAGE_BASE_URL", ""),
			Timeout:        getEnvAsDuration("BACKEND_TIMEOUT", 15*time.Second),
			BreakerFailure: getEnvAsInt("BACKEND_BREAKER_FAILURES", 5),
			BreakerTimeout: getEnvAsDuration("BACKEND_BREAKER_TIMEOUT", 30*time.Second),
		},
		Locale: LocaleConfig{
			HomeCountry:     strings.ToUpper(getEnv("LOCALE_HOME_COUNTRY", "IN")),
			HomeCountryName: getEnv("LOCALE_HOME_COUNTRY_NAME", "India"),
			HomeSymbol:      getEnv("LOCALE_HOME_SYMBOL", "₹"),
			ForeignSymbol:   getEnv("LOCALE_FOREIGN_SYMBOL", "$"),
			HomeCurrency:    getEnv("LOCALE_HOME_CURRENCY", "INR"),
			ForeignCurrency: getEnv("LOCALE_FOREIGN_CURRENCY", "USD"),
			GeoURL:          getEnv("GEO_LOOKUP_URL", "https://api.country.is/"),
			GeoTimeout:      getEnvAsDuration("GEO_LOOKUP_TIMEOUT", 3*time.Second),
		},
		Store: StoreConfig{
			Driver:     getEnv("CART_STORE", "memory"),
			SessionTTL: getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "storefront"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Gateway: GatewayConfig{
			KeyID:      getEnv("RAZORPAY_KEY_ID", ""),
			ScriptURL:  getEnv("RAZORPAY_SCRIPT_URL", "https://checkout.razorpay.com/v1/checkout.js"),
			StoreName:  getEnv("STORE_NAME", "Tanariri"),
			ThemeColor: getEnv("GATEWAY_THEME_COLOR", "#172554"),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "storefront-events"),
		},
		Invoice: InvoiceConfig{
			Dir:        getEnv("INVOICE_DIR", "data/invoices"),
			FilePrefix: getEnv("INVOICE_FILE_PREFIX", "Invoice"),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "ap-south-1"),
			Prefix:  getEnv("S3_PREFIX", "invoices/"),
		},
		Catalog: CatalogConfig{
			CacheTTL: getEnvAsDuration("CATALOG_CACHE_TTL", time.Minute),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}

	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}

	if c.Backend.BreakerFailure < 1 {
		return fmt.Errorf("backend breaker failures must be at least 1")
	}

	if len(c.Locale.HomeCountry) != 2 {
		return fmt.Errorf("invalid home country code: %q (must be two letters)", c.Locale.HomeCountry)
	}

	switch c.Store.Driver {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required when cart store is redis")
		}
	case "postgres":
		if err := c.Database.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid cart store: %s (must be memory, redis, or postgres)", c.Store.Driver)
	}

	if c.Store.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration syntax ("15s", "2m").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated variable, dropping empty entries.
func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
