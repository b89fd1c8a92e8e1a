// Package config provides configuration management for the blog services.
// Configuration can be loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Service identifies which of the three backend services a process runs.
type Service string

const (
	ServiceAuth     Service = "auth"
	ServicePosts    Service = "posts"
	ServiceComments Service = "comments"
)

// Valid reports whether s names a known service.
func (s Service) Valid() bool {
	switch s {
	case ServiceAuth, ServicePosts, ServiceComments:
		return true
	}
	return false
}

// envName returns the upper-case prefix used by deployment variables
// such as AUTH_SERVICE_PORT or POSTS_DB_HOST.
func (s Service) envName() string {
	return strings.ToUpper(string(s))
}

// defaultPort returns the port each service listens on unless configured.
func (s Service) defaultPort() int {
	switch s {
	case ServicePosts:
		return 3001
	case ServiceComments:
		return 3002
	default:
		return 3000
	}
}

// Config represents the complete configuration of one service process.
type Config struct {
	Service   Service         `mapstructure:"-"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Peers     PeersConfig     `mapstructure:"peers"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
}

// Addr returns the listen address in host:port format.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DatabaseConfig holds database connection settings.
// Supports both PostgreSQL and SQLite backends.
type DatabaseConfig struct {
	// Driver specifies the database driver: "postgres" or "sqlite".
	Driver string `mapstructure:"driver"`

	// PostgreSQL settings (used when Driver is "postgres")
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`

	// SQLite settings (used when Driver is "sqlite")
	Path            string `mapstructure:"path"`             // Path to SQLite database file
	JournalMode     string `mapstructure:"journal_mode"`     // WAL, DELETE, TRUNCATE, etc.
	BusyTimeout     int    `mapstructure:"busy_timeout"`     // Milliseconds to wait for locks
	CacheSize       int    `mapstructure:"cache_size"`       // Page cache size (negative = KB)
	SynchronousMode string `mapstructure:"synchronous_mode"` // NORMAL, FULL, OFF

	// AutoMigrate applies pending schema migrations on startup.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// URL returns the PostgreSQL connection URL.
// Only valid when Driver is "postgres".
func (c DatabaseConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// IsEmbedded returns true if using an embedded database (SQLite).
func (c DatabaseConfig) IsEmbedded() bool {
	return c.Driver == "sqlite"
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// Addr returns the Redis address in host:port format.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig selects the cache backend used by the token gateway.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend string `mapstructure:"backend"`

	// KeyPrefix namespaces keys when several deployments share one Redis.
	KeyPrefix string `mapstructure:"key_prefix"`
}

// AuthConfig holds token and service-to-service credentials.
type AuthConfig struct {
	// JWTSecret signs and verifies identity tokens (auth service only).
	JWTSecret string `mapstructure:"jwt_secret"`

	// TokenTTL is how long an issued token stays valid.
	TokenTTL time.Duration `mapstructure:"token_ttl"`

	// InternalKey is the shared secret carried in the service-key header.
	InternalKey string `mapstructure:"internal_key"`

	// BcryptCost is the work factor for password hashes.
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// PeersConfig holds the base URLs of the other services.
type PeersConfig struct {
	AuthURL     string        `mapstructure:"auth_url"`
	PostsURL    string        `mapstructure:"posts_url"`
	CommentsURL string        `mapstructure:"comments_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// GatewayConfig holds settings of the remote token verification gateway.
type GatewayConfig struct {
	// VerifyCacheTTL bounds how long a successful verification is reused.
	// Zero disables caching.
	VerifyCacheTTL time.Duration `mapstructure:"verify_cache_ttl"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled determines if metrics collection is active.
	Enabled bool `mapstructure:"enabled"`

	// Path is the URL path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	// Enabled determines if rate limiting is active.
	Enabled bool `mapstructure:"enabled"`

	// RequestsPerSecond is the rate of token refill per client.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	// BurstSize is the maximum number of tokens (burst capacity).
	BurstSize int `mapstructure:"burst_size"`

	// CleanupInterval is how often idle client limiters are dropped.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// CORSConfig holds cross-origin settings for the browser client.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// Load reads configuration for the given service from the specified file
// and environment variables. Environment variables take precedence over
// file values. Environment variables are prefixed with BLOG_ and use _ as
// separator; the plain deployment names (JWT_SECRET, INTERNAL_API_KEY,
// AUTH_SERVICE_URL, POSTS_DB_HOST, ...) are accepted as well.
func Load(service Service, configPath string) (*Config, error) {
	cfg, err := load(service, configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadDatabase reads the configuration like Load but only validates the
// database section. Maintenance tools use it where the serving settings
// (secrets, peer URLs) are irrelevant.
func LoadDatabase(service Service, configPath string) (DatabaseConfig, error) {
	cfg, err := load(service, configPath)
	if err != nil {
		return DatabaseConfig{}, err
	}

	if err := cfg.Database.Validate(); err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg.Database, nil
}

func load(service Service, configPath string) (*Config, error) {
	if !service.Valid() {
		return nil, fmt.Errorf("unknown service %q", service)
	}

	v := viper.New()

	setDefaults(v, service)

	v.SetEnvPrefix("BLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnvAliases(v, service); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(string(service))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/blog")
	}

	// Config file is optional; environment variables can be used instead.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Service = service

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper, service Service) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", service.defaultPort())
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_body_size", 1<<20) // 1MB

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "blog")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", string(service)+"_db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 30*time.Second)
	v.SetDefault("database.connect_timeout", 20*time.Second)
	v.SetDefault("database.auto_migrate", true)
	// SQLite defaults
	v.SetDefault("database.path", "./data/"+string(service)+".db")
	v.SetDefault("database.journal_mode", "WAL")
	v.SetDefault("database.busy_timeout", 5000)
	v.SetDefault("database.cache_size", -2000)
	v.SetDefault("database.synchronous_mode", "NORMAL")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)

	// Cache defaults
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.key_prefix", "blog:")

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.internal_key", "")
	v.SetDefault("auth.bcrypt_cost", 10)

	// Peer defaults
	v.SetDefault("peers.auth_url", "http://localhost:3000")
	v.SetDefault("peers.posts_url", "http://localhost:3001")
	v.SetDefault("peers.comments_url", "http://localhost:3002")
	v.SetDefault("peers.timeout", 3*time.Second)

	// Gateway defaults
	v.SetDefault("gateway.verify_cache_ttl", 30*time.Second)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Rate limiting defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst_size", 40)
	v.SetDefault("rate_limit.cleanup_interval", 5*time.Minute)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)
}

// bindEnvAliases maps the deployment variable names used by the container
// setup onto configuration keys. The BLOG_ form is listed first so it wins.
func bindEnvAliases(v *viper.Viper, service Service) error {
	svc := service.envName()
	aliases := map[string][]string{
		"server.port":          {"BLOG_SERVER_PORT", svc + "_SERVICE_PORT"},
		"database.host":        {"BLOG_DATABASE_HOST", svc + "_DB_HOST", "POSTGRES_HOST"},
		"database.port":        {"BLOG_DATABASE_PORT", svc + "_DB_PORT", "POSTGRES_PORT"},
		"database.user":        {"BLOG_DATABASE_USER", svc + "_DB_USER", "POSTGRES_USER"},
		"database.password":    {"BLOG_DATABASE_PASSWORD", svc + "_DB_PASSWORD", "POSTGRES_PASSWORD"},
		"database.database":    {"BLOG_DATABASE_DATABASE", svc + "_DB_NAME", "POSTGRES_DB"},
		"auth.jwt_secret":      {"BLOG_AUTH_JWT_SECRET", "JWT_SECRET"},
		"auth.internal_key":    {"BLOG_AUTH_INTERNAL_KEY", "INTERNAL_API_KEY"},
		"peers.auth_url":       {"BLOG_PEERS_AUTH_URL", "AUTH_SERVICE_URL"},
		"peers.posts_url":      {"BLOG_PEERS_POSTS_URL", "POSTS_SERVICE_URL"},
		"peers.comments_url":   {"BLOG_PEERS_COMMENTS_URL", "COMMENTS_SERVICE_URL"},
		"redis.host":           {"BLOG_REDIS_HOST", "REDIS_HOST"},
		"redis.port":           {"BLOG_REDIS_PORT", "REDIS_PORT"},
		"cors.allowed_origins": {"BLOG_CORS_ALLOWED_ORIGINS", "CORS_ORIGINS"},
	}
	for key, names := range aliases {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the configuration for required values and valid ranges.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if err := c.Database.Validate(); err != nil {
		return err
	}

	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be 'memory' or 'redis'")
	}

	if c.Auth.InternalKey == "" {
		return fmt.Errorf("auth.internal_key is required")
	}

	switch c.Service {
	case ServiceAuth:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required for the auth service")
		}
		if c.Auth.TokenTTL <= 0 {
			return fmt.Errorf("auth.token_ttl must be positive")
		}
	case ServicePosts:
		if c.Peers.AuthURL == "" || c.Peers.CommentsURL == "" {
			return fmt.Errorf("peers.auth_url and peers.comments_url are required for the posts service")
		}
	case ServiceComments:
		if c.Peers.AuthURL == "" || c.Peers.PostsURL == "" {
			return fmt.Errorf("peers.auth_url and peers.posts_url are required for the comments service")
		}
	}

	if c.Peers.Timeout <= 0 {
		return fmt.Errorf("peers.timeout must be positive")
	}
	if c.Gateway.VerifyCacheTTL < 0 {
		return fmt.Errorf("gateway.verify_cache_ttl must not be negative")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.BurstSize < 1) {
		return fmt.Errorf("rate_limit.requests_per_second and rate_limit.burst_size must be positive")
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic")
	}

	return nil
}

// Validate checks the driver and the settings it needs.
func (c DatabaseConfig) Validate() error {
	validDrivers := map[string]bool{"postgres": true, "sqlite": true}
	if !validDrivers[c.Driver] {
		return fmt.Errorf("database.driver must be 'postgres' or 'sqlite'")
	}

	if c.Driver == "postgres" {
		if c.Host == "" {
			return fmt.Errorf("database.host is required for postgres driver")
		}
		if c.User == "" {
			return fmt.Errorf("database.user is required for postgres driver")
		}
		if c.Database == "" {
			return fmt.Errorf("database.database is required for postgres driver")
		}
	} else if c.Path == "" {
		return fmt.Errorf("database.path is required for sqlite driver")
	}

	return nil
}
