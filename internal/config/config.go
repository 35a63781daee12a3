package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Auth   AuthConfig
	S3     S3Config
	Ingest IngestConfig
	Guard  GuardConfig
	CORS   CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// AuthConfig holds service-token settings. AdminPasswordHash is a bcrypt
// hash of the operator password exchanged for a token.
type AuthConfig struct {
	Secret            string        `mapstructure:"secret"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"`
	TokenExpiry       time.Duration `mapstructure:"token_expiry"`
	Issuer            string        `mapstructure:"issuer"`
}

// S3Config holds media object storage settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// IngestConfig holds ingest pipeline settings.
type IngestConfig struct {
	StagingDir          string `mapstructure:"staging_dir"`
	ScanConcurrency     int    `mapstructure:"scan_concurrency"`
	ResolverParallelism int64  `mapstructure:"resolver_parallelism"`
	MaxFileSizeMB       int64  `mapstructure:"max_file_size_mb"`
}

// GuardConfig holds schema-revalidation settings.
type GuardConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	PageSize    int `mapstructure:"page_size"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the ARKIVAL_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARKIVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "arkival")
	v.SetDefault("db.password", "arkival_secret")
	v.SetDefault("db.name", "arkival_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Auth defaults
	v.SetDefault("auth.secret", "change-me-in-production")
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("auth.token_expiry", "12h")
	v.SetDefault("auth.issuer", "arkival")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "arkival-media")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Ingest defaults
	v.SetDefault("ingest.staging_dir", "/var/tmp/arkival/staging")
	v.SetDefault("ingest.scan_concurrency", 4)
	v.SetDefault("ingest.resolver_parallelism", 8)
	v.SetDefault("ingest.max_file_size_mb", 2048)

	// Guard defaults
	v.SetDefault("guard.concurrency", 8)
	v.SetDefault("guard.page_size", 200)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Viper reads env lists as a single comma-separated string.
	if len(cfg.CORS.AllowedOrigins) == 1 && strings.Contains(cfg.CORS.AllowedOrigins[0], ",") {
		cfg.CORS.AllowedOrigins = strings.Split(cfg.CORS.AllowedOrigins[0], ",")
	}

	return &cfg, nil
}
