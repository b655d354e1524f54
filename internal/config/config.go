package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database drivers accepted in PORTAL_DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Blob backends accepted in PORTAL_BLOB_BACKEND.
const (
	BlobMinIO  = "minio"
	BlobS3     = "s3"
	BlobMemory = "memory"
)

// Config aggregates runtime configuration for the Contract Portal gateway.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Blob     BlobConfig
	Upload   UploadConfig
	Metrics  MetricsConfig
	Log      LogConfig
	Client   ClientConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects and parameterizes the metadata store.
type DatabaseConfig struct {
	Driver      string
	Postgres    PostgresConfig
	SQLitePath  string
	AutoMigrate bool
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
}

// DSN returns the PostgreSQL DSN string. An explicit URL wins over the parts.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// BlobConfig selects and parameterizes the blob store.
type BlobConfig struct {
	Backend   string
	PublicURL string
	MinIO     MinIOConfig
	S3        S3Config
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
}

// Address returns the endpoint in host:port form, defaulting to the MinIO API port.
func (m MinIOConfig) Address() string {
	if strings.Contains(m.Endpoint, ":") {
		return m.Endpoint
	}
	return m.Endpoint + ":9000"
}

// BaseURL is the public address of objects in the configured bucket.
func (m MinIOConfig) BaseURL() string {
	scheme := "http"
	if m.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, m.Address(), m.Bucket)
}

// S3Config carries AWS S3 (or S3-compatible) settings.
type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// BaseURL is the public address of objects in the configured bucket.
func (s S3Config) BaseURL() string {
	if s.Endpoint != "" {
		return strings.TrimRight(s.Endpoint, "/") + "/" + s.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.Bucket, s.Region)
}

// UploadConfig limits incoming uploads.
type UploadConfig struct {
	MaxBytes int64
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string
	Format string
}

// ClientConfig is consumed by the terminal front-end.
type ClientConfig struct {
	APIURL  string
	Timeout time.Duration
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("PORTAL_API_HOST", "0.0.0.0"),
			Port:         getInt("PORTAL_API_PORT", 8080),
			ReadTimeout:  getDuration("PORTAL_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("PORTAL_API_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  getDuration("PORTAL_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getString("PORTAL_DB_DRIVER", DriverPostgres)),
			Postgres: PostgresConfig{
				URL:      getString("DATABASE_URL", ""),
				Host:     getString("POSTGRES_HOST", "localhost"),
				Port:     getInt("POSTGRES_PORT", 5432),
				User:     getString("POSTGRES_USER", "portal_app"),
				Password: getString("POSTGRES_PASSWORD", "change-me"),
				Database: getString("POSTGRES_DB", "portal"),
				SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
				MaxConns: getInt("POSTGRES_MAX_CONNS", 10),
			},
			SQLitePath:  getString("SQLITE_PATH", "portal.db"),
			AutoMigrate: getBool("PORTAL_DB_AUTO_MIGRATE", true),
		},
		Blob: BlobConfig{
			Backend:   strings.ToLower(getString("PORTAL_BLOB_BACKEND", BlobMinIO)),
			PublicURL: strings.TrimRight(getString("PORTAL_BLOB_PUBLIC_URL", ""), "/"),
			MinIO: MinIOConfig{
				Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
				AccessKeyID:     getString("MINIO_ROOT_USER", "portal"),
				SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
				Bucket:          getString("MINIO_BUCKET", "contracts"),
				UseSSL:          getBool("MINIO_USE_SSL", false),
				Region:          getString("MINIO_REGION", ""),
			},
			S3: S3Config{
				Region:    getString("S3_REGION", ""),
				Bucket:    getString("S3_BUCKET", ""),
				AccessKey: getString("S3_ACCESS_KEY", ""),
				SecretKey: getString("S3_SECRET_KEY", ""),
				Endpoint:  getString("S3_ENDPOINT", ""),
			},
		},
		Upload: UploadConfig{
			MaxBytes: int64(getInt("PORTAL_MAX_UPLOAD_BYTES", 100*1024*1024)),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("PORTAL_METRICS_PATH", "/metrics"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getString("LOG_LEVEL", "info")),
			Format: strings.ToLower(getString("LOG_FORMAT", "json")),
		},
		Client: ClientConfig{
			APIURL:  strings.TrimRight(getString("PORTAL_API_URL", "http://localhost:8080"), "/"),
			Timeout: getDuration("PORTAL_API_TIMEOUT", 0),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// PublicBaseURL returns the prefix of blob URLs handed out to clients.
func (c Config) PublicBaseURL() string {
	if c.Blob.PublicURL != "" {
		return c.Blob.PublicURL
	}
	switch c.Blob.Backend {
	case BlobS3:
		return c.Blob.S3.BaseURL()
	case BlobMemory:
		return "memory://" + c.Blob.MinIO.Bucket
	default:
		return c.Blob.MinIO.BaseURL()
	}
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unsupported PORTAL_DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Blob.Backend {
	case BlobMinIO, BlobMemory:
	case BlobS3:
		if c.Blob.S3.Region == "" || c.Blob.S3.Bucket == "" {
			return fmt.Errorf("S3_REGION and S3_BUCKET are required for the s3 blob backend")
		}
	default:
		return fmt.Errorf("unsupported PORTAL_BLOB_BACKEND %q", c.Blob.Backend)
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("PORTAL_MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
