package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	ArtifactsDriverDisk = "disk"
	ArtifactsDriverS3   = "s3"
)

type Config struct {
	Environment string `toml:"-"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// http
	CorsAllowedOrigins []string `toml:"cors_allowed_origins"`
	// program store
	DBDriver       string `toml:"db_driver"`
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	SQLitePath     string `toml:"sqlite_path"`
	// redis, optional: without it tokens are not checked for revocation and reports are not rate limited
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// report artifacts
	ArtifactsDriver    string `toml:"artifacts_driver"`
	ReportsDir         string `toml:"reports_dir"`
	S3Bucket           string `toml:"s3_bucket"`
	S3Region           string `toml:"s3_region"`
	S3Endpoint         string `toml:"s3_endpoint"`
	S3PathStyle        bool   `toml:"s3_path_style"`
	ReportRateLimitMin int    `toml:"report_rate_limit_per_min"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return fromToml(env, &t)
}

// Parse is like Load, but reads the config from a string.
func Parse(env, content string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(content, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return fromToml(env, &t)
}

func fromToml(env string, t *Toml) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.Environment = strings.ToLower(env)
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.DBDriver == "" {
		c.DBDriver = DBDriverPostgres
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.ArtifactsDriver == "" {
		c.ArtifactsDriver = ArtifactsDriverDisk
	}
	if c.ReportsDir == "" {
		c.ReportsDir = "./reports"
	}
	if c.ReportRateLimitMin <= 0 {
		c.ReportRateLimitMin = 30
	}
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DBDriverPostgres:
		if c.PostgresHost == "" || c.PostgresDBName == "" {
			return fmt.Errorf("postgres driver needs postgres_host and postgres_db_name")
		}
	case DBDriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite driver needs sqlite_path")
		}
	default:
		return fmt.Errorf("unknown db driver: %s", c.DBDriver)
	}

	switch c.ArtifactsDriver {
	case ArtifactsDriverDisk:
	case ArtifactsDriverS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("s3 artifacts driver needs s3_bucket")
		}
	default:
		return fmt.Errorf("unknown artifacts driver: %s", c.ArtifactsDriver)
	}

	return nil
}
