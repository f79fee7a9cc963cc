// Package config defines the configuration structures of the perovskite
// composition service. No I/O or parsing logic lives here, only plain data
// types and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/turtacn/perovskite-json/pkg/errors"
)

// ReferenceConfig locates the per-site reference tables.
type ReferenceConfig struct {
	// Dir is joined to relative table paths.
	Dir string `mapstructure:"dir"`
	A   string `mapstructure:"a"`
	B   string `mapstructure:"b"`
	C   string `mapstructure:"c"`
}

// OutputConfig selects where composition documents are written.
type OutputConfig struct {
	Backend       string `mapstructure:"backend"` // "filesystem" | "minio"
	DefaultFolder string `mapstructure:"default_folder"`
	FileMode      string `mapstructure:"file_mode"`
	DirMode       string `mapstructure:"dir_mode"`
}

// FilePerm parses FileMode as an octal permission.
func (o OutputConfig) FilePerm() (os.FileMode, error) {
	return parsePerm(o.FileMode)
}

// DirPerm parses DirMode as an octal permission.
func (o OutputConfig) DirPerm() (os.FileMode, error) {
	return parsePerm(o.DirMode)
}

func parsePerm(s string) (os.FileMode, error) {
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid permission %q: %w", s, err)
	}
	return os.FileMode(n).Perm(), nil
}

// CacheConfig holds the optional Redis reference-table cache parameters.
type CacheConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	TTL          time.Duration `mapstructure:"ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// StorageConfig groups object-storage backends.
type StorageConfig struct {
	MinIO MinIOConfig `mapstructure:"minio"`
}

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Namespace            string `mapstructure:"namespace"`
	Path                 string `mapstructure:"path"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
}

// Config is the root configuration structure.
type Config struct {
	Reference ReferenceConfig `mapstructure:"reference"`
	Output    OutputConfig    `mapstructure:"output"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

func invalid(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrCodeConfigInvalid, format, args...)
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.
func (c *Config) Validate() error {
	// Reference
	if c.Reference.A == "" || c.Reference.B == "" || c.Reference.C == "" {
		return invalid("reference.a, reference.b and reference.c are required")
	}

	// Output
	switch c.Output.Backend {
	case BackendFilesystem:
	case BackendMinIO:
		if c.Storage.MinIO.Endpoint == "" {
			return invalid("storage.minio.endpoint is required when output.backend is %q", BackendMinIO)
		}
		if c.Storage.MinIO.Bucket == "" {
			return invalid("storage.minio.bucket is required when output.backend is %q", BackendMinIO)
		}
	default:
		return invalid("output.backend %q is invalid; expected filesystem|minio", c.Output.Backend)
	}
	if _, err := c.Output.FilePerm(); err != nil {
		return invalid("output.file_mode: %v", err)
	}
	if _, err := c.Output.DirPerm(); err != nil {
		return invalid("output.dir_mode: %v", err)
	}

	// Cache
	if c.Cache.Enabled {
		if c.Cache.Addr == "" {
			return invalid("cache.addr is required when the cache is enabled")
		}
		if c.Cache.DB < 0 {
			return invalid("cache.db must be >= 0, got %d", c.Cache.DB)
		}
		if c.Cache.TTL <= 0 {
			return invalid("cache.ttl must be positive, got %s", c.Cache.TTL)
		}
	}

	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return invalid("server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
