package config

import "time"

const (
	BackendFilesystem = "filesystem"
	BackendMinIO      = "minio"
)

const (
	DefaultReferenceDir = "Data_ions"
	DefaultReferenceA   = "A-ion_data.xlsx"
	DefaultReferenceB   = "B-ion_data.xlsx"
	DefaultReferenceC   = "C-ion_data.xlsx"

	DefaultOutputFolder = "Data"
	DefaultFileMode     = "0644"
	DefaultDirMode      = "0755"

	DefaultCacheAddr   = "localhost:6379"
	DefaultCacheTTL    = 5 * time.Minute
	DefaultCachePrefix = "perovskite:"

	DefaultMinIOBucket = "perovskite-documents"
	DefaultMinIORegion = "us-east-1"

	DefaultServerPort            = 8080
	DefaultServerMode            = "release"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 15 * time.Second
	DefaultServerMaxBodySize     = 1 << 20
	DefaultServerShutdownTimeout = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "perovskite"
	DefaultMetricsPath      = "/metrics"
)

// ApplyDefaults fills every zero-value field in cfg with its default.
// Fields already set by the caller are left unchanged.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Reference
	if cfg.Reference.Dir == "" {
		cfg.Reference.Dir = DefaultReferenceDir
	}
	if cfg.Reference.A == "" {
		cfg.Reference.A = DefaultReferenceA
	}
	if cfg.Reference.B == "" {
		cfg.Reference.B = DefaultReferenceB
	}
	if cfg.Reference.C == "" {
		cfg.Reference.C = DefaultReferenceC
	}

	// Output
	if cfg.Output.Backend == "" {
		cfg.Output.Backend = BackendFilesystem
	}
	if cfg.Output.DefaultFolder == "" {
		cfg.Output.DefaultFolder = DefaultOutputFolder
	}
	if cfg.Output.FileMode == "" {
		cfg.Output.FileMode = DefaultFileMode
	}
	if cfg.Output.DirMode == "" {
		cfg.Output.DirMode = DefaultDirMode
	}

	// Cache
	if cfg.Cache.Addr == "" {
		cfg.Cache.Addr = DefaultCacheAddr
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCachePrefix
	}

	// Storage
	if cfg.Storage.MinIO.Bucket == "" {
		cfg.Storage.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.Storage.MinIO.Region == "" {
		cfg.Storage.MinIO.Region = DefaultMinIORegion
	}

	// Server
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultServerMaxBodySize
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// Metrics
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

// Default returns a Config populated only with defaults.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
