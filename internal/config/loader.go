// Package config provides configuration loading, defaults, and validation for
// the perovskite composition service.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/perovskite-json/pkg/errors"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "PEROVSKITE"

// envKeys lists every leaf key so that AutomaticEnv can resolve variables for
// keys absent from the config file during Unmarshal.
var envKeys = []string{
	"reference.dir", "reference.a", "reference.b", "reference.c",
	"output.backend", "output.default_folder", "output.file_mode", "output.dir_mode",
	"cache.enabled", "cache.addr", "cache.username", "cache.password", "cache.db",
	"cache.pool_size", "cache.dial_timeout", "cache.read_timeout", "cache.write_timeout",
	"cache.ttl", "cache.key_prefix",
	"storage.minio.endpoint", "storage.minio.access_key", "storage.minio.secret_key",
	"storage.minio.bucket", "storage.minio.prefix", "storage.minio.region", "storage.minio.use_ssl",
	"server.port", "server.mode", "server.read_timeout", "server.write_timeout",
	"server.max_body_size", "server.shutdown_timeout",
	"log.level", "log.format", "log.output_paths",
	"metrics.enabled", "metrics.namespace", "metrics.path",
	"metrics.enable_go_metrics", "metrics.enable_process_metrics",
}

// newViper builds a Viper instance with YAML file type, the PEROVSKITE_ env
// prefix and a "." → "_" key replacer, so "cache.addr" resolves to
// PEROVSKITE_CACHE_ADDR.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges PEROVSKITE_* environment
// overrides, applies defaults and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid,
			fmt.Sprintf("failed to read config file %q", configPath))
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from PEROVSKITE_* environment variables and
// defaults, with no config file.
//
//	PEROVSKITE_<SECTION>_<FIELD>   e.g.  PEROVSKITE_OUTPUT_BACKEND
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to unmarshal configuration")
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the newly parsed Config
// whenever the file changes on disk. A change that fails to parse or validate
// is reported to onError (when non-nil) and onChange is not called.
//
// Watch is non-blocking; viper owns the watcher goroutine.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid,
			fmt.Sprintf("failed to read config file %q", configPath))
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad is Load that panics on error, for use in main().
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
