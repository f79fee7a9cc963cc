package cli

import (
	"context"
	stderrors "errors"

	appcomp "github.com/turtacn/perovskite-json/internal/application/composition"
	"github.com/turtacn/perovskite-json/internal/config"
	domain "github.com/turtacn/perovskite-json/internal/domain/composition"
	"github.com/turtacn/perovskite-json/internal/domain/reference"
	rediscache "github.com/turtacn/perovskite-json/internal/infrastructure/database/redis"
	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/perovskite-json/internal/infrastructure/reference/tablefile"
	"github.com/turtacn/perovskite-json/internal/infrastructure/storage/filesystem"
	miniostore "github.com/turtacn/perovskite-json/internal/infrastructure/storage/minio"
	"github.com/turtacn/perovskite-json/internal/interfaces/http/handlers"
	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// Runtime holds the dependencies built from configuration: reference tables
// (optionally behind redis), the document backend, metrics and the
// composition service.
type Runtime struct {
	Config    *config.Config
	Loader    *tablefile.Loader
	Tables    reference.TableSource
	Service   appcomp.Service
	Metrics   *prometheus.AppMetrics
	Collector prometheus.MetricsCollector
	Checkers  []handlers.HealthChecker

	tableCache *rediscache.TableCache
	logger     logging.Logger
	closers    []func() error
}

// NewRuntime wires every component selected by cfg.  Partially built
// resources are released when a later step fails.
func NewRuntime(cfg *config.Config, logger logging.Logger) (rt *Runtime, err error) {
	if cfg == nil {
		return nil, errors.InvalidParam("config is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	rt = &Runtime{Config: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = rt.Close()
			rt = nil
		}
	}()

	if cfg.Metrics.Enabled {
		rt.Collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableGoMetrics:      cfg.Metrics.EnableGoMetrics,
			EnableProcessMetrics: cfg.Metrics.EnableProcessMetrics,
		}, logger)
		if err != nil {
			return nil, err
		}
		rt.Metrics = prometheus.NewAppMetrics(rt.Collector)
	}

	rt.Loader = tablefile.NewLoader(ReferencePaths(cfg), logger)
	rt.Tables = rt.Loader
	rt.Checkers = append(rt.Checkers, handlers.CheckFunc{Component: "reference", Fn: rt.checkTables})

	if cfg.Cache.Enabled {
		if err = rt.wireCache(); err != nil {
			return nil, err
		}
	}

	repo, err := rt.wireRepository()
	if err != nil {
		return nil, err
	}

	rt.Service, err = appcomp.NewService(appcomp.Options{
		Reference:  reference.NewEnricher(rt.Tables, logger),
		Repository: repo,
		Backend:    cfg.Output.Backend,
		Metrics:    rt.Metrics,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// ReferencePaths maps the reference section onto loader paths.
func ReferencePaths(cfg *config.Config) tablefile.Paths {
	return tablefile.Paths{
		Dir: cfg.Reference.Dir,
		A:   cfg.Reference.A,
		B:   cfg.Reference.B,
		C:   cfg.Reference.C,
	}
}

func (rt *Runtime) wireCache() error {
	c := rt.Config.Cache
	client, err := rediscache.NewClient(&rediscache.RedisConfig{
		Addr:         c.Addr,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}, rt.logger.Named("redis"))
	if err != nil {
		return err
	}
	rt.closers = append(rt.closers, client.Close)

	cache := rediscache.NewRedisCache(client, rt.logger,
		rediscache.WithPrefix(c.KeyPrefix),
		rediscache.WithDefaultTTL(c.TTL))
	rt.tableCache = rediscache.NewTableCache(cache, rt.Loader, c.TTL, rt.Metrics, rt.logger)
	rt.Tables = rt.tableCache
	rt.Checkers = append(rt.Checkers, handlers.CheckFunc{Component: "cache", Fn: client.Ping})
	return nil
}

func (rt *Runtime) wireRepository() (domain.DocumentRepository, error) {
	out := rt.Config.Output
	switch out.Backend {
	case config.BackendMinIO:
		m := rt.Config.Storage.MinIO
		client, err := miniostore.NewMinIOClient(&miniostore.MinIOConfig{
			Endpoint:        m.Endpoint,
			AccessKeyID:     m.AccessKey,
			SecretAccessKey: m.SecretKey,
			UseSSL:          m.UseSSL,
			Region:          m.Region,
			Bucket:          m.Bucket,
			Prefix:          m.Prefix,
		}, rt.logger.Named("minio"))
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, client.Close)
		rt.Checkers = append(rt.Checkers, handlers.CheckFunc{
			Component: "storage",
			Fn: func(ctx context.Context) error {
				_, err := client.HealthCheck(ctx)
				return err
			},
		})
		return miniostore.NewDocumentStore(client, rt.logger), nil
	default:
		filePerm, err := out.FilePerm()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "output.file_mode")
		}
		dirPerm, err := out.DirPerm()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "output.dir_mode")
		}
		return filesystem.New(filesystem.Options{
			DefaultFolder: out.DefaultFolder,
			PermFile:      filePerm,
			PermDir:       dirPerm,
		}, rt.logger), nil
	}
}

// checkTables loads every site's table through the configured source.
func (rt *Runtime) checkTables(ctx context.Context) error {
	for _, site := range ptypes.Sites {
		if _, err := rt.Tables.Load(ctx, site); err != nil {
			return err
		}
	}
	return nil
}

// Reload applies the hot-reloadable parts of cfg: reference table locations
// and the log level.  Cached tables are dropped when the locations change.
func (rt *Runtime) Reload(ctx context.Context, cfg *config.Config) {
	paths := ReferencePaths(cfg)
	if paths != rt.Loader.Paths() {
		rt.Loader.SetPaths(paths)
		if rt.tableCache != nil {
			if err := rt.tableCache.Invalidate(ctx); err != nil {
				rt.logger.Warn("failed to invalidate cached reference tables", logging.Err(err))
			}
		}
		rt.logger.Info("reference tables relocated",
			logging.String("a", paths.For(ptypes.SiteA)),
			logging.String("b", paths.For(ptypes.SiteB)),
			logging.String("c", paths.For(ptypes.SiteC)))
	}
	if cfg.Log.Level != rt.Config.Log.Level && logging.SetLevel(rt.logger, cfg.Log.Level) {
		rt.logger.Info("log level changed", logging.String("level", cfg.Log.Level))
	}
	rt.Config.Reference = cfg.Reference
	rt.Config.Log.Level = cfg.Log.Level
}

// Close releases network clients.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return stderrors.Join(errs...)
}
