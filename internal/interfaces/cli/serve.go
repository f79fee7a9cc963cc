package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/turtacn/perovskite-json/internal/config"
	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/perovskite-json/internal/interfaces/http"
	"github.com/turtacn/perovskite-json/internal/interfaces/http/handlers"
	"github.com/turtacn/perovskite-json/internal/interfaces/http/middleware"
)

type serveOptions struct {
	port    int
	noWatch bool
	noCORS  bool
}

// NewServeCmd runs the HTTP form surface until interrupted.
func NewServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: "Serve the composition API, health probes and metrics.  When started with a\n" +
			"config file, edits to the reference table paths and the log level are applied\n" +
			"without a restart.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.port, "port", "p", 0, "listen port (default: server.port)")
	f.BoolVar(&opts.noWatch, "no-watch", false, "do not reload the config file on change")
	f.BoolVar(&opts.noCORS, "no-cors", false, "disable CORS headers")
	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := cliCtx.Config
	logger := cliCtx.Logger

	rt, err := cliCtx.Runtime()
	if err != nil {
		return err
	}

	port := cfg.Server.Port
	if opts.port > 0 {
		port = opts.port
	}

	gin.SetMode(cfg.Server.Mode)
	srv := httpserver.NewServer(httpserver.ServerConfig{
		Port:            port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, newHandler(rt, logger, !opts.noCORS), logger)

	if cliCtx.ConfigPath != "" && !opts.noWatch {
		err := config.Watch(cliCtx.ConfigPath,
			func(next *config.Config) { rt.Reload(cmd.Context(), next) },
			func(err error) { logger.Warn("config reload rejected", logging.Err(err)) })
		if err != nil {
			logger.Warn("config watch unavailable", logging.Err(err))
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	logger.Info("perovskite server started",
		logging.String("version", Version),
		logging.Int("port", port),
		logging.String("backend", cfg.Output.Backend),
		logging.Bool("cache", cfg.Cache.Enabled))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := srv.Stop(context.Background()); err != nil {
		return err
	}
	return <-errCh
}

// newHandler assembles the router over rt.
func newHandler(rt *Runtime, logger logging.Logger, withCORS bool) http.Handler {
	cfg := rt.Config
	routerCfg := httpserver.RouterConfig{
		CompositionHandler: handlers.NewCompositionHandler(rt.Service, logger),
		HealthHandler:      handlers.NewHealthHandler(Version, rt.Metrics, rt.Checkers...),
		Logging:            middleware.DefaultLoggingConfig(),
		MaxBodySize:        cfg.Server.MaxBodySize,
		Metrics:            rt.Metrics,
		Logger:             logger,
	}
	if withCORS {
		cors := middleware.DefaultCORSConfig()
		routerCfg.CORS = &cors
	}
	if rt.Collector != nil {
		routerCfg.MetricsPath = cfg.Metrics.Path
		routerCfg.MetricsHandle = rt.Collector.Handler()
	}
	return httpserver.NewRouter(routerCfg)
}
