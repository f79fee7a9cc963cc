package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/perovskite-json/internal/interfaces/http/handlers"
	"github.com/turtacn/perovskite-json/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.
type RouterConfig struct {
	// Handlers
	CompositionHandler *handlers.CompositionHandler
	HealthHandler      *handlers.HealthHandler

	// Middleware
	CORS          *middleware.CORSConfig
	Logging       middleware.LoggingConfig
	MaxBodySize   int64
	Metrics       *prometheus.AppMetrics
	MetricsPath   string
	MetricsHandle http.Handler

	Logger logging.Logger
}

// NewRouter builds the gin engine: global middleware, public health and
// metrics endpoints, and the /api/v1 group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	r.Use(middleware.Metrics(cfg.Metrics))

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}

	if cfg.MetricsHandle != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsHandle))
	}

	api := r.Group("/api/v1")
	api.Use(middleware.BodyLimit(cfg.MaxBodySize))
	if cfg.CompositionHandler != nil {
		cfg.CompositionHandler.RegisterRoutes(api)
	}

	return r
}
