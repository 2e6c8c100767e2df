package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanqian/hydro-agent/internal/domain/auth"
	"github.com/yanqian/hydro-agent/internal/infra/config"
)

// MCPHandler serves the tool-calling protocol.
type MCPHandler http.Handler

// NewRouter wires up the HTTP handlers and returns a configured server.
// mcp may be nil when the tool endpoint is disabled.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service, mcp MCPHandler, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	httpLogger := logger.With("component", "http.router")
	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		metricsMiddleware(),
		requestLogger(httpLogger),
		corsMiddleware(cfg.HTTP.CORS.AllowedOrigins),
		errorHandlingMiddleware(httpLogger),
	)

	router.GET("/healthz", handler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	protected := router.Group("", rateLimitMiddleware(cfg.HTTP.RateLimit, httpLogger), authMiddleware(authSvc, cfg.Auth.Required))

	api := protected.Group("/api/v1")
	{
		api.POST("/water/search", handler.SearchWater)
		api.GET("/stations", handler.ListStations)
		api.GET("/stations/:kind/:code/trend", handler.StationTrend)
		api.POST("/realestate/trades", handler.ApartmentTrades)
		api.GET("/queries/recent", handler.RecentQueries)
	}

	if mcp != nil {
		protected.Any("/mcp", gin.WrapH(mcp))
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
