package bootstrap

import (
	"github.com/go-authgate/dirgate/internal/config"
	"github.com/go-authgate/dirgate/internal/handlers"
	"github.com/go-authgate/dirgate/internal/metrics"
	"github.com/go-authgate/dirgate/internal/middleware"
	"github.com/go-authgate/dirgate/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// authRealm is announced in WWW-Authenticate challenges
const authRealm = "dirgate"

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	h handlerSet,
	d *Directory,
	recorder metrics.Recorder,
) (*gin.Engine, error) {
	setupGinMode(cfg)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.IPMiddleware())
	r.Use(middleware.AccessLog(logger.Named("http")))
	r.Use(metrics.HTTPMetricsMiddleware(recorder))

	r.GET("/healthz", handlers.Healthz(d.Backend.Name()))
	setupMetricsEndpoint(r, cfg, logger)

	loginLimiter, err := setupLoginRateLimit(cfg, logger)
	if err != nil {
		return nil, err
	}
	setupAPIRoutes(r, cfg, h, d, loginLimiter)

	logger.Info("router ready",
		zap.String("app", version.App),
		zap.String("version", version.String()),
		zap.String("backend", d.Backend.Name()),
		zap.String("admin_authority", cfg.AdminAuthority),
	)
	return r, nil
}

// setupAPIRoutes configures the /api/v1 routes
func setupAPIRoutes(
	r *gin.Engine,
	cfg *config.Config,
	h handlerSet,
	d *Directory,
	loginLimiter gin.HandlerFunc,
) {
	api := r.Group("/api/v1")

	login := []gin.HandlerFunc{}
	if loginLimiter != nil {
		login = append(login, loginLimiter)
	}
	api.POST("/auth/login", append(login, h.auth.Login)...)

	// Everything below authenticates each request with HTTP Basic
	protected := api.Group("", middleware.RequireAuth(d.Resolver, authRealm))
	{
		protected.GET("/me", h.auth.Me)
		protected.GET("/resources/*path", h.resource.ListResources)
	}

	admin := protected.Group("", middleware.RequireAuthority(cfg.AdminAuthority))
	{
		admin.GET("/users", h.user.ListUsers)
		admin.POST("/users", h.user.CreateUser)
		admin.GET("/users/:username", h.user.GetUser)
		admin.PUT("/users/:username", h.user.UpdateUser)
		admin.DELETE("/users/:username", h.user.DeleteUser)
		admin.GET("/users/:username/groups", h.user.UserGroups)

		admin.GET("/groups", h.group.ListGroups)
		admin.POST("/groups", h.group.CreateGroup)
		admin.GET("/groups/:group/users", h.group.GroupUsers)
		admin.DELETE("/groups/:group", h.group.DeleteGroup)
	}
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config, logger *zap.Logger) {
	if !cfg.MetricsEnabled {
		logger.Info("prometheus metrics disabled")
		return
	}
	logger.Info("prometheus metrics enabled at /metrics")
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// setupGinMode runs gin in debug mode only for debug logging
func setupGinMode(cfg *config.Config) {
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}
