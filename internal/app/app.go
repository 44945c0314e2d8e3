package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mqxu/campus-api/internal/config"
	"github.com/mqxu/campus-api/internal/database"
	"github.com/mqxu/campus-api/internal/middleware"
	"github.com/mqxu/campus-api/internal/pkg/cache"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	logger *zap.Logger
}

// New initializes the application: config → DB → Redis → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := cache.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	if !cfg.IsDev() && len(cfg.AllowedOrigins) == 0 {
		logger.Warn("allowed_origins not set, cross-origin requests are denied")
	}
	router.Use(cors.New(corsConfig(cfg)))

	app := &App{cfg: cfg, router: router, db: db, logger: logger}
	if err := app.registerRoutes(rc); err != nil {
		return nil, err
	}
	return app, nil
}

// corsConfig builds the CORS policy. Explicit origins always win; the
// wildcard fallback is development-only, so an unconfigured production
// deployment denies cross-origin requests instead of echoing any origin
// with credentials enabled.
func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", middleware.RenewedTokenHeader},
		AllowCredentials: true,
	}
	switch {
	case len(cfg.AllowedOrigins) > 0:
		c.AllowOrigins = cfg.AllowedOrigins
	case cfg.IsDev():
		c.AllowOriginFunc = func(origin string) bool { return true }
	default:
		c.AllowOriginFunc = func(origin string) bool { return false }
	}
	return c
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }
