package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mqxu/campus-api/internal/middleware"
	authmod "github.com/mqxu/campus-api/internal/modules/auth"
	"github.com/mqxu/campus-api/internal/modules/chat"
	"github.com/mqxu/campus-api/internal/modules/storage/oss"
	usermod "github.com/mqxu/campus-api/internal/modules/user"
	"github.com/mqxu/campus-api/internal/pkg/cache"
	jwtpkg "github.com/mqxu/campus-api/internal/pkg/jwt"
	"github.com/mqxu/campus-api/internal/pkg/response"
	"github.com/mqxu/campus-api/internal/pkg/sms"
	"github.com/mqxu/campus-api/internal/pkg/wechat"
)

func (a *App) registerRoutes(rc cache.Cache) error {
	r := a.router
	cfg := a.cfg

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "资源不存在")
	})

	codec := jwtpkg.NewCodec(cfg.JWT.Secret, cfg.TokenLifetime())
	gate := middleware.NewGate(codec, rc, cfg.TokenRenewWindow(), a.logger)
	authMW := gate.Required()

	userSvc := usermod.NewService(a.db)
	authSvc := authmod.NewService(
		userSvc.Store(),
		rc,
		codec,
		sms.NewLocalProvider(a.logger),
		wechat.NewClient(cfg.Wechat.AppID, cfg.Wechat.AppSecret, cfg.Wechat.URL, a.logger),
		cfg.SmsCodeTTL(),
		cfg.SMS.CodeLength,
		a.logger,
	)
	chatSvc := chat.NewService(a.db, cfg.AI.Providers, chat.NewProviderCompleter(), a.logger)

	var uploader *oss.Uploader
	if cfg.OSS.Bucket != "" {
		up, err := oss.NewUploader(cfg.OSS)
		if err != nil {
			return err
		}
		uploader = up
	} else {
		a.logger.Warn("object storage not configured, uploads disabled")
	}

	api := r.Group("/api/v1")
	api.Use(gate.Optional())

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authmod.NewHandler(authSvc).RegisterRoutes(api, authMW)
	usermod.NewHandler(userSvc, authSvc).RegisterRoutes(api, authMW)
	chat.NewHandler(chatSvc).RegisterRoutes(api, authMW)
	oss.NewHandler(uploader).RegisterRoutes(api, authMW)
	return nil
}
