package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/rigworld/server/cache"
	"github.com/kasuganosora/rigworld/server/config"
	mw "github.com/kasuganosora/rigworld/server/middleware"
)

// Handlers groups the REST handlers for route registration.
type Handlers struct {
	Auth  *AuthHandler
	World *WorldHandler
	Admin *AdminHandler
}

// Register mounts every REST route under /api.
func Register(r gin.IRouter, h Handlers, cfg *config.Config, c cache.Cache) {
	auth := mw.Auth(cfg.Security, c)
	api := r.Group("/api")

	authG := api.Group("/auth")
	authG.POST("/login", h.Auth.Login)
	authG.POST("/logout", auth, h.Auth.Logout)
	authG.POST("/refresh", auth, h.Auth.Refresh)

	worldG := api.Group("/world")
	worldG.GET("", h.World.Snapshot)
	worldG.GET("/collision", h.World.Collision)
	worldG.POST("/actions/:action", auth, h.World.Act)

	adminG := api.Group("/admin")
	adminG.Use(mw.IPWhitelist(cfg.Server.AdminIPs), AdminAuth(cfg.Server.AdminKey))
	adminG.GET("/metrics", h.Admin.Metrics)
	adminG.GET("/scheduler", h.Admin.ListSchedulerTasks)
	adminG.POST("/storm", h.Admin.ForceStorm)
	adminG.POST("/ad", h.Admin.TriggerAd)
	adminG.GET("/ledger", h.Admin.Ledger)
	adminG.GET("/env-history", h.Admin.EnvHistory)
}
