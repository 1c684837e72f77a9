package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gymdesk/accessbridge/internal/interfaces/http/middleware"
)

// SetupRoutes configures all HTTP routes
func (c *Container) SetupRoutes() {
	r := c.engine
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(c.log))
	r.Use(middleware.Recovery(c.log))
	r.Use(middleware.CORS(c.cfg.Server.AllowedOrigins))

	r.GET("/health", c.hdlrs.health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.APIVersion())

	vendor := v1.Group("/vendor")
	vendor.Use(c.webhookLimit.Limit(), c.webhookTokens.RequireToken())
	{
		vendor.POST("/branches/:branch_id/events", c.hdlrs.attendance.IngestEvents)
	}

	api := v1.Group("")
	api.Use(c.apiTokens.RequireToken())
	{
		branches := api.Group("/branches/:branch_id")
		branches.POST("/members/:member_id/sync", c.hdlrs.access.SyncMember)
		branches.POST("/members/:member_id/cards", c.hdlrs.access.RegisterCard)
		branches.DELETE("/members/:member_id/credentials", c.hdlrs.access.RevokeCredentials)
		branches.POST("/events/process", c.hdlrs.attendance.ProcessEvents)
		branches.GET("/sync-logs", c.hdlrs.syncLog.List)

		api.GET("/members/:member_id/zones/:zone_id/access", c.hdlrs.access.CheckZoneAccess)
	}
}
