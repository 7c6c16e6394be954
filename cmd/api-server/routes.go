package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kingstar-club/membership-api/internal/handler"
	"github.com/kingstar-club/membership-api/internal/middleware"
	"github.com/kingstar-club/membership-api/internal/models"
	"github.com/kingstar-club/membership-api/internal/service"
	"github.com/kingstar-club/membership-api/pkg/config"
)

type routeHandlers struct {
	auth       *handler.AuthHandler
	member     *handler.MemberHandler
	admin      *handler.AdminHandler
	card       *handler.CardHandler
	attachment *handler.AttachmentHandler
	metrics    *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, authSvc *service.AuthService, h routeHandlers) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)
	r.GET("/files/:token", h.attachment.Download)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/register", h.member.Register)
		api.POST("/member/login", h.auth.MemberLogin)
		api.POST("/admin/login", h.auth.AdminLogin)

		// Applicants hold no token until approval, so the status read and
		// payment-proof upload stay public.
		api.GET("/user/:id", h.member.Get)
		api.POST("/user/:id/payment-proof", h.member.SubmitPayment)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/membership-card/:id", middleware.RBAC(string(models.RoleAdmin), middleware.Self), h.card.Download)

		admin := authed.Group("/admin")
		admin.Use(middleware.RBAC(string(models.RoleAdmin)))
		{
			admin.GET("/pending-users", h.admin.ListPending)
			admin.GET("/all-users", h.admin.ListAll)
			admin.POST("/approve/:id", h.admin.Approve)
			admin.POST("/reject/:id", h.admin.Reject)
			admin.PUT("/users/:id", h.admin.Edit)
			admin.DELETE("/users/:id", h.admin.Delete)
			admin.GET("/users/:id/attachments", h.attachment.SignedLinks)
			admin.GET("/export", h.admin.ExportRoster)
			admin.GET("/audit-logs", h.admin.AuditLogs)
		}
	}
}
