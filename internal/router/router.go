package router

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"

	"AreYouDead/internal/handler"
	"AreYouDead/internal/middleware"
)

func Register(h *server.Hertz, hs *handler.Handlers) {
	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	h.GET("/healthz", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	v1 := h.Group("/v1")
	v1.Use(middleware.AuthMiddleware(), middleware.GeneralRateLimitMiddleware())

	v1.GET("/status", hs.GetStatus)

	// 打卡路由
	checkIns := v1.Group("/check-ins")
	{
		checkIns.GET("", hs.GetCheckInHistory)
		checkIns.POST("", middleware.CheckInRateLimitMiddleware(), hs.CompleteCheckIn)
	}

	settings := v1.Group("/settings")
	{
		settings.GET("", hs.GetSettings)
		settings.PUT("", hs.UpdateSettings)
	}

	// 紧急联系人路由
	contacts := v1.Group("/contacts")
	{
		contacts.GET("", hs.ListContacts)
		contacts.POST("", hs.CreateContact)
		contacts.PUT("/:id", hs.UpdateContact)
		contacts.DELETE("/:id", hs.DeleteContact)
	}

	v1.GET("/escalations", hs.ListEscalations)
}
