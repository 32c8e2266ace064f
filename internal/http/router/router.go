package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/coplie/internal/http/handler/webhook"
	"basegraph.app/coplie/internal/service"
)

type RouterConfig struct {
	ServiceName string
	Version     string
}

func SetupRoutes(router *gin.Engine, webhooks service.WebhookService, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Service descriptor for operators poking at the root URL.
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    cfg.ServiceName,
			"version": cfg.Version,
			"endpoints": gin.H{
				"webhook": "/webhook/linear",
				"health":  "/health",
			},
		})
	})

	linearHandler := webhook.NewLinearWebhookHandler(webhooks)
	LinearWebhookRouter(router.Group("/webhook"), linearHandler)
}
