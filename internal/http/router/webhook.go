package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/coplie/internal/http/handler/webhook"
)

func LinearWebhookRouter(rg *gin.RouterGroup, h *webhook.LinearWebhookHandler) {
	rg.POST("/linear", h.HandleEvent)
	rg.GET("/linear", h.Verify)
}
