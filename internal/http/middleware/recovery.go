package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"

	"basegraph.app/coplie/internal/domain"
	"basegraph.app/coplie/internal/template"
)

const (
	internalErrorCode    = "INTERNAL_ERROR"
	internalErrorMessage = "Internal server error"
)

// Recovery turns a panic anywhere below it into a 500 with a webhook-error
// body. The panic value and stack are logged, never returned to the caller.
func Recovery() gin.HandlerFunc {
	renderer := template.Default()

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			slog.ErrorContext(c.Request.Context(), "panic recovered",
				"panic", fmt.Sprint(rec),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			)

			body := renderer.Render(template.WebhookError, map[string]any{
				"error":     internalErrorMessage,
				"code":      internalErrorCode,
				"timestamp": domain.FormatTimestamp(time.Now()),
			})
			c.Data(http.StatusInternalServerError, "application/json; charset=utf-8", []byte(body))
			c.Abort()
		}()

		c.Next()
	}
}
