package webhook

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"basegraph.app/coplie/internal/domain"
	"basegraph.app/coplie/internal/service"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw body.
const SignatureHeader = "Linear-Signature"

const jsonContentType = "application/json; charset=utf-8"

// maxBodyBytes bounds a single delivery. Linear issue payloads are a few KB.
const maxBodyBytes = 1 << 20

type LinearWebhookHandler struct {
	webhooks service.WebhookService
}

func NewLinearWebhookHandler(webhooks service.WebhookService) *LinearWebhookHandler {
	return &LinearWebhookHandler{webhooks: webhooks}
}

// HandleEvent runs a delivery through the pipeline and always answers with a
// rendered webhook-success or webhook-error body. The agent runs inline, so
// the response is only written once it finishes or times out.
func (h *LinearWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		message := "Invalid webhook payload"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			// Checking the signature over a truncated body would report a
			// misleading 401.
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("Webhook payload exceeds %d bytes", tooLarge.Limit)
		}
		slog.WarnContext(ctx, "failed to read webhook body", "error", err, "status", status)
		outcome := &domain.ProcessingOutcome{
			ErrorKind: domain.ErrorKindPayloadMalformed,
			Error:     message,
			Timestamp: time.Now(),
		}
		c.Data(status, jsonContentType, []byte(h.webhooks.FormatResponse(outcome)))
		return
	}

	outcome := h.webhooks.Process(ctx, body, c.GetHeader(SignatureHeader))

	slog.InfoContext(ctx, "linear webhook handled",
		"success", outcome.Success,
		"ignored", outcome.Ignored(),
		"error_kind", outcome.ErrorKind,
		"issue_identifier", outcome.IssueIdentifier,
		"run_id", outcome.RunID,
	)

	c.Data(StatusFor(outcome), jsonContentType, []byte(h.webhooks.FormatResponse(outcome)))
}

// Verify answers the GET check Linear and operators use to check the endpoint.
func (h *LinearWebhookHandler) Verify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Linear webhook endpoint is active",
		"timestamp": domain.FormatTimestamp(time.Now()),
	})
}

// StatusFor maps an outcome to its HTTP status. Agent failures are still a
// 200: the delivery itself was valid and retrying it would rerun the agent.
func StatusFor(outcome *domain.ProcessingOutcome) int {
	if outcome.Success {
		return http.StatusOK
	}

	switch kind := outcome.ErrorKind; {
	case kind == domain.ErrorKindSignatureInvalid:
		return http.StatusUnauthorized
	case kind == domain.ErrorKindPayloadMalformed, kind == domain.ErrorKindPayloadValidationFailed:
		return http.StatusBadRequest
	case kind.IsAgentFailure():
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
