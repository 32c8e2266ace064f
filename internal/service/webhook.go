package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"basegraph.app/coplie/common/id"
	"basegraph.app/coplie/common/logger"
	"basegraph.app/coplie/internal/domain"
	"basegraph.app/coplie/internal/mapper"
	"basegraph.app/coplie/internal/template"
)

const (
	msgInvalidSignature = "Invalid webhook signature"
	msgInvalidPayload   = "Invalid webhook payload"
	msgInternal         = "Internal server error"
	msgProcessed        = "Webhook processed successfully"
)

// Error codes returned in webhook-error responses.
const (
	CodeInvalidSignature = "INVALID_SIGNATURE"
	CodeInvalidPayload   = "INVALID_PAYLOAD"
	CodeProcessingError  = "PROCESSING_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
)

// AgentExecutor runs the agent for an eligible issue.
type AgentExecutor interface {
	AgentName() string
	ProcessIssue(ctx context.Context, issue domain.IssueRecord) domain.AgentResult
}

type WebhookService interface {
	// Process runs one delivery through the pipeline. signature is the raw
	// Linear-Signature header, empty when absent.
	Process(ctx context.Context, body []byte, signature string) *domain.ProcessingOutcome
	// FormatResponse renders an outcome as the JSON response body.
	FormatResponse(outcome *domain.ProcessingOutcome) string
	// FormatAgentResult renders a dispatched outcome as copilot-result markdown.
	FormatAgentResult(outcome *domain.ProcessingOutcome) string
}

type WebhookServiceConfig struct {
	Verifier *SignatureVerifier // required
	Executor AgentExecutor      // required
	Parser   *EnvelopeParser
	Mapper   mapper.EventMapper
	Renderer *template.Renderer
	IDs      id.Generator
	Now      func() time.Time
}

type webhookService struct {
	verifier *SignatureVerifier
	executor AgentExecutor
	parser   *EnvelopeParser
	mapper   mapper.EventMapper
	renderer *template.Renderer
	ids      id.Generator
	now      func() time.Time
}

func NewWebhookService(cfg WebhookServiceConfig) WebhookService {
	s := &webhookService{
		verifier: cfg.Verifier,
		executor: cfg.Executor,
		parser:   cfg.Parser,
		mapper:   cfg.Mapper,
		renderer: cfg.Renderer,
		ids:      cfg.IDs,
		now:      cfg.Now,
	}
	if s.parser == nil {
		s.parser = NewEnvelopeParser()
	}
	if s.mapper == nil {
		s.mapper = mapper.NewLinearEventMapper()
	}
	if s.renderer == nil {
		s.renderer = template.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *webhookService) Process(ctx context.Context, body []byte, signature string) *domain.ProcessingOutcome {
	outcome := &domain.ProcessingOutcome{Timestamp: s.now()}
	if s.ids != nil {
		outcome.RunID = s.ids.New()
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RunID:     logger.Ptr(outcome.RunID),
		Component: "coplie.service.webhook",
	})
	sc := logger.StartSpan(ctx, "webhook.process")
	defer sc.End()
	ctx = sc.Context()

	if !s.verifier.Verify(body, signature) {
		slog.WarnContext(ctx, "invalid webhook signature", "signature_present", signature != "")
		return fail(outcome, domain.ErrorKindSignatureInvalid, msgInvalidSignature)
	}

	env, err := s.parser.Parse(body)
	if err != nil {
		var validationErr *ValidationError
		switch {
		case errors.Is(err, ErrPayloadMalformed):
			slog.WarnContext(ctx, "failed to parse webhook payload", "error", err, "body_bytes", len(body))
			return fail(outcome, domain.ErrorKindPayloadMalformed, msgInvalidPayload)
		case errors.As(err, &validationErr):
			slog.WarnContext(ctx, "webhook payload validation failed", "fields", validationErr.Fields)
			return fail(outcome, domain.ErrorKindPayloadValidationFailed, msgInvalidPayload)
		default:
			sc.RecordError(err)
			slog.ErrorContext(ctx, "unexpected error parsing webhook payload", "error", err)
			return fail(outcome, domain.ErrorKindInternal, msgInternal)
		}
	}

	eventType := s.mapper.Map(env)
	ctx = logger.WithLogFields(ctx, logger.LogFields{EventType: logger.Ptr(string(eventType))})
	sc.Span().SetAttributes(
		attribute.String("linear.type", env.Type),
		attribute.String("linear.action", string(env.Action)),
	)

	decision := Classify(env, s.mapper)
	outcome.IssueID = decision.IssueID
	outcome.IssueIdentifier = decision.IssueIdentifier
	if decision.Record != nil {
		outcome.IssueTitle = decision.Record.Title
	}

	if !decision.Eligible {
		outcome.Success = true
		slog.InfoContext(ctx, "ignoring webhook",
			"reason", decision.Reason,
			"type", env.Type,
			"action", env.Action,
			"issue_id", decision.IssueID,
			"identifier", decision.IssueIdentifier,
		)
		return outcome
	}

	agentID := s.executor.AgentName()
	outcome.AgentID = agentID
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		IssueID:         logger.Ptr(decision.IssueID),
		IssueIdentifier: logger.Ptr(decision.IssueIdentifier),
		AgentID:         logger.Ptr(agentID),
	})
	slog.InfoContext(ctx, "processing backlog issue", "title", decision.Record.Title)

	result := s.executor.ProcessIssue(ctx, *decision.Record)
	outcome.AgentResult = &result
	outcome.Success = result.Success
	outcome.Error = result.Error
	outcome.ErrorKind = result.ErrorKind

	if result.Success {
		slog.InfoContext(ctx, "issue processed successfully", "execution_time_ms", result.ExecutionTimeMs)
		slog.DebugContext(ctx, "agent result", "markdown", s.FormatAgentResult(outcome))
	} else {
		slog.ErrorContext(ctx, "issue processing failed",
			"error", result.Error,
			"error_kind", result.ErrorKind,
			"execution_time_ms", result.ExecutionTimeMs,
		)
	}

	return outcome
}

func fail(outcome *domain.ProcessingOutcome, kind domain.ErrorKind, msg string) *domain.ProcessingOutcome {
	outcome.Success = false
	outcome.ErrorKind = kind
	outcome.Error = msg
	return outcome
}

func (s *webhookService) FormatResponse(outcome *domain.ProcessingOutcome) string {
	timestamp := domain.FormatTimestamp(outcome.Timestamp)

	if outcome.Success {
		issueID := outcome.IssueIdentifier
		if issueID == "" {
			issueID = "N/A"
		}
		return s.renderer.Render(template.WebhookSuccess, map[string]any{
			"message":   msgProcessed,
			"issueId":   issueID,
			"action":    outcome.AgentID,
			"timestamp": timestamp,
		})
	}

	errMsg := outcome.Error
	if errMsg == "" {
		errMsg = "Unknown error"
	}
	return s.renderer.Render(template.WebhookError, map[string]any{
		"error":     errMsg,
		"code":      ErrorCode(outcome.ErrorKind),
		"timestamp": timestamp,
	})
}

func (s *webhookService) FormatAgentResult(outcome *domain.ProcessingOutcome) string {
	vars := map[string]any{
		"title":     outcome.IssueTitle,
		"agentName": outcome.AgentID,
		"timestamp": domain.FormatTimestamp(outcome.Timestamp),
	}
	if r := outcome.AgentResult; r != nil {
		if r.Success {
			vars["analysis"] = r.Output
		} else {
			vars["analysis"] = "Agent run failed: " + r.Error
		}
		vars["recommendations"] = "_Execution time: " + time.Duration(r.ExecutionTimeMs*int64(time.Millisecond)).String() + "_"
	}
	return s.renderer.Render(template.CopilotResult, vars)
}

// ErrorCode maps an error kind to the code reported in webhook-error bodies.
func ErrorCode(kind domain.ErrorKind) string {
	switch kind {
	case domain.ErrorKindSignatureInvalid:
		return CodeInvalidSignature
	case domain.ErrorKindPayloadMalformed, domain.ErrorKindPayloadValidationFailed:
		return CodeInvalidPayload
	case domain.ErrorKindInternal:
		return CodeInternalError
	default:
		return CodeProcessingError
	}
}
