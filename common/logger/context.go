package logger

import (
	"context"
	"unicode/utf8"
)

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Handlers and services enrich the context once; everything logged downstream
// (parser, classifier, agent executor) carries the delivery's identifiers.
type LogFields struct {
	RequestID       *string // correlation id echoed in the response header
	RunID           *int64  // pipeline run id
	IssueID         *string // Linear issue id
	IssueIdentifier *string // human issue key, e.g. "ENG-123"
	EventType       *string // canonical event type, e.g. "issue_created"
	AgentID         *string // agent the issue was dispatched to
	Component       string  // component name, e.g. "coplie.agent.executor"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.RequestID != nil {
		result.RequestID = new.RequestID
	}
	if new.RunID != nil {
		result.RunID = new.RunID
	}
	if new.IssueID != nil {
		result.IssueID = new.IssueID
	}
	if new.IssueIdentifier != nil {
		result.IssueIdentifier = new.IssueIdentifier
	}
	if new.EventType != nil {
		result.EventType = new.EventType
	}
	if new.AgentID != nil {
		result.AgentID = new.AgentID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{IssueID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate shortens s to at most maxLen bytes, appending "..." if truncated.
// The cut backs up to a rune boundary so the result stays valid UTF-8.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := max(maxLen, 0)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
