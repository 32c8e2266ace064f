package mapper

import (
	"basegraph.app/coplie/internal/domain"
)

type CanonicalEventType string

const (
	EventIssueCreated CanonicalEventType = "issue_created"
	EventIssueUpdated CanonicalEventType = "issue_updated"
	EventIssueRemoved CanonicalEventType = "issue_removed"
	EventOther        CanonicalEventType = "other"
)

// EventMapper turns a tracker envelope into a canonical event type and an
// issue record.
type EventMapper interface {
	Map(env *domain.EventEnvelope) CanonicalEventType
	ToIssueRecord(payload domain.IssuePayload) domain.IssueRecord
}
