package service

import (
	"basegraph.app/coplie/internal/domain"
	"basegraph.app/coplie/internal/mapper"
)

// IgnoreReason explains why an event was accepted without dispatch.
type IgnoreReason string

const (
	IgnoreNone            IgnoreReason = ""
	IgnoreNonIssueEvent   IgnoreReason = "non_issue_event"
	IgnoreNonCreateAction IgnoreReason = "non_create_action"
	IgnoreNonBacklogState IgnoreReason = "non_backlog_state"
)

// Decision is the classifier's verdict on one envelope. Record is only set
// once the action gate has passed.
type Decision struct {
	Eligible        bool
	Reason          IgnoreReason
	IssueID         string
	IssueIdentifier string
	Record          *domain.IssueRecord
}

// Classify decides whether an envelope should trigger the agent. Gates run in
// order: event type, action, workflow state. Automation fires only for issues
// created directly into the backlog, so edits and removals never re-trigger it.
func Classify(env *domain.EventEnvelope, m mapper.EventMapper) Decision {
	if !env.IsIssue() {
		return Decision{Reason: IgnoreNonIssueEvent}
	}

	decision := Decision{
		IssueID:         env.Data.ID,
		IssueIdentifier: env.Data.Identifier,
	}

	if env.Action != domain.ActionCreate {
		decision.Reason = IgnoreNonCreateAction
		return decision
	}

	record := m.ToIssueRecord(env.Data)
	decision.Record = &record

	if !record.InBacklog() {
		decision.Reason = IgnoreNonBacklogState
		return decision
	}

	decision.Eligible = true
	return decision
}
