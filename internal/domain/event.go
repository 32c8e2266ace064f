package domain

import (
	"encoding/json"
	"time"
)

// ActionKind is the Linear webhook "action" field.
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
	ActionRemove ActionKind = "remove"
)

// EventTypeIssue is the only Linear event type that can trigger automation.
const EventTypeIssue = "Issue"

// StateTypeBacklog is the workflow state type that gates automation.
const StateTypeBacklog = "backlog"

// EventEnvelope is the outer Linear webhook wrapper.
type EventEnvelope struct {
	Action     ActionKind
	Type       string
	OccurredAt time.Time
	Data       IssuePayload

	URL              string
	OrganizationID   string
	WebhookID        string
	WebhookTimestamp int64
	UpdatedFrom      json.RawMessage
}

// IsIssue reports whether the envelope describes an issue event.
func (e *EventEnvelope) IsIssue() bool {
	return e.Type == EventTypeIssue
}

// IssuePayload is Linear's issue representation as delivered in webhooks,
// after the wire shape has been checked. Optional fields are pointers so
// absence and null can be told apart from zero values.
type IssuePayload struct {
	ID            string         `json:"id"`
	Identifier    string         `json:"identifier"`
	Title         string         `json:"title"`
	Description   *string        `json:"description,omitempty"`
	Priority      *float64       `json:"priority,omitempty"`
	PriorityLabel *string        `json:"priorityLabel,omitempty"`
	State         *LinearState   `json:"state,omitempty"`
	Assignee      *LinearUser    `json:"assignee,omitempty"`
	Creator       *LinearUser    `json:"creator,omitempty"`
	Team          *LinearTeam    `json:"team,omitempty"`
	Project       *LinearProject `json:"project,omitempty"`
	Labels        []LinearLabel  `json:"labels,omitempty"`
	URL           *string        `json:"url,omitempty"`
	CreatedAt     string         `json:"createdAt"`
	UpdatedAt     string         `json:"updatedAt"`
	DueDate       *string        `json:"dueDate,omitempty"`
	Estimate      *float64       `json:"estimate,omitempty"`
	SubscriberIDs []string       `json:"subscriberIds,omitempty"`
}

type LinearUser struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
}

type LinearLabel struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color,omitempty"`
}

type LinearState struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Color *string `json:"color,omitempty"`
}

type LinearTeam struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

type LinearProject struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	State *string `json:"state,omitempty"`
}
