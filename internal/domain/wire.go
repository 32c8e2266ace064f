package domain

import (
	"encoding/json"

	"github.com/samber/lo"
)

// Wire types mirror the Issue webhook JSON for validation. A required string
// is a *string tagged `required`: the key must be present and non-null, but
// an empty value is accepted, as Linear sends it.

// EnvelopeWire is the JSON shape of an Issue webhook delivery.
type EnvelopeWire struct {
	Action           ActionKind      `json:"action" validate:"required,oneof=create update remove" jsonschema:"enum=create,enum=update,enum=remove"`
	Type             *string         `json:"type" validate:"required"`
	CreatedAt        *string         `json:"createdAt" validate:"required"`
	Data             *IssueWire      `json:"data" validate:"required"`
	UpdatedFrom      json.RawMessage `json:"updatedFrom,omitempty"`
	URL              string          `json:"url,omitempty"`
	OrganizationID   string          `json:"organizationId,omitempty"`
	WebhookTimestamp int64           `json:"webhookTimestamp,omitempty"`
	WebhookID        string          `json:"webhookId,omitempty"`
}

type IssueWire struct {
	ID            *string      `json:"id" validate:"required"`
	Identifier    *string      `json:"identifier" validate:"required"`
	Title         *string      `json:"title" validate:"required"`
	Description   *string      `json:"description,omitempty"`
	Priority      *float64     `json:"priority,omitempty"`
	PriorityLabel *string      `json:"priorityLabel,omitempty"`
	State         *StateWire   `json:"state,omitempty"`
	Assignee      *UserWire    `json:"assignee,omitempty"`
	Creator       *UserWire    `json:"creator,omitempty"`
	Team          *TeamWire    `json:"team,omitempty"`
	Project       *ProjectWire `json:"project,omitempty"`
	Labels        []LabelWire  `json:"labels,omitempty" validate:"omitempty,dive"`
	URL           *string      `json:"url,omitempty"`
	CreatedAt     *string      `json:"createdAt" validate:"required"`
	UpdatedAt     *string      `json:"updatedAt" validate:"required"`
	DueDate       *string      `json:"dueDate,omitempty"`
	Estimate      *float64     `json:"estimate,omitempty"`
	SubscriberIDs []string     `json:"subscriberIds,omitempty"`
}

type UserWire struct {
	ID    *string `json:"id" validate:"required"`
	Name  *string `json:"name" validate:"required"`
	Email *string `json:"email,omitempty"`
}

type LabelWire struct {
	ID    *string `json:"id" validate:"required"`
	Name  *string `json:"name" validate:"required"`
	Color *string `json:"color,omitempty"`
}

type StateWire struct {
	ID    *string `json:"id" validate:"required"`
	Name  *string `json:"name" validate:"required"`
	Type  *string `json:"type" validate:"required"`
	Color *string `json:"color,omitempty"`
}

type TeamWire struct {
	ID   *string `json:"id" validate:"required"`
	Key  *string `json:"key" validate:"required"`
	Name *string `json:"name" validate:"required"`
}

type ProjectWire struct {
	ID    *string `json:"id" validate:"required"`
	Name  *string `json:"name" validate:"required"`
	State *string `json:"state,omitempty"`
}

// Payload converts a validated issue into its domain form.
func (w *IssueWire) Payload() IssuePayload {
	p := IssuePayload{
		ID:            lo.FromPtr(w.ID),
		Identifier:    lo.FromPtr(w.Identifier),
		Title:         lo.FromPtr(w.Title),
		Description:   w.Description,
		Priority:      w.Priority,
		PriorityLabel: w.PriorityLabel,
		URL:           w.URL,
		CreatedAt:     lo.FromPtr(w.CreatedAt),
		UpdatedAt:     lo.FromPtr(w.UpdatedAt),
		DueDate:       w.DueDate,
		Estimate:      w.Estimate,
		SubscriberIDs: w.SubscriberIDs,
	}
	if s := w.State; s != nil {
		p.State = &LinearState{ID: lo.FromPtr(s.ID), Name: lo.FromPtr(s.Name), Type: lo.FromPtr(s.Type), Color: s.Color}
	}
	if u := w.Assignee; u != nil {
		p.Assignee = &LinearUser{ID: lo.FromPtr(u.ID), Name: lo.FromPtr(u.Name), Email: u.Email}
	}
	if u := w.Creator; u != nil {
		p.Creator = &LinearUser{ID: lo.FromPtr(u.ID), Name: lo.FromPtr(u.Name), Email: u.Email}
	}
	if t := w.Team; t != nil {
		p.Team = &LinearTeam{ID: lo.FromPtr(t.ID), Key: lo.FromPtr(t.Key), Name: lo.FromPtr(t.Name)}
	}
	if pr := w.Project; pr != nil {
		p.Project = &LinearProject{ID: lo.FromPtr(pr.ID), Name: lo.FromPtr(pr.Name), State: pr.State}
	}
	if len(w.Labels) > 0 {
		p.Labels = lo.Map(w.Labels, func(l LabelWire, _ int) LinearLabel {
			return LinearLabel{ID: lo.FromPtr(l.ID), Name: lo.FromPtr(l.Name), Color: l.Color}
		})
	}
	return p
}
