package mapper

import (
	"github.com/samber/lo"

	"basegraph.app/coplie/internal/domain"
)

const (
	defaultPriorityLabel = "No Priority"
	defaultState         = "Unknown"
	defaultStateType     = "unknown"
)

type LinearEventMapper struct{}

func NewLinearEventMapper() *LinearEventMapper {
	return &LinearEventMapper{}
}

func (m *LinearEventMapper) Map(env *domain.EventEnvelope) CanonicalEventType {
	if env == nil || !env.IsIssue() {
		return EventOther
	}

	switch env.Action {
	case domain.ActionCreate:
		return EventIssueCreated
	case domain.ActionUpdate:
		return EventIssueUpdated
	case domain.ActionRemove:
		return EventIssueRemoved
	}
	return EventOther
}

func (m *LinearEventMapper) ToIssueRecord(payload domain.IssuePayload) domain.IssueRecord {
	return ExtractIssueRecord(payload)
}

// ExtractIssueRecord maps a schema-valid Linear issue onto an IssueRecord.
// Empty optional strings are treated like missing ones and fall back to the
// record defaults.
func ExtractIssueRecord(p domain.IssuePayload) domain.IssueRecord {
	record := domain.IssueRecord{
		ID:            p.ID,
		Identifier:    p.Identifier,
		Title:         p.Title,
		Description:   lo.FromPtr(p.Description),
		Priority:      int(lo.FromPtr(p.Priority)),
		PriorityLabel: lo.CoalesceOrEmpty(lo.FromPtr(p.PriorityLabel), defaultPriorityLabel),
		State:         defaultState,
		StateType:     defaultStateType,
		Labels:        []string{},
		URL:           lo.FromPtr(p.URL),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		DueDate:       nonEmpty(p.DueDate),
	}

	if p.State != nil {
		record.State = lo.CoalesceOrEmpty(p.State.Name, defaultState)
		record.StateType = lo.CoalesceOrEmpty(p.State.Type, defaultStateType)
	}
	if len(p.Labels) > 0 {
		record.Labels = lo.Map(p.Labels, func(l domain.LinearLabel, _ int) string {
			return l.Name
		})
	}
	if p.Assignee != nil {
		record.Assignee = nonEmpty(&p.Assignee.Name)
	}
	if p.Creator != nil {
		record.Creator = nonEmpty(&p.Creator.Name)
	}
	if p.Team != nil {
		record.TeamKey = p.Team.Key
		record.TeamName = p.Team.Name
	}
	if p.Project != nil {
		record.ProjectName = nonEmpty(&p.Project.Name)
	}

	return record
}

// nonEmpty returns a copy of *s, or nil when s is nil or empty.
func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return lo.ToPtr(*s)
}
