package domain

// IssueRecord is the canonical, fully defaulted view of a Linear issue that
// the rest of the pipeline works with. It is built once per eligible event
// and never modified afterwards.
type IssueRecord struct {
	ID            string   `json:"id"`
	Identifier    string   `json:"identifier"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Priority      int      `json:"priority"`
	PriorityLabel string   `json:"priorityLabel"`
	State         string   `json:"state"`
	StateType     string   `json:"stateType"`
	Labels        []string `json:"labels"`
	Assignee      *string  `json:"assignee"`
	Creator       *string  `json:"creator"`
	TeamKey       string   `json:"teamKey"`
	TeamName      string   `json:"teamName"`
	ProjectName   *string  `json:"projectName"`
	URL           string   `json:"url"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
	DueDate       *string  `json:"dueDate"`
}

// InBacklog reports whether the issue sits in a backlog workflow state.
func (r IssueRecord) InBacklog() bool {
	return r.StateType == StateTypeBacklog
}

// Prompt is the text handed to the agent: the description, or the title when
// the issue has no description.
func (r IssueRecord) Prompt() string {
	if r.Description != "" {
		return r.Description
	}
	return r.Title
}
