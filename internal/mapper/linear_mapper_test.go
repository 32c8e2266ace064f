package mapper_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/samber/lo"

	"basegraph.app/coplie/internal/domain"
	"basegraph.app/coplie/internal/mapper"
)

func minimalPayload() domain.IssuePayload {
	return domain.IssuePayload{
		ID:         "issue-123",
		Identifier: "ENG-456",
		Title:      "Fix authentication bug",
		CreatedAt:  "2026-02-22T10:00:00.000Z",
		UpdatedAt:  "2026-02-22T10:00:00.000Z",
	}
}

var _ = Describe("LinearEventMapper", func() {
	var m *mapper.LinearEventMapper

	BeforeEach(func() {
		m = mapper.NewLinearEventMapper()
	})

	Describe("CanonicalEventType", func() {
		It("has the correct string values", func() {
			Expect(string(mapper.EventIssueCreated)).To(Equal("issue_created"))
			Expect(string(mapper.EventIssueUpdated)).To(Equal("issue_updated"))
			Expect(string(mapper.EventIssueRemoved)).To(Equal("issue_removed"))
			Expect(string(mapper.EventOther)).To(Equal("other"))
		})

		It("implements the EventMapper interface", func() {
			var em mapper.EventMapper = m
			Expect(em).ToNot(BeNil())
		})
	})

	Describe("Map", func() {
		DescribeTable("maps issue actions",
			func(action domain.ActionKind, expected mapper.CanonicalEventType) {
				env := &domain.EventEnvelope{Type: domain.EventTypeIssue, Action: action}
				Expect(m.Map(env)).To(Equal(expected))
			},
			Entry("create", domain.ActionCreate, mapper.EventIssueCreated),
			Entry("update", domain.ActionUpdate, mapper.EventIssueUpdated),
			Entry("remove", domain.ActionRemove, mapper.EventIssueRemoved),
		)

		It("maps non-issue events to other", func() {
			Expect(m.Map(&domain.EventEnvelope{Type: "Comment", Action: domain.ActionCreate})).To(Equal(mapper.EventOther))
			Expect(m.Map(nil)).To(Equal(mapper.EventOther))
		})
	})

	Describe("ToIssueRecord", func() {
		It("applies every default when optional fields are missing", func() {
			record := m.ToIssueRecord(minimalPayload())

			Expect(record.ID).To(Equal("issue-123"))
			Expect(record.Identifier).To(Equal("ENG-456"))
			Expect(record.Title).To(Equal("Fix authentication bug"))
			Expect(record.Description).To(Equal(""))
			Expect(record.Priority).To(Equal(0))
			Expect(record.PriorityLabel).To(Equal("No Priority"))
			Expect(record.State).To(Equal("Unknown"))
			Expect(record.StateType).To(Equal("unknown"))
			Expect(record.Labels).ToNot(BeNil())
			Expect(record.Labels).To(BeEmpty())
			Expect(record.Assignee).To(BeNil())
			Expect(record.Creator).To(BeNil())
			Expect(record.ProjectName).To(BeNil())
			Expect(record.DueDate).To(BeNil())
			Expect(record.TeamKey).To(Equal(""))
			Expect(record.TeamName).To(Equal(""))
			Expect(record.URL).To(Equal(""))
			Expect(record.CreatedAt).To(Equal("2026-02-22T10:00:00.000Z"))
		})

		It("copies populated optional fields", func() {
			p := minimalPayload()
			p.Description = lo.ToPtr("Users cannot log in")
			p.Priority = lo.ToPtr(1.0)
			p.PriorityLabel = lo.ToPtr("Urgent")
			p.State = &domain.LinearState{ID: "s1", Name: "Backlog", Type: "backlog"}
			p.Assignee = &domain.LinearUser{ID: "u1", Name: "John Developer"}
			p.Creator = &domain.LinearUser{ID: "u2", Name: "Jane Manager"}
			p.Team = &domain.LinearTeam{ID: "t1", Key: "ENG", Name: "Engineering"}
			p.Project = &domain.LinearProject{ID: "p1", Name: "Q1 Sprint"}
			p.Labels = []domain.LinearLabel{{ID: "l1", Name: "bug"}, {ID: "l2", Name: "authentication"}}
			p.URL = lo.ToPtr("https://linear.app/workspace/issue/ENG-456")
			p.DueDate = lo.ToPtr("2026-02-25")

			record := mapper.ExtractIssueRecord(p)

			Expect(record.Description).To(Equal("Users cannot log in"))
			Expect(record.Priority).To(Equal(1))
			Expect(record.PriorityLabel).To(Equal("Urgent"))
			Expect(record.State).To(Equal("Backlog"))
			Expect(record.StateType).To(Equal("backlog"))
			Expect(record.InBacklog()).To(BeTrue())
			Expect(record.Labels).To(Equal([]string{"bug", "authentication"}))
			Expect(*record.Assignee).To(Equal("John Developer"))
			Expect(*record.Creator).To(Equal("Jane Manager"))
			Expect(record.TeamKey).To(Equal("ENG"))
			Expect(record.TeamName).To(Equal("Engineering"))
			Expect(*record.ProjectName).To(Equal("Q1 Sprint"))
			Expect(record.URL).To(Equal("https://linear.app/workspace/issue/ENG-456"))
			Expect(*record.DueDate).To(Equal("2026-02-25"))
		})

		It("treats empty optional strings as missing", func() {
			p := minimalPayload()
			p.PriorityLabel = lo.ToPtr("")
			p.DueDate = lo.ToPtr("")

			record := mapper.ExtractIssueRecord(p)

			Expect(record.PriorityLabel).To(Equal("No Priority"))
			Expect(record.DueDate).To(BeNil())
		})

		It("does not alias the payload's pointers", func() {
			p := minimalPayload()
			p.DueDate = lo.ToPtr("2026-02-25")

			record := mapper.ExtractIssueRecord(p)
			*p.DueDate = "2030-01-01"

			Expect(*record.DueDate).To(Equal("2026-02-25"))
		})
	})

	Describe("Prompt", func() {
		It("prefers the description and falls back to the title", func() {
			withDescription := mapper.ExtractIssueRecord(domain.IssuePayload{Title: "Title", Description: lo.ToPtr("Body")})
			Expect(withDescription.Prompt()).To(Equal("Body"))

			withoutDescription := mapper.ExtractIssueRecord(domain.IssuePayload{Title: "Title"})
			Expect(withoutDescription.Prompt()).To(Equal("Title"))
		})
	})
})
