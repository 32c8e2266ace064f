package service_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/coplie/internal/domain"
	"basegraph.app/coplie/internal/service"
)

var _ = Describe("EnvelopeParser", func() {
	var p *service.EnvelopeParser

	BeforeEach(func() {
		p = service.NewEnvelopeParser()
	})

	validationFields := func(err error) []string {
		var verr *service.ValidationError
		Expect(errors.As(err, &verr)).To(BeTrue(), "expected a ValidationError, got %v", err)
		return verr.Fields
	}

	It("parses a complete issue envelope", func() {
		env, err := p.Parse(encode(issuePayload("create", "backlog")))
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Type).To(Equal("Issue"))
		Expect(env.Action).To(Equal(domain.ActionCreate))
		Expect(env.OccurredAt).To(BeTemporally("==", time.Date(2026, 2, 22, 10, 0, 0, 0, time.UTC)))
		Expect(env.Data.ID).To(Equal("issue-123"))
		Expect(env.Data.Identifier).To(Equal("ENG-456"))
		Expect(env.Data.State.Type).To(Equal("backlog"))
		Expect(env.Data.Labels).To(HaveLen(1))
		Expect(*env.Data.Priority).To(BeNumerically("==", 1))
		Expect(env.OrganizationID).To(Equal("org-123"))
		Expect(env.WebhookID).To(Equal("webhook-123"))
		Expect(env.WebhookTimestamp).To(Equal(int64(1708596000000)))
	})

	It("parses an issue with only required fields", func() {
		env, err := p.Parse(encode(minimalIssuePayload("update")))
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Action).To(Equal(domain.ActionUpdate))
		Expect(env.Data.State).To(BeNil())
		Expect(env.Data.Description).To(BeNil())
	})

	It("accepts null optional fields", func() {
		payload := issuePayload("create", "backlog")
		data(payload)["description"] = nil
		data(payload)["assignee"] = nil
		data(payload)["project"] = nil
		data(payload)["dueDate"] = nil

		env, err := p.Parse(encode(payload))
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Data.Description).To(BeNil())
		Expect(env.Data.Assignee).To(BeNil())
	})

	It("returns ErrPayloadMalformed for invalid JSON", func() {
		_, err := p.Parse([]byte(`{"action": "create", `))
		Expect(err).To(MatchError(service.ErrPayloadMalformed))
	})

	It("returns a placeholder envelope for non-issue events", func() {
		env, err := p.Parse(encode(commentPayload()))
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Type).To(Equal("Comment"))
		Expect(env.IsIssue()).To(BeFalse())
		Expect(env.Action).To(Equal(domain.ActionCreate))
		Expect(env.Data.ID).To(BeEmpty())
		Expect(env.Data.Identifier).To(BeEmpty())
		Expect(env.OccurredAt).To(BeTemporally("~", time.Now(), time.Minute))
	})

	It("never validates non-issue events, whatever their shape", func() {
		env, err := p.Parse([]byte(`{"type":"Project","action":"archive","data":42}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Type).To(Equal("Project"))
	})

	It("lists missing required issue fields", func() {
		payload := issuePayload("create", "backlog")
		delete(data(payload), "id")
		delete(data(payload), "title")

		_, err := p.Parse(encode(payload))
		Expect(err).To(MatchError(service.ErrPayloadValidation))
		Expect(validationFields(err)).To(ConsistOf("data.id", "data.title"))
	})

	It("rejects an unknown action", func() {
		payload := issuePayload("archive", "backlog")

		_, err := p.Parse(encode(payload))
		Expect(validationFields(err)).To(ConsistOf("action"))
	})

	It("rejects an envelope without a type", func() {
		payload := issuePayload("create", "backlog")
		delete(payload, "type")

		_, err := p.Parse(encode(payload))
		Expect(validationFields(err)).To(ConsistOf("type"))
	})

	It("stamps an unparseable envelope timestamp with the receive time", func() {
		payload := issuePayload("create", "backlog")
		payload["createdAt"] = "yesterday"

		env, err := p.Parse(encode(payload))
		Expect(err).NotTo(HaveOccurred())
		Expect(env.OccurredAt).To(BeTemporally("~", time.Now(), time.Minute))
		Expect(env.Data.Identifier).To(Equal("ENG-456"))
	})

	It("accepts empty strings in required fields", func() {
		payload := issuePayload("create", "backlog")
		data(payload)["title"] = ""
		data(payload)["assignee"] = map[string]any{"id": "u", "name": ""}
		data(payload)["labels"] = []any{map[string]any{"id": "label-1", "name": ""}}

		env, err := p.Parse(encode(payload))
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Data.Title).To(BeEmpty())
		Expect(env.Data.Assignee).NotTo(BeNil())
		Expect(env.Data.Assignee.Name).To(BeEmpty())
		Expect(env.Data.Labels).To(HaveLen(1))
	})

	It("rejects null in required fields", func() {
		payload := issuePayload("create", "backlog")
		data(payload)["identifier"] = nil

		_, err := p.Parse(encode(payload))
		Expect(validationFields(err)).To(ConsistOf("data.identifier"))
	})

	It("rejects an issue envelope without data", func() {
		payload := issuePayload("create", "backlog")
		delete(payload, "data")

		_, err := p.Parse(encode(payload))
		Expect(validationFields(err)).To(ConsistOf("data"))
	})

	It("acknowledges any truthy non-string type without validation", func() {
		env, err := p.Parse([]byte(`{"type":5,"action":"create"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Type).To(Equal("5"))
		Expect(env.IsIssue()).To(BeFalse())
	})

	It("validates deliveries with an empty type but never treats them as issues", func() {
		payload := issuePayload("create", "backlog")
		payload["type"] = ""

		env, err := p.Parse(encode(payload))
		Expect(err).NotTo(HaveOccurred())
		Expect(env.IsIssue()).To(BeFalse())

		delete(data(payload), "id")
		_, err = p.Parse(encode(payload))
		Expect(validationFields(err)).To(ConsistOf("data.id"))
	})

	It("validates nested objects when present", func() {
		payload := issuePayload("create", "backlog")
		delete(data(payload)["state"].(map[string]any), "type")
		data(payload)["labels"] = []any{map[string]any{"id": "label-1"}}

		_, err := p.Parse(encode(payload))
		Expect(validationFields(err)).To(ConsistOf("data.state.type", "data.labels[0].name"))
	})

	It("reports type mismatches as validation failures", func() {
		payload := issuePayload("create", "backlog")
		data(payload)["id"] = 123

		_, err := p.Parse(encode(payload))
		Expect(validationFields(err)).To(ConsistOf("data.id"))
	})

	It("rejects JSON that is not an object", func() {
		_, err := p.Parse([]byte(`[1, 2, 3]`))
		Expect(err).To(MatchError(service.ErrPayloadValidation))
	})
})
