package template

const (
	WebhookSuccess = "webhook-success"
	WebhookError   = "webhook-error"
	CopilotResult  = "copilot-result"
	LinearComment  = "linear-comment"
	SummaryReport  = "summary-report"
)

var builtin = []Template{
	{
		ID:     WebhookSuccess,
		Name:   "Webhook Success Response",
		Format: FormatJSON,
		Body: `{
  "status": "success",
  "message": "{{message}}",
  "issueId": "{{issueId}}",
  "action": "{{action}}",
  "timestamp": "{{timestamp}}"
}`,
	},
	{
		ID:     WebhookError,
		Name:   "Webhook Error Response",
		Format: FormatJSON,
		Body: `{
  "status": "error",
  "error": "{{error}}",
  "code": "{{code}}",
  "timestamp": "{{timestamp}}"
}`,
	},
	{
		ID:     CopilotResult,
		Name:   "Copilot Analysis Result",
		Format: FormatMarkdown,
		Body: `## Copilot Analysis Result

**Issue:** {{title}}
**Agent:** {{agentName}}
**Processed:** {{timestamp}}

### Analysis

{{analysis}}

### Recommendations

{{recommendations}}
`,
	},
	{
		ID:     LinearComment,
		Name:   "Linear Issue Comment",
		Format: FormatMarkdown,
		Body: `### Copilot Agent Update

**Agent:** {{agentName}}
**Status:** {{status}}

{{content}}

---
_Generated at {{timestamp}}_
`,
	},
	{
		ID:     SummaryReport,
		Name:   "Processing Summary Report",
		Format: FormatMarkdown,
		Body: `# Processing Summary Report

**Period:** {{startDate}} to {{endDate}}

| Metric | Count |
|--------|-------|
| Total processed | {{totalProcessed}} |
| Successful | {{successful}} |
| Failed | {{failed}} |

## Details

{{details}}

_Report generated at {{timestamp}}_
`,
	},
}
