package domain

import "time"

// ErrorKind classifies why a pipeline run did not succeed. The zero value
// means no error.
type ErrorKind string

const (
	ErrorKindNone                    ErrorKind = ""
	ErrorKindSignatureInvalid        ErrorKind = "signature_invalid"
	ErrorKindPayloadMalformed        ErrorKind = "payload_malformed"
	ErrorKindPayloadValidationFailed ErrorKind = "payload_validation_failed"
	ErrorKindProcessTimeout          ErrorKind = "process_timeout"
	ErrorKindProcessNonZeroExit      ErrorKind = "process_non_zero_exit"
	ErrorKindProcessFailed           ErrorKind = "process_failed"
	ErrorKindInternal                ErrorKind = "internal"
)

// IsAgentFailure reports whether the kind describes a failed automation run,
// as opposed to a rejected delivery.
func (k ErrorKind) IsAgentFailure() bool {
	switch k {
	case ErrorKindProcessTimeout, ErrorKindProcessNonZeroExit, ErrorKindProcessFailed:
		return true
	}
	return false
}

// AgentRequest is the input to one agent invocation.
type AgentRequest struct {
	Prompt  string `json:"prompt"`
	AgentID string `json:"agentId"`
}

// AgentResult is the outcome of one agent invocation. ExecutionTimeMs is set
// on every path, including timeouts.
type AgentResult struct {
	Success         bool      `json:"success"`
	Output          string    `json:"output"`
	Error           string    `json:"error,omitempty"`
	ErrorKind       ErrorKind `json:"errorKind,omitempty"`
	ExecutionTimeMs int64     `json:"executionTimeMs"`
}

// ProcessingOutcome is the terminal record of one webhook delivery.
// Success with an empty AgentID means the event was accepted and
// intentionally not processed.
type ProcessingOutcome struct {
	Success         bool         `json:"success"`
	IssueID         string       `json:"issueId"`
	IssueIdentifier string       `json:"issueIdentifier"`
	IssueTitle      string       `json:"issueTitle,omitempty"`
	AgentID         string       `json:"agentId"`
	AgentResult     *AgentResult `json:"agentResult,omitempty"`
	Error           string       `json:"error,omitempty"`
	ErrorKind       ErrorKind    `json:"errorKind,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
	RunID           int64        `json:"runId,string"`
}

// Ignored reports whether the delivery was accepted without running the agent.
func (o *ProcessingOutcome) Ignored() bool {
	return o.Success && o.AgentID == ""
}

// TimestampLayout renders timestamps with millisecond precision in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp formats t using TimestampLayout in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
