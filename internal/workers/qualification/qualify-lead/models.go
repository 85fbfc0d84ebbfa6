// internal/workers/qualification/qualify-lead/models.go
package qualifylead

import "qualification-workers/internal/qualification/orchestrator"

// DefaultSource is used when the process does not say where the answers came from.
const DefaultSource = "manual"

type Input struct {
	OrganizationID string                 `json:"organizationId"`
	ContactID      string                 `json:"contactId,omitempty"`
	LeadID         string                 `json:"leadId,omitempty"`
	EmailThreadID  string                 `json:"emailThreadId,omitempty"`
	Responses      map[string]interface{} `json:"responses,omitempty"`
	Source         string                 `json:"source,omitempty"`
}

// Output is the qualification outcome, written back as process variables.
type Output struct {
	orchestrator.Outcome
}
