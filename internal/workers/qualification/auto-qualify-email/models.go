// internal/workers/qualification/auto-qualify-email/models.go
package autoqualifyemail

import "qualification-workers/internal/qualification/orchestrator"

type Input struct {
	OrganizationID string `json:"organizationId"`
	EmailThreadID  string `json:"emailThreadId"`
}

type Output struct {
	orchestrator.Outcome
}
