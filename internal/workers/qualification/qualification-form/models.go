// internal/workers/qualification/qualification-form/models.go
package qualificationform

import "qualification-workers/internal/qualification/form"

// Input carries nothing the form depends on; organizationId is accepted for logging.
type Input struct {
	OrganizationID string `json:"organizationId,omitempty"`
}

type Output struct {
	Form form.Definition `json:"form"`
}
