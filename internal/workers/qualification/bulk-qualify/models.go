// internal/workers/qualification/bulk-qualify/models.go
package bulkqualify

import "qualification-workers/internal/qualification/bulk"

type Input struct {
	OrganizationID string   `json:"organizationId"`
	LeadIDs        []string `json:"leadIds,omitempty"`
	ContactIDs     []string `json:"contactIds,omitempty"`
}

type Output struct {
	Success bool         `json:"success"`
	Results []bulk.Item  `json:"results"`
	Summary bulk.Summary `json:"summary"`
}
