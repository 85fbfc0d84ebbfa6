// internal/workers/qualification/tier-statistics/models.go
package tierstatistics

import "qualification-workers/internal/qualification/stats"

type Input struct {
	OrganizationID string `json:"organizationId"`
}

type Output struct {
	Statistics stats.TierStatistics `json:"statistics"`
}
