// Package stats summarizes an organization's leads by qualification tier.
package stats

import (
	"math"
	"strings"

	"qualification-workers/internal/models"
)

type TierStatistics struct {
	TierA              int     `json:"tierA"`
	TierB              int     `json:"tierB"`
	TierC              int     `json:"tierC"`
	TierD              int     `json:"tierD"`
	Unqualified        int     `json:"unqualified"`
	AverageProbability float64 `json:"averageProbability"`
	Total              int     `json:"total"`
}

// Compute counts each lead once under its most recent tier tag. Tags accumulate
// across qualifications, so the last tier_<x> in the list wins.
func Compute(leads []models.Lead) TierStatistics {
	var s TierStatistics
	probabilitySum := 0

	for _, lead := range leads {
		s.Total++
		probabilitySum += lead.ProbabilityPercent

		switch LatestTier(lead.Tags) {
		case models.TierA:
			s.TierA++
		case models.TierB:
			s.TierB++
		case models.TierC:
			s.TierC++
		case models.TierD:
			s.TierD++
		default:
			s.Unqualified++
		}
	}

	if s.Total > 0 {
		avg := float64(probabilitySum) / float64(s.Total)
		s.AverageProbability = math.Round(avg*10) / 10
	}
	return s
}

// LatestTier returns "" when no tier tag is present.
func LatestTier(tags []string) models.Tier {
	for i := len(tags) - 1; i >= 0; i-- {
		suffix, ok := strings.CutPrefix(tags[i], "tier_")
		if !ok {
			continue
		}
		switch tier := models.Tier(strings.ToUpper(suffix)); tier {
		case models.TierA, models.TierB, models.TierC, models.TierD:
			return tier
		}
	}
	return ""
}
