// Package scoring turns qualification responses into a score, tier and explanation.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"qualification-workers/internal/models"
)

// Tier thresholds, evaluated from the top.
const (
	TierAThreshold = 80
	TierBThreshold = 65
	TierCThreshold = 45
)

type tally struct {
	score      int
	confidence int
	keyFactors []string
	redFlags   []string
}

func apply[T any](t *tally, rules []Rule[T], v T) {
	r, ok := firstMatch(rules, v)
	if !ok {
		return
	}
	t.score += r.Points
	if r.RedFlag {
		t.redFlags = append(t.redFlags, r.Label)
	} else {
		t.keyFactors = append(t.keyFactors, r.Label)
	}
}

// Score evaluates every category independently. It has no side effects.
func Score(r models.QualificationResponse) models.QualificationResult {
	t := &tally{keyFactors: []string{}, redFlags: []string{}}

	if amount, ok := ParseBudget(models.Value(r.Budget)); ok {
		apply(t, BudgetRules, amount)
		t.confidence += BudgetConfidence
	}

	if timeline, ok := present(r.Timeline); ok {
		apply(t, TimelineRules, timeline)
		t.confidence += TimelineConfidence
	}

	if dm, ok := present(r.DecisionMaker); ok {
		apply(t, DecisionRules, dm)
		t.confidence += DecisionConfidence
	}

	motivation, hasMotivation := present(r.Motivation)
	urgency, hasUrgency := present(r.Urgency)
	if hasMotivation || hasUrgency {
		apply(t, MotivationRules, motivation+" "+urgency)
		t.confidence += MotivationConfidence
	}

	if pa, ok := present(r.PreApproved); ok {
		apply(t, PreApprovalRules, pa)
		t.confidence += PreApprovalConfidence
	}

	if loc, ok := present(r.Location); ok {
		before := t.score
		apply(t, LocationRules, loc)
		// only a specific location counts as data
		if t.score > before {
			t.confidence += LocationConfidence
		}
	}

	if pt, ok := present(r.PropertyType); ok {
		before := t.score
		apply(t, PropertyTypeRules, pt)
		if t.score > before {
			t.confidence += PropertyTypeConfidence
		}
	}

	score := clamp(t.score, 0, 100)
	return models.QualificationResult{
		Score:      score,
		Tier:       TierForScore(score),
		Confidence: clamp(t.confidence, 0, 100),
		KeyFactors: t.keyFactors,
		RedFlags:   t.redFlags,
	}
}

// TierForScore maps every integer to exactly one tier.
func TierForScore(score int) models.Tier {
	switch {
	case score >= TierAThreshold:
		return models.TierA
	case score >= TierBThreshold:
		return models.TierB
	case score >= TierCThreshold:
		return models.TierC
	default:
		return models.TierD
	}
}

// ParseBudget reads the leading number of a budget answer such as "$450,000" or "1200000 USD".
// Anything without a numeric prefix is treated as unanswered.
func ParseBudget(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)

	end := 0
	seenDot := false
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		break
	}

	prefix := strings.TrimSuffix(s[:end], ".")
	if prefix == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func present(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	s := strings.TrimSpace(*p)
	return s, s != ""
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
