// internal/models/qualification.go
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Tier is the coarse qualification bucket derived from a score.
type Tier string

const (
	TierA Tier = "A" // hot
	TierB Tier = "B" // warm
	TierC Tier = "C" // cold
	TierD Tier = "D" // very cold
)

// Lower is the tag-friendly form ("a" for TierA).
func (t Tier) Lower() string {
	return strings.ToLower(string(t))
}

// QualificationResponse holds the optional survey or email-derived signals.
// A nil field means the respondent did not answer.
type QualificationResponse struct {
	Budget        *string `json:"budget,omitempty"`
	Timeline      *string `json:"timeline,omitempty"`
	DecisionMaker *string `json:"decisionMaker,omitempty"`
	Motivation    *string `json:"motivation,omitempty"`
	Urgency       *string `json:"urgency,omitempty"`
	PreApproved   *string `json:"preApproved,omitempty"`
	Location      *string `json:"location,omitempty"`
	PropertyType  *string `json:"propertyType,omitempty"`
}

// Str returns a pointer to s.
func Str(s string) *string {
	return &s
}

// Value dereferences p, returning "" for nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ResponsesFromMap converts loosely typed job variables into a QualificationResponse.
// Numbers are rendered without exponent so "budget": 450000 survives as "450000".
// Nil and empty values are treated as unanswered.
func ResponsesFromMap(m map[string]interface{}) QualificationResponse {
	pick := func(key string) *string {
		raw, ok := m[key]
		if !ok || raw == nil {
			return nil
		}
		var s string
		switch v := raw.(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			s = strconv.Itoa(v)
		case int64:
			s = strconv.FormatInt(v, 10)
		case bool:
			s = strconv.FormatBool(v)
		default:
			s = fmt.Sprint(v)
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return &s
	}

	return QualificationResponse{
		Budget:        pick("budget"),
		Timeline:      pick("timeline"),
		DecisionMaker: pick("decisionMaker"),
		Motivation:    pick("motivation"),
		Urgency:       pick("urgency"),
		PreApproved:   pick("preApproved"),
		Location:      pick("location"),
		PropertyType:  pick("propertyType"),
	}
}

// QualificationResult is the scoring engine output. It is never persisted on its own.
type QualificationResult struct {
	Score      int      `json:"score"`
	Tier       Tier     `json:"tier"`
	Confidence int      `json:"confidence"`
	KeyFactors []string `json:"keyFactors"`
	RedFlags   []string `json:"redFlags"`
}

// HotLeadAlert is published when a qualification lands in tier A.
type HotLeadAlert struct {
	OrganizationID string   `json:"organizationId"`
	ContactID      string   `json:"contactId,omitempty"`
	LeadID         string   `json:"leadId,omitempty"`
	Score          int      `json:"score"`
	Tier           Tier     `json:"tier"`
	KeyFactors     []string `json:"keyFactors"`
	Source         string   `json:"source,omitempty"`
}
