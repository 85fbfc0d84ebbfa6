package form

import (
	"testing"

	"qualification-workers/internal/models"
	"qualification-workers/internal/qualification/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_KeysCoverEveryResponseField(t *testing.T) {
	def := Get()
	require.Len(t, def.Questions, 8)

	answers := map[string]interface{}{}
	for _, q := range def.Questions {
		assert.False(t, q.Required, q.Key)
		answers[q.Key] = "x"
	}

	resp := models.ResponsesFromMap(answers)
	for name, field := range map[string]*string{
		"budget":        resp.Budget,
		"timeline":      resp.Timeline,
		"decisionMaker": resp.DecisionMaker,
		"motivation":    resp.Motivation,
		"urgency":       resp.Urgency,
		"preApproved":   resp.PreApproved,
		"location":      resp.Location,
		"propertyType":  resp.PropertyType,
	} {
		assert.NotNil(t, field, name)
	}
}

func TestGet_FirstOptionsScoreAsHotLead(t *testing.T) {
	answers := map[string]interface{}{"budget": 1_000_000.0, "location": "Queen Anne, Seattle"}
	for _, q := range Get().Questions {
		if len(q.Options) > 0 {
			answers[q.Key] = q.Options[0].Value
		}
	}

	result := scoring.Score(models.ResponsesFromMap(answers))
	assert.Equal(t, models.TierA, result.Tier)
	assert.Empty(t, result.RedFlags)
}

func TestGet_ReturnsCopy(t *testing.T) {
	def := Get()
	def.Questions[1].Options[0].Value = "edited"

	assert.Equal(t, "immediate", Get().Questions[1].Options[0].Value)
}
