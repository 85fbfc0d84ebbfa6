package catalog

import "qualification-workers/internal/models"

// SequenceTypeForTier picks the nurturing track for a tier. C and D share the nurture track.
func SequenceTypeForTier(tier models.Tier) string {
	switch tier {
	case models.TierA:
		return models.HotLeadSequence
	case models.TierB:
		return models.WarmLeadSequence
	default:
		return models.NurtureSequence
	}
}

const (
	hour = 60
	day  = 24 * hour
	week = 7 * day
)

var templates = map[string]models.NurturingSequence{
	models.HotLeadSequence: {
		Name:         "Hot Lead Follow-up",
		SequenceType: models.HotLeadSequence,
		TriggerEvent: "lead_qualified_hot",
		Steps: []models.SequenceStep{
			{
				Step: 1, DelayMinutes: 30, Action: models.ActionSendEmail,
				Subject: "Thank you for reaching out, {{firstName}}",
				Content: "Thank you for your interest. I'd love to schedule a call to discuss your goals and find the right property for you.",
			},
			{
				Step: 2, DelayMinutes: 2 * hour, Action: models.ActionCreateTask,
				Content: "Call hot lead to discuss requirements and book a showing",
			},
			{
				Step: 3, DelayMinutes: day, Action: models.ActionSendEmail,
				Subject: "Properties matching your criteria",
				Content: "Based on our conversation, here are properties that match your criteria in {{location}}.",
			},
		},
	},
	models.WarmLeadSequence: {
		Name:         "Warm Lead Nurture",
		SequenceType: models.WarmLeadSequence,
		TriggerEvent: "lead_qualified_warm",
		Steps: []models.SequenceStep{
			{
				Step: 1, DelayMinutes: 2 * hour, Action: models.ActionSendEmail,
				Subject: "Welcome, {{firstName}}",
				Content: "Welcome! Here's how we can help you find your next home when you're ready.",
			},
			{
				Step: 2, DelayMinutes: 3 * day, Action: models.ActionSendEmail,
				Subject: "Market insights for {{location}}",
				Content: "Here are the latest market trends and pricing insights for the areas you're interested in.",
			},
			{
				Step: 3, DelayMinutes: week, Action: models.ActionSendEmail,
				Subject: "New listings this week",
				Content: "New listings just hit the market that may interest you.",
			},
		},
	},
	models.NurtureSequence: {
		Name:         "Long-term Nurture",
		SequenceType: models.NurtureSequence,
		TriggerEvent: "lead_qualified_nurture",
		Steps: []models.SequenceStep{
			{
				Step: 1, DelayMinutes: day, Action: models.ActionSendEmail,
				Subject: "Thanks for connecting, {{firstName}}",
				Content: "Thank you for connecting with us. We're here whenever you're ready to take the next step.",
			},
			{
				Step: 2, DelayMinutes: week, Action: models.ActionSendEmail,
				Subject: "Your weekly market update",
				Content: "Here's your weekly update on the local real estate market.",
			},
			{
				Step: 3, DelayMinutes: 2 * week, Action: models.ActionSendEmail,
				Subject: "Ready for the next step?",
				Content: "When you're ready to explore your options, reply to this email and we'll set up a time to talk.",
			},
		},
	},
}

// Template returns a fresh copy of the built-in sequence for sequenceType.
func Template(sequenceType string) (models.NurturingSequence, bool) {
	tmpl, ok := templates[sequenceType]
	if !ok {
		return models.NurturingSequence{}, false
	}
	steps := make([]models.SequenceStep, len(tmpl.Steps))
	copy(steps, tmpl.Steps)
	tmpl.Steps = steps
	tmpl.IsActive = true
	return tmpl, true
}
