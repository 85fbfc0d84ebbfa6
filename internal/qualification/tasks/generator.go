// Package tasks decides which follow-up tasks a qualification produces.
package tasks

import (
	"time"

	"qualification-workers/internal/models"
)

type template struct {
	title       string
	description string
	priority    string
	due         time.Duration
}

var byTier = map[models.Tier][]template{
	models.TierA: {
		{"Call hot lead within 2 hours", "Hot lead: call now to discuss requirements and schedule showings.", models.PriorityHigh, 2 * time.Hour},
		{"Prepare property recommendations", "Shortlist properties matching the lead's budget, location and property type.", models.PriorityHigh, 4 * time.Hour},
	},
	models.TierB: {
		{"Follow up with warm lead", "Warm lead: check in and share listings that match their criteria.", models.PriorityMedium, 24 * time.Hour},
	},
}

var nurtureTasks = []template{
	{"Add to long-term nurturing campaign", "Lead is not ready yet: enroll in the nurture campaign and revisit later.", models.PriorityLow, 14 * 24 * time.Hour},
}

// Generate returns the follow-up tasks for tier, due relative to now and linked to
// whichever of contactID and leadID are set. Tasks are not persisted here.
func Generate(tier models.Tier, contactID, leadID string, now time.Time) []models.Task {
	templates, ok := byTier[tier]
	if !ok {
		templates = nurtureTasks
	}

	out := make([]models.Task, 0, len(templates))
	for _, tmpl := range templates {
		out = append(out, models.Task{
			Title:       tmpl.title,
			Description: tmpl.description,
			Priority:    tmpl.priority,
			DueAt:       now.Add(tmpl.due),
			Status:      models.TaskStatusPending,
			ContactID:   contactID,
			LeadID:      leadID,
			CreatedBy:   models.SystemActor,
			CreatedAt:   now,
		})
	}
	return out
}
