// internal/models/crm.go
package models

import "time"

// Contact statuses touched by qualification.
const (
	ContactStatusNew      = "new"
	ContactStatusProspect = "prospect"
	ContactStatusLead     = "lead"
)

// Lead stages assigned on creation.
const (
	StageQualified   = "qualified"
	StageInterested  = "interested"
	StageAwareness   = "awareness"
	StageUnqualified = "unqualified"
)

type Contact struct {
	ID                string     `json:"id" db:"id"`
	OrganizationID    string     `json:"organizationId" db:"organization_id"`
	FirstName         string     `json:"firstName,omitempty" db:"first_name"`
	LastName          string     `json:"lastName,omitempty" db:"last_name"`
	Email             string     `json:"email,omitempty" db:"email"`
	Phone             string     `json:"phone,omitempty" db:"phone"`
	Status            string     `json:"status" db:"status"`
	Source            string     `json:"source,omitempty" db:"source"`
	Budget            *string    `json:"budget,omitempty" db:"budget"`
	PreferredLocation *string    `json:"preferredLocation,omitempty" db:"preferred_location"`
	PropertyType      *string    `json:"propertyType,omitempty" db:"property_type"`
	Tags              []string   `json:"tags" db:"tags"`
	LastActivity      *time.Time `json:"lastActivity,omitempty" db:"last_activity"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at"`
}

type Lead struct {
	ID                 string     `json:"id" db:"id"`
	OrganizationID     string     `json:"organizationId" db:"organization_id"`
	ContactID          string     `json:"contactId,omitempty" db:"contact_id"`
	Title              string     `json:"title" db:"title"`
	Stage              string     `json:"stage" db:"stage"`
	ProbabilityPercent int        `json:"probabilityPercent" db:"probability_percent"`
	PropertyValue      *float64   `json:"propertyValue,omitempty" db:"property_value"`
	ExpectedCloseDate  *time.Time `json:"expectedCloseDate,omitempty" db:"expected_close_date"`
	Notes              string     `json:"notes,omitempty" db:"notes"`
	Source             string     `json:"source,omitempty" db:"source"`
	Tags               []string   `json:"tags" db:"tags"`
	CreatedAt          time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time  `json:"updatedAt" db:"updated_at"`
}

// Task priorities and the system actor.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	TaskStatusPending = "pending"

	SystemActor = "ai_system"
)

type Task struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID string    `json:"organizationId" db:"organization_id"`
	Title          string    `json:"title" db:"title"`
	Description    string    `json:"description" db:"description"`
	Priority       string    `json:"priority" db:"priority"`
	DueAt          time.Time `json:"dueAt" db:"due_at"`
	Status         string    `json:"status" db:"status"`
	ContactID      string    `json:"contactId,omitempty" db:"contact_id"`
	LeadID         string    `json:"leadId,omitempty" db:"lead_id"`
	CreatedBy      string    `json:"createdBy" db:"created_by"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// LeadUpdate carries the fields qualification may change on an existing lead.
type LeadUpdate struct {
	ProbabilityPercent *int
	Tags               []string
}

// ContactUpdate carries the fields qualification may change on a contact.
// Status is left untouched when nil.
type ContactUpdate struct {
	Status       *string
	Tags         []string
	LastActivity time.Time
}
