// internal/models/email.go
package models

// KeyEntities are the fields the email analyzer pulls out of a thread.
type KeyEntities struct {
	PriceRange   string `json:"priceRange,omitempty"`
	Budget       string `json:"budget,omitempty"`
	Urgency      string `json:"urgency,omitempty"`
	PropertyType string `json:"propertyType,omitempty"`
	Location     string `json:"location,omitempty"`
}

type EmailAnalysis struct {
	Category    string      `json:"category"`
	Sentiment   string      `json:"sentiment,omitempty"`
	KeyEntities KeyEntities `json:"keyEntities"`
}

type Participant struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	External bool   `json:"external"`
}

type EmailThread struct {
	ID             string         `json:"id" db:"id"`
	OrganizationID string         `json:"organizationId" db:"organization_id"`
	Subject        string         `json:"subject" db:"subject"`
	Participants   []Participant  `json:"participants" db:"participants"`
	ContactID      string         `json:"contactId,omitempty" db:"contact_id"`
	Analysis       *EmailAnalysis `json:"analysis,omitempty" db:"analysis"`
}
