// internal/models/nurture.go
package models

import "time"

const (
	HotLeadSequence  = "hot_lead_sequence"
	WarmLeadSequence = "warm_lead_sequence"
	NurtureSequence  = "nurture_sequence"
)

const (
	ActionSendEmail  = "send_email"
	ActionCreateTask = "create_task"
)

const (
	ExecutionActive    = "active"
	ExecutionCancelled = "cancelled"
)

// SequenceStep is one timed action in a nurturing sequence.
// DelayMinutes is measured from the previous step.
type SequenceStep struct {
	Step         int    `json:"step"`
	DelayMinutes int    `json:"delayMinutes"`
	Action       string `json:"action"`
	Subject      string `json:"subject,omitempty"`
	Content      string `json:"content"`
}

type NurturingSequence struct {
	ID             string         `json:"id" db:"id"`
	OrganizationID string         `json:"organizationId" db:"organization_id"`
	Name           string         `json:"name" db:"name"`
	SequenceType   string         `json:"sequenceType" db:"sequence_type"`
	TriggerEvent   string         `json:"triggerEvent" db:"trigger_event"`
	Steps          []SequenceStep `json:"steps" db:"steps"`
	IsActive       bool           `json:"isActive" db:"is_active"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
}

// ExecutionCustomizations is the qualification snapshot frozen on an execution.
type ExecutionCustomizations struct {
	Score      int      `json:"score"`
	Tier       Tier     `json:"tier"`
	KeyFactors []string `json:"keyFactors"`
}

type SequenceExecution struct {
	ID             string                  `json:"id" db:"id"`
	OrganizationID string                  `json:"organizationId" db:"organization_id"`
	SequenceID     string                  `json:"sequenceId" db:"sequence_id"`
	ContactID      string                  `json:"contactId,omitempty" db:"contact_id"`
	LeadID         string                  `json:"leadId,omitempty" db:"lead_id"`
	EmailThreadID  string                  `json:"emailThreadId,omitempty" db:"email_thread_id"`
	Status         string                  `json:"status" db:"status"`
	CurrentStep    int                     `json:"currentStep" db:"current_step"`
	NextActionAt   time.Time               `json:"nextActionAt" db:"next_action_at"`
	Customizations ExecutionCustomizations `json:"customizations" db:"customizations"`
	CreatedAt      time.Time               `json:"createdAt" db:"created_at"`
}

// ExecutionAnchor names the records an execution runs against. At least one id is set.
type ExecutionAnchor struct {
	ContactID     string `json:"contactId,omitempty"`
	LeadID        string `json:"leadId,omitempty"`
	EmailThreadID string `json:"emailThreadId,omitempty"`
}
