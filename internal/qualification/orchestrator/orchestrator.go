// Package orchestrator runs a full qualification: score, update the CRM records,
// start nurturing and create follow-up tasks.
package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"qualification-workers/internal/common/config"
	"qualification-workers/internal/common/errors"
	"qualification-workers/internal/common/logger"
	"qualification-workers/internal/common/metrics"
	"qualification-workers/internal/models"
	"qualification-workers/internal/qualification/scoring"
	"qualification-workers/internal/qualification/tasks"
	"qualification-workers/internal/store"
)

// Store is the persistence the orchestrator writes through.
type Store interface {
	GetLead(ctx context.Context, orgID, id string) (*models.Lead, error)
	GetContact(ctx context.Context, orgID, id string) (*models.Contact, error)
	CreateLead(ctx context.Context, lead *models.Lead) error
	UpdateLead(ctx context.Context, orgID, id string, upd models.LeadUpdate) error
	UpdateContact(ctx context.Context, orgID, id string, upd models.ContactUpdate) error
	CreateTask(ctx context.Context, task *models.Task) error
	GetEmailThread(ctx context.Context, orgID, id string) (*models.EmailThread, error)
}

type SequenceResolver interface {
	Resolve(ctx context.Context, orgID string, tier models.Tier) (*models.NurturingSequence, error)
}

type ExecutionStarter interface {
	StartExecution(ctx context.Context, orgID string, seq *models.NurturingSequence,
		result models.QualificationResult, anchor models.ExecutionAnchor) (*models.SequenceExecution, error)
}

type HotLeadNotifier interface {
	NotifyHotLead(ctx context.Context, alert models.HotLeadAlert) error
}

// Settings are the tunables from the qualification config section.
type Settings struct {
	LeadCreationThreshold int
	TagPolicy             string
}

// DefaultSettings matches the observed behavior: create leads at 60+, append tags.
func DefaultSettings() Settings {
	return Settings{LeadCreationThreshold: 60, TagPolicy: config.PolicyAppend}
}

// Request is one qualification. At least one of the ids must be set.
type Request struct {
	ContactID     string
	LeadID        string
	EmailThreadID string
	Responses     models.QualificationResponse
	Source        string
}

type Orchestrator struct {
	store     Store
	sequences SequenceResolver
	scheduler ExecutionStarter
	notifier  HotLeadNotifier
	settings  Settings
	now       func() time.Time
	logger    logger.Logger
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithNotifier enables hot lead alerts.
func WithNotifier(n HotLeadNotifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

func New(st Store, sequences SequenceResolver, scheduler ExecutionStarter, settings Settings, log logger.Logger, opts ...Option) *Orchestrator {
	if settings.TagPolicy == "" {
		settings.TagPolicy = config.PolicyAppend
	}
	o := &Orchestrator{
		store:     st,
		sequences: sequences,
		scheduler: scheduler,
		settings:  settings,
		now:       time.Now,
		logger:    log.WithFields(map[string]interface{}{"component": "qualification-orchestrator"}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Qualify runs every step in order; later steps use ids written by earlier ones.
// Only invalid requests and lookup misses return an error. Record updates, nurturing,
// tasks and alerts are best-effort and are left out of the outcome when they fail.
func (o *Orchestrator) Qualify(ctx context.Context, orgID string, req Request) (*Outcome, error) {
	if orgID == "" {
		return nil, errors.NewOrganizationRequiredError()
	}
	if req.ContactID == "" && req.LeadID == "" && req.EmailThreadID == "" {
		return nil, errors.NewQualificationTargetMissingError()
	}

	now := o.now().UTC()
	log := o.logger.WithFields(map[string]interface{}{"organizationId": orgID, "source": req.Source})

	result := scoring.Score(req.Responses)

	lead, contact, err := o.resolveRecords(ctx, orgID, req, log)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Success:       true,
		Qualification: result,
		Actions: Actions{
			FollowUpTasks:   []TaskRef{},
			Recommendations: Recommendations(result, req.Responses),
		},
		NextSteps: NextSteps(result, req.Responses),
	}

	createdLead := false
	if lead == nil && contact != nil && result.Score >= o.settings.LeadCreationThreshold {
		if newLead := o.createLead(ctx, orgID, contact, result, req, now, log); newLead != nil {
			lead = newLead
			createdLead = true
			outcome.Actions.LeadCreated = &LeadRef{
				ID:                 newLead.ID,
				Stage:              newLead.Stage,
				ProbabilityPercent: newLead.ProbabilityPercent,
			}
		}
	}

	if contact != nil {
		o.updateContact(ctx, orgID, contact, result, now, log)
		outcome.ContactID = contact.ID
	}
	if lead != nil {
		if !createdLead {
			o.updateLead(ctx, orgID, lead, result, log)
		}
		outcome.LeadID = lead.ID
	}

	anchor := models.ExecutionAnchor{EmailThreadID: req.EmailThreadID}
	if contact != nil {
		anchor.ContactID = contact.ID
	}
	if lead != nil {
		anchor.LeadID = lead.ID
	}

	outcome.Actions.NurturingSequence = o.startNurturing(ctx, orgID, result, anchor, log)
	outcome.Actions.FollowUpTasks = o.createTasks(ctx, orgID, result.Tier, anchor, now, log)

	if result.Tier == models.TierA && o.notifier != nil {
		alert := models.HotLeadAlert{
			OrganizationID: orgID,
			ContactID:      anchor.ContactID,
			LeadID:         anchor.LeadID,
			Score:          result.Score,
			Tier:           result.Tier,
			KeyFactors:     result.KeyFactors,
			Source:         req.Source,
		}
		if err := o.notifier.NotifyHotLead(ctx, alert); err != nil {
			log.Warn("hot lead alert failed", map[string]interface{}{"error": err.Error()})
		}
	}

	metrics.RecordQualification(string(result.Tier), req.Source, result.Score)
	log.Info("lead qualified", map[string]interface{}{
		"score":       result.Score,
		"tier":        result.Tier,
		"confidence":  result.Confidence,
		"leadCreated": createdLead,
		"contactId":   anchor.ContactID,
		"leadId":      anchor.LeadID,
	})

	return outcome, nil
}

func (o *Orchestrator) resolveRecords(ctx context.Context, orgID string, req Request, log logger.Logger) (*models.Lead, *models.Contact, error) {
	var lead *models.Lead
	var contact *models.Contact

	if req.LeadID != "" {
		l, err := o.store.GetLead(ctx, orgID, req.LeadID)
		switch {
		case stderrors.Is(err, store.ErrNotFound):
			return nil, nil, errors.NewLeadNotFoundError(req.LeadID)
		case err != nil:
			return nil, nil, errors.NewQueryExecutionFailedError("get_lead", err)
		}
		lead = l
	}

	if req.ContactID != "" {
		c, err := o.store.GetContact(ctx, orgID, req.ContactID)
		switch {
		case stderrors.Is(err, store.ErrNotFound):
			return nil, nil, errors.NewContactNotFoundError(req.ContactID)
		case err != nil:
			return nil, nil, errors.NewQueryExecutionFailedError("get_contact", err)
		}
		contact = c
	} else if lead != nil && lead.ContactID != "" {
		contact = o.linkedContact(ctx, orgID, lead.ContactID, log.WithFields(map[string]interface{}{"leadId": lead.ID}))
	}

	if req.EmailThreadID != "" {
		thread, err := o.store.GetEmailThread(ctx, orgID, req.EmailThreadID)
		switch {
		case stderrors.Is(err, store.ErrNotFound):
			return nil, nil, errors.NewThreadNotFoundError(req.EmailThreadID)
		case err != nil:
			return nil, nil, errors.NewQueryExecutionFailedError("get_email_thread", err)
		}
		if contact == nil && thread.ContactID != "" {
			contact = o.linkedContact(ctx, orgID, thread.ContactID, log.WithFields(map[string]interface{}{"emailThreadId": thread.ID}))
		}
	}

	return lead, contact, nil
}

// linkedContact follows a stored link; a dangling link is logged, not fatal.
func (o *Orchestrator) linkedContact(ctx context.Context, orgID, contactID string, log logger.Logger) *models.Contact {
	c, err := o.store.GetContact(ctx, orgID, contactID)
	if err != nil {
		log.Warn("linked contact unavailable", map[string]interface{}{
			"contactId": contactID,
			"error":     err.Error(),
		})
		return nil
	}
	return c
}

func (o *Orchestrator) createLead(
	ctx context.Context,
	orgID string,
	contact *models.Contact,
	result models.QualificationResult,
	req Request,
	now time.Time,
	log logger.Logger,
) *models.Lead {
	probability := result.Score
	if probability > 95 {
		probability = 95
	}

	lead := &models.Lead{
		OrganizationID:     orgID,
		ContactID:          contact.ID,
		Title:              leadTitle(contact, result.Tier),
		Stage:              StageForTier(result.Tier),
		ProbabilityPercent: probability,
		Notes:              FormatNotes(result, req.Responses),
		Source:             req.Source,
		Tags:               leadTags(result),
	}
	if amount, ok := scoring.ParseBudget(models.Value(req.Responses.Budget)); ok {
		lead.PropertyValue = &amount
	}
	closeDate := now.AddDate(0, 0, TimelineDays(models.Value(req.Responses.Timeline)))
	lead.ExpectedCloseDate = &closeDate

	if err := o.store.CreateLead(ctx, lead); err != nil {
		log.Warn("lead creation failed", map[string]interface{}{"contactId": contact.ID, "error": err.Error()})
		return nil
	}
	return lead
}

func (o *Orchestrator) updateContact(ctx context.Context, orgID string, contact *models.Contact, result models.QualificationResult, now time.Time, log logger.Logger) {
	upd := models.ContactUpdate{
		Status:       ContactStatusForTier(result.Tier),
		Tags:         MergeTags(contact.Tags, contactTags(result), o.settings.TagPolicy),
		LastActivity: now,
	}
	if err := o.store.UpdateContact(ctx, orgID, contact.ID, upd); err != nil {
		log.Warn("contact update failed", map[string]interface{}{"contactId": contact.ID, "error": err.Error()})
	}
}

func (o *Orchestrator) updateLead(ctx context.Context, orgID string, lead *models.Lead, result models.QualificationResult, log logger.Logger) {
	probability := result.Score
	upd := models.LeadUpdate{
		ProbabilityPercent: &probability,
		Tags:               MergeTags(lead.Tags, leadTags(result), o.settings.TagPolicy),
	}
	if err := o.store.UpdateLead(ctx, orgID, lead.ID, upd); err != nil {
		log.Warn("lead update failed", map[string]interface{}{"leadId": lead.ID, "error": err.Error()})
	}
}

func (o *Orchestrator) startNurturing(ctx context.Context, orgID string, result models.QualificationResult, anchor models.ExecutionAnchor, log logger.Logger) *NurturingAction {
	seq, err := o.sequences.Resolve(ctx, orgID, result.Tier)
	if err != nil {
		log.Warn("nurturing sequence unavailable", map[string]interface{}{"tier": result.Tier, "error": err.Error()})
		return nil
	}

	exec, err := o.scheduler.StartExecution(ctx, orgID, seq, result, anchor)
	if err != nil {
		log.Warn("nurturing execution not started", map[string]interface{}{"sequenceId": seq.ID, "error": err.Error()})
		return nil
	}

	return &NurturingAction{
		SequenceID:   seq.ID,
		SequenceName: seq.Name,
		SequenceType: seq.SequenceType,
		ExecutionID:  exec.ID,
		NextActionAt: exec.NextActionAt,
	}
}

func (o *Orchestrator) createTasks(ctx context.Context, orgID string, tier models.Tier, anchor models.ExecutionAnchor, now time.Time, log logger.Logger) []TaskRef {
	refs := []TaskRef{}
	for _, task := range tasks.Generate(tier, anchor.ContactID, anchor.LeadID, now) {
		task.OrganizationID = orgID
		if err := o.store.CreateTask(ctx, &task); err != nil {
			log.Warn("follow-up task not created", map[string]interface{}{"title": task.Title, "error": err.Error()})
			continue
		}
		refs = append(refs, TaskRef{ID: task.ID, Title: task.Title, Priority: task.Priority, DueAt: task.DueAt})
	}
	return refs
}

func leadTitle(c *models.Contact, tier models.Tier) string {
	name := c.FirstName
	if c.LastName != "" {
		if name != "" {
			name += " "
		}
		name += c.LastName
	}
	if name == "" {
		name = c.Email
	}
	if name == "" {
		name = "Contact"
	}
	return fmt.Sprintf("%s - AI Qualified (Tier %s)", name, tier)
}
