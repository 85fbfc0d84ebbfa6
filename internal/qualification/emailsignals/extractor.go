// Package emailsignals turns an analyzed email thread into qualification answers.
package emailsignals

import (
	"context"
	stderrors "errors"
	"strings"

	"qualification-workers/internal/common/errors"
	"qualification-workers/internal/common/logger"
	"qualification-workers/internal/models"
	"qualification-workers/internal/qualification/orchestrator"
	"qualification-workers/internal/store"
)

// Source is recorded on requests built from email analysis.
const Source = "email_analysis"

const unknown = "unknown"

// ExtractSignals maps the thread analysis onto a QualificationResponse.
// Email cannot convey authority or financing, so those are always "unknown".
func ExtractSignals(thread models.EmailThread) models.QualificationResponse {
	resp := models.QualificationResponse{
		DecisionMaker: models.Str(unknown),
		PreApproved:   models.Str(unknown),
	}
	if thread.Analysis == nil {
		return resp
	}

	entities := thread.Analysis.KeyEntities
	resp.Budget = nonEmpty(entities.PriceRange)
	if resp.Budget == nil {
		resp.Budget = nonEmpty(entities.Budget)
	}
	resp.Timeline = models.Str(timelineForUrgency(entities.Urgency))
	resp.PropertyType = nonEmpty(entities.PropertyType)
	resp.Location = nonEmpty(entities.Location)
	resp.Motivation = models.Str(motivationForCategory(thread.Analysis.Category))
	return resp
}

func timelineForUrgency(urgency string) string {
	switch strings.ToLower(strings.TrimSpace(urgency)) {
	case "critical", "high":
		return "immediate"
	case "medium":
		return "3 months"
	default:
		return "6 months or more"
	}
}

func motivationForCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "hot_lead", "seller_lead", "buyer_lead":
		return "high - active buyer/seller"
	case "showing_request":
		return "high - ready to view properties"
	default:
		return "medium - inquiring"
	}
}

func nonEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return models.Str(s)
}

// Store is what the extractor reads and writes.
type Store interface {
	GetEmailThread(ctx context.Context, orgID, id string) (*models.EmailThread, error)
	GetContact(ctx context.Context, orgID, id string) (*models.Contact, error)
	FindContactByEmail(ctx context.Context, orgID, email string) (*models.Contact, error)
	CreateContact(ctx context.Context, c *models.Contact) error
}

type Extractor struct {
	store  Store
	logger logger.Logger
}

func NewExtractor(st Store, log logger.Logger) *Extractor {
	return &Extractor{
		store:  st,
		logger: log.WithFields(map[string]interface{}{"component": "email-signal-extractor"}),
	}
}

// Prepare loads and checks the thread, resolves its contact and builds the
// request the orchestrator runs.
func (e *Extractor) Prepare(ctx context.Context, orgID, threadID string) (orchestrator.Request, error) {
	if orgID == "" {
		return orchestrator.Request{}, errors.NewOrganizationRequiredError()
	}

	thread, err := e.store.GetEmailThread(ctx, orgID, threadID)
	switch {
	case stderrors.Is(err, store.ErrNotFound):
		return orchestrator.Request{}, errors.NewThreadNotFoundError(threadID)
	case err != nil:
		return orchestrator.Request{}, errors.NewQueryExecutionFailedError("get_email_thread", err)
	}
	if thread.Analysis == nil {
		return orchestrator.Request{}, errors.NewThreadNotAnalyzedError(threadID)
	}

	req := orchestrator.Request{
		EmailThreadID: thread.ID,
		Responses:     ExtractSignals(*thread),
		Source:        Source,
	}

	contact, err := e.ResolveContact(ctx, orgID, thread)
	if err != nil {
		return orchestrator.Request{}, err
	}
	if contact != nil {
		req.ContactID = contact.ID
	}
	return req, nil
}

// ResolveContact returns the thread's linked contact, or finds or creates one for the
// first external participant. A linked contact that no longer exists falls through to
// the participants. A thread with no participant email yields nil.
func (e *Extractor) ResolveContact(ctx context.Context, orgID string, thread *models.EmailThread) (*models.Contact, error) {
	if thread.ContactID != "" {
		linked, err := e.store.GetContact(ctx, orgID, thread.ContactID)
		switch {
		case err == nil:
			return linked, nil
		case stderrors.Is(err, store.ErrNotFound):
			e.logger.Warn("linked contact missing, using participants", map[string]interface{}{
				"threadId":  thread.ID,
				"contactId": thread.ContactID,
			})
		default:
			return nil, errors.NewQueryExecutionFailedError("get_contact", err)
		}
	}

	p, ok := primaryParticipant(thread.Participants)
	if !ok {
		e.logger.Warn("thread has no participant email", map[string]interface{}{"threadId": thread.ID})
		return nil, nil
	}

	existing, err := e.store.FindContactByEmail(ctx, orgID, p.Email)
	if err == nil {
		return existing, nil
	}
	if !stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NewQueryExecutionFailedError("find_contact_by_email", err)
	}

	first, last := splitName(p.Name)
	contact := &models.Contact{
		OrganizationID: orgID,
		FirstName:      first,
		LastName:       last,
		Email:          p.Email,
		Status:         models.ContactStatusNew,
		Source:         "email",
		Tags:           []string{},
	}
	if err := e.store.CreateContact(ctx, contact); err != nil {
		return nil, errors.NewDatabaseInsertFailedError("contact", err)
	}

	e.logger.Info("created contact from email thread", map[string]interface{}{
		"organizationId": orgID,
		"threadId":       thread.ID,
		"contactId":      contact.ID,
	})
	return contact, nil
}

func primaryParticipant(participants []models.Participant) (models.Participant, bool) {
	for _, p := range participants {
		if p.External && p.Email != "" {
			return p, true
		}
	}
	for _, p := range participants {
		if p.Email != "" {
			return p, true
		}
	}
	return models.Participant{}, false
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

