// Package bulk re-qualifies existing leads and contacts from the data already on file.
package bulk

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"qualification-workers/internal/common/errors"
	"qualification-workers/internal/common/logger"
	"qualification-workers/internal/common/metrics"
	"qualification-workers/internal/models"
	"qualification-workers/internal/qualification/orchestrator"
	"qualification-workers/internal/store"
)

// Source is recorded on every request the runner issues.
const Source = "bulk_qualification"

const (
	ItemLead    = "lead"
	ItemContact = "contact"
)

// Answers that stored records cannot supply.
const (
	defaultDecisionMaker = "unknown"
	defaultPreApproved   = "unknown"
	defaultMotivation    = "medium"
)

type Qualifier interface {
	Qualify(ctx context.Context, orgID string, req orchestrator.Request) (*orchestrator.Outcome, error)
}

type Store interface {
	GetLead(ctx context.Context, orgID, id string) (*models.Lead, error)
	GetContact(ctx context.Context, orgID, id string) (*models.Contact, error)
}

type Item struct {
	ID            string                      `json:"id"`
	Type          string                      `json:"type"`
	Success       bool                        `json:"success"`
	Qualification *models.QualificationResult `json:"qualification,omitempty"`
	ErrorMessage  string                      `json:"errorMessage,omitempty"`
}

type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type Result struct {
	Results []Item  `json:"results"`
	Summary Summary `json:"summary"`
}

type Runner struct {
	qualifier Qualifier
	store     Store
	maxItems  int
	now       func() time.Time
	logger    logger.Logger
}

type Option func(*Runner)

func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithMaxItems caps leads plus contacts per batch. Zero means no cap.
func WithMaxItems(n int) Option {
	return func(r *Runner) { r.maxItems = n }
}

func NewRunner(q Qualifier, st Store, log logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		qualifier: q,
		store:     st,
		now:       time.Now,
		logger:    log.WithFields(map[string]interface{}{"component": "bulk-runner"}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run qualifies every lead, then every contact, one at a time in input order.
// Item failures are recorded in the result; only a bad batch returns an error.
func (r *Runner) Run(ctx context.Context, orgID string, leadIDs, contactIDs []string) (*Result, error) {
	if orgID == "" {
		return nil, errors.NewOrganizationRequiredError()
	}
	total := len(leadIDs) + len(contactIDs)
	if r.maxItems > 0 && total > r.maxItems {
		return nil, errors.NewBulkLimitExceededError(total, r.maxItems)
	}

	res := &Result{Results: make([]Item, 0, total)}
	for _, id := range leadIDs {
		res.add(r.runItem(ctx, orgID, ItemLead, id))
	}
	for _, id := range contactIDs {
		res.add(r.runItem(ctx, orgID, ItemContact, id))
	}

	r.logger.Info("bulk qualification finished", map[string]interface{}{
		"organizationId": orgID,
		"total":          res.Summary.Total,
		"successful":     res.Summary.Successful,
		"failed":         res.Summary.Failed,
	})
	return res, nil
}

func (res *Result) add(item Item) {
	res.Results = append(res.Results, item)
	res.Summary.Total++
	if item.Success {
		res.Summary.Successful++
	} else {
		res.Summary.Failed++
	}
}

func (r *Runner) runItem(ctx context.Context, orgID, itemType, id string) (item Item) {
	item = Item{ID: id, Type: itemType}

	defer func() {
		if p := recover(); p != nil {
			item.Success = false
			item.Qualification = nil
			item.ErrorMessage = fmt.Sprintf("panic: %v", p)
			r.logger.Error("bulk item panicked", map[string]interface{}{"id": id, "type": itemType, "panic": p})
		}
		outcome := "success"
		if !item.Success {
			outcome = "failed"
		}
		metrics.BulkItems.WithLabelValues(itemType, outcome).Inc()
	}()

	req, err := r.buildRequest(ctx, orgID, itemType, id)
	if err == nil {
		var out *orchestrator.Outcome
		out, err = r.qualifier.Qualify(ctx, orgID, req)
		if err == nil {
			q := out.Qualification
			item.Success = true
			item.Qualification = &q
			return item
		}
	}

	item.ErrorMessage = err.Error()
	r.logger.Warn("bulk item failed", map[string]interface{}{"id": id, "type": itemType, "error": err.Error()})
	return item
}

func (r *Runner) buildRequest(ctx context.Context, orgID, itemType, id string) (orchestrator.Request, error) {
	switch itemType {
	case ItemLead:
		lead, err := r.store.GetLead(ctx, orgID, id)
		if err != nil {
			if stderrors.Is(err, store.ErrNotFound) {
				return orchestrator.Request{}, errors.NewLeadNotFoundError(id)
			}
			return orchestrator.Request{}, errors.NewQueryExecutionFailedError("get_lead", err)
		}
		return orchestrator.Request{LeadID: id, Responses: LeadResponses(lead, r.now()), Source: Source}, nil

	default:
		contact, err := r.store.GetContact(ctx, orgID, id)
		if err != nil {
			if stderrors.Is(err, store.ErrNotFound) {
				return orchestrator.Request{}, errors.NewContactNotFoundError(id)
			}
			return orchestrator.Request{}, errors.NewQueryExecutionFailedError("get_contact", err)
		}
		return orchestrator.Request{ContactID: id, Responses: ContactResponses(contact), Source: Source}, nil
	}
}

func defaults() models.QualificationResponse {
	return models.QualificationResponse{
		DecisionMaker: models.Str(defaultDecisionMaker),
		PreApproved:   models.Str(defaultPreApproved),
		Motivation:    models.Str(defaultMotivation),
	}
}

// LeadResponses synthesizes answers from a stored lead.
func LeadResponses(lead *models.Lead, now time.Time) models.QualificationResponse {
	resp := defaults()
	if lead.PropertyValue != nil && *lead.PropertyValue > 0 {
		resp.Budget = models.Str(strconv.FormatFloat(*lead.PropertyValue, 'f', -1, 64))
	}
	if lead.ExpectedCloseDate != nil {
		resp.Timeline = models.Str(TimelineForCloseDate(*lead.ExpectedCloseDate, now))
	}
	return resp
}

// ContactResponses synthesizes answers from a stored contact.
func ContactResponses(c *models.Contact) models.QualificationResponse {
	resp := defaults()
	resp.Budget = c.Budget
	resp.Location = c.PreferredLocation
	resp.PropertyType = c.PropertyType
	return resp
}

// TimelineForCloseDate buckets the days left until close. Past dates count as immediate.
func TimelineForCloseDate(closeDate, now time.Time) string {
	days := int(math.Ceil(closeDate.Sub(now).Hours() / 24))
	switch {
	case days <= 30:
		return "immediate"
	case days <= 60:
		return "1 month"
	case days <= 120:
		return "3 months"
	case days <= 180:
		return "6 months"
	default:
		return "1 year"
	}
}
