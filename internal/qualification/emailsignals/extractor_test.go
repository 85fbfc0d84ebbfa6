package emailsignals

import (
	"context"
	stderrors "errors"
	"testing"

	"qualification-workers/internal/common/errors"
	"qualification-workers/internal/common/logger"
	"qualification-workers/internal/models"
	"qualification-workers/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func analyzedThread(category, urgency string) models.EmailThread {
	return models.EmailThread{
		OrganizationID: "org-1",
		Subject:        "Looking for a 3 bed",
		Participants: []models.Participant{
			{Email: "agent@brokerage.test", Name: "Agent", External: false},
			{Email: "Sam.Ortiz@example.com", Name: "Sam de la Ortiz", External: true},
		},
		Analysis: &models.EmailAnalysis{
			Category: category,
			KeyEntities: models.KeyEntities{
				PriceRange:   "$650,000",
				Budget:       "600000",
				Urgency:      urgency,
				PropertyType: "single family",
				Location:     "Ballard, Seattle",
			},
		},
	}
}

// ==========================
// Signal Mapping Tests
// ==========================

func TestExtractSignals(t *testing.T) {
	resp := ExtractSignals(analyzedThread("buyer_lead", "high"))

	assert.Equal(t, "$650,000", models.Value(resp.Budget))
	assert.Equal(t, "immediate", models.Value(resp.Timeline))
	assert.Equal(t, "high - active buyer/seller", models.Value(resp.Motivation))
	assert.Equal(t, "single family", models.Value(resp.PropertyType))
	assert.Equal(t, "Ballard, Seattle", models.Value(resp.Location))
	assert.Equal(t, "unknown", models.Value(resp.DecisionMaker))
	assert.Equal(t, "unknown", models.Value(resp.PreApproved))
	assert.Nil(t, resp.Urgency)
}

func TestExtractSignals_Urgency(t *testing.T) {
	tests := map[string]string{
		"critical": "immediate",
		"HIGH":     "immediate",
		"medium":   "3 months",
		"low":      "6 months or more",
		"":         "6 months or more",
	}
	for urgency, want := range tests {
		resp := ExtractSignals(analyzedThread("general", urgency))
		assert.Equal(t, want, models.Value(resp.Timeline), urgency)
	}
}

func TestExtractSignals_Category(t *testing.T) {
	tests := map[string]string{
		"hot_lead":        "high - active buyer/seller",
		"seller_lead":     "high - active buyer/seller",
		"showing_request": "high - ready to view properties",
		"newsletter":      "medium - inquiring",
	}
	for category, want := range tests {
		resp := ExtractSignals(analyzedThread(category, "low"))
		assert.Equal(t, want, models.Value(resp.Motivation), category)
	}
}

func TestExtractSignals_BudgetFallback(t *testing.T) {
	thread := analyzedThread("buyer_lead", "low")
	thread.Analysis.KeyEntities.PriceRange = ""
	assert.Equal(t, "600000", models.Value(ExtractSignals(thread).Budget))

	thread.Analysis.KeyEntities.Budget = " "
	thread.Analysis.KeyEntities.Location = ""
	resp := ExtractSignals(thread)
	assert.Nil(t, resp.Budget)
	assert.Nil(t, resp.Location)
}

// ==========================
// Prepare Tests
// ==========================

func TestPrepare_CreatesContactFromExternalParticipant(t *testing.T) {
	mem := storetest.NewMemory()
	thread := mem.AddThread(analyzedThread("hot_lead", "critical"))
	e := NewExtractor(mem, logger.NewTestLogger(t))

	req, err := e.Prepare(context.Background(), "org-1", thread.ID)
	require.NoError(t, err)

	assert.Equal(t, Source, req.Source)
	assert.Equal(t, thread.ID, req.EmailThreadID)
	require.NotEmpty(t, req.ContactID)

	contact := mem.Contacts[req.ContactID]
	require.NotNil(t, contact)
	assert.Equal(t, "Sam.Ortiz@example.com", contact.Email)
	assert.Equal(t, "Sam", contact.FirstName)
	assert.Equal(t, "de la Ortiz", contact.LastName)
	assert.Equal(t, models.ContactStatusNew, contact.Status)
	assert.Equal(t, "email", contact.Source)
}

func TestPrepare_ReusesContactByEmail(t *testing.T) {
	mem := storetest.NewMemory()
	existing := mem.AddContact(models.Contact{OrganizationID: "org-1", Email: "sam.ortiz@example.com"})
	thread := mem.AddThread(analyzedThread("hot_lead", "critical"))
	e := NewExtractor(mem, logger.NewTestLogger(t))

	req, err := e.Prepare(context.Background(), "org-1", thread.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, req.ContactID)
	assert.Len(t, mem.Contacts, 1)
}

func TestPrepare_LinkedContactWins(t *testing.T) {
	mem := storetest.NewMemory()
	linked := mem.AddContact(models.Contact{ID: "contact-7", OrganizationID: "org-1", Email: "other@example.com"})
	thread := analyzedThread("buyer_lead", "medium")
	thread.ContactID = linked.ID
	stored := mem.AddThread(thread)
	e := NewExtractor(mem, logger.NewTestLogger(t))

	req, err := e.Prepare(context.Background(), "org-1", stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "contact-7", req.ContactID)
	assert.Len(t, mem.Contacts, 1)
}

func TestPrepare_DeletedLinkedContactFallsBackToParticipant(t *testing.T) {
	mem := storetest.NewMemory()
	thread := analyzedThread("buyer_lead", "medium")
	thread.ContactID = "contact-deleted"
	stored := mem.AddThread(thread)
	e := NewExtractor(mem, logger.NewTestLogger(t))

	req, err := e.Prepare(context.Background(), "org-1", stored.ID)
	require.NoError(t, err)
	require.NotEmpty(t, req.ContactID)
	assert.NotEqual(t, "contact-deleted", req.ContactID)
	assert.Equal(t, "Sam.Ortiz@example.com", mem.Contacts[req.ContactID].Email)
}

func TestPrepare_LinkedContactLookupFailure(t *testing.T) {
	mem := storetest.NewMemory()
	thread := analyzedThread("buyer_lead", "medium")
	thread.ContactID = "contact-7"
	stored := mem.AddThread(thread)
	mem.Fail["GetContact"] = stderrors.New("timeout")
	e := NewExtractor(mem, logger.NewTestLogger(t))

	_, err := e.Prepare(context.Background(), "org-1", stored.ID)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, errors.CodeOf(err))
}

func TestPrepare_NoParticipants(t *testing.T) {
	mem := storetest.NewMemory()
	thread := analyzedThread("buyer_lead", "medium")
	thread.Participants = nil
	stored := mem.AddThread(thread)

	req, err := NewExtractor(mem, logger.NewTestLogger(t)).Prepare(context.Background(), "org-1", stored.ID)
	require.NoError(t, err)
	assert.Empty(t, req.ContactID)
	assert.Equal(t, stored.ID, req.EmailThreadID)
}

func TestPrepare_Errors(t *testing.T) {
	ctx := context.Background()
	mem := storetest.NewMemory()
	e := NewExtractor(mem, logger.NewTestLogger(t))

	_, err := e.Prepare(ctx, "", "thread-1")
	assert.Equal(t, errors.ErrCodeOrganizationRequired, errors.CodeOf(err))

	_, err = e.Prepare(ctx, "org-1", "missing")
	assert.Equal(t, errors.ErrCodeThreadNotFound, errors.CodeOf(err))

	raw := analyzedThread("buyer_lead", "high")
	raw.Analysis = nil
	unanalyzed := mem.AddThread(raw)
	_, err = e.Prepare(ctx, "org-1", unanalyzed.ID)
	assert.Equal(t, errors.ErrCodeThreadNotAnalyzed, errors.CodeOf(err))

	thread := mem.AddThread(analyzedThread("buyer_lead", "high"))
	mem.Fail["CreateContact"] = stderrors.New("insert failed")
	_, err = e.Prepare(ctx, "org-1", thread.ID)
	assert.Equal(t, errors.ErrCodeDatabaseInsertFailed, errors.CodeOf(err))

	mem.Fail["GetEmailThread"] = stderrors.New("timeout")
	_, err = e.Prepare(ctx, "org-1", thread.ID)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, errors.CodeOf(err))
}
