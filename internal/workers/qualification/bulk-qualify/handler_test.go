package bulkqualify

import (
	"context"
	"encoding/json"
	"testing"

	"qualification-workers/internal/common/errors"
	"qualification-workers/internal/common/logger"
	"qualification-workers/internal/models"
	"qualification-workers/internal/qualification/bulk"
	"qualification-workers/internal/qualification/catalog"
	"qualification-workers/internal/qualification/orchestrator"
	"qualification-workers/internal/qualification/scheduler"
	"qualification-workers/internal/store/storetest"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:           key,
		Type:          TaskType,
		CustomHeaders: "{}",
		Retries:       3,
		Variables:     string(variablesJSON),
	}}
}

func newHandler(t *testing.T, mem *storetest.Memory, opts ...bulk.Option) *Handler {
	log := logger.NewTestLogger(t)
	orch := orchestrator.New(mem, catalog.NewResolver(mem, nil, 0, log), scheduler.New(mem, log), orchestrator.DefaultSettings(), log)
	return NewHandler(DefaultConfig(), bulk.NewRunner(orch, mem, log, opts...), nil, log)
}

// ==========================
// Input Parsing Tests
// ==========================

func TestParseInput(t *testing.T) {
	h := newHandler(t, storetest.NewMemory())

	input, err := h.parseInput(createMockJob(1, map[string]interface{}{
		"organizationId": "org-1",
		"leadIds":        []string{"l1", "l2"},
		"contactIds":     []string{"c1"},
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"l1", "l2"}, input.LeadIDs)
	assert.Equal(t, []string{"c1"}, input.ContactIDs)

	_, err = h.parseInput(createMockJob(2, map[string]interface{}{
		"organizationId": "org-1",
		"leadIds":        "l1",
	}))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))
}

// ==========================
// Execute Tests
// ==========================

func TestExecute_MixedBatch(t *testing.T) {
	mem := storetest.NewMemory()
	value := 1200000.0
	lead := mem.AddLead(models.Lead{OrganizationID: "org-1", Title: "Condo", PropertyValue: &value})
	contact := mem.AddContact(models.Contact{OrganizationID: "org-1", FirstName: "Ari", Budget: models.Str("300000")})

	h := newHandler(t, mem)
	out, err := h.Execute(context.Background(), &Input{
		OrganizationID: "org-1",
		LeadIDs:        []string{lead.ID, "missing"},
		ContactIDs:     []string{contact.ID},
	})
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, bulk.Summary{Total: 3, Successful: 2, Failed: 1}, out.Summary)
	require.Len(t, out.Results, 3)
	assert.Equal(t, lead.ID, out.Results[0].ID)
	assert.Equal(t, bulk.ItemLead, out.Results[0].Type)
	assert.False(t, out.Results[1].Success)
	assert.NotEmpty(t, out.Results[1].ErrorMessage)
	assert.Equal(t, bulk.ItemContact, out.Results[2].Type)
	require.NotNil(t, out.Results[2].Qualification)
}

func TestExecute_LimitExceeded(t *testing.T) {
	h := newHandler(t, storetest.NewMemory(), bulk.WithMaxItems(1))

	_, err := h.Execute(context.Background(), &Input{OrganizationID: "org-1", LeadIDs: []string{"a", "b"}})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeBulkLimitExceeded, errors.CodeOf(err))
}

func TestExecute_EmptyBatch(t *testing.T) {
	h := newHandler(t, storetest.NewMemory())

	out, err := h.Execute(context.Background(), &Input{OrganizationID: "org-1"})
	require.NoError(t, err)
	assert.Empty(t, out.Results)
	assert.Equal(t, 0, out.Summary.Total)

	payload, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"results":[],"summary":{"total":0,"successful":0,"failed":0}}`, string(payload))
}
