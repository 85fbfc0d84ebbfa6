package tierstatistics

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"qualification-workers/internal/common/errors"
	"qualification-workers/internal/common/logger"
	"qualification-workers/internal/models"
	"qualification-workers/internal/store/storetest"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMockJob(variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:           11,
		Type:          TaskType,
		CustomHeaders: "{}",
		Retries:       3,
		Variables:     variables,
	}}
}

func TestParseInput(t *testing.T) {
	h := NewHandler(DefaultConfig(), storetest.NewMemory(), nil, logger.NewTestLogger(t))

	input, err := h.parseInput(createMockJob(`{"organizationId":"org-1"}`))
	require.NoError(t, err)
	assert.Equal(t, "org-1", input.OrganizationID)

	_, err = h.parseInput(createMockJob(`{}`))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))
}

func TestExecute(t *testing.T) {
	mem := storetest.NewMemory()
	mem.AddLead(models.Lead{OrganizationID: "org-1", ProbabilityPercent: 95, Tags: []string{"ai_qualified", "tier_a"}})
	mem.AddLead(models.Lead{OrganizationID: "org-1", ProbabilityPercent: 40, Tags: []string{"tier_a", "tier_c"}})
	mem.AddLead(models.Lead{OrganizationID: "org-1", ProbabilityPercent: 10})
	mem.AddLead(models.Lead{OrganizationID: "org-2", ProbabilityPercent: 80, Tags: []string{"tier_b"}})

	h := NewHandler(DefaultConfig(), mem, nil, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &Input{OrganizationID: "org-1"})
	require.NoError(t, err)

	s := out.Statistics
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.TierA)
	assert.Equal(t, 0, s.TierB)
	assert.Equal(t, 1, s.TierC)
	assert.Equal(t, 1, s.Unqualified)
	assert.Equal(t, 48.3, s.AverageProbability)

	payload, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"averageProbability":48.3`)
}

func TestExecute_StoreError(t *testing.T) {
	mem := storetest.NewMemory()
	mem.Fail["ListLeads"] = fmt.Errorf("connection refused")

	h := NewHandler(DefaultConfig(), mem, nil, logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{OrganizationID: "org-1"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, errors.CodeOf(err))
}
