package bulk

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"qualification-workers/internal/common/errors"
	"qualification-workers/internal/common/logger"
	"qualification-workers/internal/models"
	"qualification-workers/internal/qualification/catalog"
	"qualification-workers/internal/qualification/orchestrator"
	"qualification-workers/internal/qualification/scheduler"
	"qualification-workers/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newRunner(t *testing.T, mem *storetest.Memory, opts ...Option) *Runner {
	log := logger.NewTestLogger(t)
	clock := func() time.Time { return fixedNow }
	o := orchestrator.New(
		mem,
		catalog.NewResolver(mem, nil, 0, log),
		scheduler.New(mem, log, scheduler.WithClock(clock)),
		orchestrator.DefaultSettings(),
		log,
		orchestrator.WithClock(clock),
	)
	return NewRunner(o, mem, log, append([]Option{WithClock(clock)}, opts...)...)
}

type panickingQualifier struct {
	panicOn string
	calls   []string
}

func (q *panickingQualifier) Qualify(_ context.Context, _ string, req orchestrator.Request) (*orchestrator.Outcome, error) {
	id := req.LeadID + req.ContactID
	q.calls = append(q.calls, id)
	if id == q.panicOn {
		panic("nil map write")
	}
	return &orchestrator.Outcome{Success: true, Qualification: models.QualificationResult{Score: 42, Tier: models.TierD}}, nil
}

func floatPtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

// ==========================
// Core Functionality Tests
// ==========================

func TestRun_MixedBatchIsolatesFailures(t *testing.T) {
	mem := storetest.NewMemory()
	contact := mem.AddContact(models.Contact{
		OrganizationID:    "org-1",
		Budget:            models.Str("750000"),
		PreferredLocation: models.Str("Capitol Hill, Seattle"),
		PropertyType:      models.Str("townhouse"),
	})
	lead := mem.AddLead(models.Lead{
		OrganizationID:    "org-1",
		ContactID:         contact.ID,
		PropertyValue:     floatPtr(1_500_000),
		ExpectedCloseDate: timePtr(fixedNow.AddDate(0, 0, 20)),
	})

	res, err := newRunner(t, mem).Run(context.Background(), "org-1",
		[]string{lead.ID, "missing-lead"},
		[]string{contact.ID})
	require.NoError(t, err)

	require.Len(t, res.Results, 3)
	assert.Equal(t, Summary{Total: 3, Successful: 2, Failed: 1}, res.Summary)

	first := res.Results[0]
	assert.Equal(t, lead.ID, first.ID)
	assert.Equal(t, ItemLead, first.Type)
	assert.True(t, first.Success)
	require.NotNil(t, first.Qualification)
	// 30 budget + 25 immediate + 5 unknown decision maker + 2 unknown pre-approval
	assert.Equal(t, 62, first.Qualification.Score)

	second := res.Results[1]
	assert.False(t, second.Success)
	assert.Nil(t, second.Qualification)
	assert.Contains(t, second.ErrorMessage, "LEAD_NOT_FOUND")

	third := res.Results[2]
	assert.Equal(t, ItemContact, third.Type)
	assert.True(t, third.Success)
	assert.Contains(t, third.Qualification.KeyFactors, "Strong budget ($500K+)")
	assert.Contains(t, third.Qualification.KeyFactors, "Specific location preference")
}

func TestRun_LeadsBeforeContactsInInputOrder(t *testing.T) {
	q := &panickingQualifier{}
	mem := storetest.NewMemory()
	for _, id := range []string{"l1", "l2"} {
		mem.AddLead(models.Lead{ID: id, OrganizationID: "org-1"})
	}
	for _, id := range []string{"c2", "c1"} {
		mem.AddContact(models.Contact{ID: id, OrganizationID: "org-1"})
	}

	r := NewRunner(q, mem, logger.NewTestLogger(t))
	_, err := r.Run(context.Background(), "org-1", []string{"l2", "l1"}, []string{"c2", "c1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"l2", "l1", "c2", "c1"}, q.calls)
}

func TestRun_PanicIsCapturedPerItem(t *testing.T) {
	q := &panickingQualifier{panicOn: "c1"}
	mem := storetest.NewMemory()
	mem.AddContact(models.Contact{ID: "c1", OrganizationID: "org-1"})
	mem.AddContact(models.Contact{ID: "c2", OrganizationID: "org-1"})

	res, err := NewRunner(q, mem, logger.NewTestLogger(t)).Run(context.Background(), "org-1", nil, []string{"c1", "c2"})
	require.NoError(t, err)

	assert.False(t, res.Results[0].Success)
	assert.Contains(t, res.Results[0].ErrorMessage, "nil map write")
	assert.True(t, res.Results[1].Success)
	assert.Equal(t, 42, res.Results[1].Qualification.Score)
	assert.Equal(t, 1, res.Summary.Failed)
}

func TestRun_StoreErrorIsPerItem(t *testing.T) {
	mem := storetest.NewMemory()
	mem.Fail["GetContact"] = stderrors.New("connection reset")

	res, err := newRunner(t, mem).Run(context.Background(), "org-1", nil, []string{"c1"})
	require.NoError(t, err)
	assert.Contains(t, res.Results[0].ErrorMessage, "QUERY_EXECUTION_FAILED")
}

func TestRun_BatchErrors(t *testing.T) {
	mem := storetest.NewMemory()

	_, err := newRunner(t, mem).Run(context.Background(), "", []string{"l1"}, nil)
	assert.Equal(t, errors.ErrCodeOrganizationRequired, errors.CodeOf(err))

	_, err = newRunner(t, mem, WithMaxItems(2)).Run(context.Background(), "org-1", []string{"l1", "l2"}, []string{"c1"})
	assert.Equal(t, errors.ErrCodeBulkLimitExceeded, errors.CodeOf(err))

	res, err := newRunner(t, mem).Run(context.Background(), "org-1", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, res.Results)
	assert.Equal(t, Summary{}, res.Summary)
}

// ==========================
// Response Synthesis Tests
// ==========================

func TestTimelineForCloseDate(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{-10, "immediate"},
		{0, "immediate"},
		{30, "immediate"},
		{31, "1 month"},
		{60, "1 month"},
		{90, "3 months"},
		{120, "3 months"},
		{150, "6 months"},
		{180, "6 months"},
		{181, "1 year"},
		{400, "1 year"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimelineForCloseDate(fixedNow.AddDate(0, 0, tt.days), fixedNow), tt.days)
	}
}

func TestLeadResponses(t *testing.T) {
	resp := LeadResponses(&models.Lead{PropertyValue: floatPtr(425000.5)}, fixedNow)

	assert.Equal(t, "425000.5", models.Value(resp.Budget))
	assert.Nil(t, resp.Timeline)
	assert.Equal(t, "unknown", models.Value(resp.DecisionMaker))
	assert.Equal(t, "unknown", models.Value(resp.PreApproved))
	assert.Equal(t, "medium", models.Value(resp.Motivation))

	empty := LeadResponses(&models.Lead{PropertyValue: floatPtr(0)}, fixedNow)
	assert.Nil(t, empty.Budget)
}

func TestContactResponses(t *testing.T) {
	resp := ContactResponses(&models.Contact{Budget: models.Str("300000"), PropertyType: models.Str("condo")})

	assert.Equal(t, "300000", models.Value(resp.Budget))
	assert.Equal(t, "condo", models.Value(resp.PropertyType))
	assert.Nil(t, resp.Location)
	assert.Nil(t, resp.Timeline)
}
