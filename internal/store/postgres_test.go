package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"qualification-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2026, 4, 10, 8, 30, 0, 0, time.UTC)

func setupStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	p := NewPostgres(db)
	p.now = func() time.Time { return fixedNow }
	return p, mock
}

var leadCols = []string{
	"id", "organization_id", "contact_id", "title", "stage", "probability_percent",
	"property_value", "expected_close_date", "notes", "source", "tags", "created_at", "updated_at",
}

var contactCols = []string{
	"id", "organization_id", "first_name", "last_name", "email", "phone", "status", "source",
	"budget", "preferred_location", "property_type", "tags", "last_activity", "created_at", "updated_at",
}

var sequenceCols = []string{"id", "organization_id", "name", "sequence_type", "trigger_event", "steps", "is_active", "created_at"}

// ==========================
// Lead Tests
// ==========================

func TestGetLead(t *testing.T) {
	p, mock := setupStore(t)
	closeDate := fixedNow.AddDate(0, 2, 0)

	mock.ExpectQuery(regexp.QuoteMeta("FROM leads")).
		WithArgs("org-1", "lead-1").
		WillReturnRows(sqlmock.NewRows(leadCols).AddRow(
			"lead-1", "org-1", "contact-1", "Dana Reyes", "interested", 70,
			450000.0, closeDate, "", "web", "{open_house,tier_b}", fixedNow, fixedNow,
		))

	lead, err := p.GetLead(context.Background(), "org-1", "lead-1")
	require.NoError(t, err)

	assert.Equal(t, "contact-1", lead.ContactID)
	assert.Equal(t, 70, lead.ProbabilityPercent)
	require.NotNil(t, lead.PropertyValue)
	assert.Equal(t, 450000.0, *lead.PropertyValue)
	require.NotNil(t, lead.ExpectedCloseDate)
	assert.Equal(t, closeDate, *lead.ExpectedCloseDate)
	assert.Equal(t, []string{"open_house", "tier_b"}, lead.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLead_NullableColumns(t *testing.T) {
	p, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM leads")).
		WithArgs("org-1", "lead-2").
		WillReturnRows(sqlmock.NewRows(leadCols).AddRow(
			"lead-2", "org-1", nil, "Walk-in", "awareness", 0,
			nil, nil, "", "", "{}", fixedNow, fixedNow,
		))

	lead, err := p.GetLead(context.Background(), "org-1", "lead-2")
	require.NoError(t, err)
	assert.Empty(t, lead.ContactID)
	assert.Nil(t, lead.PropertyValue)
	assert.Nil(t, lead.ExpectedCloseDate)
	assert.Empty(t, lead.Tags)
}

func TestGetLead_NotFound(t *testing.T) {
	p, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM leads")).
		WithArgs("org-1", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := p.GetLead(context.Background(), "org-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateLead(t *testing.T) {
	p, mock := setupStore(t)
	value := 1_200_000.0

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO leads")).
		WithArgs(sqlmock.AnyArg(), "org-1", "contact-1", "Dana Reyes - AI Qualified (Tier A)", "qualified", 95,
			value, sqlmock.AnyArg(), "notes", "qualification_form", `{"ai_qualified","tier_a"}`, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	lead := &models.Lead{
		OrganizationID:     "org-1",
		ContactID:          "contact-1",
		Title:              "Dana Reyes - AI Qualified (Tier A)",
		Stage:              "qualified",
		ProbabilityPercent: 95,
		PropertyValue:      &value,
		Notes:              "notes",
		Source:             "qualification_form",
		Tags:               []string{"ai_qualified", "tier_a"},
	}
	require.NoError(t, p.CreateLead(context.Background(), lead))

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, fixedNow, lead.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLead(t *testing.T) {
	p, mock := setupStore(t)
	probability := 82

	mock.ExpectExec(regexp.QuoteMeta("UPDATE leads")).
		WithArgs("org-1", "lead-1", 82, `{"tier_a"}`, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE leads")).
		WithArgs("org-1", "gone", nil, nil, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	require.NoError(t, p.UpdateLead(ctx, "org-1", "lead-1", models.LeadUpdate{ProbabilityPercent: &probability, Tags: []string{"tier_a"}}))
	assert.ErrorIs(t, p.UpdateLead(ctx, "org-1", "gone", models.LeadUpdate{}), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLeads(t *testing.T) {
	p, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM leads")).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows(leadCols).
			AddRow("l1", "org-1", nil, "a", "qualified", 90, nil, nil, "", "", "{tier_a}", fixedNow, fixedNow).
			AddRow("l2", "org-1", nil, "b", "awareness", 40, nil, nil, "", "", "{}", fixedNow, fixedNow))

	leads, err := p.ListLeads(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "l2", leads[1].ID)
}

// ==========================
// Contact Tests
// ==========================

func TestFindContactByEmail(t *testing.T) {
	p, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("lower(email) = $2")).
		WithArgs("org-1", "sam@example.com").
		WillReturnRows(sqlmock.NewRows(contactCols).AddRow(
			"c1", "org-1", "Sam", "Ortiz", "Sam@Example.com", "", "new", "email",
			"500000", nil, "condo", "{vip}", fixedNow, fixedNow, fixedNow,
		))

	c, err := p.FindContactByEmail(context.Background(), "org-1", "SAM@example.com")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, "500000", models.Value(c.Budget))
	assert.Nil(t, c.PreferredLocation)
	assert.Equal(t, "condo", models.Value(c.PropertyType))
	require.NotNil(t, c.LastActivity)
	assert.Equal(t, []string{"vip"}, c.Tags)
}

func TestUpdateContact(t *testing.T) {
	p, mock := setupStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE contacts")).
		WithArgs("org-1", "c1", "lead", `{"vip","qualified_a"}`, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contacts")).
		WithArgs("org-1", "c2", nil, `{"qualified_c"}`, fixedNow, fixedNow).
		WillReturnError(errors.New("deadlock detected"))

	ctx := context.Background()
	require.NoError(t, p.UpdateContact(ctx, "org-1", "c1", models.ContactUpdate{
		Status:       models.Str("lead"),
		Tags:         []string{"vip", "qualified_a"},
		LastActivity: fixedNow,
	}))
	assert.ErrorContains(t, p.UpdateContact(ctx, "org-1", "c2", models.ContactUpdate{
		Tags:         []string{"qualified_c"},
		LastActivity: fixedNow,
	}), "deadlock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Sequence Tests
// ==========================

func TestInsertSequenceIfAbsent_Created(t *testing.T) {
	p, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (organization_id, sequence_type) WHERE is_active DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), "org-1", "Hot lead", models.HotLeadSequence, "lead_qualified_hot",
			sqlmock.AnyArg(), true, fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("seq-1"))

	seq, created, err := p.InsertSequenceIfAbsent(context.Background(), &models.NurturingSequence{
		OrganizationID: "org-1",
		Name:           "Hot lead",
		SequenceType:   models.HotLeadSequence,
		TriggerEvent:   "lead_qualified_hot",
		Steps:          []models.SequenceStep{{Step: 1, DelayMinutes: 30, Action: models.ActionSendEmail, Content: "hi"}},
		IsActive:       true,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "seq-1", seq.ID)
	assert.Equal(t, fixedNow, seq.CreatedAt)
}

func TestInsertSequenceIfAbsent_ConflictReturnsExisting(t *testing.T) {
	p, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO nurturing_sequences")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM nurturing_sequences")).
		WithArgs("org-1", models.WarmLeadSequence).
		WillReturnRows(sqlmock.NewRows(sequenceCols).AddRow(
			"seq-winner", "org-1", "Warm lead", models.WarmLeadSequence, "lead_qualified_warm",
			[]byte(`[{"step":1,"delayMinutes":120,"action":"send_email","content":"welcome"}]`), true, fixedNow,
		))

	seq, created, err := p.InsertSequenceIfAbsent(context.Background(), &models.NurturingSequence{
		OrganizationID: "org-1",
		SequenceType:   models.WarmLeadSequence,
		IsActive:       true,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "seq-winner", seq.ID)
	require.Len(t, seq.Steps, 1)
	assert.Equal(t, 120, seq.Steps[0].DelayMinutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveSequence_None(t *testing.T) {
	p, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM nurturing_sequences")).
		WithArgs("org-1", models.NurtureSequence).
		WillReturnRows(sqlmock.NewRows(sequenceCols))

	seq, err := p.FindActiveSequence(context.Background(), "org-1", models.NurtureSequence)
	require.NoError(t, err)
	assert.Nil(t, seq)
}

func TestIsSequenceActive(t *testing.T) {
	p, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("org-1", "seq-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("org-1", "seq-old").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	active, err := p.IsSequenceActive(context.Background(), "org-1", "seq-1")
	require.NoError(t, err)
	assert.True(t, active)

	active, err = p.IsSequenceActive(context.Background(), "org-1", "seq-old")
	require.NoError(t, err)
	assert.False(t, active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Execution and Task Tests
// ==========================

func TestCreateExecution(t *testing.T) {
	p, mock := setupStore(t)
	next := fixedNow.Add(30 * time.Minute)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sequence_executions")).
		WithArgs(sqlmock.AnyArg(), "org-1", "seq-1", "c1", nil, nil, models.ExecutionActive, 0, next,
			[]byte(`{"score":82,"tier":"A","keyFactors":["Immediate timeline"]}`), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	exec := &models.SequenceExecution{
		OrganizationID: "org-1",
		SequenceID:     "seq-1",
		ContactID:      "c1",
		Status:         models.ExecutionActive,
		NextActionAt:   next,
		Customizations: models.ExecutionCustomizations{Score: 82, Tier: models.TierA, KeyFactors: []string{"Immediate timeline"}},
	}
	require.NoError(t, p.CreateExecution(context.Background(), exec))
	assert.NotEmpty(t, exec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelActiveExecutions(t *testing.T) {
	p, mock := setupStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sequence_executions")).
		WithArgs("org-1", models.ExecutionCancelled, models.ExecutionActive, nil, "lead-1", nil).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := p.CancelActiveExecutions(context.Background(), "org-1", models.ExecutionAnchor{LeadID: "lead-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCreateTask(t *testing.T) {
	p, mock := setupStore(t)
	due := fixedNow.Add(2 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
		WithArgs(sqlmock.AnyArg(), "org-1", "Call hot lead within 2 hours", "call", models.PriorityHigh, due,
			models.TaskStatusPending, nil, "lead-1", models.SystemActor, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	task := &models.Task{
		OrganizationID: "org-1",
		Title:          "Call hot lead within 2 hours",
		Description:    "call",
		Priority:       models.PriorityHigh,
		DueAt:          due,
		Status:         models.TaskStatusPending,
		LeadID:         "lead-1",
		CreatedBy:      models.SystemActor,
	}
	require.NoError(t, p.CreateTask(context.Background(), task))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Email Thread Tests
// ==========================

func TestGetEmailThread(t *testing.T) {
	p, mock := setupStore(t)
	cols := []string{"id", "organization_id", "subject", "participants", "contact_id", "analysis"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM email_threads")).
		WithArgs("org-1", "t1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"t1", "org-1", "Condo tour",
			[]byte(`[{"email":"sam@example.com","name":"Sam","external":true}]`),
			nil,
			[]byte(`{"category":"showing_request","keyEntities":{"priceRange":"$600k","urgency":"high"}}`),
		))
	mock.ExpectQuery(regexp.QuoteMeta("FROM email_threads")).
		WithArgs("org-1", "t2").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("t2", "org-1", "Hello", []byte(`[]`), "c9", nil))

	ctx := context.Background()
	thread, err := p.GetEmailThread(ctx, "org-1", "t1")
	require.NoError(t, err)
	require.Len(t, thread.Participants, 1)
	assert.True(t, thread.Participants[0].External)
	require.NotNil(t, thread.Analysis)
	assert.Equal(t, "showing_request", thread.Analysis.Category)
	assert.Equal(t, "$600k", thread.Analysis.KeyEntities.PriceRange)

	bare, err := p.GetEmailThread(ctx, "org-1", "t2")
	require.NoError(t, err)
	assert.Nil(t, bare.Analysis)
	assert.Equal(t, "c9", bare.ContactID)
}

// ==========================
// Schema Tests
// ==========================

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS contacts").WillReturnError(errors.New("permission denied"))

	err = Migrate(context.Background(), db)
	assert.ErrorContains(t, err, "schema statement 1")
	assert.ErrorContains(t, err, "permission denied")
}
