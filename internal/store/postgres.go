// Package store is the PostgreSQL persistence for contacts, leads, tasks, email threads
// and nurturing sequences. Every query is scoped by organization.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"qualification-workers/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

func (p *Postgres) timestamp() time.Time {
	return p.now().UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// ==========================
// Nurturing sequences
// ==========================

const sequenceColumns = `id, organization_id, name, sequence_type, trigger_event, steps, is_active, created_at`

func scanSequence(row interface{ Scan(...any) error }) (*models.NurturingSequence, error) {
	var seq models.NurturingSequence
	var steps []byte
	if err := row.Scan(&seq.ID, &seq.OrganizationID, &seq.Name, &seq.SequenceType,
		&seq.TriggerEvent, &steps, &seq.IsActive, &seq.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(steps, &seq.Steps); err != nil {
		return nil, fmt.Errorf("decode steps of sequence %s: %w", seq.ID, err)
	}
	return &seq, nil
}

// FindActiveSequence returns nil without error when the org has no active sequence of that type.
func (p *Postgres) FindActiveSequence(ctx context.Context, orgID, sequenceType string) (*models.NurturingSequence, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+sequenceColumns+`
		FROM nurturing_sequences
		WHERE organization_id = $1 AND sequence_type = $2 AND is_active
		LIMIT 1`, orgID, sequenceType)

	seq, err := scanSequence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return seq, err
}

func (p *Postgres) IsSequenceActive(ctx context.Context, orgID, id string) (bool, error) {
	var active bool
	err := p.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM nurturing_sequences
			WHERE organization_id = $1 AND id = $2 AND is_active
		)`, orgID, id).Scan(&active)
	return active, err
}

// InsertSequenceIfAbsent relies on the partial unique index over active sequences.
// A losing concurrent insert reads back the winner.
func (p *Postgres) InsertSequenceIfAbsent(ctx context.Context, seq *models.NurturingSequence) (*models.NurturingSequence, bool, error) {
	steps, err := json.Marshal(seq.Steps)
	if err != nil {
		return nil, false, fmt.Errorf("encode steps: %w", err)
	}

	out := *seq
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	out.CreatedAt = p.timestamp()

	err = p.db.QueryRowContext(ctx, `
		INSERT INTO nurturing_sequences (`+sequenceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (organization_id, sequence_type) WHERE is_active DO NOTHING
		RETURNING id`,
		out.ID, out.OrganizationID, out.Name, out.SequenceType, out.TriggerEvent, steps, out.IsActive, out.CreatedAt,
	).Scan(&out.ID)

	if errors.Is(err, sql.ErrNoRows) {
		existing, findErr := p.FindActiveSequence(ctx, seq.OrganizationID, seq.SequenceType)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("sequence %s conflicted but no active row found", seq.SequenceType)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &out, true, nil
}

// ==========================
// Sequence executions
// ==========================

func (p *Postgres) CreateExecution(ctx context.Context, exec *models.SequenceExecution) error {
	customizations, err := json.Marshal(exec.Customizations)
	if err != nil {
		return fmt.Errorf("encode customizations: %w", err)
	}
	if exec.ID == "" {
		exec.ID = uuid.New().String()
	}
	if exec.CreatedAt.IsZero() {
		exec.CreatedAt = p.timestamp()
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO sequence_executions (
			id, organization_id, sequence_id, contact_id, lead_id, email_thread_id,
			status, current_step, next_action_at, customizations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		exec.ID, exec.OrganizationID, exec.SequenceID,
		nullString(exec.ContactID), nullString(exec.LeadID), nullString(exec.EmailThreadID),
		exec.Status, exec.CurrentStep, exec.NextActionAt, customizations, exec.CreatedAt,
	)
	return err
}

// CancelActiveExecutions cancels active executions that share any id with the anchor.
func (p *Postgres) CancelActiveExecutions(ctx context.Context, orgID string, anchor models.ExecutionAnchor) (int64, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE sequence_executions
		SET status = $2
		WHERE organization_id = $1 AND status = $3
		  AND (contact_id = $4 OR lead_id = $5 OR email_thread_id = $6)`,
		orgID, models.ExecutionCancelled, models.ExecutionActive,
		nullString(anchor.ContactID), nullString(anchor.LeadID), nullString(anchor.EmailThreadID),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ==========================
// Leads
// ==========================

const leadColumns = `id, organization_id, contact_id, title, stage, probability_percent,
	property_value, expected_close_date, notes, source, tags, created_at, updated_at`

func scanLead(row interface{ Scan(...any) error }) (*models.Lead, error) {
	var l models.Lead
	var contactID sql.NullString
	var value sql.NullFloat64
	var closeDate sql.NullTime
	var tags pq.StringArray

	if err := row.Scan(&l.ID, &l.OrganizationID, &contactID, &l.Title, &l.Stage, &l.ProbabilityPercent,
		&value, &closeDate, &l.Notes, &l.Source, &tags, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}

	l.ContactID = contactID.String
	if value.Valid {
		l.PropertyValue = &value.Float64
	}
	if closeDate.Valid {
		l.ExpectedCloseDate = &closeDate.Time
	}
	l.Tags = []string(tags)
	return &l, nil
}

func (p *Postgres) GetLead(ctx context.Context, orgID, id string) (*models.Lead, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE organization_id = $1 AND id = $2`, orgID, id)
	lead, err := scanLead(row)
	return lead, notFound(err)
}

func (p *Postgres) ListLeads(ctx context.Context, orgID string) ([]models.Lead, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE organization_id = $1
		ORDER BY created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []models.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, rows.Err()
}

func (p *Postgres) CreateLead(ctx context.Context, lead *models.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	now := p.timestamp()
	lead.CreatedAt, lead.UpdatedAt = now, now
	if lead.Tags == nil {
		lead.Tags = []string{}
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		lead.ID, lead.OrganizationID, nullString(lead.ContactID), lead.Title, lead.Stage, lead.ProbabilityPercent,
		lead.PropertyValue, lead.ExpectedCloseDate, lead.Notes, lead.Source, pq.Array(lead.Tags),
		lead.CreatedAt, lead.UpdatedAt,
	)
	return err
}

// UpdateLead leaves nil fields unchanged.
func (p *Postgres) UpdateLead(ctx context.Context, orgID, id string, upd models.LeadUpdate) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE leads
		SET probability_percent = COALESCE($3, probability_percent),
		    tags = COALESCE($4, tags),
		    updated_at = $5
		WHERE organization_id = $1 AND id = $2`,
		orgID, id, upd.ProbabilityPercent, pq.Array(upd.Tags), p.timestamp(),
	)
	return affectedOne(res, err)
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ==========================
// Contacts
// ==========================

const contactColumns = `id, organization_id, first_name, last_name, email, phone, status, source,
	budget, preferred_location, property_type, tags, last_activity, created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }) (*models.Contact, error) {
	var c models.Contact
	var budget, location, propertyType sql.NullString
	var lastActivity sql.NullTime
	var tags pq.StringArray

	if err := row.Scan(&c.ID, &c.OrganizationID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Status, &c.Source,
		&budget, &location, &propertyType, &tags, &lastActivity, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	if budget.Valid {
		c.Budget = &budget.String
	}
	if location.Valid {
		c.PreferredLocation = &location.String
	}
	if propertyType.Valid {
		c.PropertyType = &propertyType.String
	}
	if lastActivity.Valid {
		c.LastActivity = &lastActivity.Time
	}
	c.Tags = []string(tags)
	return &c, nil
}

func (p *Postgres) GetContact(ctx context.Context, orgID, id string) (*models.Contact, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE organization_id = $1 AND id = $2`, orgID, id)
	c, err := scanContact(row)
	return c, notFound(err)
}

func (p *Postgres) FindContactByEmail(ctx context.Context, orgID, email string) (*models.Contact, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE organization_id = $1 AND lower(email) = $2
		ORDER BY created_at
		LIMIT 1`, orgID, strings.ToLower(email))
	c, err := scanContact(row)
	return c, notFound(err)
}

func (p *Postgres) CreateContact(ctx context.Context, c *models.Contact) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := p.timestamp()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.Tags == nil {
		c.Tags = []string{}
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		c.ID, c.OrganizationID, c.FirstName, c.LastName, c.Email, c.Phone, c.Status, c.Source,
		c.Budget, c.PreferredLocation, c.PropertyType, pq.Array(c.Tags), c.LastActivity,
		c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// UpdateContact leaves status and tags unchanged when nil.
func (p *Postgres) UpdateContact(ctx context.Context, orgID, id string, upd models.ContactUpdate) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE contacts
		SET status = COALESCE($3, status),
		    tags = COALESCE($4, tags),
		    last_activity = $5,
		    updated_at = $6
		WHERE organization_id = $1 AND id = $2`,
		orgID, id, upd.Status, pq.Array(upd.Tags), upd.LastActivity, p.timestamp(),
	)
	return affectedOne(res, err)
}

// ==========================
// Tasks and email threads
// ==========================

func (p *Postgres) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = p.timestamp()
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, organization_id, title, description, priority, due_at, status,
			contact_id, lead_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		task.ID, task.OrganizationID, task.Title, task.Description, task.Priority, task.DueAt, task.Status,
		nullString(task.ContactID), nullString(task.LeadID), task.CreatedBy, task.CreatedAt,
	)
	return err
}

func (p *Postgres) GetEmailThread(ctx context.Context, orgID, id string) (*models.EmailThread, error) {
	var t models.EmailThread
	var contactID sql.NullString
	var participants, analysis []byte

	err := p.db.QueryRowContext(ctx, `
		SELECT id, organization_id, subject, participants, contact_id, analysis
		FROM email_threads
		WHERE organization_id = $1 AND id = $2`, orgID, id,
	).Scan(&t.ID, &t.OrganizationID, &t.Subject, &participants, &contactID, &analysis)
	if err != nil {
		return nil, notFound(err)
	}

	t.ContactID = contactID.String
	if len(participants) > 0 {
		if err := json.Unmarshal(participants, &t.Participants); err != nil {
			return nil, fmt.Errorf("decode participants of thread %s: %w", id, err)
		}
	}
	if len(analysis) > 0 && string(analysis) != "null" {
		t.Analysis = &models.EmailAnalysis{}
		if err := json.Unmarshal(analysis, t.Analysis); err != nil {
			return nil, fmt.Errorf("decode analysis of thread %s: %w", id, err)
		}
	}
	return &t, nil
}
