// Package storetest provides an in-memory store for component tests.
package storetest

import (
	"context"
	"strings"
	"sync"
	"time"

	"qualification-workers/internal/models"
	"qualification-workers/internal/store"

	"github.com/google/uuid"
)

// Memory implements every store method the qualification components use.
// Set Fail[<method name>] to make that method return an error.
type Memory struct {
	mu sync.Mutex

	Contacts   map[string]*models.Contact
	Leads      map[string]*models.Lead
	Threads    map[string]*models.EmailThread
	Sequences  []*models.NurturingSequence
	Executions []*models.SequenceExecution
	Tasks      []*models.Task

	Fail map[string]error
}

func NewMemory() *Memory {
	return &Memory{
		Contacts: map[string]*models.Contact{},
		Leads:    map[string]*models.Lead{},
		Threads:  map[string]*models.EmailThread{},
		Fail:     map[string]error{},
	}
}

func (m *Memory) fail(method string) error {
	return m.Fail[method]
}

// AddContact seeds a contact, assigning an id when empty.
func (m *Memory) AddContact(c models.Contact) *models.Contact {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	m.Contacts[c.ID] = &c
	return &c
}

func (m *Memory) AddLead(l models.Lead) *models.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	m.Leads[l.ID] = &l
	return &l
}

func (m *Memory) AddThread(t models.EmailThread) *models.EmailThread {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	m.Threads[t.ID] = &t
	return &t
}

// ActiveSequences counts active sequences of a type for an org.
func (m *Memory) ActiveSequences(orgID, sequenceType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.Sequences {
		if s.OrganizationID == orgID && s.SequenceType == sequenceType && s.IsActive {
			n++
		}
	}
	return n
}

// --- sequences ---

func (m *Memory) FindActiveSequence(_ context.Context, orgID, sequenceType string) (*models.NurturingSequence, error) {
	if err := m.fail("FindActiveSequence"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findActiveLocked(orgID, sequenceType), nil
}

func (m *Memory) IsSequenceActive(_ context.Context, orgID, id string) (bool, error) {
	if err := m.fail("IsSequenceActive"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.Sequences {
		if s.ID == id && s.OrganizationID == orgID {
			return s.IsActive, nil
		}
	}
	return false, nil
}

func (m *Memory) findActiveLocked(orgID, sequenceType string) *models.NurturingSequence {
	for _, s := range m.Sequences {
		if s.OrganizationID == orgID && s.SequenceType == sequenceType && s.IsActive {
			cp := *s
			return &cp
		}
	}
	return nil
}

func (m *Memory) InsertSequenceIfAbsent(_ context.Context, seq *models.NurturingSequence) (*models.NurturingSequence, bool, error) {
	if err := m.fail("InsertSequenceIfAbsent"); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing := m.findActiveLocked(seq.OrganizationID, seq.SequenceType); existing != nil {
		return existing, false, nil
	}

	cp := *seq
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	cp.CreatedAt = time.Now().UTC()
	m.Sequences = append(m.Sequences, &cp)
	out := cp
	return &out, true, nil
}

// --- executions ---

func (m *Memory) CreateExecution(_ context.Context, exec *models.SequenceExecution) error {
	if err := m.fail("CreateExecution"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if exec.ID == "" {
		exec.ID = uuid.New().String()
	}
	cp := *exec
	m.Executions = append(m.Executions, &cp)
	return nil
}

func (m *Memory) CancelActiveExecutions(_ context.Context, orgID string, anchor models.ExecutionAnchor) (int64, error) {
	if err := m.fail("CancelActiveExecutions"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, e := range m.Executions {
		if e.OrganizationID != orgID || e.Status != models.ExecutionActive {
			continue
		}
		if (anchor.ContactID != "" && e.ContactID == anchor.ContactID) ||
			(anchor.LeadID != "" && e.LeadID == anchor.LeadID) ||
			(anchor.EmailThreadID != "" && e.EmailThreadID == anchor.EmailThreadID) {
			e.Status = models.ExecutionCancelled
			n++
		}
	}
	return n, nil
}

// --- leads ---

func (m *Memory) GetLead(_ context.Context, orgID, id string) (*models.Lead, error) {
	if err := m.fail("GetLead"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.Leads[id]
	if !ok || l.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	cp := *l
	cp.Tags = append([]string(nil), l.Tags...)
	return &cp, nil
}

func (m *Memory) CreateLead(_ context.Context, lead *models.Lead) error {
	if err := m.fail("CreateLead"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	lead.CreatedAt, lead.UpdatedAt = now, now
	cp := *lead
	m.Leads[lead.ID] = &cp
	return nil
}

func (m *Memory) UpdateLead(_ context.Context, orgID, id string, upd models.LeadUpdate) error {
	if err := m.fail("UpdateLead"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.Leads[id]
	if !ok || l.OrganizationID != orgID {
		return store.ErrNotFound
	}
	if upd.ProbabilityPercent != nil {
		l.ProbabilityPercent = *upd.ProbabilityPercent
	}
	if upd.Tags != nil {
		l.Tags = append([]string(nil), upd.Tags...)
	}
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) ListLeads(_ context.Context, orgID string) ([]models.Lead, error) {
	if err := m.fail("ListLeads"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Lead{}
	for _, l := range m.Leads {
		if l.OrganizationID == orgID {
			out = append(out, *l)
		}
	}
	return out, nil
}

// --- contacts ---

func (m *Memory) GetContact(_ context.Context, orgID, id string) (*models.Contact, error) {
	if err := m.fail("GetContact"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Contacts[id]
	if !ok || c.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	cp := *c
	cp.Tags = append([]string(nil), c.Tags...)
	return &cp, nil
}

func (m *Memory) FindContactByEmail(_ context.Context, orgID, email string) (*models.Contact, error) {
	if err := m.fail("FindContactByEmail"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Contacts {
		if c.OrganizationID == orgID && strings.EqualFold(c.Email, email) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) CreateContact(_ context.Context, c *models.Contact) error {
	if err := m.fail("CreateContact"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	m.Contacts[c.ID] = &cp
	return nil
}

func (m *Memory) UpdateContact(_ context.Context, orgID, id string, upd models.ContactUpdate) error {
	if err := m.fail("UpdateContact"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Contacts[id]
	if !ok || c.OrganizationID != orgID {
		return store.ErrNotFound
	}
	if upd.Status != nil {
		c.Status = *upd.Status
	}
	if upd.Tags != nil {
		c.Tags = append([]string(nil), upd.Tags...)
	}
	last := upd.LastActivity
	c.LastActivity = &last
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// --- tasks and threads ---

func (m *Memory) CreateTask(_ context.Context, task *models.Task) error {
	if err := m.fail("CreateTask"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	cp := *task
	m.Tasks = append(m.Tasks, &cp)
	return nil
}

func (m *Memory) GetEmailThread(_ context.Context, orgID, id string) (*models.EmailThread, error) {
	if err := m.fail("GetEmailThread"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Threads[id]
	if !ok || t.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}
