// Package scheduler starts nurturing sequence executions for a qualified record.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"qualification-workers/internal/common/config"
	"qualification-workers/internal/common/logger"
	"qualification-workers/internal/models"
)

// InitialDelay is applied to every new execution regardless of tier.
// Tier pacing lives in the sequence step delays.
const InitialDelay = 30 * time.Minute

type ExecutionStore interface {
	CreateExecution(ctx context.Context, exec *models.SequenceExecution) error
	CancelActiveExecutions(ctx context.Context, orgID string, anchor models.ExecutionAnchor) (int64, error)
}

type Scheduler struct {
	store  ExecutionStore
	policy string
	now    func() time.Time
	logger logger.Logger
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithPolicy selects config.PolicyAppend (default) or config.PolicyReplace.
func WithPolicy(policy string) Option {
	return func(s *Scheduler) {
		if policy != "" {
			s.policy = policy
		}
	}
}

func New(store ExecutionStore, log logger.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:  store,
		policy: config.PolicyAppend,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "execution-scheduler"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartExecution creates one active execution of seq for the anchor. Under the replace
// policy the anchor's earlier active executions are cancelled first.
func (s *Scheduler) StartExecution(
	ctx context.Context,
	orgID string,
	seq *models.NurturingSequence,
	result models.QualificationResult,
	anchor models.ExecutionAnchor,
) (*models.SequenceExecution, error) {
	if seq == nil || seq.ID == "" {
		return nil, fmt.Errorf("sequence is required")
	}
	if anchor == (models.ExecutionAnchor{}) {
		return nil, fmt.Errorf("execution needs a contact, lead or email thread")
	}

	if s.policy == config.PolicyReplace {
		cancelled, err := s.store.CancelActiveExecutions(ctx, orgID, anchor)
		if err != nil {
			return nil, fmt.Errorf("cancel previous executions: %w", err)
		}
		if cancelled > 0 {
			s.logger.Info("cancelled previous executions", map[string]interface{}{
				"organizationId": orgID,
				"cancelled":      cancelled,
			})
		}
	}

	now := s.now().UTC()
	exec := &models.SequenceExecution{
		OrganizationID: orgID,
		SequenceID:     seq.ID,
		ContactID:      anchor.ContactID,
		LeadID:         anchor.LeadID,
		EmailThreadID:  anchor.EmailThreadID,
		Status:         models.ExecutionActive,
		CurrentStep:    0,
		NextActionAt:   now.Add(InitialDelay),
		Customizations: models.ExecutionCustomizations{
			Score:      result.Score,
			Tier:       result.Tier,
			KeyFactors: append([]string{}, result.KeyFactors...),
		},
		CreatedAt: now,
	}

	if err := s.store.CreateExecution(ctx, exec); err != nil {
		return nil, fmt.Errorf("create execution: %w", err)
	}
	return exec, nil
}
