// Package catalog resolves an organization's active nurturing sequence for a tier,
// creating it from the built-in template on first use.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qualification-workers/internal/common/logger"
	"qualification-workers/internal/common/metrics"
	"qualification-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// SequenceStore persists nurturing sequences. InsertSequenceIfAbsent must be atomic per
// (organization, sequence type): when an active row already exists it returns that row
// with created=false and leaves it untouched.
type SequenceStore interface {
	FindActiveSequence(ctx context.Context, orgID, sequenceType string) (*models.NurturingSequence, error)
	IsSequenceActive(ctx context.Context, orgID, id string) (bool, error)
	InsertSequenceIfAbsent(ctx context.Context, seq *models.NurturingSequence) (*models.NurturingSequence, bool, error)
}

const DefaultCacheTTL = 10 * time.Minute

type Resolver struct {
	store  SequenceStore
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewResolver builds a resolver. redisClient may be nil to disable caching.
func NewResolver(store SequenceStore, redisClient *redis.Client, ttl time.Duration, log logger.Logger) *Resolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Resolver{
		store:  store,
		redis:  redisClient,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "sequence-catalog"}),
	}
}

func cacheKey(orgID, sequenceType string) string {
	return "nurture:sequence:" + orgID + ":" + sequenceType
}

// Resolve returns the org's active sequence for tier, creating it from the template if needed.
func (r *Resolver) Resolve(ctx context.Context, orgID string, tier models.Tier) (*models.NurturingSequence, error) {
	sequenceType := SequenceTypeForTier(tier)
	key := cacheKey(orgID, sequenceType)

	if seq := r.fromCache(ctx, key); seq != nil {
		if r.stillActive(ctx, orgID, seq) {
			return seq, nil
		}
		if err := r.Invalidate(ctx, orgID, sequenceType); err != nil {
			r.logger.Warn("sequence cache delete failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	seq, err := r.store.FindActiveSequence(ctx, orgID, sequenceType)
	if err != nil {
		return nil, fmt.Errorf("find active %s: %w", sequenceType, err)
	}

	if seq == nil {
		tmpl, ok := Template(sequenceType)
		if !ok {
			return nil, fmt.Errorf("no built-in template for %s", sequenceType)
		}
		tmpl.OrganizationID = orgID

		stored, created, err := r.store.InsertSequenceIfAbsent(ctx, &tmpl)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", sequenceType, err)
		}
		if created {
			metrics.NurtureSequencesCreated.WithLabelValues(sequenceType).Inc()
			r.logger.Info("created nurturing sequence from template", map[string]interface{}{
				"organizationId": orgID,
				"sequenceType":   sequenceType,
				"sequenceId":     stored.ID,
			})
		}
		seq = stored
	}

	r.toCache(ctx, key, seq)
	return seq, nil
}

// Invalidate drops the cached sequence for a type, e.g. after an organization edits it.
func (r *Resolver) Invalidate(ctx context.Context, orgID, sequenceType string) error {
	if r.redis == nil {
		return nil
	}
	return r.redis.Del(ctx, cacheKey(orgID, sequenceType)).Err()
}

func (r *Resolver) fromCache(ctx context.Context, key string) *models.NurturingSequence {
	if r.redis == nil {
		return nil
	}

	val, err := r.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("sequence cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return nil
	}

	var seq models.NurturingSequence
	if err := json.Unmarshal([]byte(val), &seq); err != nil {
		r.logger.Warn("discarding unreadable cached sequence", map[string]interface{}{"key": key, "error": err.Error()})
		return nil
	}
	return &seq
}

// stillActive checks a cached sequence against the store, which stays authoritative:
// an organization may deactivate or replace a sequence while it is cached.
func (r *Resolver) stillActive(ctx context.Context, orgID string, seq *models.NurturingSequence) bool {
	active, err := r.store.IsSequenceActive(ctx, orgID, seq.ID)
	if err != nil {
		r.logger.Warn("cached sequence check failed", map[string]interface{}{"sequenceId": seq.ID, "error": err.Error()})
		return false
	}
	if !active {
		r.logger.Info("dropping inactive cached sequence", map[string]interface{}{
			"organizationId": orgID,
			"sequenceId":     seq.ID,
		})
	}
	return active
}

func (r *Resolver) toCache(ctx context.Context, key string, seq *models.NurturingSequence) {
	if r.redis == nil {
		return
	}

	data, err := json.Marshal(seq)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("sequence cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
