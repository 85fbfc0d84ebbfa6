// internal/workers/qualification/auto-qualify-email/handler.go
package autoqualifyemail

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"qualification-workers/internal/common/errors"
	"qualification-workers/internal/common/logger"
	"qualification-workers/internal/common/metrics"
	"qualification-workers/internal/common/observability"
	"qualification-workers/internal/common/validation"
	"qualification-workers/internal/qualification/orchestrator"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "qualification.auto-qualify-email"

// Preparer turns an analyzed email thread into a qualification request.
type Preparer interface {
	Prepare(ctx context.Context, orgID, threadID string) (orchestrator.Request, error)
}

type Qualifier interface {
	Qualify(ctx context.Context, orgID string, req orchestrator.Request) (*orchestrator.Outcome, error)
}

type Handler struct {
	config    *Config
	preparer  Preparer
	qualifier Qualifier
	obs       *observability.Observability
	errors    *errors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(cfg *Config, preparer Preparer, qualifier Qualifier, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    cfg,
		preparer:  preparer,
		qualifier: qualifier,
		obs:       obs,
		errors:    errors.NewErrorHandler(l),
		logger:    l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	h.logger.Info("qualifying email thread", map[string]interface{}{
		"jobKey":        job.GetKey(),
		"emailThreadId": input.EmailThreadID,
	})

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output, start)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}

	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	return &input, nil
}

// Execute extracts signals from the thread and qualifies them.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	req, err := h.preparer.Prepare(ctx, input.OrganizationID, input.EmailThreadID)
	if err != nil {
		return nil, err
	}

	outcome, err := h.qualifier.Qualify(ctx, input.OrganizationID, req)
	if err != nil {
		if _, ok := errors.AsStandardError(err); ok {
			return nil, err
		}
		return nil, errors.NewQualificationFailedError(err)
	}
	return &Output{Outcome: *outcome}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output, start time.Time) {
	payload, err := json.Marshal(output)
	if err != nil {
		h.failJob(ctx, client, job, fmt.Errorf("encode output: %w", err), start)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromString(string(payload))
	if err != nil {
		h.failJob(ctx, client, job, fmt.Errorf("set job variables: %w", err), start)
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	duration := time.Since(start)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(duration.Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, duration, "completed")

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":    job.GetKey(),
		"tier":      output.Qualification.Tier,
		"contactId": output.ContactID,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	bpmnErr := h.errors.HandleJobError(ctx, client, job, err)

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
}
