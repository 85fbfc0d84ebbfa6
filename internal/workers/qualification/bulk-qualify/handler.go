// internal/workers/qualification/bulk-qualify/handler.go
package bulkqualify

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
	"qualification-workers/internal/qualification/bulk"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "qualification.bulk-qualify"

type Runner interface {
	Run(ctx context.Context, orgID string, leadIDs, contactIDs []string) (*bulk.Result, error)
}

type Handler struct {
	config *Config
	runner Runner
	obs    *observability.Observability
	errors *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(cfg *Config, runner Runner, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: cfg,
		runner: runner,
		obs:    obs,
		errors: errors.NewErrorHandler(l),
		logger: l,
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

	h.logger.Info("bulk qualification requested", map[string]interface{}{
		"jobKey":   job.GetKey(),
		"leads":    len(input.LeadIDs),
		"contacts": len(input.ContactIDs),
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

// Execute runs the batch. Per-item failures are reported in the output, not as an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.runner.Run(ctx, input.OrganizationID, input.LeadIDs, input.ContactIDs)
	if err != nil {
		return nil, err
	}
	return &Output{
		Success: true,
		Results: res.Results,
		Summary: res.Summary,
	}, nil
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
		"jobKey":     job.GetKey(),
		"total":      output.Summary.Total,
		"successful": output.Summary.Successful,
		"failed":     output.Summary.Failed,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	bpmnErr := h.errors.HandleJobError(ctx, client, job, err)

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
}
