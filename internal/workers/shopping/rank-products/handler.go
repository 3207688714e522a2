// internal/workers/shopping/rank-products/handler.go
package rankproducts

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/shopping/conversation"
	"shopping-assistant/internal/shopping/filter"
	"shopping-assistant/internal/shopping/ranking"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "rank-products"
)

type Handler struct {
	config       *Config
	ranker       *ranking.Ranker
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, ranker *ranking.Ranker, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		ranker:       ranker,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// execute post-filters the records, ranks the survivors and keeps the top N.
func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if len(input.Products) == 0 {
		return nil, apperrors.NewNoResultsError(conversation.SearchTerm(input.Query))
	}

	filtered := filter.Apply(input.Products, input.Query)
	for _, g := range filtered.Guards {
		metrics.FilterGuards.WithLabelValues(g.Criterion, g.Action).Inc()
		h.logger.Warn("filter criterion not applied", map[string]interface{}{
			"criterion": g.Criterion,
			"action":    g.Action,
		})
	}

	ranked := h.ranker.Rank(filtered.Records, input.Query)

	limit := input.MaxResults
	if limit <= 0 {
		limit = h.config.MaxItems
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	h.logger.Info("ranking completed", map[string]interface{}{
		"inputCount":  len(input.Products),
		"outputCount": len(ranked),
	})

	return &Output{
		RankedProducts: ranked,
		Guards:         filtered.Guards,
		TotalCount:     len(filtered.Records),
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
