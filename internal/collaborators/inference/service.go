// internal/collaborators/inference/service.go
package inference

import (
	"context"
	"errors"

	apperrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const needTwoProducts = "Need at least 2 products"

var (
	tracer      = otel.Tracer("shopping-assistant/inference")
	errNoClient = errors.New("no inference client configured")
)

// Service wraps a Client and replaces every failure with that operation's degraded value.
// A nil client degrades every call without attempting it.
type Service struct {
	client Client
	logger logger.Logger
}

func NewService(client Client, log logger.Logger) *Service {
	return &Service{
		client: client,
		logger: log.WithFields(map[string]interface{}{"collaborator": "inference"}),
	}
}

// CreatePlan never returns an empty plan; failures yield the single search step.
func (s *Service) CreatePlan(ctx context.Context, utterance string, prefs *models.Preferences) []models.PlanStep {
	if s.client == nil {
		return models.FallbackPlan(utterance)
	}
	ctx, span := tracer.Start(ctx, "inference.create_plan")
	defer span.End()

	steps, err := s.client.CreatePlan(ctx, utterance, prefs)
	if err != nil {
		s.degraded(span, "create_plan", err)
		return models.FallbackPlan(utterance)
	}
	if len(steps) == 0 {
		return models.FallbackPlan(utterance)
	}
	return steps
}

func (s *Service) AnalyzeReviews(ctx context.Context, text string) models.ReviewSentiment {
	if s.client == nil {
		return models.UnknownSentiment()
	}
	ctx, span := tracer.Start(ctx, "inference.analyze_reviews")
	defer span.End()

	out, err := s.client.AnalyzeReviews(ctx, text)
	if err != nil {
		s.degraded(span, "analyze_reviews", err)
		return models.UnknownSentiment()
	}
	if out.Strengths == nil {
		out.Strengths = []string{}
	}
	if out.Concerns == nil {
		out.Concerns = []string{}
	}
	return out
}

// CompareProducts compares two or three products. Fewer than two gives the error marker without a call.
func (s *Service) CompareProducts(ctx context.Context, products []models.ScoredProduct) models.Comparison {
	if len(products) < 2 {
		return models.ComparisonError(needTwoProducts)
	}
	if s.client == nil {
		return models.ComparisonError("comparison unavailable")
	}
	ctx, span := tracer.Start(ctx, "inference.compare_products")
	defer span.End()

	out, err := s.client.CompareProducts(ctx, products)
	if err != nil {
		s.degraded(span, "compare_products", err)
		return models.ComparisonError(apperrors.Normalize(err).Message)
	}
	return out
}

func (s *Service) DeepResearch(ctx context.Context, product models.ScoredProduct) models.ResearchRecord {
	if s.client == nil {
		return models.EmptyResearch()
	}
	ctx, span := tracer.Start(ctx, "inference.deep_research")
	defer span.End()

	out, err := s.client.DeepResearch(ctx, product)
	if err != nil {
		s.degraded(span, "deep_research", err)
		return models.EmptyResearch()
	}
	return out
}

// ParseQuery passes failures through so the caller can fall back to the regex parser.
func (s *Service) ParseQuery(ctx context.Context, utterance string) (models.Query, error) {
	if s.client == nil {
		return models.Query{}, apperrors.NewInferenceFailedError("parse_query", errNoClient)
	}
	ctx, span := tracer.Start(ctx, "inference.parse_query")
	defer span.End()

	q, err := s.client.ParseQuery(ctx, utterance)
	if err != nil {
		s.degraded(span, "parse_query", err)
		return models.Query{}, err
	}
	return q, nil
}

func (s *Service) degraded(span trace.Span, operation string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, operation+" degraded")
	metrics.CollaboratorFailures.WithLabelValues("inference", operation).Inc()
	s.logger.Warn("inference collaborator failed, using degraded value", map[string]interface{}{
		"operation": operation,
		"errorCode": string(apperrors.CodeOf(err)),
		"error":     err.Error(),
	})
}
