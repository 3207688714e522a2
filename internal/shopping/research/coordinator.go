// internal/shopping/research/coordinator.go
package research

import (
	"context"
	"strings"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/models"
)

const DefaultHighValueThreshold = 100.0

var DefaultQualityTerms = []string{"quality", "reliable", "durable", "best", "top", "premium"}

// Inference is the part of the degrading inference service research needs.
// Both calls always return a usable value.
type Inference interface {
	DeepResearch(ctx context.Context, product models.ScoredProduct) models.ResearchRecord
	AnalyzeReviews(ctx context.Context, text string) models.ReviewSentiment
}

type Config struct {
	HighValueThreshold float64
	QualityTerms       []string
}

// Coordinator walks the session plan and decides when the top product gets deep research.
// All research goes through the session cache, so each product is researched at most once.
type Coordinator struct {
	inference Inference
	config    Config
	logger    logger.Logger
}

// Outcome is what one coordinator pass produced.
type Outcome struct {
	Step        *models.PlanStep
	Researched  bool
	Suggestions []models.Suggestion
}

func New(inference Inference, config Config, log logger.Logger) *Coordinator {
	if config.HighValueThreshold <= 0 {
		config.HighValueThreshold = DefaultHighValueThreshold
	}
	if len(config.QualityTerms) == 0 {
		config.QualityTerms = DefaultQualityTerms
	}
	return &Coordinator{
		inference: inference,
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"component": "research-coordinator"}),
	}
}

// Advance consumes at most one plan step, researches the top product when warranted
// and returns the suggestions for this turn. It does nothing without active products.
func (c *Coordinator) Advance(ctx context.Context, state *models.ConversationState, q models.Query) Outcome {
	var out Outcome
	if len(state.ActiveProducts) == 0 {
		return out
	}

	if state.PlanCursor < len(state.Plan) {
		step := state.Plan[state.PlanCursor]
		state.PlanCursor++
		out.Step = &step
		if s, ok := stepSuggestion(step.Action); ok {
			out.Suggestions = models.AppendSuggestion(out.Suggestions, s)
		}
	} else {
		for _, s := range DefaultSuggestions(len(state.ActiveProducts)) {
			out.Suggestions = models.AppendSuggestion(out.Suggestions, s)
		}
	}

	if c.ShouldResearch(state.Plan, q) {
		rec, cached := c.Research(ctx, state, state.ActiveProducts[0])
		state.ActiveProducts[0].Research = &rec
		out.Researched = true
		c.logger.Info("top product researched", map[string]interface{}{
			"product": state.ActiveProducts[0].Key(),
			"cached":  cached,
		})
	}

	return out
}

// ShouldResearch holds when the plan asks for reviews or research, the budget ceiling is
// above the high-value threshold, or a keyword signals that quality matters.
func (c *Coordinator) ShouldResearch(plan []models.PlanStep, q models.Query) bool {
	for _, step := range plan {
		if step.Action == models.ActionAnalyzeReviews || step.Action == models.ActionResearch {
			return true
		}
	}
	if q.PriceRange.Max != nil && *q.PriceRange.Max > c.config.HighValueThreshold {
		return true
	}
	for _, kw := range q.Keywords {
		lower := strings.ToLower(kw)
		for _, term := range c.config.QualityTerms {
			if strings.Contains(lower, term) {
				return true
			}
		}
	}
	return false
}

// Research returns the cached record for product or computes and caches it.
// Degraded records are cached as well.
func (c *Coordinator) Research(ctx context.Context, state *models.ConversationState, product models.ScoredProduct) (models.ResearchRecord, bool) {
	state.EnsureMaps()
	key := product.Key()

	if rec, ok := state.ResearchCache[key]; ok {
		metrics.ResearchCache.WithLabelValues("hit").Inc()
		attach(state, key, rec)
		return rec, true
	}
	metrics.ResearchCache.WithLabelValues("miss").Inc()

	rec := c.inference.DeepResearch(ctx, product)
	if len(rec.ReviewExcerpts) > 0 && rec.ReviewAnalysis.Sentiment == models.SentimentUnknown {
		rec.MergeSentiment(c.inference.AnalyzeReviews(ctx, strings.Join(rec.ReviewExcerpts, "\n")))
	}

	state.ResearchCache[key] = rec
	attach(state, key, rec)

	c.logger.Debug("research cached", map[string]interface{}{
		"product":  key,
		"degraded": rec.Degraded,
	})
	return rec, false
}

func attach(state *models.ConversationState, key string, rec models.ResearchRecord) {
	for i := range state.ActiveProducts {
		if state.ActiveProducts[i].Key() == key {
			r := rec
			state.ActiveProducts[i].Research = &r
		}
	}
}

func stepSuggestion(action models.PlanAction) (models.Suggestion, bool) {
	switch action {
	case models.ActionFilter:
		return models.Suggestion{Action: models.SuggestRefine, Text: "Narrow the results with more filters"}, true
	case models.ActionAnalyzeReviews:
		return models.Suggestion{Action: models.SuggestReviews, Text: "Read what reviewers say about the top product"}, true
	case models.ActionCompare:
		return models.Suggestion{Action: models.SuggestCompare, Text: "Compare the top products"}, true
	case models.ActionResearch:
		return models.Suggestion{Action: models.SuggestSpecs, Text: "See detailed specifications"}, true
	case models.ActionRecommend:
		return models.Suggestion{Action: models.SuggestRecommend, Text: "Get a final recommendation"}, true
	}
	return models.Suggestion{}, false
}

// DefaultSuggestions are offered once the plan is exhausted.
func DefaultSuggestions(productCount int) []models.Suggestion {
	var out []models.Suggestion
	if productCount > 1 {
		out = append(out, models.Suggestion{Action: models.SuggestCompare, Text: "Compare the top products"})
	}
	if productCount > 0 {
		out = append(out,
			models.Suggestion{Action: models.SuggestReviews, Text: "Read what reviewers say about the top product"},
			models.Suggestion{Action: models.SuggestSpecs, Text: "See detailed specifications"},
		)
	}
	return out
}
