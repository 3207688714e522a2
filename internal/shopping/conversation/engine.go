// internal/shopping/conversation/engine.go
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shopping-assistant/internal/collaborators/search"
	apperrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/common/observability"
	"shopping-assistant/internal/models"
	"shopping-assistant/internal/shopping/filter"
	"shopping-assistant/internal/shopping/parser"
	"shopping-assistant/internal/shopping/ranking"
	"shopping-assistant/internal/shopping/research"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	maxCompared  = 3
	maxReference = 99
)

var tracer = otel.Tracer("shopping-assistant/conversation")

// Searcher runs one search interaction and never fails: problems come back as no records.
type Searcher interface {
	Find(ctx context.Context, term string, filters search.Filters, maxCount int) []models.ProductRecord
}

// Inference is the part of the degrading inference service the engine calls directly.
type Inference interface {
	CreatePlan(ctx context.Context, utterance string, prefs *models.Preferences) []models.PlanStep
	CompareProducts(ctx context.Context, products []models.ScoredProduct) models.Comparison
}

type Config struct {
	MaxResults       int
	CheaperStepRatio float64
	CheaperStepCap   float64
}

type Dependencies struct {
	Parser        parser.QueryParser
	Patterns      *parser.Parser
	Searcher      Searcher
	Inference     Inference
	Ranker        *ranking.Ranker
	Coordinator   *research.Coordinator
	Observability *observability.Observability
}

// Engine is the conversation state machine. It holds no session state of its own; every
// call works on the ConversationState it is given, which the caller must not share.
type Engine struct {
	deps   Dependencies
	config Config
	logger logger.Logger
}

func NewEngine(deps Dependencies, config Config, log logger.Logger) *Engine {
	if config.MaxResults <= 0 {
		config.MaxResults = 10
	}
	if config.CheaperStepRatio <= 0 {
		config.CheaperStepRatio = 0.2
	}
	if config.CheaperStepCap <= 0 {
		config.CheaperStepCap = 100
	}
	if deps.Patterns == nil {
		deps.Patterns = parser.New(log)
	}
	if deps.Parser == nil {
		deps.Parser = deps.Patterns
	}
	return &Engine{
		deps:   deps,
		config: config,
		logger: log.WithFields(map[string]interface{}{"component": "conversation"}),
	}
}

// HandleUtterance resolves one user turn against state. It always returns a response and
// always appends exactly one user and one assistant message to the history.
func (e *Engine) HandleUtterance(ctx context.Context, state *models.ConversationState, text string) (resp *models.Response) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "conversation.handle_utterance")
	defer span.End()

	state.EnsureMaps()
	text = strings.TrimSpace(text)
	prior := len(state.History)
	state.AppendMessage(models.RoleUser, text)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("utterance handling failed", map[string]interface{}{
				"sessionId": state.SessionID,
				"error":     fmt.Sprint(r),
			})
			resp = &models.Response{Intent: models.IntentSearch, Message: failureMessage}
		}

		resp.SessionID = state.SessionID
		resp.Phase = state.Phase()
		if resp.Products == nil {
			resp.Products = []models.ScoredProduct{}
		}
		if resp.Suggestions == nil {
			resp.Suggestions = []models.Suggestion{}
		}
		state.AppendMessage(models.RoleAssistant, resp.Message)

		elapsed := time.Since(start)
		intent := string(resp.Intent)
		metrics.UtterancesHandled.WithLabelValues(intent).Inc()
		metrics.UtteranceDuration.WithLabelValues(intent).Observe(elapsed.Seconds())
		if e.deps.Observability != nil {
			e.deps.Observability.RecordUtterance(ctx, intent, elapsed)
		}
		span.SetAttributes(
			attribute.String("session.id", state.SessionID),
			attribute.String("intent", intent),
			attribute.Int("products", len(resp.Products)),
		)
		e.logger.Info("utterance handled", map[string]interface{}{
			"sessionId":  state.SessionID,
			"intent":     intent,
			"products":   len(resp.Products),
			"noResults":  resp.NoResults,
			"durationMs": elapsed.Milliseconds(),
		})
	}()

	return e.dispatch(ctx, state, text, prior)
}

func (e *Engine) dispatch(ctx context.Context, state *models.ConversationState, text string, prior int) *models.Response {
	if text == "" {
		return &models.Response{Intent: models.IntentSearch, Message: emptyMessage}
	}

	n := len(state.ActiveProducts)
	if n > 0 {
		switch {
		case compareRe.MatchString(text):
			return e.compare(ctx, state, productRefs(text, n, true))
		case reviewsRe.MatchString(text) && !betterRatedRe.MatchString(text):
			index, ok := targetRef(text, n)
			if !ok {
				return outOfRange(models.IntentReviews, index, n)
			}
			return e.reviews(ctx, state, index)
		case researchRe.MatchString(text):
			index, ok := targetRef(text, n)
			if !ok {
				return outOfRange(models.IntentResearch, index, n)
			}
			return e.details(ctx, state, index)
		}
	}

	if state.ActiveQuery != nil && prior >= 2 {
		refs := productRefs(text, n, false)
		if !hasRefinementSignal(text) {
			if len(refs) > 0 {
				return e.focus(state, refs[0])
			}
			if index, ok := targetRef(text, n); !ok && n > 0 {
				return outOfRange(models.IntentFocus, index, n)
			}
		}

		explicit := e.deps.Patterns.ParseText(text)
		if isFollowUp(text, refs, state.ActiveQuery.ProductType, explicit.ProductType) {
			q := refine(*state.ActiveQuery, text, explicit, e.config)
			return e.search(ctx, state, q, models.IntentRefine, true)
		}
	}

	return e.fresh(ctx, state, text)
}

// fresh parses text as a new request and replaces the session plan.
func (e *Engine) fresh(ctx context.Context, state *models.ConversationState, text string) *models.Response {
	q := e.deps.Parser.Parse(ctx, text)
	state.Plan = e.deps.Inference.CreatePlan(ctx, text, &state.Preferences)
	state.PlanCursor = 0
	return e.search(ctx, state, q, models.IntentSearch, false)
}

func (e *Engine) search(ctx context.Context, state *models.ConversationState, q models.Query, intent models.Intent, followUp bool) *models.Response {
	term := SearchTerm(q)
	records := e.deps.Searcher.Find(ctx, term, search.FiltersFor(q), e.config.MaxResults)

	stored := q.Clone()
	state.ActiveQuery = &stored
	resp := &models.Response{Intent: intent, Query: &stored}

	if len(records) == 0 {
		state.ActiveProducts = []models.ScoredProduct{}
		e.logger.Info("search returned no products", map[string]interface{}{
			"sessionId": state.SessionID,
			"error":     apperrors.NewNoResultsError(term),
		})
		resp.NoResults = true
		resp.Message = NoResultsMessage
		return resp
	}

	filtered := filter.Apply(records, q)
	for _, g := range filtered.Guards {
		metrics.FilterGuards.WithLabelValues(g.Criterion, g.Action).Inc()
		e.logger.Warn("post-filter guard triggered", map[string]interface{}{
			"sessionId": state.SessionID,
			"criterion": g.Criterion,
			"action":    g.Action,
			"error":     apperrors.NewFilterEliminationGuardError(g.Criterion, len(records)),
		})
	}

	state.ActiveProducts = e.deps.Ranker.Rank(filtered.Records, q)
	outcome := e.deps.Coordinator.Advance(ctx, state, q)

	suggestions := refinementSuggestions(q)
	for _, s := range outcome.Suggestions {
		suggestions = models.AppendSuggestion(suggestions, s)
	}

	resp.Products = append([]models.ScoredProduct(nil), state.ActiveProducts...)
	resp.Guards = filtered.Guards
	resp.Suggestions = suggestions
	if outcome.Researched {
		resp.Research = state.ActiveProducts[0].Research
	}
	resp.Message = searchMessage(q, resp.Products, followUp, filtered.Guards, suggestions)
	return resp
}

// compare researches the chosen products through the cache and asks for a comparison.
// Two or more referenced indices pick the products, otherwise the top three are used.
func (e *Engine) compare(ctx context.Context, state *models.ConversationState, refs []int) *models.Response {
	var targets []models.ScoredProduct
	if len(refs) >= 2 {
		for _, idx := range refs {
			if p, ok := state.Product(idx); ok {
				targets = append(targets, p)
			}
		}
	} else {
		targets = append(targets, state.ActiveProducts...)
	}
	if len(targets) > maxCompared {
		targets = targets[:maxCompared]
	}

	if len(targets) >= 2 {
		for i := range targets {
			rec, _ := e.deps.Coordinator.Research(ctx, state, targets[i])
			targets[i].Research = &rec
		}
	}
	cmp := e.deps.Inference.CompareProducts(ctx, targets)

	suggestions := []models.Suggestion{
		{Action: models.SuggestReviews, Text: "Read what reviewers say about the top product"},
		{Action: models.SuggestSpecs, Text: "See detailed specifications"},
	}
	return &models.Response{
		Intent:      models.IntentCompare,
		Message:     comparisonMessage(targets, cmp) + suggestionText(suggestions),
		Products:    targets,
		Comparison:  &cmp,
		Suggestions: suggestions,
	}
}

func (e *Engine) reviews(ctx context.Context, state *models.ConversationState, index int) *models.Response {
	p, _ := state.Product(index)
	rec, _ := e.deps.Coordinator.Research(ctx, state, p)
	p.Research = &rec

	suggestions := followOnSuggestions(len(state.ActiveProducts), models.SuggestReviews)
	return &models.Response{
		Intent:      models.IntentReviews,
		Message:     reviewsMessage(p, rec) + suggestionText(suggestions),
		Products:    []models.ScoredProduct{p},
		Research:    &rec,
		Suggestions: suggestions,
	}
}

func (e *Engine) details(ctx context.Context, state *models.ConversationState, index int) *models.Response {
	p, _ := state.Product(index)
	rec, _ := e.deps.Coordinator.Research(ctx, state, p)
	p.Research = &rec

	suggestions := followOnSuggestions(len(state.ActiveProducts), models.SuggestSpecs)
	return &models.Response{
		Intent:      models.IntentResearch,
		Message:     detailsMessage(p, rec) + suggestionText(suggestions),
		Products:    []models.ScoredProduct{p},
		Research:    &rec,
		Suggestions: suggestions,
	}
}

// focus narrows to one product without searching and learns preferences from it.
func (e *Engine) focus(state *models.ConversationState, index int) *models.Response {
	p, _ := state.Product(index)
	state.LearnFrom(p)

	suggestions := followOnSuggestions(len(state.ActiveProducts), "")
	return &models.Response{
		Intent:      models.IntentFocus,
		Message:     focusMessage(index, p, suggestions),
		Products:    []models.ScoredProduct{p},
		Suggestions: suggestions,
	}
}

// followOnSuggestions offers reviews, specs and compare, minus the action just taken.
func followOnSuggestions(productCount int, done models.SuggestionAction) []models.Suggestion {
	var out []models.Suggestion
	for _, s := range research.DefaultSuggestions(productCount) {
		if s.Action != done {
			out = append(out, s)
		}
	}
	return out
}

func suggestionText(suggestions []models.Suggestion) string {
	var b strings.Builder
	writeSuggestions(&b, suggestions)
	return b.String()
}

// targetRef picks the product a command is about: the first in-range reference, or the top
// product when none is given. ok is false when the only references are out of range, in which
// case index is the first of them.
func targetRef(text string, count int) (index int, ok bool) {
	if refs := productRefs(text, count, false); len(refs) > 0 {
		return refs[0], true
	}
	if refs := productRefs(text, maxReference, false); len(refs) > 0 {
		return refs[0], false
	}
	return 1, true
}

func outOfRange(intent models.Intent, index, count int) *models.Response {
	return &models.Response{Intent: intent, Message: outOfRangeMessage(index, count)}
}
