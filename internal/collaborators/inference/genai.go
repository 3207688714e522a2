// internal/collaborators/inference/genai.go
package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "shopping-assistant/internal/common/errors"
	commonhttp "shopping-assistant/internal/common/http"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/validation"
	"shopping-assistant/internal/models"
)

const (
	maxPlanSteps     = 5
	maxCompared      = 3
	comparedTitleLen = 50
)

// Client is the natural-language inference collaborator. Every call is a prompt
// exchange whose JSON answer is schema-checked before it is decoded.
type Client interface {
	CreatePlan(ctx context.Context, utterance string, prefs *models.Preferences) ([]models.PlanStep, error)
	AnalyzeReviews(ctx context.Context, text string) (models.ReviewSentiment, error)
	CompareProducts(ctx context.Context, products []models.ScoredProduct) (models.Comparison, error)
	DeepResearch(ctx context.Context, product models.ScoredProduct) (models.ResearchRecord, error)
	ParseQuery(ctx context.Context, utterance string) (models.Query, error)
}

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float64
}

// GenAI talks to the generation endpoint at {BaseURL}/api/ai/generate.
type GenAI struct {
	config    Config
	http      *commonhttp.Client
	validator *validation.Validator
	logger    logger.Logger
}

func NewGenAI(config Config, log logger.Logger) *GenAI {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 1024
	}
	auth := ""
	if config.APIKey != "" {
		auth = "Bearer " + config.APIKey
	}
	return &GenAI{
		config: config,
		http: commonhttp.NewClient(config.Timeout,
			commonhttp.WithMaxRetries(config.MaxRetries),
			commonhttp.WithHeader("Authorization", auth),
		),
		validator: NewPayloadValidator(),
		logger:    log.WithFields(map[string]interface{}{"collaborator": "inference"}),
	}
}

type generateRequest struct {
	Model       string                 `json:"model,omitempty"`
	Prompt      string                 `json:"prompt"`
	Context     map[string]interface{} `json:"context,omitempty"`
	MaxTokens   int                    `json:"max_tokens"`
	Temperature float64                `json:"temperature"`
}

type generateResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func (g *GenAI) CreatePlan(ctx context.Context, utterance string, prefs *models.Preferences) ([]models.PlanStep, error) {
	var reqContext map[string]interface{}
	prefText := "none"
	if prefs != nil {
		reqContext = map[string]interface{}{"preferences": prefs}
		if data, err := json.Marshal(prefs); err == nil {
			prefText = string(data)
		}
	}

	prompt := strings.Join([]string{
		"You are a shopping research planner. Create a short, ordered plan for this request.",
		fmt.Sprintf("Request: %s", utterance),
		fmt.Sprintf("Known user preferences: %s", prefText),
		"Available actions: search, filter, analyze_reviews, compare, research, recommend.",
		fmt.Sprintf("Use at most %d steps. Respond with JSON only:", maxPlanSteps),
		`{"steps": [{"action": "search", "parameters": {"query": "..."}, "reasoning": "..."}]}`,
	}, "\n")

	var out struct {
		Steps []models.PlanStep `json:"steps"`
	}
	if err := g.generate(ctx, "create_plan", prompt, reqContext, schemaPlan, &out); err != nil {
		return nil, err
	}

	steps := make([]models.PlanStep, 0, len(out.Steps))
	for _, s := range out.Steps {
		if _, err := models.ParsePlanAction(string(s.Action)); err != nil {
			return nil, apperrors.NewInferencePayloadInvalidError("create_plan", err.Error())
		}
		steps = append(steps, s)
		if len(steps) == maxPlanSteps {
			break
		}
	}
	return steps, nil
}

func (g *GenAI) AnalyzeReviews(ctx context.Context, text string) (models.ReviewSentiment, error) {
	if strings.TrimSpace(text) == "" {
		return models.UnknownSentiment(), nil
	}

	prompt := strings.Join([]string{
		"Analyze these product reviews.",
		text,
		"Respond with JSON only:",
		`{"sentiment": "positive|negative|mixed", "strengths": ["..."], "concerns": ["..."]}`,
	}, "\n")

	var out models.ReviewSentiment
	if err := g.generate(ctx, "analyze_reviews", prompt, nil, schemaReviews, &out); err != nil {
		return models.ReviewSentiment{}, err
	}
	return out, nil
}

func (g *GenAI) CompareProducts(ctx context.Context, products []models.ScoredProduct) (models.Comparison, error) {
	if len(products) < 2 {
		return models.Comparison{}, apperrors.NewInvalidInputError("need at least 2 products")
	}
	if len(products) > maxCompared {
		products = products[:maxCompared]
	}

	lines := []string{"Compare these products and pick the best overall and the best value."}
	for i, p := range products {
		lines = append(lines, fmt.Sprintf("%d. %s | price: %s | rating: %s | reviews: %d | prime: %t",
			i+1, truncate(p.Title, comparedTitleLen), p.PriceDisplay, p.RatingDisplay, p.ReviewCount, p.HasPrime))
		if p.Research != nil && len(p.Research.ProsCons.Pros) > 0 {
			lines = append(lines, "   pros: "+strings.Join(p.Research.ProsCons.Pros, "; "))
		}
	}
	lines = append(lines,
		"Respond with JSON only:",
		`{"bestOverall": "...", "bestValue": "...", "summary": "..."}`,
	)

	var out models.Comparison
	if err := g.generate(ctx, "compare_products", strings.Join(lines, "\n"), nil, schemaComparison, &out); err != nil {
		return models.Comparison{}, err
	}
	return out, nil
}

func (g *GenAI) DeepResearch(ctx context.Context, product models.ScoredProduct) (models.ResearchRecord, error) {
	prompt := strings.Join([]string{
		"Research this product in depth: specifications, a short description, review analysis and pros/cons.",
		fmt.Sprintf("Title: %s", product.Title),
		fmt.Sprintf("Price: %s", product.PriceDisplay),
		fmt.Sprintf("Rating: %s (%d reviews)", product.RatingDisplay, product.ReviewCount),
		fmt.Sprintf("Link: %s", product.Link),
		"Respond with JSON only, using these keys:",
		`{"specifications": {"name": "value"}, "description": "...", "reviewAnalysis": {"sentiment": "...", ` +
			`"strengths": [], "concerns": [], "longevity": "...", "commonThemes": [], "verifiedPurchaseCount": 0}, ` +
			`"prosCons": {"pros": [], "cons": []}, "reviewExcerpts": []}`,
	}, "\n")

	var out models.ResearchRecord
	if err := g.generate(ctx, "deep_research", prompt, nil, schemaResearch, &out); err != nil {
		return models.ResearchRecord{}, err
	}
	fillResearch(&out)
	return out, nil
}

func (g *GenAI) ParseQuery(ctx context.Context, utterance string) (models.Query, error) {
	prompt := strings.Join([]string{
		"Extract a structured shopping query from this request.",
		fmt.Sprintf("Request: %s", utterance),
		"Respond with JSON only. Use null for unknown values:",
		`{"productType": "...", "priceRange": {"min": null, "max": null}, "ratingMin": null, "exactRatingMin": null, ` +
			`"primeShipping": false, "keywords": [], "excludedTerms": [], "material": null, "originCountry": null}`,
	}, "\n")

	var out models.Query
	if err := g.generate(ctx, "parse_query", prompt, nil, schemaQuery, &out); err != nil {
		return models.Query{}, err
	}
	return out, nil
}

// generate sends one prompt, then extracts, validates and decodes the JSON answer into out.
func (g *GenAI) generate(ctx context.Context, operation, prompt string, reqContext map[string]interface{}, schema string, out interface{}) error {
	start := time.Now()
	req := generateRequest{
		Model:       g.config.Model,
		Prompt:      prompt,
		Context:     reqContext,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	var resp generateResponse
	if err := g.http.DoJSON(ctx, http.MethodPost, strings.TrimRight(g.config.BaseURL, "/")+"/api/ai/generate", req, &resp); err != nil {
		if errors.Is(err, commonhttp.ErrTimeout) || ctx.Err() == context.DeadlineExceeded {
			return apperrors.NewInferenceTimeoutError(operation)
		}
		return apperrors.NewInferenceFailedError(operation, err)
	}

	raw, ok := extractJSON(resp.Text)
	if !ok {
		return apperrors.NewInferencePayloadInvalidError(operation, "no JSON object in response")
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return apperrors.NewInferencePayloadInvalidError(operation, err.Error())
	}
	result, err := g.validator.Validate(schema, doc)
	if err != nil {
		return apperrors.NewInferenceFailedError(operation, err)
	}
	if !result.Valid {
		return apperrors.NewInferencePayloadInvalidError(operation, result.Summary())
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return apperrors.NewInferencePayloadInvalidError(operation, err.Error())
	}

	g.logger.Debug("inference call completed", map[string]interface{}{
		"operation":  operation,
		"durationMs": time.Since(start).Milliseconds(),
		"confidence": resp.Confidence,
	})
	return nil
}

// extractJSON strips markdown fences and returns the outermost {...} block.
func extractJSON(text string) (string, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func fillResearch(r *models.ResearchRecord) {
	if r.Specifications == nil {
		r.Specifications = map[string]string{}
	}
	ra := &r.ReviewAnalysis
	if ra.Sentiment == "" {
		ra.Sentiment = models.SentimentUnknown
	}
	if ra.Longevity == "" {
		ra.Longevity = models.SentimentUnknown
	}
	if ra.Strengths == nil {
		ra.Strengths = []string{}
	}
	if ra.Concerns == nil {
		ra.Concerns = []string{}
	}
	if ra.CommonThemes == nil {
		ra.CommonThemes = []string{}
	}
	if r.ProsCons.Pros == nil {
		r.ProsCons.Pros = []string{}
	}
	if r.ProsCons.Cons == nil {
		r.ProsCons.Cons = []string{}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
