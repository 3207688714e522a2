// internal/shopping/parser/ai.go
package parser

import (
	"context"
	"strings"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/models"
)

// QueryExtractor is the slice of the inference collaborator the AI parser needs.
type QueryExtractor interface {
	ParseQuery(ctx context.Context, utterance string) (models.Query, error)
}

// AIParser asks the inference collaborator for the structured query and falls back
// to the pattern parser on any failure, so both share the same contract.
type AIParser struct {
	extractor QueryExtractor
	fallback  *Parser
	logger    logger.Logger
}

func NewAIParser(extractor QueryExtractor, fallback *Parser, log logger.Logger) *AIParser {
	return &AIParser{
		extractor: extractor,
		fallback:  fallback,
		logger:    log.WithFields(map[string]interface{}{"component": "ai-query-parser"}),
	}
}

func (p *AIParser) Parse(ctx context.Context, utterance string) models.Query {
	if strings.TrimSpace(utterance) == "" {
		return p.fallback.ParseText(utterance)
	}

	q, err := p.extractor.ParseQuery(ctx, utterance)
	if err != nil {
		p.logger.Warn("ai query parsing failed, using pattern parser", map[string]interface{}{
			"error": err,
		})
		return p.fallback.ParseText(utterance)
	}
	return normalize(q)
}

// normalize re-applies the model invariants to a query that did not come through the setters.
func normalize(in models.Query) models.Query {
	out := models.Query{
		ProductType:   strings.TrimSpace(in.ProductType),
		PrimeShipping: in.PrimeShipping,
		Keywords:      []string{},
		ExcludedTerms: []string{},
		Material:      strings.ToLower(strings.TrimSpace(in.Material)),
	}
	out.SetPriceRange(in.PriceRange.Min, in.PriceRange.Max)

	switch {
	case in.ExactRatingMin != nil:
		out.SetExactRating(*in.ExactRatingMin)
	case in.RatingMin != nil && *in.RatingMin >= 1:
		out.SetRatingMin(*in.RatingMin)
	}

	if origin := strings.TrimSpace(in.OriginCountry); origin != "" {
		out.OriginCountry = strings.ToUpper(origin[:1]) + strings.ToLower(origin[1:])
		out.AddKeyword(out.OriginCountry)
	}
	for _, kw := range in.Keywords {
		out.AddKeyword(kw)
	}
	for _, term := range in.ExcludedTerms {
		out.AddExcluded(term)
	}
	return out
}
