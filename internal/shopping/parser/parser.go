// internal/shopping/parser/parser.go
package parser

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	apperrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/models"
)

// QueryParser turns an utterance into a structured query. Implementations never fail:
// anything they cannot extract is left at its default.
type QueryParser interface {
	Parse(ctx context.Context, utterance string) models.Query
}

// Parser is the pattern-matching implementation. It is deterministic and side-effect free.
type Parser struct {
	logger logger.Logger
}

func New(log logger.Logger) *Parser {
	return &Parser{logger: log.WithFields(map[string]interface{}{"component": "query-parser"})}
}

func (p *Parser) Parse(_ context.Context, utterance string) models.Query {
	return p.ParseText(utterance)
}

// ParseText parses utterance, degrading to models.MinimalQuery if extraction panics.
func (p *Parser) ParseText(utterance string) (q models.Query) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("query parsing degraded", map[string]interface{}{
				"error": apperrors.NewQueryParseDegradedError(utterance, r),
			})
			q = models.MinimalQuery(utterance)
		}
	}()

	text := strings.TrimSpace(utterance)
	q = models.Query{Keywords: []string{}, ExcludedTerms: []string{}}
	if text == "" {
		return q
	}

	q.ProductType = productType(text)
	applyPrices(&q, text)
	applyRating(&q, text)
	q.PrimeShipping = shippingRe.MatchString(text)
	applyOriginAndMaterial(&q, text)
	applyExclusions(&q, text)
	applyKeywords(&q, text)

	p.logger.Debug("query parsed", map[string]interface{}{
		"productType": q.ProductType,
		"keywords":    q.Keywords,
		"excluded":    q.ExcludedTerms,
	})
	return q
}

// productType returns the head noun phrase before the first boundary word, fillers removed.
func productType(text string) string {
	tokens := strings.Fields(text)
	i := 0
	for i < len(tokens) {
		if i+1 < len(tokens) && containsString(multiFillers, lowerWord(tokens[i])+" "+lowerWord(tokens[i+1])) {
			i += 2
			continue
		}
		if singleFillers[lowerWord(tokens[i])] {
			i++
			continue
		}
		break
	}

	var head []string
	for j := i; j < len(tokens); j++ {
		w := lowerWord(tokens[j])
		if boundaryWords[w] || strings.HasPrefix(tokens[j], "$") {
			break
		}
		if j+1 < len(tokens) && boundaryPairs[w+" "+lowerWord(tokens[j+1])] {
			break
		}
		head = append(head, strings.Trim(tokens[j], ",.;!?"))
		if strings.ContainsAny(tokens[j], ",.;!?") {
			break
		}
	}
	return strings.TrimSpace(strings.Join(head, " "))
}

// applyPrices runs max, min and range patterns in that order. Within a pattern the last match wins,
// and the range pattern overwrites both bounds.
func applyPrices(q *models.Query, text string) {
	lo, hi := q.PriceRange.Min, q.PriceRange.Max

	if v, ok := lastPrice(maxPriceRe, text); ok {
		hi = &v
	}
	if v, ok := lastPrice(minPriceRe, text); ok {
		lo = &v
	}
	for _, m := range rangeRe.FindAllStringSubmatch(text, -1) {
		if strings.TrimSpace(m[3]) != "" {
			continue
		}
		from, err1 := parseAmount(m[1])
		to, err2 := parseAmount(m[2])
		if err1 != nil || err2 != nil {
			continue
		}
		lo, hi = &from, &to
	}

	q.SetPriceRange(lo, hi)
}

func lastPrice(re *regexp.Regexp, text string) (float64, bool) {
	var (
		value float64
		found bool
	)
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if m[4] >= 0 && strings.TrimSpace(text[m[4]:m[5]]) != "" {
			continue
		}
		if ratingLeadRe.MatchString(text[:m[0]]) {
			continue
		}
		v, err := parseAmount(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		value, found = v, true
	}
	return value, found
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return v, nil
}

// applyRating prefers a rating keyword match and falls back to "N stars".
// A decimal value is an exact threshold, an integer only a whole-star minimum.
func applyRating(q *models.Query, text string) {
	raw := ""
	if m := ratingKeywordRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else if m := ratingStarsRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	}
	if raw == "" {
		return
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v > 5 {
		return
	}
	if strings.Contains(raw, ".") {
		q.SetExactRating(v)
		return
	}
	if v >= 1 {
		q.SetRatingMin(int(math.Floor(v)))
	}
}

func applyOriginAndMaterial(q *models.Query, text string) {
	for _, m := range originRe.FindAllStringSubmatch(text, -1) {
		word := strings.ToLower(m[1])
		if stopWords[word] {
			continue
		}
		q.OriginCountry = strings.ToUpper(word[:1]) + word[1:]
		q.AddKeyword(q.OriginCountry)
		break
	}

	for _, m := range materialRe.FindAllStringSubmatch(text, -1) {
		word := strings.ToLower(m[1])
		if stopWords[word] || word == "made" {
			continue
		}
		q.Material = word
		return
	}
	for _, m := range madeOfRe.FindAllStringSubmatch(text, -1) {
		word := strings.ToLower(m[1])
		if stopWords[word] {
			continue
		}
		q.Material = word
		return
	}
}

func applyExclusions(q *models.Query, text string) {
	for _, m := range exclusionRe.FindAllStringSubmatch(text, -1) {
		phrase := strings.ToLower(strings.TrimSpace(m[1]))
		if phrase == "" || strings.HasPrefix(phrase, "more") || strings.HasPrefix(phrase, "less") {
			continue
		}
		for _, part := range listSplitRe.Split(phrase, -1) {
			q.AddExcluded(strings.Trim(part, " -"))
		}
	}
}

func applyKeywords(q *models.Query, text string) {
	for _, loc := range keywordTrigRe.FindAllStringIndex(text, -1) {
		clause := text[loc[1]:]
		if stop := clauseStopRe.FindStringIndex(clause); stop != nil {
			clause = clause[:stop[0]]
		}
		if strings.Contains(clause, "$") {
			continue
		}
		clause = trailConjRe.ReplaceAllString(strings.TrimSpace(clause), "")
		for _, part := range listSplitRe.Split(clause, -1) {
			kw := strings.Trim(strings.TrimSpace(part), ",.;!?")
			kw = articleRe.ReplaceAllString(kw, "")
			if kw == "" || !isKeyword(kw) {
				continue
			}
			q.AddKeyword(kw)
		}
	}
}

func isKeyword(kw string) bool {
	lower := strings.ToLower(kw)
	for _, neg := range []string{"no ", "not ", "without "} {
		if strings.HasPrefix(lower, neg) {
			return false
		}
	}
	if starsRe.MatchString(lower) || shippingRe.MatchString(lower) {
		return false
	}
	return !stopWords[lower]
}

func lowerWord(s string) string {
	return strings.ToLower(strings.Trim(s, ",.;!?"))
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
